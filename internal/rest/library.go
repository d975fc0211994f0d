package rest

import (
	"net/http"
)

func (s *Server) getLibraryHandler(res http.ResponseWriter, req *http.Request) {
	library := s.statesRepository.Library()

	writeRevisioned(res, req, library.Revision(), library.Snapshot())
}
