package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/sarpt/crt-jukebox/pkg/media"
)

// getBlobHandler serves content of an uploaded file, supporting range requests issued by players.
func (s *Server) getBlobHandler(res http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	blob, err := s.blobs.ByID(id)
	if errors.Is(err, media.ErrBlobNotFound) {
		res.WriteHeader(http.StatusNotFound)

		return
	}

	file, err := os.Open(blob.Path)
	if err != nil {
		s.errLog.Printf("could not open blob %s: %s\n", id, err)
		res.WriteHeader(http.StatusNotFound)

		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		s.errLog.Printf("could not stat blob %s: %s\n", id, err)
		res.WriteHeader(http.StatusInternalServerError)

		return
	}

	http.ServeContent(res, req, blob.Name, info.ModTime(), file)
}
