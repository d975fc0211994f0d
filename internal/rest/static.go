package rest

import (
	"errors"
	"net/http"

	"github.com/sarpt/crt-jukebox/pkg/noise"
)

const (
	pngContentType = "image/png"
)

// getStaticHandler responds with the latest noise frame. No content is returned before the first frame is rendered.
func (s *Server) getStaticHandler(res http.ResponseWriter, req *http.Request) {
	frame, err := s.frames.Frame()
	if errors.Is(err, noise.ErrNoFrame) {
		res.WriteHeader(http.StatusNoContent)

		return
	}
	if err != nil {
		s.errLog.Printf("could not provide static frame for %s: %s\n", req.RemoteAddr, err)
		res.WriteHeader(http.StatusInternalServerError)

		return
	}

	res.Header().Set("Content-Type", pngContentType)
	res.Header().Set("Cache-Control", "no-store")
	res.WriteHeader(http.StatusOK)
	res.Write(frame)
}
