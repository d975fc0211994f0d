package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sarpt/crt-jukebox/internal/rest"
	"github.com/sarpt/crt-jukebox/internal/sse"
	"github.com/sarpt/crt-jukebox/pkg/media"
)

const (
	blobPath    = media.BlobsPath + "{id}"
	metricsPath = "/metrics"
)

// Handler returns the main handler routing to REST, SSE, blobs and metrics.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(metricsMiddleware)

	router.PathPrefix(rest.PathBase).Handler(s.restServer.Handler())
	router.PathPrefix(sse.PathBase).Handler(s.sseServer.Handler())
	router.HandleFunc(blobPath, s.getBlobHandler).Methods(http.MethodGet, http.MethodHead)
	router.Handle(metricsPath, promhttp.Handler()).Methods(http.MethodGet)

	return router
}
