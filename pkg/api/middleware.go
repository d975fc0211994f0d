package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sarpt/crt-jukebox/internal/metrics"
)

// statusRecorder captures status code of the response, still letting sse handlers flush.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	flusher, ok := sr.ResponseWriter.(http.Flusher)
	if !ok {
		return
	}

	flusher.Flush()
}

// metricsMiddleware records requests by their route template, keeping cardinality of labels bounded.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{res, http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, req)

		route := routeTemplate(req)
		metrics.HTTPRequestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(recorder.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(req *http.Request) string {
	route := mux.CurrentRoute(req)
	if route == nil {
		return "unknown"
	}

	template, err := route.GetPathTemplate()
	if err != nil {
		return "unknown"
	}

	return template
}
