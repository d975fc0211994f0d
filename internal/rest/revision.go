package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/sarpt/crt-jukebox/internal/common"
)

const (
	revisionHeader = "Etag"
)

// writeRevisioned responds with payload and its revision, or with 304 when the client already has that revision.
func writeRevisioned(res http.ResponseWriter, req *http.Request, stateRevision uint64, payload interface{}) {
	setRevisionInResponse(stateRevision, res)
	if checkRevisionIsSame(stateRevision, req) {
		res.WriteHeader(http.StatusNotModified)

		return
	}

	common.WriteJSON(res, http.StatusOK, payload)
}

func checkRevisionIsSame(stateRevision uint64, req *http.Request) bool {
	if len(req.Header[revisionHeader]) != 1 {
		return false
	}

	providedRevision, err := strconv.ParseUint(req.Header[revisionHeader][0], 10, 64)
	return err == nil && providedRevision == stateRevision
}

func setRevisionInResponse(stateRevision uint64, res http.ResponseWriter) {
	res.Header().Add(revisionHeader, fmt.Sprintf("%d", stateRevision))
}
