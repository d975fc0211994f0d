package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/pkg/jukebox"
	"github.com/sarpt/crt-jukebox/pkg/media"
)

const (
	pathArg = "path"
)

type loadPayload struct {
	Loaded int `json:"Loaded"`
}

// postLoadHandler replaces the playlist. Without path arguments the user is asked to pick files,
// otherwise the provided library entries are loaded.
// The pick waits for the user, as such the request stays open until the pick is finished or the client goes away.
func (s *Server) postLoadHandler(res http.ResponseWriter, req *http.Request) {
	responsePayload := common.FormResponse{
		HandlerErrors: common.HandlerErrors{
			ArgumentErrors: map[string]string{},
		},
	}

	err := req.ParseForm()
	if err != nil {
		responsePayload.GeneralError = fmt.Sprintf("could not parse form data: %s", err)
		common.WriteJSON(res, http.StatusBadRequest, responsePayload)

		return
	}

	paths := req.PostForm[pathArg]
	for _, path := range paths {
		_, err := s.statesRepository.Library().EntryByPath(path)
		if err != nil {
			responsePayload.ArgumentErrors[pathArg] = fmt.Sprintf("the %s argument is invalid: %s", pathArg, err)
			common.WriteJSON(res, http.StatusBadRequest, responsePayload)

			return
		}
	}

	var loaded int
	if len(paths) > 0 {
		s.outLog.Printf("loading %d library entries due to request from %s\n", len(paths), req.RemoteAddr)
		loaded, err = s.jukebox.LoadPaths(paths)
	} else {
		s.outLog.Printf("requesting files pick due to request from %s\n", req.RemoteAddr)
		loaded, err = s.jukebox.Load(req.Context())
	}

	if err != nil {
		s.errLog.Printf("load requested by %s failed: %s\n", req.RemoteAddr, err)
		responsePayload.GeneralError = err.Error()
		common.WriteJSON(res, loadErrorStatus(err), responsePayload)

		return
	}

	responsePayload.Payload = loadPayload{Loaded: loaded}
	common.WriteJSON(res, http.StatusOK, responsePayload)
}

func loadErrorStatus(err error) int {
	switch {
	case errors.Is(err, media.ErrPickInProgress):
		return http.StatusConflict
	case errors.Is(err, jukebox.ErrNothingToLoad):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
