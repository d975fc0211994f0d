package rest

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/pkg/media"
)

const (
	filesArg = "files"

	uploadsMaxMemory = 32 << 20
)

type uploadsPayload struct {
	Delivered int `json:"Delivered"`
}

// postUploadsHandler hands files of a multipart "files" field to the pending pick.
// A request without files cancels the pick.
// Response is sent after the pick consumed all of the files.
func (s *Server) postUploadsHandler(res http.ResponseWriter, req *http.Request) {
	responsePayload := common.FormResponse{}

	var uploads []*media.Upload
	err := req.ParseMultipartForm(uploadsMaxMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		responsePayload.GeneralError = fmt.Sprintf("could not parse multipart data: %s", err)
		common.WriteJSON(res, http.StatusBadRequest, responsePayload)

		return
	}

	if req.MultipartForm != nil {
		defer req.MultipartForm.RemoveAll()

		for _, header := range req.MultipartForm.File[filesArg] {
			uploads = append(uploads, newUpload(header))
		}
	}

	s.outLog.Printf("delivering %d uploaded files from %s\n", len(uploads), req.RemoteAddr)
	err = s.uploads.Deliver(req.Context(), uploads)
	if errors.Is(err, media.ErrNoPendingPick) {
		responsePayload.GeneralError = err.Error()
		common.WriteJSON(res, http.StatusConflict, responsePayload)

		return
	}
	if err != nil {
		s.errLog.Printf("delivery of uploads from %s failed: %s\n", req.RemoteAddr, err)
		responsePayload.GeneralError = err.Error()
		common.WriteJSON(res, http.StatusInternalServerError, responsePayload)

		return
	}

	responsePayload.Payload = uploadsPayload{Delivered: len(uploads)}
	common.WriteJSON(res, http.StatusOK, responsePayload)
}

func newUpload(header *multipart.FileHeader) *media.Upload {
	return media.NewUpload(header.Filename, header.Size, func() (io.ReadCloser, error) {
		return header.Open()
	})
}
