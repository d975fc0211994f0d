package rest

import (
	"net/http"

	"github.com/sarpt/crt-jukebox/internal/common"
)

const (
	jukeboxPath = "/rest/jukebox"
	libraryPath = "/rest/library"
	loadPath    = "/rest/load"
	staticPath  = "/rest/static.png"
	uploadsPath = "/rest/uploads"
)

// Handler returns http.Handler responsible for REST handling subtree.
func (s *Server) Handler() http.Handler {
	jukeboxHandlers := common.MethodHandlers{
		http.MethodGet:  s.getJukeboxHandler,
		http.MethodPost: common.CreateFormHandler(s.postJukeboxFormArguments(), s.jukeboxPayload),
	}

	libraryHandlers := common.MethodHandlers{
		http.MethodGet: s.getLibraryHandler,
	}

	loadHandlers := common.MethodHandlers{
		http.MethodPost: s.postLoadHandler,
	}

	allHandlers := map[string]common.MethodHandlers{
		jukeboxPath: jukeboxHandlers,
		libraryPath: libraryHandlers,
		loadPath:    loadHandlers,
	}

	if s.frames != nil {
		allHandlers[staticPath] = common.MethodHandlers{
			http.MethodGet: s.getStaticHandler,
		}
	}

	if s.uploads != nil {
		allHandlers[uploadsPath] = common.MethodHandlers{
			http.MethodPost: s.postUploadsHandler,
		}
	}

	mux := http.NewServeMux()
	for path, methodHandlers := range allHandlers {
		cfg := common.PathHandlerConfig{
			AllowCORS:      s.allowCORS,
			MethodHandlers: methodHandlers,
		}
		mux.HandleFunc(path, common.PathHandler(cfg))
	}

	return mux
}
