package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/pkg/jukebox"
)

const (
	crtArg        = "crt"
	fullscreenArg = "fullscreen"
	keyArg        = "key"
	pageArg       = "page"
	rotateArg     = "rotate"
	selectArg     = "select"
	syncArg       = "sync"
)

var (
	errIncorrectDirection = errors.New("direction has to be either -1 or 1")
	errUnknownKey         = errors.New("key has no action bound")
)

var (
	rotateKeys = map[int]jukebox.Key{
		-1: jukebox.ArrowLeftKey,
		1:  jukebox.ArrowRightKey,
	}

	pageKeys = map[int]jukebox.Key{
		-1: jukebox.ArrowUpKey,
		1:  jukebox.ArrowDownKey,
	}
)

func (s *Server) getJukeboxHandler(res http.ResponseWriter, req *http.Request) {
	writeRevisioned(res, req, s.jukeboxRevision(), s.jukebox.Snapshot())
}

func (s *Server) jukeboxPayload() interface{} {
	return s.jukebox.Snapshot()
}

// jukeboxRevision changes whenever any of the storages rendered by the jukebox changes.
func (s *Server) jukeboxRevision() uint64 {
	return s.statesRepository.Playlist().Revision() +
		s.statesRepository.Pool().Revision() +
		s.statesRepository.Shell().Revision()
}

func (s *Server) selectHandler(res http.ResponseWriter, req *http.Request) error {
	idx, err := strconv.Atoi(req.PostFormValue(selectArg))
	if err != nil {
		return err
	}

	s.outLog.Printf("selecting item %d due to request from %s\n", idx, req.RemoteAddr)
	s.jukebox.Click(idx)

	return nil
}

func (s *Server) rotateHandler(res http.ResponseWriter, req *http.Request) error {
	dir, err := parseDirection(req.PostFormValue(rotateArg))
	if err != nil {
		return err
	}

	s.outLog.Printf("rotating selection by %d due to request from %s\n", dir, req.RemoteAddr)
	s.jukebox.HandleKey(rotateKeys[dir])

	return nil
}

func (s *Server) pageHandler(res http.ResponseWriter, req *http.Request) error {
	dir, err := parseDirection(req.PostFormValue(pageArg))
	if err != nil {
		return err
	}

	s.outLog.Printf("paging filmstrip by %d due to request from %s\n", dir, req.RemoteAddr)
	s.jukebox.HandleKey(pageKeys[dir])

	return nil
}

func (s *Server) keyHandler(res http.ResponseWriter, req *http.Request) error {
	key := jukebox.Key(req.PostFormValue(keyArg))

	handled := s.jukebox.HandleKey(key)
	s.outLog.Printf("key '%s' pressed by %s, handled: %t\n", key, req.RemoteAddr, handled)

	return nil
}

func (s *Server) syncHandler(res http.ResponseWriter, req *http.Request) error {
	sync, err := strconv.ParseBool(req.PostFormValue(syncArg))
	if err != nil {
		return err
	}

	if !sync {
		return nil
	}

	s.outLog.Printf("restarting all items due to request from %s\n", req.RemoteAddr)
	s.jukebox.Sync()

	return nil
}

func (s *Server) crtHandler(res http.ResponseWriter, req *http.Request) error {
	toggle, err := strconv.ParseBool(req.PostFormValue(crtArg))
	if err != nil {
		return err
	}

	if !toggle {
		return nil
	}

	s.outLog.Printf("toggling crt effect due to request from %s\n", req.RemoteAddr)
	s.jukebox.ToggleCRT()

	return nil
}

func (s *Server) fullscreenHandler(res http.ResponseWriter, req *http.Request) error {
	toggle, err := strconv.ParseBool(req.PostFormValue(fullscreenArg))
	if err != nil {
		return err
	}

	if !toggle {
		return nil
	}

	s.outLog.Printf("toggling fullscreen due to request from %s\n", req.RemoteAddr)
	s.jukebox.ToggleFullscreen()

	return nil
}

func (s *Server) postJukeboxFormArguments() common.FormArguments {
	return common.FormArguments{
		{
			Name: selectArg,
			Validate: func(req *http.Request) error {
				_, err := strconv.Atoi(req.PostFormValue(selectArg))
				return err
			},
			Handle: s.selectHandler,
		},
		{
			Name: rotateArg,
			Validate: func(req *http.Request) error {
				_, err := parseDirection(req.PostFormValue(rotateArg))
				return err
			},
			Handle: s.rotateHandler,
		},
		{
			Name: pageArg,
			Validate: func(req *http.Request) error {
				_, err := parseDirection(req.PostFormValue(pageArg))
				return err
			},
			Handle: s.pageHandler,
		},
		{
			Name: keyArg,
			Validate: func(req *http.Request) error {
				key := jukebox.Key(req.PostFormValue(keyArg))
				if !jukebox.IsKnown(key) {
					return fmt.Errorf("%w: '%s'", errUnknownKey, key)
				}

				return nil
			},
			Handle: s.keyHandler,
		},
		{
			Name:     syncArg,
			Validate: validateBool(syncArg),
			Handle:   s.syncHandler,
		},
		{
			Name:     crtArg,
			Validate: validateBool(crtArg),
			Handle:   s.crtHandler,
		},
		{
			Name:     fullscreenArg,
			Validate: validateBool(fullscreenArg),
			Handle:   s.fullscreenHandler,
		},
	}
}

func parseDirection(value string) (int, error) {
	dir, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	if dir != -1 && dir != 1 {
		return 0, fmt.Errorf("%w, got %d", errIncorrectDirection, dir)
	}

	return dir, nil
}

func validateBool(arg string) common.FormArgumentValidator {
	return func(req *http.Request) error {
		_, err := strconv.ParseBool(req.PostFormValue(arg))
		return err
	}
}
