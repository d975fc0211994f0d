package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sarpt/crt-jukebox/internal/rest"
	"github.com/sarpt/crt-jukebox/internal/sse"
	"github.com/sarpt/crt-jukebox/pkg/jukebox"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/noise"
	"github.com/sarpt/crt-jukebox/pkg/state"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
)

const (
	logPrefix = "api.Server#"

	shutdownTimeout = 5 * time.Second
)

// Server is used to serve API and hold state accessible to the API.
type Server struct {
	address    string
	blobs      *media.BlobStore
	errLog     *log.Logger
	fsWatcher  *fsnotify.Watcher
	jukebox    *jukebox.Jukebox
	noise      *noise.Task
	outLog     *log.Logger
	repository state.Repository
	restServer *rest.Server
	sseServer  *sse.Server
}

// Config controls behaviour of the api server.
type Config struct {
	Address   string
	AllowCORS bool
	// BlobsDir holds contents of files uploaded through the browser.
	BlobsDir     string
	DialogBinary string
	ErrWriter    io.Writer
	// Factory creates playback elements for loaded items.
	Factory   pool.Factory
	OutWriter io.Writer
	// Picker forces specific picker variant. Picker is probed when empty.
	Picker media.PickerVariant
}

// NewServer prepares and returns a server that can be used to handle API calls.
func NewServer(cfg Config) (*Server, error) {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not initialize filesystem watcher: %w", err)
	}

	blobs, err := media.NewBlobStore(media.BlobStoreConfig{
		BaseURL: baseURL(cfg.Address),
		Dir:     cfg.BlobsDir,
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	constraints := media.DefaultConstraints()
	picker := media.ProbePicker(media.ProbeConfig{
		Dialog: media.DialogPickerConfig{
			Binary: cfg.DialogBinary,
		},
		Variant: cfg.Picker,
		Upload: media.UploadPickerConfig{
			Broadcaster: state.CreateAndInitChangesBroadcaster[media.PickerChange](),
		},
	})

	resolver := media.NewResolver(media.ResolverConfig{
		Blobs:     blobs,
		ErrWriter: cfg.ErrWriter,
		OutWriter: cfg.OutWriter,
		Picker:    picker,
	})

	repository := state.NewRepository(state.RepositoryConfig{
		Constraints: constraints,
		ErrWriter:   cfg.ErrWriter,
		Factory:     cfg.Factory,
		OutWriter:   cfg.OutWriter,
		Revoker:     resolver,
	})

	noiseTask := noise.NewTask(noise.Config{
		ErrWriter: cfg.ErrWriter,
		OutWriter: cfg.OutWriter,
	})

	jb := jukebox.New(jukebox.Config{
		Constraints: constraints,
		ErrWriter:   cfg.ErrWriter,
		OutWriter:   cfg.OutWriter,
		Overlay:     noiseTask,
		Repository:  repository,
		Resolver:    resolver,
	})

	restCfg := rest.Config{
		AllowCORS:        cfg.AllowCORS,
		ErrWriter:        cfg.ErrWriter,
		Frames:           noiseTask,
		Jukebox:          jb,
		OutWriter:        cfg.OutWriter,
		StatesRepository: repository,
	}
	sseCfg := sse.Config{
		ErrWriter:        cfg.ErrWriter,
		OutWriter:        cfg.OutWriter,
		StatesRepository: repository,
	}

	if uploadPicker, ok := picker.(*media.UploadPicker); ok {
		restCfg.Uploads = uploadPicker
		sseCfg.Picker = uploadPicker
	}

	server := &Server{
		address:    cfg.Address,
		blobs:      blobs,
		errLog:     log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		fsWatcher:  watcher,
		jukebox:    jb,
		noise:      noiseTask,
		outLog:     log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		repository: repository,
		restServer: rest.NewServer(restCfg),
		sseServer:  sse.NewServer(sseCfg),
	}
	server.outLog.Printf("files are picked with %s picker\n", picker.Variant())
	server.watchForFsChanges()

	return server, nil
}

// Serve starts handling API endpoints - both REST and SSE.
// Blocks until either http server stops serving or ctx is done. Server is closed afterwards.
func (s *Server) Serve(ctx context.Context) error {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	serv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}

	httpServErr := make(chan error, 1)
	go func() {
		s.outLog.Printf("running server at %s\n", s.address)
		err := serv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		httpServErr <- err
	}()

	var err error
	select {
	case err = <-httpServErr:
	case <-ctx.Done():
		s.outLog.Println("shutting down server")

		// long-lived sse connections and pending picks finish only with their request context
		cancelBase()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		err = serv.Shutdown(shutdownCtx)
		cancelShutdown()
	}

	s.Close()
	return err
}

// Close disposes playback, stops watching directories and releases uploaded contents.
func (s *Server) Close() {
	s.jukebox.Dispose()
	s.sseServer.Shutdown()

	err := s.fsWatcher.Close()
	if err != nil {
		s.errLog.Printf("could not close filesystem watcher: %s\n", err)
	}

	s.blobs.RevokeAll()
}

func (s *Server) Jukebox() *jukebox.Jukebox {
	return s.jukebox
}

func (s *Server) Repository() state.Repository {
	return s.repository
}

// baseURL returns url under which the server is reachable from the local machine.
func baseURL(address string) string {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Sprintf("http://%s", address)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	return fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
}
