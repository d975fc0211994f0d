package rest

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/sarpt/crt-jukebox/pkg/jukebox"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state"
)

const (
	logPrefix = "rest.Server#"

	// PathBase is a prefix of every REST path.
	PathBase = "/rest/"
)

// Jukebox handles interactions requested through REST.
type Jukebox interface {
	Click(idx int)
	HandleKey(key jukebox.Key) bool
	Load(ctx context.Context) (int, error)
	LoadPaths(paths []string) (int, error)
	Snapshot() jukebox.Snapshot
	Sync()
	ToggleCRT()
	ToggleFullscreen()
}

// UploadsReceiver accepts files uploaded by a browser for the pending pick.
type UploadsReceiver interface {
	Deliver(ctx context.Context, uploads []*media.Upload) error
}

// FrameProvider renders the static overlay frame.
type FrameProvider interface {
	Frame() ([]byte, error)
}

// Config controls behaviour of the REST server.
// Uploads and Frames are optional, their paths respond with 404 when not provided.
type Config struct {
	AllowCORS        bool
	ErrWriter        io.Writer
	Frames           FrameProvider
	Jukebox          Jukebox
	OutWriter        io.Writer
	StatesRepository state.Repository
	Uploads          UploadsReceiver
}

// Server is responsible for creating REST handlers, argument parsing and validation.
type Server struct {
	allowCORS        bool
	errLog           *log.Logger
	frames           FrameProvider
	jukebox          Jukebox
	outLog           *log.Logger
	statesRepository state.Repository
	uploads          UploadsReceiver
}

// NewServer returns rest.Server instance.
func NewServer(cfg Config) *Server {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	return &Server{
		allowCORS:        cfg.AllowCORS,
		errLog:           log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		frames:           cfg.Frames,
		jukebox:          cfg.Jukebox,
		outLog:           log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		statesRepository: cfg.StatesRepository,
		uploads:          cfg.Uploads,
	}
}
