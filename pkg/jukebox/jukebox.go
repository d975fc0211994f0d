// Package jukebox maps user interactions onto the playlist, the playback pool and the presentation flags.
package jukebox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/playlist"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/shell"
)

const (
	logPrefix = "jukebox.Jukebox#"
)

var (
	// ErrNothingToLoad informs that none of the provided paths can be loaded.
	ErrNothingToLoad = errors.New("none of the paths is an accepted media file")
)

// Resolver provides sources for the playlist.
type Resolver interface {
	RequestFiles(ctx context.Context, constraints media.Constraints) ([]media.Source, error)
	ResolvePaths(paths []string, constraints media.Constraints) []media.Source
}

// Overlay renders static shown over the viewport until the first interaction.
type Overlay interface {
	Start(ctx context.Context) bool
	Stop() bool
}

// Snapshot is a copy of everything needed to render the jukebox.
type Snapshot struct {
	Playlist playlist.Snapshot `json:"Playlist"`
	Pool     pool.Snapshot     `json:"Pool"`
	Shell    shell.Snapshot    `json:"Shell"`
}

type Config struct {
	Constraints media.Constraints
	ErrWriter   io.Writer
	OutWriter   io.Writer
	Overlay     Overlay
	Repository  state.Repository
	Resolver    Resolver
}

// Jukebox owns the state of a single jukebox screen.
type Jukebox struct {
	constraints media.Constraints
	errLog      *log.Logger
	outLog      *log.Logger
	overlay     Overlay
	playlist    *playlist.Store
	pool        *pool.Manager
	resolver    Resolver
	shell       *shell.Storage
}

// New creates jukebox with the static overlay shown, as on every start of a load cycle.
func New(cfg Config) *Jukebox {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	if len(cfg.Constraints.Filters) == 0 {
		cfg.Constraints = media.DefaultConstraints()
	}

	j := &Jukebox{
		constraints: cfg.Constraints,
		errLog:      log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		outLog:      log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		overlay:     cfg.Overlay,
		playlist:    cfg.Repository.Playlist(),
		pool:        cfg.Repository.Pool(),
		resolver:    cfg.Resolver,
		shell:       cfg.Repository.Shell(),
	}
	j.showStatic()

	return j
}

// Load lets the user pick files and replaces the playlist with them.
// Cancelled pick leaves everything untouched and returns 0 with nil error.
func (j *Jukebox) Load(ctx context.Context) (int, error) {
	sources, err := j.resolver.RequestFiles(ctx, j.constraints)
	if err != nil {
		return 0, fmt.Errorf("could not request files: %w", err)
	}

	if len(sources) == 0 {
		return 0, nil
	}

	return j.load(sources)
}

// LoadPaths replaces the playlist with accepted media files from paths.
func (j *Jukebox) LoadPaths(paths []string) (int, error) {
	sources := j.resolver.ResolvePaths(paths, j.constraints)
	if len(sources) == 0 {
		return 0, ErrNothingToLoad
	}

	return j.load(sources)
}

// HandleKey performs action bound to key. Returns false when key has no action or the playlist is empty.
// Apart from fullscreen toggling, keys are ignored for an empty playlist.
// Any key pressed while the playlist has items dismisses the static overlay.
func (j *Jukebox) HandleKey(key Key) bool {
	if action, ok := globalKeys[key]; ok {
		action(j)
		j.dismissStatic()

		return true
	}

	if j.playlist.Len() == 0 {
		return false
	}

	action, ok := playlistKeys[key]
	if ok {
		action(j)
	}
	j.dismissStatic()

	return ok
}

// Click selects item at idx, as when its filmstrip cell is clicked.
func (j *Jukebox) Click(idx int) {
	j.playlist.SelectIndex(idx)
	j.dismissStatic()
}

// Sync restarts every item from the beginning and mounts the selection.
func (j *Jukebox) Sync() {
	j.playlist.StartAll()
	j.dismissStatic()
}

// ToggleCRT flips the CRT effect.
func (j *Jukebox) ToggleCRT() {
	j.shell.ToggleCRT()
}

// ToggleFullscreen flips fullscreen flag, forwarding the request to the live element when it can handle it.
// Rejections of the element are ignored.
func (j *Jukebox) ToggleFullscreen() {
	enabled := !j.shell.Snapshot().Fullscreen
	if !j.pool.SetFullscreen(enabled) {
		j.outLog.Printf("fullscreen %t not handled by a playback element\n", enabled)
	}

	j.shell.SetFullscreen(enabled)
}

// Dispose tears down playback and the overlay, leaving an empty playlist.
func (j *Jukebox) Dispose() {
	j.playlist.Dispose()
	if j.overlay != nil {
		j.overlay.Stop()
	}
}

func (j *Jukebox) Snapshot() Snapshot {
	return Snapshot{
		Playlist: j.playlist.Snapshot(),
		Pool:     j.pool.Snapshot(),
		Shell:    j.shell.Snapshot(),
	}
}

func (j *Jukebox) load(sources []media.Source) (int, error) {
	err := j.playlist.Load(sources)
	j.showStatic()
	if err != nil {
		j.errLog.Printf("could not load playlist: %s\n", err)
		return 0, err
	}

	j.outLog.Printf("playlist loaded with %d items\n", len(sources))
	return len(sources), nil
}

func (j *Jukebox) showStatic() {
	j.shell.ShowStatic()
	if j.overlay != nil {
		j.overlay.Start(context.Background())
	}
}

// dismissStatic stops the overlay on the first interaction of a load cycle.
func (j *Jukebox) dismissStatic() {
	if !j.shell.DismissStatic() {
		return
	}

	if j.overlay != nil {
		j.overlay.Stop()
	}
}
