package state

import (
	"io"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/library"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/playlist"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/shell"
)

type Repository interface {
	Library() *library.Storage
	Playlist() *playlist.Store
	Pool() *pool.Manager
	Shell() *shell.Storage
}

type RepositoryConfig struct {
	Constraints media.Constraints
	ErrWriter   io.Writer
	Factory     pool.Factory
	OutWriter   io.Writer
	Revoker     playlist.Revoker
}

type inMemoryRepository struct {
	library  *library.Storage
	playlist *playlist.Store
	pool     *pool.Manager
	shell    *shell.Storage
}

func (r *inMemoryRepository) Library() *library.Storage {
	return r.library
}

func (r *inMemoryRepository) Playlist() *playlist.Store {
	return r.playlist
}

func (r *inMemoryRepository) Pool() *pool.Manager {
	return r.pool
}

func (r *inMemoryRepository) Shell() *shell.Storage {
	return r.shell
}

// NewRepository creates storages wired together: the playlist drives the pool, revoking urls of replaced items.
func NewRepository(cfg RepositoryConfig) Repository {
	libraryBroadcaster := CreateAndInitChangesBroadcaster[library.Change]()
	playlistBroadcaster := CreateAndInitChangesBroadcaster[playlist.Change]()
	poolBroadcaster := CreateAndInitChangesBroadcaster[pool.Change]()
	shellBroadcaster := CreateAndInitChangesBroadcaster[shell.Change]()

	poolManager := pool.NewManager(pool.Config{
		Broadcaster: poolBroadcaster,
		ErrWriter:   cfg.ErrWriter,
		Factory:     cfg.Factory,
		OutWriter:   cfg.OutWriter,
	})

	return &inMemoryRepository{
		library: library.NewStorage(libraryBroadcaster, cfg.Constraints),
		playlist: playlist.NewStore(playlist.Config{
			Broadcaster: playlistBroadcaster,
			ErrWriter:   cfg.ErrWriter,
			OutWriter:   cfg.OutWriter,
			Pool:        poolManager,
			Revoker:     cfg.Revoker,
		}),
		pool:  poolManager,
		shell: shell.NewStorage(shellBroadcaster),
	}
}

// CreateAndInitChangesBroadcaster returns broadcaster which is already broadcasting sent changes.
func CreateAndInitChangesBroadcaster[Change common.Change]() *common.ChangesBroadcaster[Change] {
	broadcaster := common.NewChangesBroadcaster[Change]()
	broadcaster.Broadcast()

	return broadcaster
}
