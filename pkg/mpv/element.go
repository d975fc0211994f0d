package mpv

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"

	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
)

const (
	socketNameFormat = "crt-jukebox-%d.sock"
)

// Element drives a single mpv player as a playback element.
// The viewport is the window kept on top, parked elements have their windows minimized.
type Element struct {
	controller Controller
	source     media.Source
}

// NewElement creates element controlled by controller, with source already loaded.
func NewElement(controller Controller, source media.Source) *Element {
	return &Element{
		controller: controller,
		source:     source,
	}
}

func (e *Element) Attach(slot pool.Slot) error {
	switch slot {
	case pool.ViewportSlot:
		if err := e.setFlag(WindowMinimizedProperty, false); err != nil {
			return err
		}

		return e.setFlag(OnTopProperty, true)
	case pool.ParkedSlot:
		if err := e.setFlag(OnTopProperty, false); err != nil {
			return err
		}

		return e.setFlag(WindowMinimizedProperty, true)
	}

	return nil
}

func (e *Element) Close() error {
	return e.controller.Close()
}

func (e *Element) Pause() error {
	_, err := e.controller.SetProperty(PauseProperty, true)
	return err
}

// Play unpauses playback. Failure means the player refused to start, eg. due to the file being unplayable.
func (e *Element) Play() error {
	_, err := e.controller.SetProperty(PauseProperty, false)
	return err
}

func (e *Element) Rewind() error {
	return e.controller.Seek(0)
}

func (e *Element) SetFullscreen(enabled bool) error {
	return e.setFlag(FullscreenProperty, enabled)
}

func (e *Element) SetMuted(muted bool) error {
	return e.setFlag(MuteProperty, muted)
}

func (e *Element) SetVolume(volume int) error {
	_, err := e.controller.SetProperty(VolumeProperty, volume)
	return err
}

// Source returns source played by the element.
func (e *Element) Source() media.Source {
	return e.source
}

func (e *Element) setFlag(property string, enabled bool) error {
	_, err := e.controller.SetProperty(property, flagValue(enabled))
	return err
}

type FactoryConfig struct {
	Binary    string
	ErrWriter io.Writer
	OutWriter io.Writer
	// SocketsDir holds IPC sockets of spawned players.
	SocketsDir string
}

// Factory spawns a new mpv player for every created element.
type Factory struct {
	binary     string
	errWriter  io.Writer
	nextID     atomic.Uint64
	outWriter  io.Writer
	socketsDir string
}

func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{
		binary:     cfg.Binary,
		errWriter:  cfg.ErrWriter,
		outWriter:  cfg.OutWriter,
		socketsDir: cfg.SocketsDir,
	}
}

// Create starts mpv player with source loaded, looped and paused.
func (f *Factory) Create(source media.Source) (pool.Element, error) {
	id := f.nextID.Add(1)
	player := NewPlayer(PlayerConfig{
		Binary:     f.binary,
		ErrWriter:  f.errWriter,
		OutWriter:  f.outWriter,
		SocketPath: filepath.Join(f.socketsDir, fmt.Sprintf(socketNameFormat, id)),
		Title:      source.Label,
	})

	err := player.Start(context.Background())
	if err != nil {
		return nil, err
	}

	err = f.prepare(player, source)
	if err != nil {
		player.Close()
		return nil, err
	}

	return NewElement(player, source), nil
}

func (f *Factory) prepare(player *Player, source media.Source) error {
	_, err := player.SetProperty(PauseProperty, true)
	if err != nil {
		return err
	}

	_, err = player.SetProperty(LoopFileProperty, InfValue)
	if err != nil {
		return err
	}

	return player.LoadFile(source.URL)
}
