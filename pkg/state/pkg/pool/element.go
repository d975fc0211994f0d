package pool

import (
	"github.com/sarpt/crt-jukebox/pkg/media"
)

// Slot specifies where an element is attached.
type Slot string

const (
	// ViewportSlot is the main screen. At most one element is attached to it.
	ViewportSlot Slot = "viewport"

	// ParkedSlot is the offscreen pool keeping elements warm for instant switching.
	ParkedSlot Slot = "parked"

	// DetachedSlot is a state of an element after teardown.
	DetachedSlot Slot = "detached"

	// MaxVolume is a volume set for the live element.
	MaxVolume = 100
)

// Element is a single playback instance of a media source.
type Element interface {
	Attach(slot Slot) error
	Close() error
	Pause() error
	Play() error
	Rewind() error
	SetMuted(muted bool) error
	SetVolume(volume int) error
}

// Fullscreener is implemented by elements that are able to cover the whole screen on their own.
type Fullscreener interface {
	SetFullscreen(enabled bool) error
}

// Factory creates an element for a source.
type Factory interface {
	Create(source media.Source) (Element, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(source media.Source) (Element, error)

func (f FactoryFunc) Create(source media.Source) (Element, error) {
	return f(source)
}
