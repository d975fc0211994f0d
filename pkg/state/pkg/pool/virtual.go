package pool

import (
	"sync"

	"github.com/sarpt/crt-jukebox/pkg/media"
)

// VirtualElement only records the requested state.
// It is used when a browser renders the video elements itself and mirrors the pool state received through SSE.
type VirtualElement struct {
	lock     *sync.Mutex
	closed   bool
	muted    bool
	playing  bool
	position float64
	slot     Slot
	source   media.Source
	volume   int
}

func NewVirtualElement(source media.Source) *VirtualElement {
	return &VirtualElement{
		lock:   &sync.Mutex{},
		muted:  true,
		slot:   DetachedSlot,
		source: source,
		volume: MaxVolume,
	}
}

// NewVirtualFactory returns factory of virtual elements.
func NewVirtualFactory() Factory {
	return FactoryFunc(func(source media.Source) (Element, error) {
		return NewVirtualElement(source), nil
	})
}

func (ve *VirtualElement) Attach(slot Slot) error {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	ve.slot = slot
	return nil
}

func (ve *VirtualElement) Close() error {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	ve.closed = true
	ve.playing = false
	ve.slot = DetachedSlot
	return nil
}

func (ve *VirtualElement) Closed() bool {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	return ve.closed
}

func (ve *VirtualElement) Pause() error {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	ve.playing = false
	return nil
}

func (ve *VirtualElement) Play() error {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	ve.playing = true
	return nil
}

func (ve *VirtualElement) Rewind() error {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	ve.position = 0
	return nil
}

func (ve *VirtualElement) SetMuted(muted bool) error {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	ve.muted = muted
	return nil
}

func (ve *VirtualElement) SetVolume(volume int) error {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	ve.volume = volume
	return nil
}

func (ve *VirtualElement) Muted() bool {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	return ve.muted
}

func (ve *VirtualElement) Playing() bool {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	return ve.playing
}

func (ve *VirtualElement) Slot() Slot {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	return ve.slot
}

// Position returns playback position in seconds. Virtual elements only ever rewind.
func (ve *VirtualElement) Position() float64 {
	ve.lock.Lock()
	defer ve.lock.Unlock()

	return ve.position
}
