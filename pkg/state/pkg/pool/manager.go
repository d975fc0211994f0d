package pool

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/internal/metrics"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state/internal/revision"
)

const (
	logPrefix = "pool.Manager#"

	noLiveIdx = -1

	// PopulatedChange notifies about creation of elements for a new playlist.
	PopulatedChange common.ChangeVariant = "populated"

	// MountedChange notifies about a new element attached to the viewport.
	MountedChange common.ChangeVariant = "mounted"

	// ParkedChange notifies about all elements being rewound and parked.
	ParkedChange common.ChangeVariant = "parked"

	// MutedChange notifies about muting of all elements except one.
	MutedChange common.ChangeVariant = "muted"

	// TeardownChange notifies about all elements being destroyed.
	TeardownChange common.ChangeVariant = "teardown"

	// FullscreenChange notifies about fullscreen request forwarded to the live element.
	FullscreenChange common.ChangeVariant = "fullscreen"
)

var (
	// ErrElementCreation informs that factory failed to create an element for a source.
	ErrElementCreation = errors.New("could not create playback element")
)

type SubscriberCB = func(change Change)

// ElementState is a state of a pooled element as requested by the manager.
type ElementState struct {
	Label   string `json:"Label"`
	Live    bool   `json:"Live"`
	Muted   bool   `json:"Muted"`
	Playing bool   `json:"Playing"`
	Slot    Slot   `json:"Slot"`
	URL     string `json:"URL"`
	Volume  int    `json:"Volume"`
}

// Snapshot is a copy of the pool state.
type Snapshot struct {
	Elements []ElementState `json:"Elements"`
	LiveIdx  int            `json:"LiveIdx"`
}

// Change is used to inform about changes to the pool.
type Change struct {
	ChangeVariant common.ChangeVariant
	Snapshot      Snapshot
}

// MarshalJSON returns pool snapshot in JSON format. Satisfies json.Marshaller.
func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot)
}

func (c Change) Variant() common.ChangeVariant {
	return c.ChangeVariant
}

type pooledElement struct {
	element Element
	state   ElementState
}

type Config struct {
	Broadcaster *common.ChangesBroadcaster[Change]
	ErrWriter   io.Writer
	Factory     Factory
	OutWriter   io.Writer
}

// Manager owns lifecycle of playback elements, one per playlist item.
// At most one element is live (unmuted and attached to the viewport), the rest is muted and parked.
type Manager struct {
	broadcaster *common.ChangesBroadcaster[Change]
	elements    []pooledElement
	errLog      *log.Logger
	factory     Factory
	liveIdx     int
	lock        *sync.RWMutex
	outLog      *log.Logger
	revision    *revision.Storage
}

func NewManager(cfg Config) *Manager {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	return &Manager{
		broadcaster: cfg.Broadcaster,
		errLog:      log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		factory:     cfg.Factory,
		liveIdx:     noLiveIdx,
		lock:        &sync.RWMutex{},
		outLog:      log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		revision:    revision.NewStorage(),
	}
}

// Populate creates muted, parked elements for all sources, replacing nothing - TeardownAll has to be called before.
// When any element cannot be created, already created ones are closed and the pool stays empty.
func (m *Manager) Populate(sources []media.Source) error {
	elements := make([]pooledElement, 0, len(sources))
	for idx, source := range sources {
		element, err := m.factory.Create(source)
		if err != nil {
			for _, created := range elements {
				m.closeElement(created.element)
			}

			return fmt.Errorf("%w for item %d (%s): %s", ErrElementCreation, idx, source.Label, err)
		}

		if err := element.SetMuted(true); err != nil {
			m.errLog.Printf("could not mute new element %d: %s\n", idx, err)
		}
		if err := element.Attach(ParkedSlot); err != nil {
			m.errLog.Printf("could not park new element %d: %s\n", idx, err)
		}

		elements = append(elements, pooledElement{
			element: element,
			state: ElementState{
				Label:  source.Label,
				Muted:  true,
				Slot:   ParkedSlot,
				URL:    source.URL,
				Volume: MaxVolume,
			},
		})
	}

	m.lock.Lock()
	m.elements = append(m.elements, elements...)
	snapshot := m.snapshot()
	m.lock.Unlock()

	metrics.PoolElements.Set(float64(len(snapshot.Elements)))
	m.outLog.Printf("populated pool with %d elements\n", len(elements))
	m.notify(PopulatedChange, snapshot)
	return nil
}

// Mount attaches element at idx to the viewport, unmutes it with maximum volume and starts its playback.
// Every other element is muted and parked, but keeps playing when it did.
// Failure to start playback is swallowed - the element stays live, but paused.
// Index out of range is ignored.
func (m *Manager) Mount(idx int) {
	m.lock.Lock()
	if idx < 0 || idx >= len(m.elements) {
		m.lock.Unlock()
		return
	}

	for otherIdx := range m.elements {
		if otherIdx == idx {
			continue
		}

		m.park(otherIdx)
	}

	live := &m.elements[idx]
	if live.state.Slot != ViewportSlot {
		m.logFailure(live.element.Attach(ViewportSlot), "attach element %d to viewport", idx)
		live.state.Slot = ViewportSlot
	}

	m.logFailure(live.element.SetMuted(false), "unmute element %d", idx)
	m.logFailure(live.element.SetVolume(MaxVolume), "set volume of element %d", idx)
	live.state.Muted = false
	live.state.Volume = MaxVolume

	err := live.element.Play()
	if err != nil {
		metrics.PlaybackStartFailuresTotal.Inc()
		m.errLog.Printf("playback of element %d could not be started: %s\n", idx, err)
	}
	live.state.Playing = err == nil

	m.setLive(idx)
	snapshot := m.snapshot()
	m.lock.Unlock()

	metrics.MountsTotal.Inc()
	m.notify(MountedChange, snapshot)
}

// ParkAll rewinds, parks and mutes every element, starting playback of each of them silently.
func (m *Manager) ParkAll() {
	m.lock.Lock()
	for idx := range m.elements {
		pooled := &m.elements[idx]

		m.logFailure(pooled.element.Rewind(), "rewind element %d", idx)
		m.park(idx)

		err := pooled.element.Play()
		if err != nil {
			metrics.PlaybackStartFailuresTotal.Inc()
			m.errLog.Printf("silent playback of element %d could not be started: %s\n", idx, err)
		}
		pooled.state.Playing = err == nil
	}

	m.setLive(noLiveIdx)
	snapshot := m.snapshot()
	m.lock.Unlock()

	m.notify(ParkedChange, snapshot)
}

// MuteAllExcept mutes every element other than the one at idx.
func (m *Manager) MuteAllExcept(idx int) {
	m.lock.Lock()
	for otherIdx := range m.elements {
		muted := otherIdx != idx
		pooled := &m.elements[otherIdx]

		m.logFailure(pooled.element.SetMuted(muted), "change mute of element %d", otherIdx)
		pooled.state.Muted = muted
	}

	if m.liveIdx != noLiveIdx && m.liveIdx != idx {
		m.setLive(noLiveIdx)
	}
	snapshot := m.snapshot()
	m.lock.Unlock()

	m.notify(MutedChange, snapshot)
}

// SetFullscreen forwards fullscreen request to the live element when it is able to handle it.
// Returns whether the request was forwarded and accepted. Rejections are swallowed.
func (m *Manager) SetFullscreen(enabled bool) bool {
	m.lock.RLock()
	if m.liveIdx == noLiveIdx {
		m.lock.RUnlock()
		return false
	}

	element := m.elements[m.liveIdx].element
	snapshot := m.snapshot()
	m.lock.RUnlock()

	fullscreener, ok := element.(Fullscreener)
	if !ok {
		return false
	}

	err := fullscreener.SetFullscreen(enabled)
	if err != nil {
		m.errLog.Printf("fullscreen request rejected: %s\n", err)
		return false
	}

	m.notify(FullscreenChange, snapshot)
	return true
}

// TeardownAll pauses and closes every element, clearing the pool.
func (m *Manager) TeardownAll() {
	m.lock.Lock()
	elements := m.elements
	m.elements = nil
	m.liveIdx = noLiveIdx
	snapshot := m.snapshot()
	m.lock.Unlock()

	for idx, pooled := range elements {
		m.logFailure(pooled.element.Pause(), "pause element %d", idx)
		m.closeElement(pooled.element)
	}

	metrics.PoolElements.Set(0)
	if len(elements) > 0 {
		m.outLog.Printf("tore down %d elements\n", len(elements))
	}
	m.notify(TeardownChange, snapshot)
}

// Len returns number of pooled elements.
func (m *Manager) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.elements)
}

// LiveIdx returns index of the live element or -1 when there is none.
func (m *Manager) LiveIdx() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.liveIdx
}

// LiveCount returns number of elements being both unmuted and attached to the viewport.
func (m *Manager) LiveCount() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	count := 0
	for _, pooled := range m.elements {
		if !pooled.state.Muted && pooled.state.Slot == ViewportSlot {
			count++
		}
	}

	return count
}

// MarshalJSON satisifes json.Marshaller.
func (m *Manager) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

func (m *Manager) Revision() revision.Identifier {
	return m.revision.Revision()
}

// Snapshot returns a copy of the pool state.
func (m *Manager) Snapshot() Snapshot {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.snapshot()
}

func (m *Manager) Subscribe(cb SubscriberCB, onError func(err error)) func() {
	return m.broadcaster.Subscribe(common.SubscriberFunc[Change](cb))
}

func (m *Manager) closeElement(element Element) {
	err := element.Close()
	if err != nil {
		m.errLog.Printf("could not close element: %s\n", err)
	}
}

func (m *Manager) logFailure(err error, format string, args ...interface{}) {
	if err == nil {
		return
	}

	m.errLog.Printf("could not %s: %s\n", fmt.Sprintf(format, args...), err)
}

func (m *Manager) notify(variant common.ChangeVariant, snapshot Snapshot) {
	m.revision.Tick()
	if m.broadcaster == nil {
		return
	}

	m.broadcaster.Send(Change{
		ChangeVariant: variant,
		Snapshot:      snapshot,
	})
}

// park mutes and moves element at idx to the parked slot. Caller holds the write lock.
func (m *Manager) park(idx int) {
	pooled := &m.elements[idx]

	m.logFailure(pooled.element.SetMuted(true), "mute element %d", idx)
	pooled.state.Muted = true

	if pooled.state.Slot != ParkedSlot {
		m.logFailure(pooled.element.Attach(ParkedSlot), "park element %d", idx)
		pooled.state.Slot = ParkedSlot
	}
}

// setLive marks element at idx as the only live one. Caller holds the write lock.
func (m *Manager) setLive(idx int) {
	m.liveIdx = idx
	for otherIdx := range m.elements {
		m.elements[otherIdx].state.Live = otherIdx == idx
	}
}

func (m *Manager) snapshot() Snapshot {
	elements := make([]ElementState, 0, len(m.elements))
	for _, pooled := range m.elements {
		elements = append(elements, pooled.state)
	}

	return Snapshot{
		Elements: elements,
		LiveIdx:  m.liveIdx,
	}
}
