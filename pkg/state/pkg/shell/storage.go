package shell

import (
	"encoding/json"
	"sync"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/pkg/state/internal/revision"
)

const (
	// StaticShownChange notifies about the static overlay being shown for a new load cycle.
	StaticShownChange common.ChangeVariant = "staticShown"

	// StaticDismissedChange notifies about the static overlay being dismissed by the first interaction.
	StaticDismissedChange common.ChangeVariant = "staticDismissed"

	// CRTChange notifies about CRT effect toggle.
	CRTChange common.ChangeVariant = "crtChange"

	// FullscreenChange notifies about fullscreen toggle.
	FullscreenChange common.ChangeVariant = "fullscreenChange"

	// GamepadChange notifies about gamepad mode toggle.
	GamepadChange common.ChangeVariant = "gamepadChange"
)

type SubscriberCB = func(change Change)

// Snapshot is a copy of presentation flags.
type Snapshot struct {
	CRT           bool `json:"CRT"`
	Fullscreen    bool `json:"Fullscreen"`
	Gamepad       bool `json:"Gamepad"`
	StaticVisible bool `json:"StaticVisible"`
}

// Change is used to inform about changes to the presentation flags.
type Change struct {
	ChangeVariant common.ChangeVariant
	Snapshot      Snapshot
}

// MarshalJSON returns shell snapshot in JSON format. Satisfies json.Marshaller.
func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot)
}

func (c Change) Variant() common.ChangeVariant {
	return c.ChangeVariant
}

// Storage holds presentation flags consumed by clients rendering the jukebox.
type Storage struct {
	broadcaster *common.ChangesBroadcaster[Change]
	lock        *sync.RWMutex
	revision    *revision.Storage
	state       Snapshot
}

// NewStorage constructs shell state with the static overlay visible.
func NewStorage(broadcaster *common.ChangesBroadcaster[Change]) *Storage {
	return &Storage{
		broadcaster: broadcaster,
		lock:        &sync.RWMutex{},
		revision:    revision.NewStorage(),
		state: Snapshot{
			StaticVisible: true,
		},
	}
}

// ShowStatic makes the static overlay visible again, starting a new load cycle.
func (s *Storage) ShowStatic() {
	s.update(StaticShownChange, func(state *Snapshot) bool {
		state.StaticVisible = true
		return true
	})
}

// DismissStatic hides the static overlay. Returns true only for the first dismissal in a load cycle.
func (s *Storage) DismissStatic() bool {
	return s.update(StaticDismissedChange, func(state *Snapshot) bool {
		if !state.StaticVisible {
			return false
		}

		state.StaticVisible = false
		return true
	})
}

// ToggleCRT flips the CRT effect.
func (s *Storage) ToggleCRT() {
	s.update(CRTChange, func(state *Snapshot) bool {
		state.CRT = !state.CRT
		return true
	})
}

// SetFullscreen changes fullscreen flag.
func (s *Storage) SetFullscreen(enabled bool) {
	s.update(FullscreenChange, func(state *Snapshot) bool {
		if state.Fullscreen == enabled {
			return false
		}

		state.Fullscreen = enabled
		return true
	})
}

// ToggleGamepad flips the gamepad input mode flag.
func (s *Storage) ToggleGamepad() {
	s.update(GamepadChange, func(state *Snapshot) bool {
		state.Gamepad = !state.Gamepad
		return true
	})
}

// MarshalJSON satisifes json.Marshaller.
func (s *Storage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func (s *Storage) Revision() revision.Identifier {
	return s.revision.Revision()
}

func (s *Storage) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.state
}

func (s *Storage) Subscribe(cb SubscriberCB, onError func(err error)) func() {
	return s.broadcaster.Subscribe(common.SubscriberFunc[Change](cb))
}

// update applies change to the state and notifies subscribers when the change reports modification.
func (s *Storage) update(variant common.ChangeVariant, change func(state *Snapshot) bool) bool {
	s.lock.Lock()
	changed := change(&s.state)
	snapshot := s.state
	s.lock.Unlock()

	if !changed {
		return false
	}

	s.revision.Tick()
	if s.broadcaster != nil {
		s.broadcaster.Send(Change{
			ChangeVariant: variant,
			Snapshot:      snapshot,
		})
	}

	return true
}
