package sse

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sarpt/crt-jukebox/internal/common"
)

const (
	replayEvent = "replay"

	// Every change carries the whole state, so an observer lagging behind by more than this only misses intermediate states.
	observerBufferSize = 16
)

var (
	errNoObserver = errors.New("no observer found for provided address")
)

type Change interface {
	Variant() common.ChangeVariant
	MarshalJSON() ([]byte, error)
}

// ReplayProvider returns current state sent to observers asking for replay.
type ReplayProvider func() json.Marshaler

// StateChannel distributes changes of a single state storage to SSE observers.
type StateChannel[CT Change] struct {
	lock      *sync.RWMutex
	observers map[string]chan CT
	replay    ReplayProvider
	variant   ChannelVariant
}

func NewStateChannel[CT Change](variant ChannelVariant, replay ReplayProvider) *StateChannel[CT] {
	return &StateChannel[CT]{
		lock:      &sync.RWMutex{},
		observers: map[string]chan CT{},
		replay:    replay,
		variant:   variant,
	}
}

// AddObserver registers observer with address. Returns false when the address is already observing.
func (st *StateChannel[CT]) AddObserver(address string) bool {
	st.lock.Lock()
	defer st.lock.Unlock()

	if _, ok := st.observers[address]; ok {
		return false
	}

	st.observers[address] = make(chan CT, observerBufferSize)
	return true
}

func (st *StateChannel[CT]) RemoveObserver(address string) {
	st.lock.Lock()
	defer st.lock.Unlock()

	changes, ok := st.observers[address]
	if !ok {
		return
	}

	close(changes)
	delete(st.observers, address)
}

func (st *StateChannel[CT]) Replay(res ResponseWriter) error {
	if st.replay == nil {
		return nil
	}

	return res.SendChange(st.replay(), st.variant, replayEvent)
}

// ServeObserver writes changes to res until ctx is done or the observer is removed.
func (st *StateChannel[CT]) ServeObserver(ctx context.Context, address string, res ResponseWriter) error {
	st.lock.RLock()
	changes, ok := st.observers[address]
	st.lock.RUnlock()

	if !ok {
		return errNoObserver
	}

	for {
		select {
		case change, more := <-changes:
			if !more {
				return nil
			}

			err := res.SendChange(change, st.variant, string(change.Variant()))
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// BroadcastToChannelObservers passes change to every observer without waiting for the slow ones.
func (st *StateChannel[CT]) BroadcastToChannelObservers(change CT) {
	st.lock.RLock()
	defer st.lock.RUnlock()

	for _, observer := range st.observers {
		select {
		case observer <- change:
		default:
		}
	}
}

// Observers returns number of currently registered observers.
func (st *StateChannel[CT]) Observers() int {
	st.lock.RLock()
	defer st.lock.RUnlock()

	return len(st.observers)
}

func (st *StateChannel[CT]) Variant() ChannelVariant {
	return st.variant
}
