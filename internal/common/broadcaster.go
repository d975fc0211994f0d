package common

import (
	"sync"
)

type Subscriber[CT any] interface {
	Receive(change CT)
}

// Broadcaster fans out every sent change to all subscribers, in the order of sending.
// Broadcast has to be called before the first Send, otherwise Send blocks.
type Broadcaster[CT any] struct {
	changes     chan CT
	lock        *sync.RWMutex
	nextID      int
	subscribers map[int]Subscriber[CT]
}

func NewBroadcaster[CT any]() *Broadcaster[CT] {
	return &Broadcaster[CT]{
		changes:     make(chan CT),
		lock:        &sync.RWMutex{},
		subscribers: map[int]Subscriber[CT]{},
	}
}

// Subscribe registers sub and returns a function removing the subscription.
func (cb *Broadcaster[CT]) Subscribe(sub Subscriber[CT]) func() {
	cb.lock.Lock()
	defer cb.lock.Unlock()

	id := cb.nextID
	cb.nextID++
	cb.subscribers[id] = sub

	return func() {
		cb.lock.Lock()
		defer cb.lock.Unlock()

		delete(cb.subscribers, id)
	}
}

func (cb *Broadcaster[CT]) Send(payload CT) {
	cb.changes <- payload
}

// Close stops the broadcasting goroutine. Send must not be called afterwards.
func (cb *Broadcaster[CT]) Close() {
	close(cb.changes)
}

func (cb *Broadcaster[CT]) Broadcast() {
	go func() {
		for {
			change, more := <-cb.changes
			if !more {
				return
			}

			cb.lock.RLock()
			for _, subscriber := range cb.subscribers {
				subscriber.Receive(change)
			}
			cb.lock.RUnlock()
		}
	}()
}
