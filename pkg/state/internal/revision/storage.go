package revision

import "sync/atomic"

type Identifier = uint64

// Storage counts changes made to a state storage.
// The identifier is sent to REST clients as an Etag to skip unchanged responses.
type Storage struct {
	revision atomic.Uint64
}

func NewStorage() *Storage {
	return &Storage{}
}

func (rs *Storage) Revision() Identifier {
	return rs.revision.Load()
}

// Tick advances the revision and returns the new one.
func (rs *Storage) Tick() Identifier {
	return rs.revision.Add(1)
}
