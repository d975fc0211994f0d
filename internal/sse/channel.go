package sse

import (
	"context"
)

// ChannelVariant names a stream of changes which can be observed over SSE.
type ChannelVariant string

type channel interface {
	AddObserver(address string) bool
	RemoveObserver(address string)
	Replay(res ResponseWriter) error
	ServeObserver(ctx context.Context, address string, res ResponseWriter) error
	Variant() ChannelVariant
}
