package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/sarpt/crt-jukebox/internal/common"
)

const (
	// PickRequested notifies that a pick is pending and a browser should show its file input.
	PickRequested common.ChangeVariant = "pickRequested"

	// PickFinished notifies that the pending pick was either fulfilled or cancelled.
	PickFinished common.ChangeVariant = "pickFinished"
)

var (
	// ErrNoPendingPick informs that files were delivered while nobody waits for them.
	ErrNoPendingPick = errors.New("no pick is pending")
)

// Upload is an in-memory handle of a file provided by a browser.
// Close has to be called once the content is no longer needed, the delivering request waits for it.
type Upload struct {
	Name string
	Size int64

	closeOnce sync.Once
	done      func()
	open      func() (io.ReadCloser, error)
}

// NewUpload creates a handle whose content is provided by open.
func NewUpload(name string, size int64, open func() (io.ReadCloser, error)) *Upload {
	return &Upload{
		Name: name,
		Size: size,
		done: func() {},
		open: open,
	}
}

func (u *Upload) Open() (io.ReadCloser, error) {
	return u.open()
}

func (u *Upload) Close() {
	u.closeOnce.Do(u.done)
}

// PickRequest describes a pending pick for the browser.
type PickRequest struct {
	Accept   string `json:"Accept"`
	Multiple bool   `json:"Multiple"`
}

// PickerChange informs about pending pick lifecycle.
type PickerChange struct {
	ChangeVariant common.ChangeVariant
	Request       PickRequest
}

func (pc PickerChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(pc.Request)
}

func (pc PickerChange) Variant() common.ChangeVariant {
	return pc.ChangeVariant
}

type UploadPickerConfig struct {
	Broadcaster *common.ChangesBroadcaster[PickerChange]
}

type pendingPick struct {
	constraints Constraints
	uploads     chan []*Upload
}

// UploadPicker announces a pending pick and waits for the browser to upload files through Deliver.
type UploadPicker struct {
	broadcaster *common.ChangesBroadcaster[PickerChange]
	lock        *sync.Mutex
	pending     *pendingPick
}

func NewUploadPicker(cfg UploadPickerConfig) *UploadPicker {
	broadcaster := cfg.Broadcaster
	if broadcaster == nil {
		broadcaster = common.NewChangesBroadcaster[PickerChange]()
		broadcaster.Broadcast()
	}

	return &UploadPicker{
		broadcaster: broadcaster,
		lock:        &sync.Mutex{},
	}
}

// Pick blocks until files are delivered, the browser cancels or ctx finishes.
// Finished ctx is treated as a cancellation.
func (up *UploadPicker) Pick(ctx context.Context, constraints Constraints) ([]interface{}, error) {
	pending := &pendingPick{
		constraints: constraints,
		uploads:     make(chan []*Upload, 1),
	}

	up.lock.Lock()
	up.pending = pending
	up.lock.Unlock()

	request := PickRequest{
		Accept:   constraints.Accept(),
		Multiple: constraints.Multiple,
	}
	up.broadcaster.Send(PickerChange{
		ChangeVariant: PickRequested,
		Request:       request,
	})

	var uploads []*Upload
	select {
	case uploads = <-pending.uploads:
	case <-ctx.Done():
		up.lock.Lock()
		if up.pending == pending {
			up.pending = nil
		}
		up.lock.Unlock()

		// delivery might have happened right before removal of pending pick
		select {
		case uploads = <-pending.uploads:
			for _, upload := range uploads {
				upload.Close()
			}
		default:
		}
		uploads = nil
	}

	up.broadcaster.Send(PickerChange{
		ChangeVariant: PickFinished,
		Request:       request,
	})

	items := make([]interface{}, 0, len(uploads))
	for _, upload := range uploads {
		items = append(items, upload)
	}

	return items, nil
}

// Pending returns the request of the currently pending pick.
func (up *UploadPicker) Pending() (PickRequest, bool) {
	up.lock.Lock()
	defer up.lock.Unlock()

	if up.pending == nil {
		return PickRequest{}, false
	}

	return PickRequest{
		Accept:   up.pending.constraints.Accept(),
		Multiple: up.pending.constraints.Multiple,
	}, true
}

// Deliver hands uploads to the pending pick and waits until all of them are closed, or ctx finishes.
// Delivering no uploads cancels the pick.
func (up *UploadPicker) Deliver(ctx context.Context, uploads []*Upload) error {
	up.lock.Lock()
	pending := up.pending
	up.pending = nil
	up.lock.Unlock()

	if pending == nil {
		return ErrNoPendingPick
	}

	if !pending.constraints.Multiple && len(uploads) > 1 {
		uploads = uploads[:1]
	}

	wg := &sync.WaitGroup{}
	wg.Add(len(uploads))
	for _, upload := range uploads {
		upload.done = wg.Done
	}

	pending.uploads <- uploads

	consumed := make(chan struct{})
	go func() {
		wg.Wait()
		close(consumed)
	}()

	select {
	case <-consumed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (up *UploadPicker) Variant() PickerVariant {
	return UploadPickerVariant
}

// Subscribe listens for pending pick changes.
func (up *UploadPicker) Subscribe(cb func(change PickerChange)) func() {
	return up.broadcaster.Subscribe(common.SubscriberFunc[PickerChange](cb))
}
