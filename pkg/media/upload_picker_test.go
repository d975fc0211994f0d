package media_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sarpt/crt-jukebox/pkg/media"
)

func newUpload(name string) *media.Upload {
	return media.NewUpload(name, 1, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("x")), nil
	})
}

func waitForPending(t *testing.T, picker *media.UploadPicker) media.PickRequest {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for {
		request, ok := picker.Pending()
		if ok {
			return request
		}

		if time.Now().After(deadline) {
			t.Fatalf("Pick did not become pending")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestUploadPicker_DeliverFulfillsPick(t *testing.T) {
	// given
	uut := media.NewUploadPicker(media.UploadPickerConfig{})
	picked := make(chan []interface{})
	go func() {
		items, _ := uut.Pick(context.Background(), media.DefaultConstraints())
		for _, item := range items {
			item.(*media.Upload).Close()
		}
		picked <- items
	}()
	request := waitForPending(t, uut)

	// when
	err := uut.Deliver(context.Background(), []*media.Upload{newUpload("a.mp4"), newUpload("b.mp4")})

	// then
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if request.Accept != ".mp4,.mov,.webm,.mkv" || !request.Multiple {
		t.Errorf("Unexpected request %+v", request)
	}

	items := <-picked
	if len(items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(items))
	}

	if _, ok := uut.Pending(); ok {
		t.Errorf("Expected no pending pick")
	}
}

func TestUploadPicker_EmptyDeliveryCancels(t *testing.T) {
	// given
	uut := media.NewUploadPicker(media.UploadPickerConfig{})
	picked := make(chan []interface{})
	go func() {
		items, _ := uut.Pick(context.Background(), media.DefaultConstraints())
		picked <- items
	}()
	waitForPending(t, uut)

	// when
	err := uut.Deliver(context.Background(), nil)

	// then
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if items := <-picked; len(items) != 0 {
		t.Errorf("Expected empty result, got %v", items)
	}
}

func TestUploadPicker_ContextCancelsPick(t *testing.T) {
	// given
	uut := media.NewUploadPicker(media.UploadPickerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	picked := make(chan []interface{})
	go func() {
		items, _ := uut.Pick(ctx, media.DefaultConstraints())
		picked <- items
	}()
	waitForPending(t, uut)

	// when
	cancel()

	// then
	if items := <-picked; len(items) != 0 {
		t.Errorf("Expected empty result, got %v", items)
	}

	if _, ok := uut.Pending(); ok {
		t.Errorf("Expected no pending pick")
	}
}

func TestUploadPicker_DeliverWithoutPick(t *testing.T) {
	// given
	uut := media.NewUploadPicker(media.UploadPickerConfig{})

	// when
	err := uut.Deliver(context.Background(), []*media.Upload{newUpload("a.mp4")})

	// then
	if !errors.Is(err, media.ErrNoPendingPick) {
		t.Errorf("Expected ErrNoPendingPick, got %v", err)
	}
}
