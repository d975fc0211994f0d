package media_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/sarpt/crt-jukebox/internal/mocks"
	"github.com/sarpt/crt-jukebox/pkg/media"
)

type stringer struct {
	value string
}

func (s stringer) String() string {
	return s.value
}

func newResolver(picker media.Picker, blobs *media.BlobStore) *media.Resolver {
	return media.NewResolver(media.ResolverConfig{
		Blobs:     blobs,
		ErrWriter: io.Discard,
		OutWriter: io.Discard,
		Picker:    picker,
	})
}

func TestRequestFiles_NormalizesEveryShape(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// given
	blobs := newBlobStore(t)
	upload := media.NewUpload("Holiday.webm", 4, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("data")), nil
	})

	picker := mocks.NewMockPicker(ctrl)
	picker.EXPECT().Variant().Return(media.UploadPickerVariant).AnyTimes()
	picker.EXPECT().Pick(gomock.Any(), gomock.Any()).Return([]interface{}{
		`C:\Videos\clip.mov`,
		upload,
		stringer{value: "https://example.com/media/stream"},
	}, nil)

	uut := newResolver(picker, blobs)

	// when
	sources, err := uut.RequestFiles(context.Background(), media.DefaultConstraints())

	// then
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if len(sources) != 3 {
		t.Fatalf("Expected 3 sources, got %d", len(sources))
	}

	if sources[0].URL != "file:///C:/Videos/clip.mov" || sources[0].Label != "clip" {
		t.Errorf("Unexpected path source %+v", sources[0])
	}

	if !strings.HasPrefix(sources[1].URL, "http://localhost:3001/blobs/") || sources[1].Label != "Holiday" {
		t.Errorf("Unexpected upload source %+v", sources[1])
	}

	if sources[2].URL != "https://example.com/media/stream" || sources[2].Label != "stream" {
		t.Errorf("Unexpected stringified source %+v", sources[2])
	}

	if blobs.Count() != 1 {
		t.Errorf("Expected one allocated blob, got %d", blobs.Count())
	}
}

func TestRequestFiles_CancelledPickIsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// given
	picker := mocks.NewMockPicker(ctrl)
	picker.EXPECT().Variant().Return(media.DialogPickerVariant).AnyTimes()
	picker.EXPECT().Pick(gomock.Any(), gomock.Any()).Return([]interface{}{}, nil)

	uut := newResolver(picker, nil)

	// when
	sources, err := uut.RequestFiles(context.Background(), media.DefaultConstraints())

	// then
	if err != nil || sources == nil || len(sources) != 0 {
		t.Errorf("Expected empty sources without error, got %v and %v", sources, err)
	}
}

func TestRequestFiles_PickerErrorIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// given
	picker := mocks.NewMockPicker(ctrl)
	picker.EXPECT().Variant().Return(media.DialogPickerVariant).AnyTimes()
	picker.EXPECT().Pick(gomock.Any(), gomock.Any()).Return(nil, media.ErrDialogFailed)

	uut := newResolver(picker, nil)

	// when
	_, err := uut.RequestFiles(context.Background(), media.DefaultConstraints())

	// then
	if !errors.Is(err, media.ErrDialogFailed) {
		t.Errorf("Expected ErrDialogFailed, got %v", err)
	}
}

func TestRequestFiles_OverlappingPickIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// given
	picking := make(chan struct{})
	release := make(chan struct{})
	picker := mocks.NewMockPicker(ctrl)
	picker.EXPECT().Variant().Return(media.DialogPickerVariant).AnyTimes()
	picker.EXPECT().Pick(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, constraints media.Constraints) ([]interface{}, error) {
		close(picking)
		<-release

		return []interface{}{}, nil
	}).Times(1)

	uut := newResolver(picker, nil)
	firstDone := make(chan struct{})
	go func() {
		uut.RequestFiles(context.Background(), media.DefaultConstraints())
		close(firstDone)
	}()
	<-picking

	// when
	_, err := uut.RequestFiles(context.Background(), media.DefaultConstraints())
	close(release)

	// then
	if !errors.Is(err, media.ErrPickInProgress) {
		t.Errorf("Expected ErrPickInProgress, got %v", err)
	}

	select {
	case <-firstDone:
	case <-time.After(time.Second):
		t.Fatalf("First pick did not finish")
	}
}

func TestResolvePaths_SkipsNotAccepted(t *testing.T) {
	// given
	uut := newResolver(media.NewUploadPicker(media.UploadPickerConfig{}), nil)

	// when
	sources := uut.ResolvePaths([]string{"/v/a.mp4", "/v/notes.txt", "", "/v/b.MKV"}, media.DefaultConstraints())

	// then
	if len(sources) != 2 || sources[0].Label != "a" || sources[1].Label != "b" {
		t.Errorf("Unexpected sources %+v", sources)
	}
}
