package sse_test

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sarpt/crt-jukebox/internal/sse"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
)

func newRepository() state.Repository {
	return state.NewRepository(state.RepositoryConfig{
		Constraints: media.DefaultConstraints(),
		ErrWriter:   io.Discard,
		Factory:     pool.NewVirtualFactory(),
		OutWriter:   io.Discard,
	})
}

func nextEvent(t *testing.T, scanner *bufio.Scanner) string {
	t.Helper()

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			return strings.TrimPrefix(line, "event:")
		}
	}

	t.Fatalf("stream finished before an event: %v", scanner.Err())
	return ""
}

func TestChannels_ReplayAndChanges(t *testing.T) {
	// given
	repository := newRepository()
	uut := sse.NewServer(sse.Config{
		ErrWriter:        io.Discard,
		OutWriter:        io.Discard,
		StatesRepository: repository,
	})
	defer uut.Shutdown()

	server := httptest.NewServer(uut.Handler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sse/channels?channel=shell&replay=true", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("could not connect: %s", err)
	}
	defer res.Body.Close()

	scanner := bufio.NewScanner(res.Body)

	// when
	replay := nextEvent(t, scanner)
	repository.Shell().ToggleCRT()
	change := nextEvent(t, scanner)

	// then
	if res.Header.Get("Content-Type") != "text/event-stream" {
		t.Errorf("Unexpected content type %s", res.Header.Get("Content-Type"))
	}

	if replay != "shell.replay" {
		t.Errorf("Expected replay event, got %s", replay)
	}

	if change != "shell.crtChange" {
		t.Errorf("Expected crt change event, got %s", change)
	}
}

func TestChannels_PickerRequiresPicker(t *testing.T) {
	// given
	uut := sse.NewServer(sse.Config{
		ErrWriter:        io.Discard,
		OutWriter:        io.Discard,
		StatesRepository: newRepository(),
	})
	defer uut.Shutdown()

	// when
	res := httptest.NewRecorder()
	uut.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/sse/channels?channel=picker", nil))

	// then
	if res.Code != http.StatusBadRequest {
		t.Errorf("Expected bad request, got %d", res.Code)
	}
}

func TestChannels_PickerAnnouncesPendingPick(t *testing.T) {
	// given
	picker := media.NewUploadPicker(media.UploadPickerConfig{})
	uut := sse.NewServer(sse.Config{
		ErrWriter:        io.Discard,
		OutWriter:        io.Discard,
		Picker:           picker,
		StatesRepository: newRepository(),
	})
	defer uut.Shutdown()

	server := httptest.NewServer(uut.Handler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sse/channels?channel=picker&replay=true", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("could not connect: %s", err)
	}
	defer res.Body.Close()

	scanner := bufio.NewScanner(res.Body)
	replay := nextEvent(t, scanner)

	pickCtx, cancelPick := context.WithCancel(context.Background())
	picked := make(chan struct{})
	go func() {
		picker.Pick(pickCtx, media.DefaultConstraints())
		close(picked)
	}()

	// when
	requested := nextEvent(t, scanner)
	cancelPick()
	finished := nextEvent(t, scanner)
	<-picked

	// then
	if replay != "picker.replay" {
		t.Errorf("Expected replay event, got %s", replay)
	}

	if requested != "picker.pickRequested" || finished != "picker.pickFinished" {
		t.Errorf("Unexpected pick events %s and %s", requested, finished)
	}
}
