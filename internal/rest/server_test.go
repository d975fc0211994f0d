package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/pkg/jukebox"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/noise"
	"github.com/sarpt/crt-jukebox/pkg/state"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
)

type jukeboxSpy struct {
	clicks      []int
	crtToggles  int
	fullscreens int
	keys        []jukebox.Key
	loadErr     error
	loadPaths   [][]string
	loads       int
	lock        sync.Mutex
	syncs       int
}

func (j *jukeboxSpy) Click(idx int) {
	j.lock.Lock()
	defer j.lock.Unlock()

	j.clicks = append(j.clicks, idx)
}

func (j *jukeboxSpy) HandleKey(key jukebox.Key) bool {
	j.lock.Lock()
	defer j.lock.Unlock()

	j.keys = append(j.keys, key)
	return true
}

func (j *jukeboxSpy) Load(ctx context.Context) (int, error) {
	j.lock.Lock()
	defer j.lock.Unlock()

	j.loads++
	if j.loadErr != nil {
		return 0, j.loadErr
	}

	return 2, nil
}

func (j *jukeboxSpy) LoadPaths(paths []string) (int, error) {
	j.lock.Lock()
	defer j.lock.Unlock()

	j.loadPaths = append(j.loadPaths, paths)
	return len(paths), nil
}

func (j *jukeboxSpy) Snapshot() jukebox.Snapshot {
	return jukebox.Snapshot{}
}

func (j *jukeboxSpy) Sync() {
	j.syncs++
}

func (j *jukeboxSpy) ToggleCRT() {
	j.crtToggles++
}

func (j *jukeboxSpy) ToggleFullscreen() {
	j.fullscreens++
}

type framesStub struct {
	err   error
	frame []byte
}

func (f framesStub) Frame() ([]byte, error) {
	return f.frame, f.err
}

type uploadsSpy struct {
	contents []string
	err      error
}

func (u *uploadsSpy) Deliver(ctx context.Context, uploads []*media.Upload) error {
	if u.err != nil {
		return u.err
	}

	for _, upload := range uploads {
		content, err := upload.Open()
		if err != nil {
			return err
		}

		out, _ := io.ReadAll(content)
		content.Close()
		upload.Close()
		u.contents = append(u.contents, string(out))
	}

	return nil
}

type fixture struct {
	handler    http.Handler
	jukebox    *jukeboxSpy
	repository state.Repository
	uploads    *uploadsSpy
}

func newFixture(frames FrameProvider) fixture {
	repository := state.NewRepository(state.RepositoryConfig{
		Constraints: media.DefaultConstraints(),
		ErrWriter:   io.Discard,
		Factory:     pool.NewVirtualFactory(),
		OutWriter:   io.Discard,
	})
	spy := &jukeboxSpy{}
	uploads := &uploadsSpy{}

	server := NewServer(Config{
		ErrWriter:        io.Discard,
		Frames:           frames,
		Jukebox:          spy,
		OutWriter:        io.Discard,
		StatesRepository: repository,
		Uploads:          uploads,
	})

	return fixture{
		handler:    server.Handler(),
		jukebox:    spy,
		repository: repository,
		uploads:    uploads,
	}
}

func postForm(handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	return res
}

func decodeFormResponse(t *testing.T, res *httptest.ResponseRecorder) common.FormResponse {
	t.Helper()

	var out common.FormResponse
	err := json.Unmarshal(res.Body.Bytes(), &out)
	if err != nil {
		t.Fatalf("could not decode response %s: %s", res.Body.String(), err)
	}

	return out
}

func TestPostJukebox_RoutesArgumentsToJukebox(t *testing.T) {
	// given
	f := newFixture(nil)
	form := url.Values{
		selectArg:     {"2"},
		rotateArg:     {"-1"},
		pageArg:       {"1"},
		keyArg:        {"m"},
		syncArg:       {"true"},
		crtArg:        {"true"},
		fullscreenArg: {"false"},
	}

	// when
	res := postForm(f.handler, jukeboxPath, form)

	// then
	if res.Code != http.StatusOK {
		t.Fatalf("Unexpected status %d: %s", res.Code, res.Body.String())
	}

	if len(f.jukebox.clicks) != 1 || f.jukebox.clicks[0] != 2 {
		t.Errorf("Expected click on 2, got %v", f.jukebox.clicks)
	}

	expectedKeys := []jukebox.Key{jukebox.ArrowLeftKey, jukebox.ArrowDownKey, "m"}
	if len(f.jukebox.keys) != len(expectedKeys) {
		t.Fatalf("Expected keys %v, got %v", expectedKeys, f.jukebox.keys)
	}
	for idx, key := range expectedKeys {
		if f.jukebox.keys[idx] != key {
			t.Errorf("Expected key %s at %d, got %s", key, idx, f.jukebox.keys[idx])
		}
	}

	if f.jukebox.syncs != 1 || f.jukebox.crtToggles != 1 || f.jukebox.fullscreens != 0 {
		t.Errorf("Unexpected toggles: sync %d, crt %d, fullscreen %d", f.jukebox.syncs, f.jukebox.crtToggles, f.jukebox.fullscreens)
	}
}

func TestPostJukebox_InvalidArgumentsAreRejected(t *testing.T) {
	tests := map[string]url.Values{
		"rotate by two":     {rotateArg: {"2"}},
		"page not a number": {pageArg: {"down"}},
		"unknown key":       {keyArg: {"q"}},
		"select not int":    {selectArg: {"first"}},
		"unknown argument":  {"volume": {"10"}},
	}

	for name, form := range tests {
		t.Run(name, func(t *testing.T) {
			// given
			f := newFixture(nil)

			// when
			res := postForm(f.handler, jukeboxPath, form)

			// then
			if res.Code != http.StatusBadRequest {
				t.Errorf("Expected bad request, got %d", res.Code)
			}

			if len(decodeFormResponse(t, res).ArgumentErrors) != 1 {
				t.Errorf("Expected a single argument error in %s", res.Body.String())
			}

			if len(f.jukebox.keys) != 0 || len(f.jukebox.clicks) != 0 {
				t.Errorf("Expected no interaction with the jukebox")
			}
		})
	}
}

func TestGetJukebox_NotModifiedForSameRevision(t *testing.T) {
	// given
	f := newFixture(nil)
	f.repository.Shell().ToggleCRT()

	first := httptest.NewRecorder()
	f.handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, jukeboxPath, nil))
	etag := first.Header().Get(revisionHeader)

	req := httptest.NewRequest(http.MethodGet, jukeboxPath, nil)
	req.Header.Set(revisionHeader, etag)

	// when
	second := httptest.NewRecorder()
	f.handler.ServeHTTP(second, req)

	// then
	if first.Code != http.StatusOK || etag == "" {
		t.Fatalf("Expected first response with revision, got %d with '%s'", first.Code, etag)
	}

	if second.Code != http.StatusNotModified {
		t.Errorf("Expected not modified, got %d", second.Code)
	}
}

func TestPostLoad_PicksWithoutPaths(t *testing.T) {
	// given
	f := newFixture(nil)

	// when
	res := postForm(f.handler, loadPath, url.Values{})

	// then
	if res.Code != http.StatusOK {
		t.Fatalf("Unexpected status %d: %s", res.Code, res.Body.String())
	}

	if f.jukebox.loads != 1 {
		t.Errorf("Expected single pick, got %d", f.jukebox.loads)
	}
}

func TestPostLoad_PickInProgressIsConflict(t *testing.T) {
	// given
	f := newFixture(nil)
	f.jukebox.loadErr = media.ErrPickInProgress

	// when
	res := postForm(f.handler, loadPath, url.Values{})

	// then
	if res.Code != http.StatusConflict {
		t.Errorf("Expected conflict, got %d", res.Code)
	}

	if decodeFormResponse(t, res).GeneralError == "" {
		t.Errorf("Expected general error in %s", res.Body.String())
	}
}

func TestPostLoad_LibraryEntries(t *testing.T) {
	// given
	f := newFixture(nil)
	root := t.TempDir()
	f.repository.Library().AddDirectory(common.Directory{Path: root})
	entries := f.repository.Library().AddEntries([]string{root + "/a.mp4", root + "/b.webm"})

	// when
	res := postForm(f.handler, loadPath, url.Values{pathArg: {entries[0].Path, entries[1].Path}})

	// then
	if res.Code != http.StatusOK {
		t.Fatalf("Unexpected status %d: %s", res.Code, res.Body.String())
	}

	if len(f.jukebox.loadPaths) != 1 || len(f.jukebox.loadPaths[0]) != 2 {
		t.Errorf("Expected load of two paths, got %v", f.jukebox.loadPaths)
	}
}

func TestPostLoad_PathOutsideOfLibraryIsRejected(t *testing.T) {
	// given
	f := newFixture(nil)

	// when
	res := postForm(f.handler, loadPath, url.Values{pathArg: {"/etc/passwd"}})

	// then
	if res.Code != http.StatusBadRequest {
		t.Errorf("Expected bad request, got %d", res.Code)
	}

	if len(f.jukebox.loadPaths) != 0 {
		t.Errorf("Expected no load, got %v", f.jukebox.loadPaths)
	}
}

func TestPostUploads_DeliversFiles(t *testing.T) {
	// given
	f := newFixture(nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile(filesArg, "clip.mp4")
	part.Write([]byte("video"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, uploadsPath, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	// when
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	// then
	if res.Code != http.StatusOK {
		t.Fatalf("Unexpected status %d: %s", res.Code, res.Body.String())
	}

	if len(f.uploads.contents) != 1 || f.uploads.contents[0] != "video" {
		t.Errorf("Unexpected delivered contents %v", f.uploads.contents)
	}
}

func TestPostUploads_NoPendingPickIsConflict(t *testing.T) {
	// given
	f := newFixture(nil)
	f.uploads.err = media.ErrNoPendingPick

	// when
	res := postForm(f.handler, uploadsPath, url.Values{})

	// then
	if res.Code != http.StatusConflict {
		t.Errorf("Expected conflict, got %d", res.Code)
	}
}

func TestGetStatic(t *testing.T) {
	tests := map[string]struct {
		frames         framesStub
		expectedStatus int
		expectedBody   string
	}{
		"frame rendered": {
			frames:         framesStub{frame: []byte("png")},
			expectedStatus: http.StatusOK,
			expectedBody:   "png",
		},
		"nothing rendered yet": {
			frames:         framesStub{err: noise.ErrNoFrame},
			expectedStatus: http.StatusNoContent,
		},
		"rendering failed": {
			frames:         framesStub{err: errors.New("broken")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			// given
			f := newFixture(test.frames)

			// when
			res := httptest.NewRecorder()
			f.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, staticPath, nil))

			// then
			if res.Code != test.expectedStatus {
				t.Errorf("Expected status %d, got %d", test.expectedStatus, res.Code)
			}

			if res.Body.String() != test.expectedBody {
				t.Errorf("Expected body '%s', got '%s'", test.expectedBody, res.Body.String())
			}
		})
	}
}

func TestStatic_NotRoutedWithoutFrames(t *testing.T) {
	// given
	f := newFixture(nil)

	// when
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, staticPath, nil))

	// then
	if res.Code != http.StatusNotFound {
		t.Errorf("Expected not found, got %d", res.Code)
	}
}
