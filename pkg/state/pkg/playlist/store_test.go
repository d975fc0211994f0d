package playlist_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/playlist"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
)

type revokerSpy struct {
	revoked []string
}

func (r *revokerSpy) Revoke(url string) {
	r.revoked = append(r.revoked, url)
}

type fixture struct {
	elements []*pool.VirtualElement
	manager  *pool.Manager
	revoker  *revokerSpy
	store    *playlist.Store
}

func newFixture(failAt int) *fixture {
	f := &fixture{
		revoker: &revokerSpy{},
	}

	factory := pool.FactoryFunc(func(source media.Source) (pool.Element, error) {
		if failAt >= 0 && len(f.elements) == failAt {
			return nil, errors.New("cannot create")
		}

		element := pool.NewVirtualElement(source)
		f.elements = append(f.elements, element)
		return element, nil
	})

	f.manager = pool.NewManager(pool.Config{
		ErrWriter: io.Discard,
		Factory:   factory,
		OutWriter: io.Discard,
	})
	f.store = playlist.NewStore(playlist.Config{
		ErrWriter: io.Discard,
		OutWriter: io.Discard,
		Pool:      f.manager,
		Revoker:   f.revoker,
	})

	return f
}

func sources(labels ...string) []media.Source {
	result := make([]media.Source, 0, len(labels))
	for _, label := range labels {
		result = append(result, media.Source{
			URL:   fmt.Sprintf("file:///videos/%s.mp4", label),
			Label: label,
		})
	}

	return result
}

func (f *fixture) assertLive(t *testing.T, idx int) {
	t.Helper()

	if count := f.manager.LiveCount(); count > 1 {
		t.Fatalf("Expected at most one live element, got %d", count)
	}

	for elementIdx, element := range f.elements[len(f.elements)-f.manager.Len():] {
		live := !element.Muted() && element.Slot() == pool.ViewportSlot
		if live != (elementIdx == idx) {
			t.Errorf("Expected element %d live state to be %t", elementIdx, elementIdx == idx)
		}
	}
}

func TestLoad_ResetsSelectionAndPage(t *testing.T) {
	// given
	f := newFixture(-1)

	// when
	err := f.store.Load(sources("A", "B", "C", "D", "E"))

	// then
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if f.store.SelectedIdx() != playlist.NoSelection {
		t.Errorf("Expected no selection, got %d", f.store.SelectedIdx())
	}

	if f.store.PageStart() != 0 {
		t.Errorf("Expected page start 0, got %d", f.store.PageStart())
	}

	if f.manager.Len() != 5 {
		t.Errorf("Expected 5 pooled elements, got %d", f.manager.Len())
	}

	for idx, element := range f.elements {
		if !element.Muted() || element.Slot() != pool.ParkedSlot {
			t.Errorf("Expected element %d to be muted and parked", idx)
		}
	}
}

func TestSelectAndRotate_CyclesThroughItems(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C", "D", "E"))

	// when
	f.store.SelectIndex(0)

	// then
	f.assertLive(t, 0)

	for _, expected := range []string{"B", "C", "D", "E", "A"} {
		// when
		f.store.Rotate(1)

		// then
		selected := f.store.Items()[f.store.SelectedIdx()]
		if selected.Label != expected {
			t.Errorf("Expected %s to be selected, got %s", expected, selected.Label)
		}
		f.assertLive(t, f.store.SelectedIdx())
	}
}

func TestRotate_BackwardsFromFirstWrapsToLast(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C"))
	f.store.SelectIndex(0)

	// when
	f.store.Rotate(-1)

	// then
	if f.store.SelectedIdx() != 2 {
		t.Errorf("Expected selection 2, got %d", f.store.SelectedIdx())
	}
	f.assertLive(t, 2)
}

func TestRotate_StaysInRangeForAnySequence(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C", "D", "E", "F", "G"))
	dirs := []int{1, 1, -1, -1, -1, -1, 1, -1, -1, -1, -1, -1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	for _, dir := range dirs {
		// when
		f.store.Rotate(dir)

		// then
		idx := f.store.SelectedIdx()
		if idx < 0 || idx >= 7 {
			t.Fatalf("Selection %d out of range", idx)
		}
		f.assertLive(t, idx)
	}
}

func TestPage_NoopForSinglePage(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C"))

	// when
	f.store.Page(1)

	// then
	if f.store.PageStart() != 0 {
		t.Errorf("Expected page start 0, got %d", f.store.PageStart())
	}
}

func TestPage_WrapsModuloLength(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C", "D", "E", "F"))

	// when
	f.store.Page(1)

	// then
	if f.store.PageStart() != 4 {
		t.Errorf("Expected page start 4, got %d", f.store.PageStart())
	}

	// when
	f.store.Page(1)

	// then
	if f.store.PageStart() != 2 {
		t.Errorf("Expected page start 2, got %d", f.store.PageStart())
	}

	// when
	f.store.Page(-1)
	f.store.Page(-1)

	// then
	if f.store.PageStart() != 0 {
		t.Errorf("Expected page start 0, got %d", f.store.PageStart())
	}
}

func TestWindow_WrapsAroundAndMarksSelection(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C", "D", "E", "F"))
	f.store.Page(1)
	f.store.SelectIndex(5)

	// when
	window := f.store.Window()

	// then
	expected := []int{4, 5, 0, 1}
	if len(window) != len(expected) {
		t.Fatalf("Expected %d cells, got %d", len(expected), len(window))
	}

	for idx, cell := range window {
		if cell.Idx != expected[idx] {
			t.Errorf("Expected cell %d to show item %d, got %d", idx, expected[idx], cell.Idx)
		}

		if cell.Selected != (cell.Idx == 5) {
			t.Errorf("Unexpected selected flag for cell %d", idx)
		}
	}
}

func TestSelectVisible_SelectsRelativeToPageStart(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C", "D", "E", "F"))
	f.store.Page(1)

	// when
	f.store.SelectVisible(3)

	// then
	if f.store.SelectedIdx() != 0 {
		t.Errorf("Expected selection 0, got %d", f.store.SelectedIdx())
	}
	f.assertLive(t, 0)
}

func TestEmptyPlaylist_NavigationIsNoop(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources())

	// when
	f.store.SelectIndex(0)
	f.store.Rotate(1)
	f.store.Rotate(-1)
	f.store.Page(1)
	f.store.SelectVisible(2)
	f.store.StartAll()
	f.store.MuteAllExceptSelected()

	// then
	if f.store.SelectedIdx() != playlist.NoSelection {
		t.Errorf("Expected no selection, got %d", f.store.SelectedIdx())
	}

	if f.store.PageStart() != 0 {
		t.Errorf("Expected page start 0, got %d", f.store.PageStart())
	}

	if len(f.store.Window()) != 0 {
		t.Errorf("Expected empty window")
	}
}

func TestStartAll_SelectsFirstAndRestartsEveryElement(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C"))

	// when
	f.store.StartAll()

	// then
	if f.store.SelectedIdx() != 0 {
		t.Errorf("Expected selection 0, got %d", f.store.SelectedIdx())
	}

	for idx, element := range f.elements {
		if !element.Playing() {
			t.Errorf("Expected element %d to be playing", idx)
		}
	}
	f.assertLive(t, 0)
}

func TestStartAll_KeepsExistingSelection(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C"))
	f.store.SelectIndex(2)

	// when
	f.store.StartAll()

	// then
	if f.store.SelectedIdx() != 2 {
		t.Errorf("Expected selection 2, got %d", f.store.SelectedIdx())
	}
	f.assertLive(t, 2)
}

func TestMuteAllExceptSelected(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B", "C"))
	f.store.SelectIndex(1)

	// when
	f.store.MuteAllExceptSelected()

	// then
	for idx, element := range f.elements {
		if element.Muted() != (idx != 1) {
			t.Errorf("Unexpected mute state of element %d", idx)
		}
	}
}

func TestLoad_ReplacementTearsDownAndRevokes(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B"))
	f.store.SelectIndex(1)
	previous := append([]*pool.VirtualElement{}, f.elements...)

	// when
	f.store.Load(sources("C"))

	// then
	for idx, element := range previous {
		if !element.Closed() {
			t.Errorf("Expected previous element %d to be closed", idx)
		}
	}

	expectedRevoked := []string{"file:///videos/A.mp4", "file:///videos/B.mp4"}
	if fmt.Sprint(f.revoker.revoked) != fmt.Sprint(expectedRevoked) {
		t.Errorf("Expected revoked %v, got %v", expectedRevoked, f.revoker.revoked)
	}

	if f.store.SelectedIdx() != playlist.NoSelection || f.manager.Len() != 1 {
		t.Errorf("Expected fresh playlist with one element")
	}
}

func TestLoad_ElementCreationFailureLeavesEmptyPlaylist(t *testing.T) {
	// given
	f := newFixture(1)

	// when
	err := f.store.Load(sources("A", "B", "C"))

	// then
	if !errors.Is(err, pool.ErrElementCreation) {
		t.Fatalf("Expected ErrElementCreation, got %v", err)
	}

	if f.store.Len() != 0 || f.manager.Len() != 0 {
		t.Errorf("Expected empty playlist and pool")
	}

	if !f.elements[0].Closed() {
		t.Errorf("Expected already created element to be closed")
	}
}

func TestDispose(t *testing.T) {
	// given
	f := newFixture(-1)
	f.store.Load(sources("A", "B"))

	// when
	f.store.Dispose()

	// then
	if f.store.Len() != 0 || f.manager.Len() != 0 {
		t.Errorf("Expected empty playlist and pool")
	}

	if len(f.revoker.revoked) != 2 {
		t.Errorf("Expected 2 revoked urls, got %d", len(f.revoker.revoked))
	}
}
