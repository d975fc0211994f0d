package playlist

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/internal/metrics"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state/internal/revision"
)

const (
	logPrefix = "playlist.Store#"

	// PageSize is a number of filmstrip cells visible at once.
	PageSize = 4

	// NoSelection is a value of selected index when nothing is selected.
	NoSelection = -1

	// LoadedChange notifies about replacement of the whole playlist.
	LoadedChange common.ChangeVariant = "loaded"

	// SelectionChange notifies about change of the selected item.
	SelectionChange common.ChangeVariant = "selectionChange"

	// PageChange notifies about change of the first visible filmstrip item.
	PageChange common.ChangeVariant = "pageChange"

	// StartedAllChange notifies about every item being restarted from the beginning.
	StartedAllChange common.ChangeVariant = "startedAll"

	// MutedChange notifies about all items except selected being muted.
	MutedChange common.ChangeVariant = "mutedChange"

	// DisposedChange notifies about the playlist being cleared for good.
	DisposedChange common.ChangeVariant = "disposed"
)

// Pool manages playback elements of the playlist items.
type Pool interface {
	Mount(idx int)
	MuteAllExcept(idx int)
	ParkAll()
	Populate(sources []media.Source) error
	TeardownAll()
}

// Revoker releases urls allocated for items sources.
type Revoker interface {
	Revoke(url string)
}

type SubscriberCB = func(change Change)

// Item is an immutable playlist entry.
type Item struct {
	ID    string `json:"ID"`
	Label string `json:"Label"`
	URL   string `json:"URL"`
}

// Cell is a single visible filmstrip thumbnail.
type Cell struct {
	Idx      int    `json:"Idx"`
	Label    string `json:"Label"`
	Selected bool   `json:"Selected"`
	URL      string `json:"URL"`
}

// Snapshot is a copy of the playlist state.
type Snapshot struct {
	Items       []Item `json:"Items"`
	PageStart   int    `json:"PageStart"`
	SelectedIdx int    `json:"SelectedIdx"`
	Window      []Cell `json:"Window"`
}

// Change is used to inform about changes to the playlist.
type Change struct {
	ChangeVariant common.ChangeVariant
	Snapshot      Snapshot
}

// MarshalJSON returns playlist snapshot in JSON format. Satisfies json.Marshaller.
func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot)
}

func (c Change) Variant() common.ChangeVariant {
	return c.ChangeVariant
}

type Config struct {
	Broadcaster *common.ChangesBroadcaster[Change]
	ErrWriter   io.Writer
	OutWriter   io.Writer
	Pool        Pool
	Revoker     Revoker
}

// Store owns ordered playlist items, the filmstrip page offset and the selection.
// Every operation runs to completion under the store lock, before the next one starts.
type Store struct {
	broadcaster *common.ChangesBroadcaster[Change]
	errLog      *log.Logger
	items       []Item
	lock        *sync.RWMutex
	outLog      *log.Logger
	pageStart   int
	pool        Pool
	revision    *revision.Storage
	revoker     Revoker
	selectedIdx int
}

func NewStore(cfg Config) *Store {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	return &Store{
		broadcaster: cfg.Broadcaster,
		errLog:      log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		items:       []Item{},
		lock:        &sync.RWMutex{},
		outLog:      log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		pool:        cfg.Pool,
		revision:    revision.NewStorage(),
		revoker:     cfg.Revoker,
		selectedIdx: NoSelection,
	}
}

// Load replaces the whole playlist with sources.
// Urls of previous items are revoked and their elements torn down before elements for the new items are created.
// Page and selection are reset. When elements cannot be created the playlist stays empty and the error is returned.
func (s *Store) Load(sources []media.Source) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.clear()

	items := make([]Item, 0, len(sources))
	for _, source := range sources {
		items = append(items, Item{
			ID:    uuid.NewString(),
			Label: source.Label,
			URL:   source.URL,
		})
	}

	err := s.pool.Populate(sources)
	if err != nil {
		s.errLog.Printf("could not load %d items: %s\n", len(items), err)
		s.revokeAll(items)
		s.notify(LoadedChange)

		return err
	}

	s.items = items
	metrics.LoadsTotal.Inc()
	metrics.PlaylistItems.Set(float64(len(items)))
	s.outLog.Printf("loaded %d items\n", len(items))
	s.notify(LoadedChange)

	return nil
}

// SelectIndex selects item at idx, wrapping around when out of range, and mounts it.
// Negative index selects the last item, index past the end selects the first one.
// Does nothing for an empty playlist.
func (s *Store) SelectIndex(idx int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.selectIndex(idx)
}

// Rotate moves selection by dir (-1 or +1), wrapping around.
func (s *Store) Rotate(dir int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.selectIndex(s.selectedIdx + dir)
}

// Page shifts the first visible filmstrip item by dir pages.
// Does nothing when all items fit into a single page.
func (s *Store) Page(dir int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	count := len(s.items)
	if count <= PageSize {
		return
	}

	s.pageStart = wrap(s.pageStart+dir*PageSize, count)
	s.notify(PageChange)
}

// SelectVisible selects n-th (starting from 1) visible filmstrip item.
func (s *Store) SelectVisible(n int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	count := len(s.items)
	if count == 0 {
		return
	}

	s.selectIndex(wrap(s.pageStart+n-1, count))
}

// StartAll restarts every item from the beginning, muted and parked, then mounts the selection.
// First item is selected when nothing was selected before.
func (s *Store) StartAll() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.items) == 0 {
		return
	}

	s.pool.ParkAll()
	if s.selectedIdx == NoSelection {
		s.selectedIdx = 0
	}
	s.pool.Mount(s.selectedIdx)

	s.notify(StartedAllChange)
}

// MuteAllExceptSelected mutes every item other than the selected one.
func (s *Store) MuteAllExceptSelected() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.items) == 0 {
		return
	}

	s.pool.MuteAllExcept(s.selectedIdx)
	s.notify(MutedChange)
}

// Dispose tears down all elements and revokes all urls, leaving an empty playlist.
func (s *Store) Dispose() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.clear()
	s.notify(DisposedChange)
}

// Items returns a copy of all items.
func (s *Store) Items() []Item {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return append([]Item{}, s.items...)
}

// Len returns number of items.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.items)
}

// MarshalJSON satisifes json.Marshaller.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func (s *Store) PageStart() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.pageStart
}

func (s *Store) Revision() revision.Identifier {
	return s.revision.Revision()
}

func (s *Store) SelectedIdx() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.selectedIdx
}

// Snapshot returns a copy of the playlist state along with the visible filmstrip window.
func (s *Store) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.snapshot()
}

func (s *Store) Subscribe(cb SubscriberCB, onError func(err error)) func() {
	return s.broadcaster.Subscribe(common.SubscriberFunc[Change](cb))
}

// Window returns up to PageSize filmstrip cells starting at the page start, wrapping around.
func (s *Store) Window() []Cell {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.window()
}

// clear revokes urls, tears down elements and resets the state. Caller holds the write lock.
func (s *Store) clear() {
	s.revokeAll(s.items)
	s.pool.TeardownAll()

	s.items = []Item{}
	s.pageStart = 0
	s.selectedIdx = NoSelection
	metrics.PlaylistItems.Set(0)
}

func (s *Store) notify(variant common.ChangeVariant) {
	s.revision.Tick()
	if s.broadcaster == nil {
		return
	}

	s.broadcaster.Send(Change{
		ChangeVariant: variant,
		Snapshot:      s.snapshot(),
	})
}

func (s *Store) revokeAll(items []Item) {
	if s.revoker == nil {
		return
	}

	for _, item := range items {
		s.revoker.Revoke(item.URL)
	}
}

// selectIndex is SelectIndex without locking. Caller holds the write lock.
func (s *Store) selectIndex(idx int) {
	count := len(s.items)
	if count == 0 {
		return
	}

	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}

	s.selectedIdx = idx
	s.pool.Mount(idx)
	s.notify(SelectionChange)
}

func (s *Store) snapshot() Snapshot {
	return Snapshot{
		Items:       append([]Item{}, s.items...),
		PageStart:   s.pageStart,
		SelectedIdx: s.selectedIdx,
		Window:      s.window(),
	}
}

func (s *Store) window() []Cell {
	count := len(s.items)
	visible := PageSize
	if count < visible {
		visible = count
	}

	cells := make([]Cell, 0, visible)
	for offset := 0; offset < visible; offset++ {
		idx := (s.pageStart + offset) % count
		item := s.items[idx]

		cells = append(cells, Cell{
			Idx:      idx,
			Label:    item.Label,
			Selected: idx == s.selectedIdx,
			URL:      item.URL,
		})
	}

	return cells
}

// wrap returns idx modulo count, always non-negative.
func wrap(idx, count int) int {
	return ((idx % count) + count) % count
}
