package library

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state/internal/revision"
)

var (
	errNoDirectoryAvailable = errors.New("directory does not exist")
	errNoEntryAvailable     = errors.New("entry does not exist")
	errNotAccepted          = errors.New("file extension is not accepted")
)

const (
	// AddedDirectoryChange notifies about a new directory handled by the library.
	AddedDirectoryChange common.ChangeVariant = "addedDirectory"

	// RemovedDirectoryChange notifies about a directory, along with its entries, removed from the library.
	RemovedDirectoryChange common.ChangeVariant = "removedDirectory"

	// AddedEntriesChange notifies about new media files found in directories.
	AddedEntriesChange common.ChangeVariant = "addedEntries"

	// RemovedEntriesChange notifies about media files that disappeared from directories.
	RemovedEntriesChange common.ChangeVariant = "removedEntries"
)

type SubscriberCB = func(change Change)

// Entry is a media file inside one of the library directories.
type Entry struct {
	Directory string `json:"Directory"`
	Label     string `json:"Label"`
	Path      string `json:"Path"`
}

// Snapshot is a copy of the library.
type Snapshot struct {
	Directories []common.Directory `json:"Directories"`
	Entries     []Entry            `json:"Entries"`
}

// Change holds directories and entries affected by a change.
type Change struct {
	ChangeVariant common.ChangeVariant
	Directories   []common.Directory
	Entries       []Entry
}

// MarshalJSON returns change items in JSON format. Satisfies json.Marshaller.
func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal(Snapshot{
		Directories: c.Directories,
		Entries:     c.Entries,
	})
}

func (c Change) Variant() common.ChangeVariant {
	return c.ChangeVariant
}

// Storage holds directories and media files that can be loaded without picking them.
type Storage struct {
	broadcaster *common.ChangesBroadcaster[Change]
	constraints media.Constraints
	directories map[string]common.Directory
	entries     map[string]Entry
	lock        *sync.RWMutex
	revision    *revision.Storage
}

// NewStorage constructs library state accepting files satisfying constraints.
func NewStorage(broadcaster *common.ChangesBroadcaster[Change], constraints media.Constraints) *Storage {
	return &Storage{
		broadcaster: broadcaster,
		constraints: constraints,
		directories: map[string]common.Directory{},
		entries:     map[string]Entry{},
		lock:        &sync.RWMutex{},
		revision:    revision.NewStorage(),
	}
}

// AddDirectory adds directory to the library. Already present directory is overwritten.
func (s *Storage) AddDirectory(dir common.Directory) {
	dir.Path = common.EnsureDirectoryPath(dir.Path)

	s.lock.Lock()
	s.directories[dir.Path] = dir
	s.lock.Unlock()

	s.notify(Change{
		ChangeVariant: AddedDirectoryChange,
		Directories:   []common.Directory{dir},
	})
}

// DirectoryByPath returns a directory by a provided path.
func (s *Storage) DirectoryByPath(path string) (common.Directory, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	dir, ok := s.directories[common.EnsureDirectoryPath(path)]
	if !ok {
		return common.Directory{}, errNoDirectoryAvailable
	}

	return dir, nil
}

// TakeDirectory removes directory and all entries inside it, returning the removed directory.
func (s *Storage) TakeDirectory(path string) (common.Directory, error) {
	keyPath := common.EnsureDirectoryPath(path)

	s.lock.Lock()
	dir, ok := s.directories[keyPath]
	if !ok {
		s.lock.Unlock()
		return common.Directory{}, errNoDirectoryAvailable
	}

	delete(s.directories, keyPath)
	removed := []Entry{}
	for entryPath, entry := range s.entries {
		if entry.Directory != keyPath {
			continue
		}

		removed = append(removed, entry)
		delete(s.entries, entryPath)
	}
	s.lock.Unlock()

	sortEntries(removed)
	s.notify(Change{
		ChangeVariant: RemovedDirectoryChange,
		Directories:   []common.Directory{dir},
		Entries:       removed,
	})

	return dir, nil
}

// AddEntries adds files placed directly inside library directories.
// Paths with not accepted extensions, paths outside of directories and already present paths are skipped.
// Returns added entries.
func (s *Storage) AddEntries(paths []string) []Entry {
	added := []Entry{}

	s.lock.Lock()
	for _, path := range paths {
		entry, err := s.entryFor(path)
		if err != nil {
			continue
		}

		if _, ok := s.entries[entry.Path]; ok {
			continue
		}

		s.entries[entry.Path] = entry
		added = append(added, entry)
	}
	s.lock.Unlock()

	if len(added) == 0 {
		return added
	}

	sortEntries(added)
	s.notify(Change{
		ChangeVariant: AddedEntriesChange,
		Entries:       added,
	})

	return added
}

// TakeEntries removes entries under paths. Unknown paths are skipped.
// Returns removed entries.
func (s *Storage) TakeEntries(paths []string) []Entry {
	removed := []Entry{}

	s.lock.Lock()
	for _, path := range paths {
		entry, ok := s.entries[filepath.Clean(path)]
		if !ok {
			continue
		}

		delete(s.entries, entry.Path)
		removed = append(removed, entry)
	}
	s.lock.Unlock()

	if len(removed) == 0 {
		return removed
	}

	sortEntries(removed)
	s.notify(Change{
		ChangeVariant: RemovedEntriesChange,
		Entries:       removed,
	})

	return removed
}

// EntryByPath returns entry by a provided path.
func (s *Storage) EntryByPath(path string) (Entry, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	entry, ok := s.entries[filepath.Clean(path)]
	if !ok {
		return Entry{}, errNoEntryAvailable
	}

	return entry, nil
}

// Directories returns all directories sorted by path.
func (s *Storage) Directories() []common.Directory {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.sortedDirectories()
}

// Entries returns all entries sorted by path.
func (s *Storage) Entries() []Entry {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.sortedEntries()
}

// MarshalJSON satisifes json.Marshaller.
func (s *Storage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func (s *Storage) Revision() revision.Identifier {
	return s.revision.Revision()
}

func (s *Storage) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return Snapshot{
		Directories: s.sortedDirectories(),
		Entries:     s.sortedEntries(),
	}
}

func (s *Storage) Subscribe(cb SubscriberCB, onError func(err error)) func() {
	return s.broadcaster.Subscribe(common.SubscriberFunc[Change](cb))
}

// entryFor creates entry for path when its parent is a library directory. Caller holds the lock.
func (s *Storage) entryFor(path string) (Entry, error) {
	path = filepath.Clean(path)
	if !s.constraints.Accepts(path) {
		return Entry{}, errNotAccepted
	}

	dirPath := common.EnsureDirectoryPath(filepath.Dir(path))
	if _, ok := s.directories[dirPath]; !ok {
		return Entry{}, errNoDirectoryAvailable
	}

	return Entry{
		Directory: dirPath,
		Label:     media.Label(path),
		Path:      path,
	}, nil
}

func (s *Storage) notify(change Change) {
	s.revision.Tick()
	if s.broadcaster == nil {
		return
	}

	s.broadcaster.Send(change)
}

func (s *Storage) sortedDirectories() []common.Directory {
	dirs := make([]common.Directory, 0, len(s.directories))
	for _, dir := range s.directories {
		dirs = append(dirs, dir)
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].Path < dirs[j].Path
	})

	return dirs
}

func (s *Storage) sortedEntries() []Entry {
	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}

	sortEntries(entries)
	return entries
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return strings.Compare(entries[i].Path, entries[j].Path) < 0
	})
}
