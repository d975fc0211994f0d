package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarpt/crt-jukebox/internal/common"
)

var (
	// ErrPathNotDirectory informs that provided path cannot be added as a library directory.
	ErrPathNotDirectory = errors.New("path is not a directory")
)

// AddDirectories adds library directories, their media files and starts watching them for changes.
// All directories are checked before any of them is added.
func (s *Server) AddDirectories(directories []string) error {
	for _, directory := range directories {
		info, err := os.Stat(directory)
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrPathNotDirectory, directory)
		}
	}

	for _, directory := range directories {
		err := s.addDirectory(directory)
		if err != nil {
			return err
		}
	}

	return nil
}

// TakeDirectory stops watching directory and removes it with its entries from the library.
func (s *Server) TakeDirectory(directory string) error {
	dir, err := s.repository.Library().TakeDirectory(directory)
	if err != nil {
		return err
	}

	if !dir.Watched {
		return nil
	}

	return s.fsWatcher.Remove(filepath.Clean(dir.Path))
}

func (s *Server) addDirectory(directory string) error {
	watched := true
	err := s.fsWatcher.Add(directory)
	if err != nil {
		s.errLog.Printf("directory %s will not be watched for changes: %s\n", directory, err)
		watched = false
	}

	s.repository.Library().AddDirectory(common.Directory{
		Path:    directory,
		Watched: watched,
	})

	entries, err := os.ReadDir(directory)
	if err != nil {
		return fmt.Errorf("could not read directory %s: %w", directory, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		paths = append(paths, filepath.Join(directory, entry.Name()))
	}

	added := s.repository.Library().AddEntries(paths)
	s.outLog.Printf("added directory %s with %d media files\n", directory, len(added))

	return nil
}
