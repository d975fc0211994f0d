package common

import (
	"fmt"
	"path/filepath"
)

// Directory is a library root whose media files can be loaded without a dialog.
type Directory struct {
	Path    string
	Watched bool
}

// EnsureDirectoryPath returns cleaned path ending with a separator, so it can be used as a map key and prefix.
func EnsureDirectoryPath(path string) string {
	path = filepath.Clean(path)
	if path[len(path)-1] == filepath.Separator {
		return path
	}

	return fmt.Sprintf("%s%c", path, filepath.Separator)
}
