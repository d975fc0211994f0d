package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHandleAppDir_CreatesSubdirectories(t *testing.T) {
	// given
	appDir := filepath.Join(t.TempDir(), "app")
	cacheDir := filepath.Join(t.TempDir(), "cache")

	// when
	dirs, err := HandleAppDir(appDir, cacheDir)

	// then
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if dirs.Sockets != filepath.Join(appDir, socketsSubdir) {
		t.Errorf("Unexpected sockets directory %s", dirs.Sockets)
	}

	if dirs.Blobs != filepath.Join(cacheDir, blobsSubdir) {
		t.Errorf("Unexpected blobs directory %s", dirs.Blobs)
	}

	for _, dir := range []string{dirs.Sockets, dirs.Blobs} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("Expected directory %s to exist", dir)
		}
	}
}

func TestGetCachePath_PrefersProvidedDirectory(t *testing.T) {
	// when
	path, err := GetCachePath("/var/cache/jukebox")

	// then
	if err != nil || path != "/var/cache/jukebox" {
		t.Errorf("Expected provided directory, got %s with %v", path, err)
	}
}
