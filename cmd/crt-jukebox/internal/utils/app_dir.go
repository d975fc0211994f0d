package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	socketsSubdir = "sockets"
	blobsSubdir   = "blobs"
)

var (
	appDirId          = "crt-jukebox"
	defaultAppDirName = fmt.Sprintf(".%s", appDirId)
)

// AppDirs lists directories used by a running jukebox.
type AppDirs struct {
	// Blobs holds contents of files uploaded through the browser.
	Blobs string
	// Sockets holds IPC sockets of spawned players.
	Sockets string
}

// HandleAppDir ensures app and cache directories exist. Defaults are used for empty paths.
func HandleAppDir(appDir string, cacheDir string) (AppDirs, error) {
	if appDir == "" {
		appDir = getDefaultAppDir()
	}

	cachePath, err := GetCachePath(cacheDir)
	if err != nil {
		return AppDirs{}, err
	}

	dirs := AppDirs{
		Blobs:   filepath.Join(cachePath, blobsSubdir),
		Sockets: filepath.Join(appDir, socketsSubdir),
	}

	for _, dirPath := range []string{dirs.Blobs, dirs.Sockets} {
		err := os.MkdirAll(dirPath, 0750)
		if err != nil {
			return AppDirs{}, err
		}
	}

	return dirs, nil
}

func getDefaultAppDir() string {
	var appPathDefaultBase string
	homeDir, err := os.UserHomeDir()
	if err != nil {
		appPathDefaultBase = os.TempDir()
	} else {
		appPathDefaultBase = homeDir
	}

	return filepath.Join(appPathDefaultBase, defaultAppDirName)
}

func GetCachePath(dir string) (string, error) {
	if len(dir) > 0 {
		return dir, nil
	}

	cacheDirPath, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("could not open user cache dir: %w", err)
	}

	return filepath.Join(cacheDirPath, appDirId), nil
}
