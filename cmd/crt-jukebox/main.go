package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sarpt/goutils/pkg/listflag"

	"github.com/sarpt/crt-jukebox/cmd/crt-jukebox/internal/utils"
	"github.com/sarpt/crt-jukebox/pkg/api"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/mpv"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
)

const (
	defaultAddress = "localhost:3001"

	mpvBackend     = "mpv"
	virtualBackend = "virtual"

	addrFlag      = "addr"
	allowCorsFlag = "allow-cors"
	appDirFlag    = "app-dir"
	backendFlag   = "backend"
	cacheDirFlag  = "cache-dir"
	dialogFlag    = "dialog"
	dirFlag       = "dir"
	mpvFlag       = "mpv"
	pickerFlag    = "picker"
)

var (
	address   *string
	allowCORS *bool
	appDir    *string
	backend   *string
	cacheDir  *string
	dialog    *string
	dir       *listflag.StringList
	mpvBinary *string
	picker    *string
)

func init() {
	dir = listflag.NewStringList([]string{})

	flag.Var(dir, dirFlag, "library directory with media files which can be loaded without a pick. when left empty, current working directory will be used")
	address = flag.String(addrFlag, defaultAddress, "address on which server should listen on. default is localhost:3001")
	allowCORS = flag.Bool(allowCorsFlag, false, "when not provided, Cross Origin Site Requests will be rejected")
	appDir = flag.String(appDirFlag, "", "directory for players sockets. default is .crt-jukebox in the home directory")
	backend = flag.String(backendFlag, mpvBackend, "playback backend, either mpv or virtual (no playback, state only)")
	cacheDir = flag.String(cacheDirFlag, "", "directory for contents of uploaded files. default is crt-jukebox in the user cache directory")
	dialog = flag.String(dialogFlag, "", "file dialog binary. default is zenity")
	mpvBinary = flag.String(mpvFlag, "", "mpv binary. default is mpv found in PATH")
	picker = flag.String(pickerFlag, "", "files picker, either dialog or upload. when left empty, dialog is used when available")

	flag.Parse()
}

func main() {
	dirs, err := utils.HandleAppDir(*appDir, *cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not prepare app directories: %s\n", err)
		os.Exit(1)
	}

	factory, err := playbackFactory(*backend, dirs.Sockets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	cfg := api.Config{
		Address:      *address,
		AllowCORS:    *allowCORS,
		BlobsDir:     dirs.Blobs,
		DialogBinary: *dialog,
		Factory:      factory,
		Picker:       media.PickerVariant(*picker),
	}
	server, err := api.NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	var libraryDirectories []string
	if len(dir.Values()) == 0 {
		wd, err := os.Getwd()
		if err == nil {
			libraryDirectories = append(libraryDirectories, wd)
		}
	} else {
		libraryDirectories = append(libraryDirectories, dir.Values()...)
	}

	fmt.Fprintf(os.Stdout, "directories being watched for media files:\n%s\n", strings.Join(libraryDirectories, "\n"))
	err = server.AddDirectories(libraryDirectories)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not add library directories: %s\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = server.Serve(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func playbackFactory(backend string, socketsDir string) (pool.Factory, error) {
	switch backend {
	case mpvBackend:
		return mpv.NewFactory(mpv.FactoryConfig{
			Binary:     *mpvBinary,
			SocketsDir: socketsDir,
		}), nil
	case virtualBackend:
		return pool.NewVirtualFactory(), nil
	default:
		return nil, fmt.Errorf("unknown playback backend '%s', expected %s or %s", backend, mpvBackend, virtualBackend)
	}
}
