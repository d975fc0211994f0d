package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/samber/lo"

	"github.com/sarpt/crt-jukebox/internal/metrics"
)

const (
	resolverLogPrefix = "media.Resolver#"
)

var (
	// ErrPickInProgress informs that another pick is pending and has to finish first.
	ErrPickInProgress = errors.New("another pick is in progress")
)

type ResolverConfig struct {
	Blobs     *BlobStore
	ErrWriter io.Writer
	OutWriter io.Writer
	Picker    Picker
}

// Resolver turns picks into uniform sources, regardless of the picker variant that served them.
type Resolver struct {
	blobs   *BlobStore
	errLog  *log.Logger
	lock    *sync.Mutex
	outLog  *log.Logger
	picker  Picker
	picking bool
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	return &Resolver{
		blobs:  cfg.Blobs,
		errLog: log.New(cfg.ErrWriter, resolverLogPrefix, log.LstdFlags),
		lock:   &sync.Mutex{},
		outLog: log.New(cfg.OutWriter, resolverLogPrefix, log.LstdFlags),
		picker: cfg.Picker,
	}
}

// RequestFiles lets the user pick files and returns them as sources.
// Cancelled pick results in empty sources and nil error.
// Only one pick can be in progress, concurrent calls fail with ErrPickInProgress.
func (r *Resolver) RequestFiles(ctx context.Context, constraints Constraints) ([]Source, error) {
	r.lock.Lock()
	if r.picking {
		r.lock.Unlock()
		return nil, ErrPickInProgress
	}
	r.picking = true
	r.lock.Unlock()

	defer func() {
		r.lock.Lock()
		r.picking = false
		r.lock.Unlock()
	}()

	variant := string(r.picker.Variant())
	items, err := r.picker.Pick(ctx, constraints)
	if err != nil {
		metrics.PicksTotal.WithLabelValues(variant, metrics.PickFailed).Inc()
		return nil, err
	}

	if len(items) == 0 {
		metrics.PicksTotal.WithLabelValues(variant, metrics.PickCancelled).Inc()
		r.outLog.Printf("pick with %s picker cancelled\n", variant)

		return []Source{}, nil
	}

	metrics.PicksTotal.WithLabelValues(variant, metrics.PickSelected).Inc()
	sources := make([]Source, 0, len(items))
	for _, item := range items {
		source, err := r.normalize(item)
		if err != nil {
			r.errLog.Printf("could not resolve picked item: %s\n", err)
			continue
		}

		sources = append(sources, source)
	}

	r.outLog.Printf("resolved %d sources with %s picker\n", len(sources), variant)
	return sources, nil
}

// ResolvePaths converts filesystem paths into sources, skipping paths not accepted by constraints.
func (r *Resolver) ResolvePaths(paths []string, constraints Constraints) []Source {
	accepted := lo.Filter(paths, func(path string, _ int) bool {
		return path != "" && constraints.Accepts(path)
	})

	return lo.Map(accepted, func(path string, _ int) Source {
		return pathSource(path)
	})
}

// Revoke releases url allocated for an in-memory source. Other urls are ignored.
func (r *Resolver) Revoke(url string) {
	if r.blobs == nil {
		return
	}

	r.blobs.Revoke(url)
}

// PickerVariant returns variant of the picker selected for this resolver.
func (r *Resolver) PickerVariant() PickerVariant {
	return r.picker.Variant()
}

func (r *Resolver) normalize(item interface{}) (Source, error) {
	switch picked := item.(type) {
	case string:
		return pathSource(picked), nil
	case *Upload:
		defer picked.Close()

		return r.uploadSource(picked)
	default:
		url := fmt.Sprint(item)

		return Source{
			URL:   url,
			Label: lastSegment(url),
		}, nil
	}
}

func (r *Resolver) uploadSource(upload *Upload) (Source, error) {
	if r.blobs == nil {
		return Source{}, fmt.Errorf("%w: no blob store for upload %s", errBlobAllocationFailed, upload.Name)
	}

	content, err := upload.Open()
	if err != nil {
		return Source{}, fmt.Errorf("could not open upload %s: %w", upload.Name, err)
	}
	defer content.Close()

	url, err := r.blobs.Allocate(upload.Name, content)
	if err != nil {
		return Source{}, err
	}

	return Source{
		URL:   url,
		Label: stripExtension(upload.Name),
	}, nil
}

func pathSource(path string) Source {
	return Source{
		URL:   ToFileURL(path),
		Label: Label(path),
	}
}
