// Package noise renders grayscale static frames shown over the viewport until the first interaction.
package noise

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/sarpt/crt-jukebox/internal/common"
)

const (
	logPrefix = "noise.Task#"

	defaultWidth    = 320
	defaultHeight   = 240
	defaultInterval = time.Second / 30
)

var (
	// ErrNoFrame informs that nothing was rendered yet.
	ErrNoFrame = errors.New("no noise frame rendered")
)

type Config struct {
	ErrWriter io.Writer
	Height    int
	Interval  time.Duration
	OutWriter io.Writer
	Width     int
}

// Task renders noise frames in the background between Start and Stop.
type Task struct {
	cancel   context.CancelFunc
	done     chan struct{}
	errLog   *log.Logger
	frame    []byte
	frames   uint64
	height   int
	interval time.Duration
	lock     *sync.RWMutex
	outLog   *log.Logger
	random   *rand.Rand
	width    int
}

func NewTask(cfg Config) *Task {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	return &Task{
		errLog:   log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		height:   cfg.Height,
		interval: cfg.Interval,
		lock:     &sync.RWMutex{},
		outLog:   log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		random:   rand.New(rand.NewSource(time.Now().UnixNano())),
		width:    cfg.Width,
	}
}

// Start begins rendering frames until Stop is called or ctx finishes.
// Returns false when the task is already running.
func (t *Task) Start(ctx context.Context) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.cancel != nil {
		return false
	}

	taskCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)

		err := common.RestartWithContext(taskCtx, t.render, t.interval)
		if err != nil {
			t.errLog.Printf("rendering stopped with an error: %s\n", err)
		}
	}()

	return true
}

// Stop cancels rendering and waits for the rendering goroutine to finish.
// Returns false when the task was not running.
func (t *Task) Stop() bool {
	t.lock.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.done = nil
	t.lock.Unlock()

	if cancel == nil {
		return false
	}

	cancel()
	<-done
	return true
}

// Running reports whether frames are being rendered.
func (t *Task) Running() bool {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.cancel != nil
}

// Frame returns the most recently rendered frame encoded as PNG.
func (t *Task) Frame() ([]byte, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if t.frame == nil {
		return nil, ErrNoFrame
	}

	return t.frame, nil
}

// Frames returns number of frames rendered since creation.
func (t *Task) Frames() uint64 {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.frames
}

func (t *Task) render() error {
	img := image.NewGray(image.Rect(0, 0, t.width, t.height))
	t.random.Read(img.Pix)

	buf := &bytes.Buffer{}
	err := png.Encode(buf, img)
	if err != nil {
		return err
	}

	t.lock.Lock()
	t.frame = buf.Bytes()
	t.frames++
	t.lock.Unlock()

	return nil
}
