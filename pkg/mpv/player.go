package mpv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	mpvName = "mpv"

	idleArg           = "--idle"
	keepOpenArg       = "--keep-open"
	loopFileArg       = "--loop-file=inf"
	muteArg           = "--mute=yes"
	forceWindowArg    = "--force-window=yes"
	inputIpcServerArg = "--input-ipc-server"
	titleArg          = "--title"

	defaultConnectionTimeout = 5 * time.Second
	defaultRequestTimeout    = 2 * time.Second
	quitTimeout              = time.Second

	playerLogPrefix = "mpv.Player#"
)

var (
	// ErrPlayerClosed informs that the player was already closed.
	ErrPlayerClosed = errors.New("mpv player is closed")
)

// Controller is a facade of mpv commands used to drive a single player.
type Controller interface {
	Close() error
	LoadFile(url string) error
	Seek(seconds float64) error
	SetProperty(property string, value interface{}) (Response, error)
}

type PlayerConfig struct {
	Binary            string
	ConnectionTimeout time.Duration
	ErrWriter         io.Writer
	OutWriter         io.Writer
	RequestTimeout    time.Duration
	SocketPath        string
	Title             string
}

// Player owns a single mpv process, communicating with it through JSON IPC.
type Player struct {
	binary            string
	cd                *commandDispatcher
	closed            bool
	connectionTimeout time.Duration
	errLog            *log.Logger
	lock              *sync.Mutex
	mpvCmd            *exec.Cmd
	outLog            *log.Logger
	served            chan struct{}
	socketPath        string
	title             string
}

func NewPlayer(cfg PlayerConfig) *Player {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	if cfg.Binary == "" {
		cfg.Binary = mpvName
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = defaultConnectionTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	errLog := log.New(cfg.ErrWriter, playerLogPrefix, log.LstdFlags)
	outLog := log.New(cfg.OutWriter, playerLogPrefix, log.LstdFlags)

	return &Player{
		binary: cfg.Binary,
		cd: newCommandDispatcher(commandDispatcherConfig{
			errWriter:      errLog.Writer(),
			outWriter:      outLog.Writer(),
			requestTimeout: cfg.RequestTimeout,
		}),
		connectionTimeout: cfg.ConnectionTimeout,
		errLog:            errLog,
		lock:              &sync.Mutex{},
		outLog:            outLog,
		socketPath:        cfg.SocketPath,
		title:             cfg.Title,
	}
}

// Start spawns mpv process and connects to its IPC socket.
func (p *Player) Start(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.closed {
		return ErrPlayerClosed
	}

	os.Remove(p.socketPath)
	cmd := exec.Command(p.binary, p.args()...)
	err := cmd.Start()
	if err != nil {
		return fmt.Errorf("could not start mpv process: %w", err)
	}
	p.mpvCmd = cmd
	p.outLog.Printf("mpv process %d started with socket at '%s'\n", cmd.Process.Pid, p.socketPath)

	connectCtx, cancel := context.WithTimeout(ctx, p.connectionTimeout)
	defer cancel()

	conn, err := waitForSocketConnection(connectCtx, p.socketPath)
	if err != nil {
		p.killProcess()
		return err
	}

	return p.serve(conn)
}

// Close quits mpv and releases the connection. Process is killed when it does not quit on its own.
func (p *Player) Close() error {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return nil
	}
	p.closed = true
	served := p.served
	p.lock.Unlock()

	_, err := p.cd.Request(command{
		name: quitCommand,
	})
	if err != nil && !errors.Is(err, ErrNotConnected) {
		p.errLog.Printf("quit request failed: %s\n", err)
	}

	closeErr := p.cd.Close()
	if served != nil {
		<-served
	}

	p.lock.Lock()
	p.killProcess()
	p.lock.Unlock()

	os.Remove(p.socketPath)
	return closeErr
}

// LoadFile instructs mpv to replace its playback with the url.
func (p *Player) LoadFile(url string) error {
	_, err := p.cd.Request(command{
		name:     loadfileCommand,
		elements: []interface{}{url, ReplaceValue},
	})

	return err
}

// Seek moves playback to the absolute position in seconds.
func (p *Player) Seek(seconds float64) error {
	_, err := p.cd.Request(command{
		name:     seekCommand,
		elements: []interface{}{seconds, AbsoluteValue},
	})

	return err
}

// SetProperty sets the value of a property.
// Value is of any type since various mpv properties expect different types of values.
func (p *Player) SetProperty(property string, value interface{}) (Response, error) {
	return p.cd.Request(command{
		name:     setPropertyCommand,
		elements: []interface{}{property, value},
	})
}

func (p *Player) args() []string {
	args := []string{
		idleArg,
		keepOpenArg,
		loopFileArg,
		muteArg,
		forceWindowArg,
		fmt.Sprintf("%s=%s", inputIpcServerArg, p.socketPath),
	}

	if p.title != "" {
		args = append(args, fmt.Sprintf("%s=%s", titleArg, p.title))
	}

	return args
}

// serve attaches connection to the dispatcher and routes responses in the background. Caller holds the lock.
func (p *Player) serve(conn net.Conn) error {
	err := p.cd.Attach(conn)
	if err != nil {
		conn.Close()
		return err
	}

	served := make(chan struct{})
	p.served = served
	go func() {
		defer close(served)

		err := p.cd.Serve()
		if err != nil {
			p.errLog.Printf("serving of mpv responses finished with an error: %s\n", err)
		}
	}()

	return nil
}

// killProcess waits for the process to exit, killing it when it does not quit in time. Caller holds the lock.
func (p *Player) killProcess() {
	if p.mpvCmd == nil {
		return
	}

	cmd := p.mpvCmd
	p.mpvCmd = nil

	exited := make(chan struct{})
	go func() {
		cmd.Wait()
		close(exited)
	}()

	select {
	case <-exited:
	case <-time.After(quitTimeout):
		p.errLog.Printf("mpv process %d did not quit, killing\n", cmd.Process.Pid)
		cmd.Process.Kill()
		<-exited
	}
}
