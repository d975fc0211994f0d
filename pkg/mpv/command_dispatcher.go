package mpv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

const (
	socketType = "unix"

	resultSuccess = "success"

	dialRetryInterval = 100 * time.Millisecond

	commandDispatcherLogPrefix = "mpv.CommandDispatcher#"
)

var (
	// ErrCommandFailedResponse informs about mpv returning something other than "success" in an error field of a response.
	ErrCommandFailedResponse = errors.New("mpv response does not include success state")

	// ErrConnectionInProgress informs about failure of operation due to command dispatcher being already connected.
	ErrConnectionInProgress = errors.New("command dispatcher is connected to mpv socket")

	// ErrNotConnected informs that request cannot be dispatched since there is no connection to mpv.
	ErrNotConnected = errors.New("command dispatcher is not connected to mpv socket")

	// ErrConnectionClosed informs that connection was closed before the response arrived.
	ErrConnectionClosed = errors.New("connection to mpv closed before response")
)

// commandPayload represents command payload sent to the mpv
type commandPayload struct {
	Command   []interface{} `json:"command"`
	RequestID int           `json:"request_id"`
}

// Response is a result of executing mpv request command.
type Response struct {
	Data interface{} `json:"data"`
}

// ResponsePayload holds data returned after mpv command execution through json IPC.
type ResponsePayload struct {
	Err       string      `json:"error"`
	RequestID int         `json:"request_id"`
	Event     string      `json:"event"`
	Name      string      `json:"name"`
	Data      interface{} `json:"data"`
}

type commandDispatcherConfig struct {
	errWriter      io.Writer
	outWriter      io.Writer
	requestTimeout time.Duration
}

// commandDispatcher sends commands through a connection to mpv and routes responses back to their requests.
type commandDispatcher struct {
	conn           net.Conn
	errLog         *log.Logger
	lock           *sync.Mutex
	outLog         *log.Logger
	requestID      int
	requests       map[int]chan ResponsePayload
	requestTimeout time.Duration
}

func newCommandDispatcher(cfg commandDispatcherConfig) *commandDispatcher {
	return &commandDispatcher{
		errLog:         log.New(cfg.errWriter, commandDispatcherLogPrefix, log.LstdFlags),
		lock:           &sync.Mutex{},
		outLog:         log.New(cfg.outWriter, commandDispatcherLogPrefix, log.LstdFlags),
		requestID:      1,
		requests:       map[int]chan ResponsePayload{},
		requestTimeout: cfg.requestTimeout,
	}
}

// Attach makes dispatcher use conn for further requests.
func (cd *commandDispatcher) Attach(conn net.Conn) error {
	cd.lock.Lock()
	defer cd.lock.Unlock()

	if cd.conn != nil {
		return ErrConnectionInProgress
	}

	cd.conn = conn
	return nil
}

// Close closes the connection, failing every pending request.
func (cd *commandDispatcher) Close() error {
	cd.lock.Lock()
	conn := cd.conn
	cd.conn = nil
	requests := cd.requests
	cd.requests = map[int]chan ResponsePayload{}
	cd.lock.Unlock()

	for _, request := range requests {
		close(request)
	}

	if conn == nil {
		return nil
	}

	return conn.Close()
}

// Connected informs whether dispatcher is ready to make requests.
func (cd *commandDispatcher) Connected() bool {
	cd.lock.Lock()
	defer cd.lock.Unlock()

	return cd.conn != nil
}

// Request sends cmd and waits for its response, the request timeout or the connection closing.
func (cd *commandDispatcher) Request(cmd command) (Response, error) {
	cd.lock.Lock()
	conn := cd.conn
	if conn == nil {
		cd.lock.Unlock()
		return Response{}, ErrNotConnected
	}

	requestID := cd.requestID
	cd.requestID++
	result := make(chan ResponsePayload, 1)
	cd.requests[requestID] = result
	cd.lock.Unlock()

	defer cd.forget(requestID)

	payload, err := prepareCommandPayload(cmd, requestID)
	if err != nil {
		return Response{}, err
	}

	_, err = conn.Write(payload)
	if err != nil {
		return Response{}, fmt.Errorf("could not dispatch %s command: %w", cmd.name, err)
	}

	ctx := context.Background()
	if cd.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cd.requestTimeout)
		defer cancel()
	}

	select {
	case resPayload, ok := <-result:
		if !ok {
			return Response{}, ErrConnectionClosed
		}

		if !IsResultSuccess(resPayload) {
			return Response{}, fmt.Errorf("%w: %s command returned '%s'", ErrCommandFailedResponse, cmd.name, resPayload.Err)
		}

		return Response{
			Data: resPayload.Data,
		}, nil
	case <-ctx.Done():
		return Response{}, fmt.Errorf("%s command did not receive response: %w", cmd.name, ctx.Err())
	}
}

// Serve reads responses from the connection and routes them to requests, until the connection is closed.
func (cd *commandDispatcher) Serve() error {
	cd.lock.Lock()
	conn := cd.conn
	cd.lock.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	responses := NewResponsesIterator(conn)
	for {
		payload, err := responses.Next()
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			cd.outLog.Println("connection closed")
			return nil
		} else if err != nil {
			return err
		}

		cd.distributeResponse(payload)
	}
}

func (cd *commandDispatcher) distributeResponse(payload ResponsePayload) {
	if payload.Event != "" {
		return
	}

	if payload.RequestID == 0 {
		cd.errLog.Println("result provided without request id")
		return
	}

	cd.lock.Lock()
	request, ok := cd.requests[payload.RequestID]
	delete(cd.requests, payload.RequestID)
	cd.lock.Unlock()

	if !ok {
		cd.errLog.Printf("result %d provided to not dispatched request\n", payload.RequestID)
		return
	}

	request <- payload
}

func (cd *commandDispatcher) forget(requestID int) {
	cd.lock.Lock()
	defer cd.lock.Unlock()

	delete(cd.requests, requestID)
}

// IsResultSuccess return whether returned result specifies successful command execution.
func IsResultSuccess(result ResponsePayload) bool {
	return result.Err == resultSuccess
}

// waitForSocketConnection dials socket until it succeeds or ctx finishes.
// mpv takes a moment to start listening on the socket after the process is spawned.
func waitForSocketConnection(ctx context.Context, socketPath string) (net.Conn, error) {
	dialer := net.Dialer{}
	for {
		conn, err := dialer.DialContext(ctx, socketType, socketPath)
		if err == nil {
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("could not connect to mpv socket at '%s': %w", socketPath, ctx.Err())
		case <-time.After(dialRetryInterval):
		}
	}
}

func prepareCommandPayload(cmd command, requestID int) ([]byte, error) {
	payload, err := json.Marshal(commandPayload{
		Command:   cmd.JSONIPCFormat(),
		RequestID: requestID,
	})
	if err != nil {
		return nil, err
	}

	return append(payload, newline...), nil
}
