package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// fakeMpv answers requests read from conn with respond, until conn is closed.
func fakeMpv(t *testing.T, conn net.Conn, respond func(payload commandPayload) []ResponsePayload) {
	t.Helper()

	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var payload commandPayload
			if err := json.Unmarshal(scanner.Bytes(), &payload); err != nil {
				return
			}

			for _, response := range respond(payload) {
				out, _ := json.Marshal(response)
				conn.Write(append(out, '\n'))
			}
		}
	}()
}

func newTestDispatcher(t *testing.T) (*commandDispatcher, net.Conn) {
	t.Helper()

	client, server := net.Pipe()
	cd := newCommandDispatcher(commandDispatcherConfig{
		errWriter:      io.Discard,
		outWriter:      io.Discard,
		requestTimeout: time.Second,
	})

	if err := cd.Attach(client); err != nil {
		t.Fatalf("Unexpected attach error: %s", err)
	}

	go cd.Serve()
	t.Cleanup(func() {
		cd.Close()
		server.Close()
	})

	return cd, server
}

func TestRequest_ResponseIsRoutedByRequestID(t *testing.T) {
	// given
	cd, server := newTestDispatcher(t)
	fakeMpv(t, server, func(payload commandPayload) []ResponsePayload {
		return []ResponsePayload{
			{Event: "file-loaded"},
			{Err: resultSuccess, RequestID: payload.RequestID, Data: payload.Command[1]},
		}
	})

	// when
	response, err := cd.Request(command{
		name:     setPropertyCommand,
		elements: []interface{}{MuteProperty, YesValue},
	})

	// then
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if response.Data != MuteProperty {
		t.Errorf("Expected data %s, got %v", MuteProperty, response.Data)
	}
}

func TestRequest_FailedResponse(t *testing.T) {
	// given
	cd, server := newTestDispatcher(t)
	fakeMpv(t, server, func(payload commandPayload) []ResponsePayload {
		return []ResponsePayload{
			{Err: "property unavailable", RequestID: payload.RequestID},
		}
	})

	// when
	_, err := cd.Request(command{
		name:     setPropertyCommand,
		elements: []interface{}{PauseProperty, false},
	})

	// then
	if !errors.Is(err, ErrCommandFailedResponse) {
		t.Errorf("Expected ErrCommandFailedResponse, got %v", err)
	}
}

func TestRequest_NotConnected(t *testing.T) {
	// given
	cd := newCommandDispatcher(commandDispatcherConfig{
		errWriter: io.Discard,
		outWriter: io.Discard,
	})

	// when
	_, err := cd.Request(command{name: quitCommand})

	// then
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestRequest_CloseFailsPendingRequest(t *testing.T) {
	// given
	cd, server := newTestDispatcher(t)
	received := make(chan struct{})
	go func() {
		bufio.NewReader(server).ReadBytes('\n')
		close(received)
	}()

	result := make(chan error)
	go func() {
		_, err := cd.Request(command{name: quitCommand})
		result <- err
	}()

	// when
	<-received
	cd.Close()

	// then
	select {
	case err := <-result:
		if !errors.Is(err, ErrConnectionClosed) {
			t.Errorf("Expected ErrConnectionClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Request did not finish after close")
	}
}

func TestPrepareCommandPayload(t *testing.T) {
	// given
	cmd := command{
		name:     seekCommand,
		elements: []interface{}{0, AbsoluteValue},
	}

	// when
	payload, err := prepareCommandPayload(cmd, 7)

	// then
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	expected := "{\"command\":[\"seek\",0,\"absolute\"],\"request_id\":7}\n"
	if string(payload) != expected {
		t.Errorf("Expected payload %s, got %s", expected, payload)
	}
}
