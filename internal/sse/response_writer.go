package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

var (
	errResponseJSONCreationFailed = errors.New("could not create JSON for response")
	errClientWritingFailed        = errors.New("could not write to the client")
	errConvertToFlusherFailed     = errors.New("could not instantiate http sse flusher")
)

var streamHeaders = map[string]string{
	"Access-Control-Allow-Origin": "*",
	"Cache-Control":               "no-cache",
	"Connection":                  "keep-alive",
	"Content-Type":                "text/event-stream",
}

// ResponseWriter sends events of many channels through a single keep-alive connection.
// Each channel is served by its own goroutine, so every event is written and flushed under the lock.
type ResponseWriter struct {
	res     http.ResponseWriter
	flusher http.Flusher
	lock    *sync.Mutex
}

// SendChange writes the change as a "<channel>.<change>" event with JSON data.
func (f ResponseWriter) SendChange(changePayload json.Marshaler, channelVariant ChannelVariant, changeVariant string) error {
	data, err := json.Marshal(changePayload)
	if err != nil {
		return fmt.Errorf("%w: %s", errResponseJSONCreationFailed, err)
	}

	return f.writeChange(data, channelVariant, changeVariant)
}

// SendEmptyChange writes the event with an empty data line.
func (f ResponseWriter) SendEmptyChange(channelVariant ChannelVariant, changeVariant string) error {
	return f.writeChange(nil, channelVariant, changeVariant)
}

func (f ResponseWriter) writeChange(data []byte, channelVariant ChannelVariant, changeVariant string) error {
	event := formatSseEvent(channelVariant, changeVariant, data)

	f.lock.Lock()
	defer f.lock.Unlock()

	if _, err := f.res.Write(event); err != nil {
		return fmt.Errorf("%w: %s.%s: %s", errClientWritingFailed, channelVariant, changeVariant, err)
	}
	f.flusher.Flush()

	return nil
}

func sseResponseWriter(res http.ResponseWriter) (ResponseWriter, error) {
	flusher, ok := res.(http.Flusher)
	if !ok {
		return ResponseWriter{}, errConvertToFlusherFailed
	}

	for header, value := range streamHeaders {
		res.Header().Set(header, value)
	}

	return ResponseWriter{
		res:     res,
		flusher: flusher,
		lock:    &sync.Mutex{},
	}, nil
}

// formatSseEvent splits multiline data into separate data fields, since a newline ends a field in the event stream format.
func formatSseEvent(channel ChannelVariant, eventName string, data []byte) []byte {
	var event bytes.Buffer

	fmt.Fprintf(&event, "event:%s.%s\n", channel, eventName)
	for _, line := range bytes.Split(data, []byte("\n")) {
		event.WriteString("data:")
		event.Write(line)
		event.WriteByte('\n')
	}
	event.WriteString("\n\n")

	return event.Bytes()
}
