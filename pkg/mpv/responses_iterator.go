package mpv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	bufSize = 512
)

var (
	newline = []byte("\n")
)

type responsesIterator struct {
	conn        io.Reader
	accumulator []byte
}

// NewResponsesIterator creates an iterator which returns ResponsePayload processed from
// provided connection.
func NewResponsesIterator(conn io.Reader) *responsesIterator {
	return &responsesIterator{
		conn: conn,
	}
}

// Next returns ResponsePayload read from a mpv socket connection.
// It blocks until a valid, newline-separated JSON is provided through the connection.
// Chunks which are not valid JSON on their own are aggregated until they form one.
// Payloads remaining in the accumulator after previous call are returned without reading the connection.
func (ri *responsesIterator) Next() (ResponsePayload, error) {
	var payload []byte

	for {
		chunk, err := ri.nextChunk()
		if err != nil {
			return ResponsePayload{}, err
		}

		payload = append(payload, chunk...)
		if json.Valid(payload) {
			break
		}
	}

	return getResponsePayload(payload)
}

func (ri *responsesIterator) fetchIntoAccumulator() (int, error) {
	buf := make([]byte, bufSize)

	nRead, err := ri.conn.Read(buf)
	if nRead > 0 {
		ri.accumulator = append(ri.accumulator, buf[:nRead]...)
	}

	return nRead, err
}

// nextChunk returns the first non-empty newline-terminated chunk, reading the connection only when the accumulator has no newlines.
func (ri *responsesIterator) nextChunk() ([]byte, error) {
	searchFrom := 0

	for {
		idx := bytes.Index(ri.accumulator[searchFrom:], newline)
		if idx != -1 {
			chunk := ri.takeFromAccumulator(searchFrom + idx)
			searchFrom = 0
			if len(chunk) == 0 {
				continue // consecutive newlines
			}

			return chunk, nil
		}

		searchFrom = len(ri.accumulator)
		_, err := ri.fetchIntoAccumulator()
		if err != nil {
			return nil, err
		}
	}
}

// takeFromAccumulator returns bytes before newlineIdx, discarding the newline itself.
func (ri *responsesIterator) takeFromAccumulator(newlineIdx int) []byte {
	result := append([]byte(nil), ri.accumulator[:newlineIdx]...)
	ri.accumulator = append([]byte(nil), ri.accumulator[newlineIdx+1:]...)

	return result
}

func getResponsePayload(payload []byte) (ResponsePayload, error) {
	var result ResponsePayload

	err := json.Unmarshal(payload, &result)
	if err != nil {
		return result, fmt.Errorf("could not parse the response JSON as ResponsePayload: %w", err)
	}

	return result, nil
}
