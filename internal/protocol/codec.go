// Package protocol frames the wire format: one JSON message per
// newline-terminated UTF-8 line, the same schema over TCP and WebSocket.
package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
)

// Lines above this size are rejected rather than buffered without bound.
const MaxLineSize = 64 * 1024

var ErrLineTooLong = errors.New("message line too long")

// Encode - marshals v and appends the line terminator.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return append(data, '\n'), nil
}

// ReadLine - reads one complete line from reader, stripping the terminator.
// The reader's buffer size is the line cap: a line that overflows it is
// rejected with ErrLineTooLong before any further byte is buffered, so a
// peer streaming data with no newline cannot grow memory past the buffer.
// Returns the underlying read error on stream closure.
func ReadLine(reader *bufio.Reader) ([]byte, error) {
	line, err := reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, ErrLineTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read line: %w", err)
	}

	// strip "\n" and an optional "\r"
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}

	// ReadSlice returns the reader's internal buffer; the next read would
	// clobber it.
	return append([]byte(nil), line...), nil
}
