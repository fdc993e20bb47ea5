// Package sse implements the framed chunk codec used by the chat stream.
//
// Grammar:
//
//	stream = *frame
//	frame  = "data: " payload LF LF
//	payload = JSON encoding of model.StreamChunk on a single line
//
// A stream ends with exactly one frame whose type is "done" or "error".
// Decoders ignore lines that do not start with "data: " and skip payloads that
// fail to parse.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"streamchat/model"
)

// DataPrefix starts every frame.
const DataPrefix = "data: "

// ErrStreamClosed is returned when writing after a terminal chunk.
var ErrStreamClosed = errors.New("sse: stream already terminated")

// SetHeaders sets the event-stream response headers.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Encoder writes chunks as frames. If the underlying writer is an
// http.Flusher, every frame is flushed as soon as it is written.
type Encoder struct {
	w          io.Writer
	flusher    http.Flusher
	terminated bool
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

// Encode writes one chunk. After a done or error chunk has been written every
// further call returns ErrStreamClosed.
func (e *Encoder) Encode(chunk model.StreamChunk) error {
	if e.terminated {
		return ErrStreamClosed
	}
	if chunk.Terminal() {
		e.terminated = true
	}

	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "%s%s\n\n", DataPrefix, data); err != nil {
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

func (e *Encoder) Text(fragment string) error {
	return e.Encode(model.TextChunk(fragment))
}

func (e *Encoder) Done() error {
	return e.Encode(model.DoneChunk())
}

func (e *Encoder) Error(message string) error {
	return e.Encode(model.ErrorChunk(message))
}

// Terminated reports whether a terminal chunk has been written.
func (e *Encoder) Terminated() bool {
	return e.terminated
}
