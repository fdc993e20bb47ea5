package client

import (
	"errors"
	"fmt"
)

// ErrIncompleteStream is reported when the response body ends before a done
// or error chunk arrives.
var ErrIncompleteStream = errors.New("connection closed before the reply was complete")

// ErrEmptyReply is reported when a stream completes without any text. The
// blank turn is not committed, since the server rejects blank content.
var ErrEmptyReply = errors.New("the assistant returned an empty reply")

// Used when the server reports a failure without any text.
const (
	fallbackHTTPMessage   = "Failed to send message"
	fallbackStreamMessage = "Streaming error occurred"
)

// HTTPError is a non-2xx response from the chat server.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// StreamError is an error chunk received mid-stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return e.Message
}

// describe formats an error for the status line.
func describe(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("%s (HTTP %d)", httpErr.Message, httpErr.Status)
	}
	return err.Error()
}
