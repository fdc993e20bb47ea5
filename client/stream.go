package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"streamchat/model"
	"streamchat/sse"
)

// maxErrorBody bounds how much of a non-2xx body is read.
const maxErrorBody = 64 << 10

// exchange posts the history and reads the streamed reply. onText receives
// the accumulated reply after every text chunk. The response body is closed
// on every path.
func (s *Session) exchange(ctx context.Context, history []model.ChatMessage, onText func(string)) (string, error) {
	body, err := json.Marshal(model.ChatRequest{Messages: history})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach chat server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", readHTTPError(resp)
	}

	dec := sse.NewDecoder(resp.Body, s.logger)
	var reply strings.Builder
	for {
		chunk, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return "", ErrIncompleteStream
		}
		if err != nil {
			return "", err
		}

		switch chunk.Type {
		case model.ChunkText:
			if chunk.Content == "" {
				continue
			}
			reply.WriteString(chunk.Content)
			onText(reply.String())
		case model.ChunkDone:
			return reply.String(), nil
		case model.ChunkError:
			if chunk.Error == "" {
				return "", &StreamError{Message: fallbackStreamMessage}
			}
			return "", &StreamError{Message: chunk.Error}
		}
	}
}

func readHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body model.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return &HTTPError{Status: resp.StatusCode, Message: fallbackHTTPMessage}
	}
	return &HTTPError{Status: resp.StatusCode, Message: body.Error}
}
