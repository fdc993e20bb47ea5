package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamchat/model"
	"streamchat/provider/testutil"
	"streamchat/server"
)

// fakeChat records requests and replies with the frames produced by reply.
type fakeChat struct {
	mu       sync.Mutex
	requests []model.ChatRequest
	hits     atomic.Int32
	reply    func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeChat) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	var req model.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	f.reply(w, r)
}

func (f *fakeChat) lastRequest() model.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newFakeChat(t *testing.T, reply func(w http.ResponseWriter, r *http.Request)) (*fakeChat, *Session) {
	t.Helper()
	f := &fakeChat{reply: reply}
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return f, NewSession(ts.URL)
}

// frames writes the given raw SSE payloads, flushing after each.
func frames(payloads ...string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
			w.(http.Flusher).Flush()
		}
	}
}

func TestSend_ReconstructsReply(t *testing.T) {
	_, s := newFakeChat(t, frames(
		`{"type":"text","content":"Hel"}`,
		`{"type":"text","content":"lo"}`,
		`{"type":"done"}`,
	))

	var mu sync.Mutex
	var partials []string
	s.OnUpdate(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Streaming != "" {
			partials = append(partials, snap.Streaming)
		}
	})

	require.NoError(t, s.Send(context.Background(), "hello", nil))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, model.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, "hello", snap.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, snap.Messages[1].Role)
	assert.Equal(t, "Hello", snap.Messages[1].Content)
	assert.Empty(t, snap.Streaming)
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Hel", "Hello"}, partials)
}

func TestSend_ErrorChunk(t *testing.T) {
	var handled error
	f := &fakeChat{reply: frames(`{"type":"text","content":"Hi"}`, `{"type":"error","error":"boom"}`)}
	ts := httptest.NewServer(f)
	defer ts.Close()
	s := NewSession(ts.URL, WithErrorHandler(func(err error) { handled = err }))

	err := s.Send(context.Background(), "hello", nil)

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "boom", streamErr.Message)

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 1, "no assistant turn on error")
	assert.Equal(t, "boom", snap.Err.Error())
	assert.Equal(t, "boom", snap.ErrorText())
	assert.Empty(t, snap.Streaming)
	assert.False(t, snap.Loading)
	assert.Equal(t, err, handled)
}

func TestSend_BlankReplyIsNotCommitted(t *testing.T) {
	_, s := newFakeChat(t, frames(`{"type":"text","content":"  "}`, `{"type":"done"}`))

	err := s.Send(context.Background(), "hello", nil)
	require.ErrorIs(t, err, ErrEmptyReply)

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 1, "a blank assistant turn would fail validation on the next send")
	assert.Equal(t, model.RoleUser, snap.Messages[0].Role)
	assert.ErrorIs(t, snap.Err, ErrEmptyReply)
	assert.False(t, snap.Loading)
}

func TestSend_EmptyErrorChunkFallsBack(t *testing.T) {
	_, s := newFakeChat(t, frames(`{"type":"error"}`))

	err := s.Send(context.Background(), "hello", nil)
	assert.EqualError(t, err, "Streaming error occurred")
}

func TestSend_Cancel(t *testing.T) {
	released := make(chan struct{})
	_, s := newFakeChat(t, func(w http.ResponseWriter, r *http.Request) {
		frames(`{"type":"text","content":"Hi"}`)(w, r)
		select {
		case <-r.Context().Done():
		case <-released:
		}
	})
	defer close(released)

	s.OnUpdate(func(snap Snapshot) {
		if snap.Streaming == "Hi" {
			s.Cancel()
		}
	})

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "hello", nil) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Send did not return after Cancel")
	}

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 1, "partial reply must not be committed")
	assert.NoError(t, snap.Err)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Streaming)
}

func TestSend_ParentContextCancelled(t *testing.T) {
	_, s := newFakeChat(t, func(w http.ResponseWriter, r *http.Request) {
		frames(`{"type":"text","content":"Hi"}`)(w, r)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.OnUpdate(func(snap Snapshot) {
		if snap.Streaming == "Hi" {
			cancel()
		}
	})

	require.NoError(t, s.Send(ctx, "hello", nil))

	snap := s.Snapshot()
	assert.Len(t, snap.Messages, 1)
	assert.NoError(t, snap.Err)
	assert.False(t, snap.Loading)
}

func TestSend_HTTPError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "server message",
			status:      http.StatusBadRequest,
			body:        `{"error":"Too many messages. Maximum 50 messages allowed"}`,
			wantMessage: "Too many messages. Maximum 50 messages allowed",
		},
		{
			name:        "no json body",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantMessage: "Failed to send message",
		},
		{
			name:        "empty error field",
			status:      http.StatusInternalServerError,
			body:        `{"error":""}`,
			wantMessage: "Failed to send message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, s := newFakeChat(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			err := s.Send(context.Background(), "hello", nil)

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.wantMessage, httpErr.Message)

			snap := s.Snapshot()
			assert.Len(t, snap.Messages, 1, "user turn stays committed")
			assert.Equal(t, tt.wantMessage, snap.Err.Error())
			assert.Contains(t, snap.ErrorText(), fmt.Sprintf("HTTP %d", tt.status))
		})
	}
}

func TestSend_IncompleteStream(t *testing.T) {
	_, s := newFakeChat(t, frames(`{"type":"text","content":"Hel"}`))

	err := s.Send(context.Background(), "hello", nil)

	assert.ErrorIs(t, err, ErrIncompleteStream)
	snap := s.Snapshot()
	assert.Len(t, snap.Messages, 1)
	assert.ErrorIs(t, snap.Err, ErrIncompleteStream)
}

func TestSend_SkipsMalformedFrames(t *testing.T) {
	_, s := newFakeChat(t, frames(
		`{"type":"text","content":"Hel"}`,
		`{not json`,
		`{"type":"mystery"}`,
		`{"type":"text","content":"lo"}`,
		`{"type":"done"}`,
	))

	require.NoError(t, s.Send(context.Background(), "hello", nil))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "Hello", snap.Messages[1].Content)
}

func TestSend_NoOps(t *testing.T) {
	f, s := newFakeChat(t, frames(`{"type":"text","content":"ok"}`, `{"type":"done"}`))

	require.NoError(t, s.Send(context.Background(), "   ", nil))
	require.NoError(t, s.Send(context.Background(), "", nil))

	assert.Empty(t, s.Snapshot().Messages)
	assert.Equal(t, int32(0), f.hits.Load())
}

func TestSend_BusyIsNoOp(t *testing.T) {
	released := make(chan struct{})
	f, s := newFakeChat(t, func(w http.ResponseWriter, r *http.Request) {
		frames(`{"type":"text","content":"..."}`)(w, r)
		select {
		case <-r.Context().Done():
		case <-released:
		}
	})

	started := make(chan struct{})
	var once sync.Once
	s.OnUpdate(func(snap Snapshot) {
		if snap.Streaming != "" {
			once.Do(func() { close(started) })
		}
	})

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "first", nil) }()
	<-started

	require.NoError(t, s.Send(context.Background(), "second", nil))
	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Len(t, snap.Messages, 1, "second send must not append")

	s.Cancel()
	close(released)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestSend_SendsFullHistory(t *testing.T) {
	f, s := newFakeChat(t, frames(`{"type":"text","content":"ok"}`, `{"type":"done"}`))

	require.NoError(t, s.Send(context.Background(), "one", nil))
	require.NoError(t, s.Send(context.Background(), "two", nil))

	req := f.lastRequest()
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "one", req.Messages[0].Content)
	assert.Equal(t, "ok", req.Messages[1].Content)
	assert.Equal(t, model.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, "two", req.Messages[2].Content)
	assert.Len(t, s.Snapshot().Messages, 4)
}

func TestSend_ImageOnlyUsesPlaceholder(t *testing.T) {
	f, s := newFakeChat(t, frames(`{"type":"text","content":"ok"}`, `{"type":"done"}`))
	img := testutil.TestImage()

	s.SetImage(img)
	require.NoError(t, s.SendDraft(context.Background()))

	req := f.lastRequest()
	require.Len(t, req.Messages, 1)
	assert.Equal(t, ImagePlaceholder, req.Messages[0].Content)
	require.NotNil(t, req.Messages[0].Image)
	assert.Equal(t, img.Data, req.Messages[0].Image.Data)
	assert.Nil(t, s.Image(), "draft image cleared after send")
}

func TestSendDraft_ClearsInput(t *testing.T) {
	f, s := newFakeChat(t, frames(`{"type":"text","content":"ok"}`, `{"type":"done"}`))

	s.SetInput("  draft text  ")
	assert.Equal(t, "  draft text  ", s.Input())

	require.NoError(t, s.SendDraft(context.Background()))

	assert.Empty(t, s.Input())
	assert.Equal(t, "draft text", f.lastRequest().Messages[0].Content)
}

func TestSend_ClearsPreviousError(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	_, s := newFakeChat(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			frames(`{"type":"error","error":"boom"}`)(w, r)
			return
		}
		frames(`{"type":"text","content":"ok"}`, `{"type":"done"}`)(w, r)
	})

	require.Error(t, s.Send(context.Background(), "one", nil))
	require.Error(t, s.Snapshot().Err)

	fail.Store(false)
	require.NoError(t, s.Send(context.Background(), "two", nil))
	assert.NoError(t, s.Snapshot().Err)
}

func TestClear(t *testing.T) {
	f, s := newFakeChat(t, frames(`{"type":"error","error":"boom"}`))

	_ = s.Send(context.Background(), "hello", nil)
	s.SetInput("draft")
	s.SetImage(testutil.TestImage())
	hits := f.hits.Load()

	s.Clear()

	snap := s.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.NoError(t, snap.Err)
	assert.Empty(t, snap.Input)
	assert.Nil(t, snap.Image)
	assert.False(t, snap.Loading)
	assert.Equal(t, hits, f.hits.Load(), "clear must not contact the server")
	assert.Equal(t, uint64(1), snap.Resets)
}

func TestWithHistory(t *testing.T) {
	f := &fakeChat{reply: frames(`{"type":"text","content":"ok"}`, `{"type":"done"}`)}
	ts := httptest.NewServer(f)
	defer ts.Close()

	s := NewSession(ts.URL+"/", WithHistory(testutil.TestMessages()))
	assert.Len(t, s.Snapshot().Messages, 3)

	require.NoError(t, s.Send(context.Background(), "hi", nil))
	assert.Len(t, f.lastRequest().Messages, 4)
	assert.Len(t, s.Snapshot().Messages, 5)
}

func TestSend_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	s := NewSession(url)
	err := s.Send(context.Background(), "hello", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach chat server")
	assert.Len(t, s.Snapshot().Messages, 1)
}

func TestSession_EndToEnd(t *testing.T) {
	srv := server.New(server.Config{}, testutil.NewFragmentProvider(nil, "Hel", "lo", " there"), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	s := NewSession(ts.URL)
	require.NoError(t, s.Send(context.Background(), "hello", nil))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "hello", snap.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, snap.Messages[1].Role)
	assert.Equal(t, "Hello there", snap.Messages[1].Content)
}

func TestSession_EndToEndProviderError(t *testing.T) {
	srv := server.New(server.Config{}, testutil.NewFragmentProvider(errors.New("rate limited"), "partial"), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	s := NewSession(ts.URL)
	err := s.Send(context.Background(), "hello", nil)

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "rate limited", streamErr.Message)
	assert.Len(t, s.Snapshot().Messages, 1)
}

func TestSession_EndToEndValidationError(t *testing.T) {
	srv := server.New(server.Config{}, testutil.NewMockProvider("m"), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	history := make([]model.ChatMessage, 50)
	for i := range history {
		history[i] = model.ChatMessage{Role: model.RoleUser, Content: "x"}
	}
	s := NewSession(ts.URL, WithHistory(history))

	err := s.Send(context.Background(), "one too many", nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "Too many messages. Maximum 50 messages allowed", httpErr.Message)
}
