package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamchat/model"
	"streamchat/provider/testutil"
	"streamchat/sse"
)

func newTestServer(p model.Provider) *Server {
	return New(Config{ProviderName: "mock"}, p, nil)
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAll(t *testing.T, r io.Reader) []model.StreamChunk {
	t.Helper()
	dec := sse.NewDecoder(r, nil)
	var chunks []model.StreamChunk
	for {
		c, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, c)
	}
}

func countTerminal(chunks []model.StreamChunk) int {
	n := 0
	for _, c := range chunks {
		if c.Terminal() {
			n++
		}
	}
	return n
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHandleChat_StreamsFragments(t *testing.T) {
	srv := newTestServer(testutil.NewFragmentProvider(nil, "Hel", "lo"))

	rec := postChat(t, srv.Handler(), `{"messages":[{"role":"user","content":"hello"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.True(t, rec.Flushed)

	want := "data: {\"type\":\"text\",\"content\":\"Hel\"}\n\n" +
		"data: {\"type\":\"text\",\"content\":\"lo\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"
	assert.Equal(t, want, rec.Body.String())
}

func TestHandleChat_ProviderError(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		wantTexts int
	}{
		{name: "after fragments", fragments: []string{"Hi"}, wantTexts: 1},
		{name: "before first fragment", fragments: nil, wantTexts: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(testutil.NewFragmentProvider(errors.New("boom"), tt.fragments...))

			rec := postChat(t, srv.Handler(), `{"messages":[{"role":"user","content":"hi"}]}`)
			require.Equal(t, http.StatusOK, rec.Code)

			chunks := decodeAll(t, rec.Body)
			require.Len(t, chunks, tt.wantTexts+1)
			assert.Equal(t, 1, countTerminal(chunks))

			last := chunks[len(chunks)-1]
			assert.Equal(t, model.ChunkError, last.Type)
			assert.Equal(t, "boom", last.Error)
		})
	}
}

func TestHandleChat_ProviderPanic(t *testing.T) {
	mock := testutil.NewMockProvider("m")
	mock.StreamFunc = func(ctx context.Context, turns []model.Turn, cb model.StreamCallback) error {
		_ = cb("partial")
		panic("provider exploded")
	}
	srv := newTestServer(mock)

	rec := postChat(t, srv.Handler(), `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	chunks := decodeAll(t, rec.Body)
	require.Len(t, chunks, 2)
	assert.Equal(t, model.TextChunk("partial"), chunks[0])
	assert.Equal(t, model.ErrorChunk("Internal server error"), chunks[1])
}

func TestHandleChat_PassesSanitizedTurns(t *testing.T) {
	mock := testutil.NewMockProvider("m")
	srv := newTestServer(mock)

	img := testutil.TestImage()
	body := fmt.Sprintf(`{"messages":[
		{"role":"system","content":"  be brief  "},
		{"role":"user","content":" look ","image":{"data":%q,"mimeType":%q}}
	]}`, img.Data, img.MimeType)

	rec := postChat(t, srv.Handler(), body)
	require.Equal(t, http.StatusOK, rec.Code)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	turns := calls[0]
	require.Len(t, turns, 2)

	assert.Equal(t, model.RoleSystem, turns[0].Role)
	assert.Equal(t, "be brief", turns[0].Content)
	assert.False(t, turns[0].HasParts())

	require.Len(t, turns[1].Parts, 2)
	assert.Equal(t, model.PartImage, turns[1].Parts[0].Type)
	assert.Equal(t, img.Data, turns[1].Parts[0].Data)
	assert.Equal(t, model.PartText, turns[1].Parts[1].Type)
	assert.Equal(t, "look", turns[1].Parts[1].Text)
}

func TestHandleChat_Rejections(t *testing.T) {
	tooMany := make([]string, 51)
	for i := range tooMany {
		tooMany[i] = `{"role":"user","content":"x"}`
	}

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "not json",
			body:      `messages please`,
			wantError: "Request body must be a JSON object",
		},
		{
			name:      "missing messages",
			body:      `{}`,
			wantError: "Messages must be a non-empty array",
		},
		{
			name:      "empty messages",
			body:      `{"messages":[]}`,
			wantError: "Messages must be a non-empty array",
		},
		{
			name:      "too many messages",
			body:      `{"messages":[` + strings.Join(tooMany, ",") + `]}`,
			wantError: "Too many messages. Maximum 50 messages allowed",
		},
		{
			name:      "invalid role",
			body:      `{"messages":[{"role":"robot","content":"hi"}]}`,
			wantError: `Invalid role "robot" at index 0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockProvider("m")
			srv := newTestServer(mock)

			rec := postChat(t, srv.Handler(), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantError, errorBody(t, rec))
			assert.Empty(t, mock.Calls(), "provider must not be called")
		})
	}
}

func TestHandleChat_BodyTooLarge(t *testing.T) {
	srv := New(Config{MaxBodyBytes: 64}, testutil.NewMockProvider("m"), nil)

	body := `{"messages":[{"role":"user","content":"` + strings.Repeat("a", 200) + `"}]}`
	rec := postChat(t, srv.Handler(), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body exceeds 64 bytes", errorBody(t, rec))
}

// plainWriter is a ResponseWriter that cannot flush.
type plainWriter struct {
	header http.Header
	code   int
	body   bytes.Buffer
}

func (w *plainWriter) Header() http.Header         { return w.header }
func (w *plainWriter) Write(b []byte) (int, error) { return w.body.Write(b) }
func (w *plainWriter) WriteHeader(code int)        { w.code = code }

func TestHandleChat_RequiresFlusher(t *testing.T) {
	mock := testutil.NewMockProvider("m")
	srv := newTestServer(mock)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	w := &plainWriter{header: http.Header{}}

	srv.handleChat(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.code)
	assert.Contains(t, w.body.String(), "Streaming not supported")
	assert.Empty(t, mock.Calls())
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(testutil.NewMockProvider("m"))

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	t.Run("without ping", func(t *testing.T) {
		mock := testutil.NewMockProvider("claude-test")
		mock.PingFunc = func(context.Context) error { return errors.New("should not be called") }
		srv := newTestServer(mock)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, HealthResponse{Status: "ok", Provider: "mock", Model: "claude-test"}, resp)
	})

	t.Run("ping failure", func(t *testing.T) {
		mock := testutil.NewMockProvider("claude-test")
		mock.PingFunc = func(context.Context) error { return errors.New("unreachable") }
		srv := newTestServer(mock)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health?ping=1", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "unavailable", resp.Status)
		assert.Contains(t, resp.Error, "unreachable")
	})

	t.Run("ping success", func(t *testing.T) {
		srv := newTestServer(testutil.NewMockProvider("claude-test"))

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health?ping=1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestServer_EndToEndOverHTTP(t *testing.T) {
	srv := newTestServer(testutil.NewFragmentProvider(nil, "Hel", "lo"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		strings.NewReader(`{"messages":[{"role":"user","content":"hello"}]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	chunks := decodeAll(t, resp.Body)
	assert.Equal(t, []model.StreamChunk{
		model.TextChunk("Hel"),
		model.TextChunk("lo"),
		model.DoneChunk(),
	}, chunks)
}

func TestServer_ShutdownBeforeServe(t *testing.T) {
	srv := newTestServer(testutil.NewMockProvider("m"))
	assert.NoError(t, srv.Shutdown(context.Background()))
}
