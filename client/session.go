// Package client drives a chat conversation against the streaming endpoint.
//
// A Session owns the conversation history and moves between two states:
// idle and sending. Send commits the user's turn immediately, posts the whole
// history, and commits the assistant's reply once the server signals done.
// Failures and cancellation never roll back turns that were already committed.
package client

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"streamchat/config"
	"streamchat/model"
)

// ImagePlaceholder is sent as the text of a turn that carries only an image.
const ImagePlaceholder = "Please take a look at this image."

// Snapshot is a copy of the session state, safe to read after the call.
type Snapshot struct {
	Messages  []model.ChatMessage
	Streaming string
	Loading   bool
	Err       error
	Input     string
	Image     *model.ImageAttachment
	// Resets counts calls to Clear. A change means Messages was replaced
	// rather than appended to.
	Resets uint64
}

// ErrorText returns the user-facing error, or "" when there is none.
func (s Snapshot) ErrorText() string {
	if s.Err == nil {
		return ""
	}
	return describe(s.Err)
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets the client used for requests. The default has no
// timeout, since a reply streams for as long as the model keeps talking.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		s.httpClient = c
	}
}

// WithLogger sets where skipped stream frames are reported.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithHistory seeds the conversation.
func WithHistory(messages []model.ChatMessage) Option {
	return func(s *Session) {
		s.messages = slices.Clone(messages)
	}
}

// WithErrorHandler registers fn to be called with every surfaced error.
// Cancellation is not an error and is never reported.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Session) {
		s.onError = fn
	}
}

// Session is one conversation with the chat server. It is safe for
// concurrent use: Cancel and Snapshot may be called while Send is blocked.
type Session struct {
	endpoint   string
	httpClient *http.Client
	logger     *log.Logger
	onError    func(error)

	mu        sync.Mutex
	messages  []model.ChatMessage
	streaming string
	loading   bool
	err       error
	input     string
	image     *model.ImageAttachment
	cancel    context.CancelFunc
	// gen identifies the current request; results from older ones are dropped.
	gen      uint64
	resets   uint64
	onUpdate func(Snapshot)
}

// NewSession creates a session talking to the server at baseURL.
func NewSession(baseURL string, opts ...Option) *Session {
	s := &Session{
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/chat",
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = debugLogger()
	}
	return s
}

func debugLogger() *log.Logger {
	if config.DebugLog != nil {
		return config.DebugLog
	}
	return log.New(io.Discard, "", 0)
}

// OnUpdate registers fn to receive a Snapshot after every state change.
// fn runs on the goroutine that caused the change and must not block.
func (s *Session) OnUpdate(fn func(Snapshot)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Messages:  slices.Clone(s.messages),
		Streaming: s.streaming,
		Loading:   s.loading,
		Err:       s.err,
		Input:     s.input,
		Image:     s.image,
		Resets:    s.resets,
	}
}

// publish must be called without s.mu held.
func (s *Session) publish() {
	s.mu.Lock()
	fn := s.onUpdate
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// SetInput replaces the draft text.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
	s.publish()
}

// Input returns the draft text.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SetImage attaches img to the draft; nil removes it.
func (s *Session) SetImage(img *model.ImageAttachment) {
	s.mu.Lock()
	s.image = img
	s.mu.Unlock()
	s.publish()
}

// Image returns the draft attachment, if any.
func (s *Session) Image() *model.ImageAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Loading reports whether a request is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SendDraft sends the current draft text and image.
func (s *Session) SendDraft(ctx context.Context) error {
	s.mu.Lock()
	text, img := s.input, s.image
	s.mu.Unlock()
	return s.Send(ctx, text, img)
}

// Send appends a user turn and streams the assistant's reply. It blocks until
// the reply is complete, fails, or is cancelled.
//
// Send is a no-op returning nil while another request is in flight, or when
// text is blank and there is no image. The returned error is the same error
// the session surfaces; cancellation returns nil.
func (s *Session) Send(ctx context.Context, text string, img *model.ImageAttachment) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.loading || (text == "" && img == nil) {
		s.mu.Unlock()
		return nil
	}
	if text == "" {
		text = ImagePlaceholder
	}

	s.messages = append(s.messages, model.ChatMessage{
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
		Image:     img,
	})
	s.input = ""
	s.image = nil
	s.err = nil
	s.loading = true
	s.streaming = ""

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	gen := s.gen
	history := slices.Clone(s.messages)
	s.mu.Unlock()
	defer cancel()

	s.publish()

	reply, err := s.exchange(ctx, history, func(partial string) {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.streaming = partial
		s.mu.Unlock()
		s.publish()
	})

	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}

	aborted := errors.Is(ctx.Err(), context.Canceled)
	if aborted {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Session] request %d cancelled", gen)
		}
		err = nil
	}
	return s.finish(gen, reply, err, aborted)
}

// finish settles the request identified by gen. Results from a request that
// was cancelled or cleared are discarded.
func (s *Session) finish(gen uint64, reply string, err error, aborted bool) error {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil
	}

	s.loading = false
	s.streaming = ""
	s.cancel = nil
	switch {
	case aborted:
	case err != nil:
		s.err = err
	default:
		s.messages = append(s.messages, model.ChatMessage{
			Role:      model.RoleAssistant,
			Content:   reply,
			Timestamp: time.Now(),
		})
	}
	onError := s.onError
	s.mu.Unlock()

	s.publish()

	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Session] request %d failed: %v", gen, err)
		}
		if onError != nil {
			onError(err)
		}
	}
	return err
}

// Cancel aborts the in-flight request, if any. The partial reply is dropped
// and no error is surfaced.
func (s *Session) Cancel() {
	s.mu.Lock()
	if !s.loading {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.cancel = nil
	s.gen++
	s.loading = false
	s.streaming = ""
	s.mu.Unlock()

	s.publish()
}

// Clear forgets the conversation, the draft and any error. An in-flight
// request is cancelled first. Nothing is sent to the server.
func (s *Session) Clear() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.resets++
	s.messages = nil
	s.streaming = ""
	s.loading = false
	s.err = nil
	s.input = ""
	s.image = nil
	s.mu.Unlock()

	s.publish()
}
