// Package ui is the terminal chat client built on Bubble Tea.
//
// The AppView never talks HTTP itself. It drives a client.Session and
// re-renders from the snapshots the session publishes; those arrive on the
// Bubble Tea loop as sessionUpdateMsg.
package ui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"streamchat/client"
)

// updateBridge hands session snapshots to the Bubble Tea loop. Only the
// latest snapshot matters, so an unread one is replaced rather than queued.
type updateBridge struct {
	mu sync.Mutex
	ch chan client.Snapshot
}

func newUpdateBridge(s *client.Session) *updateBridge {
	b := &updateBridge{ch: make(chan client.Snapshot, 1)}
	s.OnUpdate(b.push)
	return b
}

func (b *updateBridge) push(snap client.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.ch:
	default:
	}
	b.ch <- snap
}

func (b *updateBridge) wait() tea.Cmd {
	return func() tea.Msg {
		return sessionUpdateMsg{snap: <-b.ch}
	}
}

type AppView struct {
	ctx       context.Context
	session   *client.Session
	updates   *updateBridge
	serverURL string

	// UI Components
	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	showHelp bool

	// Last published session state
	snap client.Snapshot

	// rendered[i] is the display form of snap.Messages[i]. Assistant turns
	// start as plain text and are replaced once markdown rendering finishes.
	rendered    []string
	renderEpoch int

	suggestions []string
	flash       string
	flashID     int
}

// NewAppView creates the chat view for session. Replies are requested with
// ctx, so cancelling it aborts any request in flight.
func NewAppView(ctx context.Context, session *client.Session, serverURL string) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type your message, or / for commands..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter alone sends (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	return AppView{
		ctx:            ctx,
		session:        session,
		updates:        newUpdateBridge(session),
		serverURL:      serverURL,
		viewport:       viewport.New(0, 0),
		textarea:       ta,
		loadingSpinner: sp,
		snap:           session.Snapshot(),
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.updates.wait())
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading streamchat..."
	}

	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}

	title := TitleStyle.Render("streamchat") + DimStyle.Render(" · "+a.serverURL)
	separator := BorderStyle.Render(strings.Repeat("─", max(a.width, 0)))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		a.viewport.View(),
		separator,
		a.textarea.View(),
		a.statusLine(),
	)
}
