package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"streamchat/client"
	"streamchat/config"
	"streamchat/model"
)

// Reserve space for title (1 line), separator (1 line), textarea (3 lines), and status bar (1 line)
const chromeHeight = 6

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		widthChanged := msg.Width != a.width
		a.width = msg.Width
		a.height = msg.Height

		a.viewport.Width = a.width
		a.viewport.Height = max(a.height-chromeHeight, 1)
		a.textarea.SetWidth(a.width)
		a.ready = true

		if widthChanged {
			cmds = append(cmds, a.rerenderAll()...)
		}
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case sessionUpdateMsg:
		cmds = append(cmds, a.applySnapshot(msg.snap)...)
		cmds = append(cmds, a.updates.wait())
		return a, tea.Batch(cmds...)

	case sendDoneMsg:
		if msg.err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] send finished with error: %v", msg.err)
		}
		return a, nil

	case markdownRenderedMsg:
		if msg.Epoch != a.renderEpoch || msg.MessageIndex >= len(a.rendered) {
			return a, nil
		}
		a.rendered[msg.MessageIndex] = msg.Rendered
		a.updateViewportContent(false)
		return a, nil

	case spinner.TickMsg:
		// Let the tick chain die once nothing is loading.
		if !a.snap.Loading {
			return a, nil
		}
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		a.updateViewportContent(true)
		return a, cmd

	case flashExpiredMsg:
		if msg.id == a.flashID {
			a.flash = ""
		}
		return a, nil
	}

	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showHelp {
		switch msg.String() {
		case "esc", "q", "enter":
			a.showHelp = false
		case "ctrl+c":
			a.session.Cancel()
			return a, tea.Quit
		}
		return a, nil
	}

	switch msg.String() {
	case "ctrl+c":
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Ctrl+C pressed - quitting")
		}
		a.session.Cancel()
		return a, tea.Quit

	case "esc":
		if a.snap.Loading {
			a.session.Cancel()
			return a, nil
		}
		if len(a.suggestions) > 0 {
			a.textarea.Reset()
			a.suggestions = nil
		}
		return a, nil

	case "ctrl+l":
		a.session.Clear()
		a.textarea.Reset()
		a.suggestions = nil
		return a, nil

	case "ctrl+y":
		return a.copyText(lastAssistantReply(a.snap.Messages), "Last response copied")

	case "tab":
		if len(a.suggestions) > 0 {
			a.textarea.SetValue("/" + a.suggestions[0] + " ")
			a.suggestions = nil
		}
		return a, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case "enter":
		return a.submit()
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	a.suggestions = suggestCommands(a.textarea.Value())
	return a, cmd
}

// submit runs a slash command or sends the typed text with any attachment.
func (a AppView) submit() (tea.Model, tea.Cmd) {
	value := a.textarea.Value()
	a.suggestions = nil

	if name, arg, ok := parseCommand(value); ok {
		a.textarea.Reset()
		return a.runCommand(name, arg)
	}

	if a.snap.Loading {
		return a, nil
	}
	if strings.TrimSpace(value) == "" && a.session.Image() == nil {
		return a, nil
	}

	a.session.SetInput(value)
	a.textarea.Reset()

	session, ctx := a.session, a.ctx
	send := func() tea.Msg {
		return sendDoneMsg{err: session.SendDraft(ctx)}
	}
	return a, tea.Batch(send, a.loadingSpinner.Tick)
}

// applySnapshot stores snap and schedules markdown rendering for any new
// assistant turns. A changed reset count means the history was replaced, even
// if intermediate snapshots were never delivered.
func (a *AppView) applySnapshot(snap client.Snapshot) []tea.Cmd {
	if snap.Resets != a.snap.Resets || len(snap.Messages) < len(a.rendered) {
		a.rendered = nil
		a.renderEpoch++
	}

	var cmds []tea.Cmd
	for i := len(a.rendered); i < len(snap.Messages); i++ {
		msg := snap.Messages[i]
		a.rendered = append(a.rendered, msg.Content)
		if msg.Role == model.RoleAssistant {
			cmds = append(cmds, a.renderMarkdownAsync(i, msg.Content))
		}
	}

	a.snap = snap
	a.updateViewportContent(true)
	return cmds
}

// rerenderAll re-renders every assistant turn, e.g. after a resize.
func (a *AppView) rerenderAll() []tea.Cmd {
	a.renderEpoch++
	var cmds []tea.Cmd
	for i, msg := range a.snap.Messages {
		if i < len(a.rendered) && msg.Role == model.RoleAssistant {
			a.rendered[i] = msg.Content
			cmds = append(cmds, a.renderMarkdownAsync(i, msg.Content))
		}
	}
	return cmds
}
