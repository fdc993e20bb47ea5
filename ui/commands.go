package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"streamchat/client"
	"streamchat/config"
	"streamchat/model"
)

type command struct {
	name        string
	usage       string
	description string
}

var commands = []command{
	{name: "image", usage: "image <path>", description: "Attach an image (no path removes it)"},
	{name: "clear", usage: "clear", description: "Clear the conversation"},
	{name: "copy", usage: "copy [all]", description: "Copy the last response, or everything"},
	{name: "help", usage: "help", description: "Show keyboard shortcuts"},
	{name: "quit", usage: "quit", description: "Quit"},
}

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

const flashDuration = 3 * time.Second

func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

// suggestCommands returns the commands matching a partially typed "/name",
// best match first. Anything that is not a bare command prefix yields nil.
func suggestCommands(input string) []string {
	if !strings.HasPrefix(input, "/") || strings.ContainsAny(input, " \n") {
		return nil
	}
	query := input[1:]
	if query == "" {
		return commandNames()
	}

	matches := fuzzy.Find(query, commandNames())
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}

// parseCommand splits "/name arg" into its parts. ok is false unless name is
// a known command, so a message that merely starts with a slash is sent as is.
func parseCommand(input string) (name, arg string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(input[1:], " ")
	for _, c := range commands {
		if c.name == name {
			return name, strings.TrimSpace(arg), true
		}
	}
	return "", "", false
}

func (a AppView) runCommand(name, arg string) (AppView, tea.Cmd) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] command /%s %q", name, arg)
	}

	switch name {
	case "image":
		if arg == "" {
			a.session.SetImage(nil)
			return a.setFlash("Attachment removed")
		}
		img, err := client.LoadImage(arg)
		if err != nil {
			return a.setFlash(fmt.Sprintf("Cannot attach image: %v", err))
		}
		a.session.SetImage(img)
		return a.setFlash(fmt.Sprintf("Attached %s", img.FileName))

	case "clear":
		a.session.Clear()
		return a, nil

	case "copy":
		if arg == "all" {
			return a.copyText(conversationText(a.snap.Messages), "Conversation copied")
		}
		return a.copyText(lastAssistantReply(a.snap.Messages), "Last response copied")

	case "help":
		a.showHelp = true
		return a, nil

	case "quit":
		a.session.Cancel()
		return a, tea.Quit
	}
	return a, nil
}

func (a AppView) copyText(text, done string) (AppView, tea.Cmd) {
	if text == "" {
		return a.setFlash("Nothing to copy")
	}
	if err := copyToClipboard(text); err != nil {
		return a.setFlash(fmt.Sprintf("Copy failed: %v", err))
	}
	return a.setFlash(done)
}

func (a AppView) setFlash(text string) (AppView, tea.Cmd) {
	a.flashID++
	a.flash = text
	id := a.flashID
	return a, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{id: id}
	})
}

func lastAssistantReply(messages []model.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}

func conversationText(messages []model.ChatMessage) string {
	var b strings.Builder
	for _, msg := range messages {
		role := string(msg.Role)
		switch msg.Role {
		case model.RoleUser:
			role = "You"
		case model.RoleAssistant:
			role = "Assistant"
		}
		fmt.Fprintf(&b, "[%s] %s:\n%s\n\n", msg.Timestamp.Format("15:04"), role, msg.Content)
	}
	return b.String()
}
