package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"

	"streamchat/config"
	"streamchat/model"
)

const defaultRenderWidth = 80

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
)

// codeBar is the gutter go-term-markdown draws in front of code block lines.
const codeBar = "┃"

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.snap.Messages) == 0 && !a.snap.Loading {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Start chatting!"))
		return
	}

	var content strings.Builder

	for i, msg := range a.snap.Messages {
		text := msg.Content
		if i < len(a.rendered) {
			text = a.rendered[i]
		}
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		switch msg.Role {
		case model.RoleUser:
			if msg.Image != nil {
				text = AttachmentStyle.Render("📎 "+attachmentName(msg.Image)) + "\n" + text
			}
			content.WriteString(formatUserMessage(timestamp, UserStyle.Render("You"), text))
		case model.RoleAssistant:
			fmt.Fprintf(&content, "%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), text)
		default:
			fmt.Fprintf(&content, "%s %s\n%s\n\n", timestamp, DimStyle.Render("System"), text)
		}
	}

	// In-flight reply: spinner until the first fragment, then text with a cursor
	if a.snap.Loading {
		timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
		streamContent := a.loadingSpinner.View()
		if a.snap.Streaming != "" {
			streamContent = a.snap.Streaming + "▋"
		}
		fmt.Fprintf(&content, "%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), streamContent)
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func attachmentName(img *model.ImageAttachment) string {
	if img.FileName != "" {
		return img.FileName
	}
	return img.MimeType
}

// formatUserMessage draws user turns behind a green vertical bar.
func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	fmt.Fprintf(&result, "%s %s %s\n", bar, timestamp, role)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&result, "%s %s\n", bar, line)
	}
	result.WriteString("\n")
	return result.String()
}

// statusLine shows, in priority order: command suggestions, a transient
// note, the loading state, the session error, or the key hints. The text is
// cut to the terminal width before styling.
func (a AppView) statusLine() string {
	var text string
	style := StatusStyle

	switch {
	case len(a.suggestions) > 0:
		text = "Commands: /" + strings.Join(a.suggestions, "  /") + "  (Tab to complete)"
		style = HighlightStyle
	case a.flash != "":
		text = a.flash
	case a.snap.Loading:
		text = "Receiving reply... Esc to cancel"
	case a.snap.Err != nil:
		text = "Error: " + a.snap.ErrorText()
		style = ErrorStyle
	default:
		text = "Enter send · Alt+Enter newline · Esc cancel · Ctrl+L clear · Ctrl+Y copy · /help"
	}

	if a.snap.Image != nil {
		text = "📎 " + attachmentName(a.snap.Image) + "  " + text
	}

	return style.Render(truncateToWidth(text, a.width))
}

func truncateToWidth(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// renderMarkdown renders content for a terminal of the given width.
func renderMarkdown(content string, width int) string {
	if width <= 4 {
		width = defaultRenderWidth
	}

	// Strip [text](url) down to the url so every link renders the same way
	content = mdLinkRegex.ReplaceAllString(content, "$2")

	// Autolink off: plain URLs stay plain and the terminal can detect them
	p := parser.NewWithExtensions(markdown.Extensions() &^ parser.Autolink)
	r := markdown.NewRenderer(width-4, 0)
	rendered := string(gomarkdown.Render(p.Parse([]byte(content)), r))

	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
	rendered = colorURLs(rendered)
	return frameCodeBlocks(rendered, width)
}

func (a AppView) renderMarkdownAsync(messageIndex int, content string) tea.Cmd {
	width, epoch := a.width, a.renderEpoch
	return func() tea.Msg {
		start := time.Now()
		rendered := renderMarkdown(content, width)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] rendered message %d (%d chars) in %v", messageIndex, len(content), time.Since(start))
		}
		return markdownRenderedMsg{
			MessageIndex: messageIndex,
			Epoch:        epoch,
			Rendered:     strings.TrimRight(rendered, "\n"),
		}
	}
}

// colorURLs paints URLs red outside code blocks.
func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if !strings.Contains(line, codeBar) {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

// frameCodeBlocks replaces the code gutter with horizontal rules above and
// below each block.
func frameCodeBlocks(s string, width int) string {
	const gray, reset = "\x1b[90m", "\x1b[0m"
	ruleLen := max(width-4, 8)

	var out []string
	inBlock := false
	closeBlock := func() {
		out = append(out, "", gray+strings.Repeat("━", ruleLen)+reset, "")
		inBlock = false
	}

	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, codeBar) {
			if !inBlock {
				inBlock = true
				label := "[code]"
				left := (ruleLen - len(label)) / 2
				right := ruleLen - len(label) - left
				out = append(out, "", gray+strings.Repeat("━", left)+reset+label+gray+strings.Repeat("━", right)+reset, "")
			}
			out = append(out, stripCodeBar(line))
			continue
		}
		if inBlock {
			closeBlock()
		}
		out = append(out, line)
	}
	if inBlock {
		closeBlock()
	}
	return strings.Join(out, "\n")
}

func stripCodeBar(line string) string {
	idx := strings.Index(line, codeBar)
	if idx < 0 {
		return line
	}
	rest := line[idx+len(codeBar):]
	return strings.TrimPrefix(rest, " ")
}
