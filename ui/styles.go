package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ANSI palette indexes, so the window follows the terminal theme.
var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")
	promptColor  = lipgloss.Color("13")
)

var (
	UserStyle      = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	AssistantStyle = lipgloss.NewStyle().Foreground(accentColor)

	// Timestamps, system turns and chrome.
	DimStyle    = lipgloss.NewStyle().Foreground(dimColor)
	BorderStyle = DimStyle
	StatusStyle = DimStyle
	TitleStyle  = lipgloss.NewStyle().Bold(true)

	ErrorStyle      = lipgloss.NewStyle().Foreground(dangerColor).Bold(true)
	AttachmentStyle = lipgloss.NewStyle().Foreground(warningColor)
	HighlightStyle  = lipgloss.NewStyle().Foreground(promptColor).Bold(true)
)

// FormatFooter pairs keys with descriptions: FormatFooter("Esc", "Close")
// renders the key plain and the description in the accent color.
func FormatFooter(pairs ...string) string {
	desc := AssistantStyle.Bold(true)
	out := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, pairs[i]+" "+desc.Render(pairs[i+1]))
	}
	return strings.Join(out, "  ")
}
