package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderHelpModal(width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("streamchat - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	keys := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Keys"),
		"• Enter         Send message",
		"• Alt+Enter     New line",
		"• Esc           Cancel the reply in progress",
		"• Ctrl+L        Clear the conversation",
		"• Ctrl+Y        Copy last response",
		"• PgUp/PgDn     Scroll",
		"• Tab           Complete command",
		"• Ctrl+C        Quit",
	)

	lines := []string{blue.Render("## Commands")}
	for _, c := range commands {
		lines = append(lines, fmt.Sprintf("• %-13s %s", "/"+c.usage, c.description))
	}
	cmds := lipgloss.JoinVertical(lipgloss.Left, lines...)

	footer := FormatFooter("Esc", "Close")

	body := lipgloss.JoinVertical(lipgloss.Left, title, "", keys, "", cmds, "", footer)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
