package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	clockStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	lowClock   = clockStyle.Foreground(lipgloss.Color("196"))

	optionStyle   = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = optionStyle.Foreground(lipgloss.Color("42")).Bold(true)

	controlStyle = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	focusedStyle = controlStyle.BorderForeground(lipgloss.Color("33")).Bold(true)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("124")).
			Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)
)

// lowTimeSeconds switches the clock to the warning color.
const lowTimeSeconds = 60
