package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("189")).Background(lipgloss.Color("61")).Padding(0, 1)
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	botStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	imageStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("111"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)
