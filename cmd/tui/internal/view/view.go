package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View is a screen reachable from the main menu.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

type CommonModel struct{}

// BackMsg returns control to the menu.
type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).PaddingLeft(1)
	helpStyle    = lipgloss.NewStyle().Faint(true).PaddingLeft(1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Frame renders a screen between its title and its key help.
func Frame(v View) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(v.Title()),
		v.View(),
		helpStyle.Render(v.ShortHelp()),
	)
}
