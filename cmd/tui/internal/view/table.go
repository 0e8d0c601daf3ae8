package view

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
)

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func activityTable(env *activity.Envelope) table.Model {
	t := newTable([]table.Column{
		{Title: "Date", Width: 12},
		{Title: "Type", Width: 9},
		{Title: "Symbol", Width: 14},
		{Title: "Quantity", Width: 14},
		{Title: "Unit Price", Width: 14},
		{Title: "Fee", Width: 8},
		{Title: "Currency", Width: 8},
		{Title: "Source", Width: 8},
	}, 12)

	rows := make([]table.Row, 0, len(env.Activities))
	for _, a := range env.Activities {
		rows = append(rows, table.Row{
			FormatDate(a.Date.Time),
			string(a.Type),
			a.Symbol,
			FormatNumber(a.Quantity),
			FormatNumber(a.UnitPrice),
			FormatNumber(a.Fee),
			a.Currency,
			string(a.DataSource),
		})
	}

	t.SetRows(rows)

	return t
}

func boxed(s string) string {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(s)
}
