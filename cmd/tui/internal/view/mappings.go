package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

type mappingsState int

const (
	mappingsStateBrowse mappingsState = iota
	mappingsStateAdd
)

type MappingsModel struct {
	CommonModel
	mappingService *security.MappingService

	state    mappingsState
	table    table.Model
	mappings []*security.Mapping
	form     *huh.Form

	loading bool
	err     error
	status  string
}

func NewMappingsModel(svc *security.MappingService) MappingsModel {
	return MappingsModel{
		mappingService: svc,
		table: newTable([]table.Column{
			{Title: "Identifier", Width: 30},
			{Title: "Symbol", Width: 14},
			{Title: "Currency", Width: 8},
			{Title: "Source", Width: 8},
			{Title: "Created", Width: 12},
		}, 15),
		loading: true,
	}
}

func (m MappingsModel) Title() string { return "Symbol Mappings" }
func (m MappingsModel) ShortHelp() string {
	if m.state == mappingsStateAdd {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | a: add | r: refresh"
}

func (m MappingsModel) Init() tea.Cmd {
	return m.loadMappingsCmd()
}

func (m MappingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadMappingsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mappings = msg.mappings
		m.refreshTable()
		return m, nil

	case mappingSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Mapped %s to %s", msg.mapping.Identifier, msg.mapping.Symbol)
		}
		m.state = mappingsStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadMappingsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case mappingsStateBrowse:
		return m.updateBrowse(msg)
	case mappingsStateAdd:
		return m.updateAdd(msg)
	}

	return m, nil
}

func (m MappingsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.enterAddMode()
		case "r":
			m.loading = true
			m.status = ""
			return m, m.loadMappingsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m MappingsModel) enterAddMode() (tea.Model, tea.Cmd) {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("identifier").
				Title("Identifier").
				Description("ISIN, ticker or name as it appears in the export").
				Validate(notBlank("identifier")),

			huh.NewInput().
				Key("symbol").
				Title("Symbol").
				Placeholder("VWRL.AS").
				Validate(notBlank("symbol")),

			huh.NewInput().
				Key("currency").
				Title("Currency").
				Placeholder("EUR"),

			huh.NewSelect[string]().
				Key("source").
				Title("Data Source").
				Options(
					huh.NewOption(string(activity.DataSourceYahoo), string(activity.DataSourceYahoo)),
					huh.NewOption(string(activity.DataSourceManual), string(activity.DataSourceManual)),
				),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = mappingsStateAdd
	m.table.Blur()
	return m, m.form.Init()
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func (m MappingsModel) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = mappingsStateBrowse
		m.form = nil
		m.table.Focus()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd(
		m.form.GetString("identifier"),
		m.form.GetString("symbol"),
		m.form.GetString("currency"),
		activity.DataSource(m.form.GetString("source")),
	)
}

func (m MappingsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading mappings...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(fmt.Sprintf("%d mappings", len(m.mappings))),
		boxed(m.table.View()),
	)

	if m.state == mappingsStateAdd && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render("Add Mapping\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = mutedStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *MappingsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.mappings))
	for _, mp := range m.mappings {
		rows = append(rows, table.Row{
			mp.Identifier,
			mp.Symbol,
			mp.Currency,
			string(mp.DataSource),
			FormatDate(mp.CreatedAt),
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadMappingsMsg struct {
	mappings []*security.Mapping
	err      error
}

func (m MappingsModel) loadMappingsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		mappings, err := m.mappingService.List(ctx)
		return loadMappingsMsg{mappings: mappings, err: err}
	}
}

type mappingSavedMsg struct {
	mapping *security.Mapping
	err     error
}

func (m MappingsModel) saveCmd(identifier, symbol, currency string, source activity.DataSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		mp, err := m.mappingService.Learn(ctx, identifier, symbol, currency, source)
		return mappingSavedMsg{mapping: mp, err: err}
	}
}
