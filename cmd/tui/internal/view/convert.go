package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/export"
	"github.com/MrJamesThe3rd/folioport/internal/importer"
)

const convertTimeout = 10 * time.Minute

type convertState int

const (
	convertStateProviderSelect convertState = iota
	convertStateFilePick
	convertStateOutput
	convertStateConverting
	convertStateResult
)

type ConvertModel struct {
	CommonModel
	importService *importer.Service
	exportService *export.Service

	state          convertState
	providers      []importer.Provider
	providerCursor int
	provider       importer.Provider
	filePicker     filepicker.Model
	input          string
	form           *huh.Form

	progress progress.Model
	percent  float64
	updates  chan tea.Msg

	result convertDoneMsg
	table  table.Model
}

func NewConvertModel(impSvc *importer.Service, expSvc *export.Service) ConvertModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".CSV"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ConvertModel{
		importService: impSvc,
		exportService: expSvc,
		providers:     impSvc.Providers(),
		filePicker:    fp,
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
	}
}

func (m ConvertModel) Title() string { return "Convert Export" }

func (m ConvertModel) ShortHelp() string {
	switch m.state {
	case convertStateConverting:
		return "Converting..."
	case convertStateResult:
		return "↑/↓: scroll | Esc: convert another"
	}

	return "Esc: back | Enter: select"
}

func (m ConvertModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ConvertModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc && m.state != convertStateConverting {
			return m.handleEsc()
		}

		switch m.state {
		case convertStateProviderSelect:
			return m.updateProviderSelect(msg)
		case convertStateResult:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)

			return m, cmd
		}

	case convertProgressMsg:
		if msg.total > 0 {
			m.percent = float64(msg.done) / float64(msg.total)
		}

		return m, waitForUpdate(m.updates)

	case convertDoneMsg:
		m.state = convertStateResult
		m.result = msg
		m.updates = nil

		if msg.env != nil {
			m.table = activityTable(msg.env)
		}

		return m, nil
	}

	switch m.state {
	case convertStateFilePick:
		return m.updateFilePick(msg)
	case convertStateOutput:
		return m.updateOutput(msg)
	}

	return m, nil
}

func (m ConvertModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case convertStateFilePick, convertStateResult:
		m.state = convertStateProviderSelect
		m.result = convertDoneMsg{}
		m.percent = 0

		return m, nil
	case convertStateOutput:
		m.state = convertStateFilePick
		m.form = nil

		return m, m.filePicker.Init()
	}

	return m, Back
}

func (m ConvertModel) updateProviderSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.providerCursor > 0 {
			m.providerCursor--
		}
	case tea.KeyDown:
		if m.providerCursor < len(m.providers)-1 {
			m.providerCursor++
		}
	case tea.KeyEnter:
		if len(m.providers) == 0 {
			return m, nil
		}

		m.provider = m.providers[m.providerCursor]
		m.state = convertStateFilePick

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ConvertModel) updateFilePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.input = path
		m.form = m.buildOutputForm(m.exportService.DefaultPath(filepath.Dir(path), m.provider, time.Now()))
		m.state = convertStateOutput

		return m, m.form.Init()
	}

	return m, cmd
}

func (m ConvertModel) buildOutputForm(defaultPath string) *huh.Form {
	output := defaultPath

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("output").
				Title("Output File").
				Description("Directory will be created if it doesn't exist").
				Placeholder(defaultPath).
				Value(&output).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("output file cannot be empty")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ConvertModel) updateOutput(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	output := strings.TrimSpace(m.form.GetString("output"))

	m.state = convertStateConverting
	m.percent = 0
	m.updates = make(chan tea.Msg, 16)

	go m.run(m.updates, m.provider, m.input, output)

	return m, waitForUpdate(m.updates)
}

func (m ConvertModel) View() string {
	switch m.state {
	case convertStateProviderSelect:
		return m.viewProviderSelect()
	case convertStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select %s export:\n\n%s", m.provider, m.filePicker.View()),
		)
	case convertStateOutput:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Input: %s\n\n%s", m.input, m.form.View()),
		)
	case convertStateConverting:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Converting %s...\n\n%s", filepath.Base(m.input), m.progress.ViewAs(m.percent)),
		)
	case convertStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ConvertModel) viewProviderSelect() string {
	s := "Select Provider:\n\n"

	for i, p := range m.providers {
		cursor := " "
		if i == m.providerCursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, string(p))
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ConvertModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(1)

	if m.result.err != nil {
		return style.Render(
			errorStyle.Render(fmt.Sprintf("Error: %v", m.result.err)) +
				"\n\n(Esc to go back)",
		)
	}

	header := successStyle.Bold(true).Render(fmt.Sprintf(
		"Converted %d activities (%d rows skipped)", len(m.result.env.Activities), len(m.result.skipped),
	))

	var skipped strings.Builder

	for _, s := range m.result.skipped {
		if s.Reason == importer.SkipIgnored || s.Reason == importer.SkipUnclassified {
			continue
		}

		skipped.WriteString(fmt.Sprintf("line %d: %s %s\n", s.Line, s.Reason, s.Detail))
	}

	parts := []string{header, mutedStyle.Render("Written to " + m.result.path), "", boxed(m.table.View())}
	if skipped.Len() > 0 {
		parts = append(parts, "", "Needs attention:", skipped.String())
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// Messages

type convertProgressMsg struct {
	done  int
	total int
}

type convertDoneMsg struct {
	env     *activity.Envelope
	skipped []importer.Skip
	path    string
	err     error
}

func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return nil
		}

		return msg
	}
}

// run converts the file and streams progress to updates. It always ends with a
// convertDoneMsg and closes the channel.
func (m ConvertModel) run(updates chan<- tea.Msg, provider importer.Provider, input, output string) {
	defer close(updates)

	f, err := os.Open(input)
	if err != nil {
		updates <- convertDoneMsg{err: err}
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), convertTimeout)
	defer cancel()

	var skipped []importer.Skip

	env, err := m.importService.Convert(ctx, provider, f,
		importer.WithProgress(func(done, total int) {
			updates <- convertProgressMsg{done: done, total: total}
		}),
		importer.WithSkipHandler(func(s importer.Skip) {
			skipped = append(skipped, s)
		}),
	)
	if err != nil {
		updates <- convertDoneMsg{err: err}
		return
	}

	if err := m.exportService.WriteFile(output, env); err != nil {
		updates <- convertDoneMsg{err: err}
		return
	}

	updates <- convertDoneMsg{env: env, skipped: skipped, path: output}
}
