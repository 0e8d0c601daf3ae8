package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/folioport/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/folioport/internal/config"
	"github.com/MrJamesThe3rd/folioport/internal/database"
	"github.com/MrJamesThe3rd/folioport/internal/export"
	"github.com/MrJamesThe3rd/folioport/internal/importer"
	"github.com/MrJamesThe3rd/folioport/internal/logger"
	"github.com/MrJamesThe3rd/folioport/internal/security"
	"github.com/MrJamesThe3rd/folioport/internal/security/chain"
	mappingStore "github.com/MrJamesThe3rd/folioport/internal/security/store"
)

const logFile = "folioport.log"

type model struct {
	appName        string
	importService  *importer.Service
	exportService  *export.Service
	mappingService *security.MappingService

	currentView View

	convertView  view.ConvertModel
	mappingsView view.MappingsModel
}

type View int

const (
	ViewMenu     View = 0
	ViewConvert  View = 1
	ViewMappings View = 2
)

func initialModel(cfg *config.Config, log *slog.Logger, mappingSvc *security.MappingService) (model, error) {
	resolver, err := chain.New(cfg, mappingSvc)
	if err != nil {
		return model{}, err
	}

	impSvc := importer.NewService(resolver, cfg.Settings(), importer.WithLogger(log))
	expSvc := export.NewService()

	return model{
		appName:        cfg.App.Name,
		importService:  impSvc,
		exportService:  expSvc,
		mappingService: mappingSvc,
		currentView:    ViewMenu,
		convertView:    view.NewConvertModel(impSvc, expSvc),
	}, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewConvert
				m.convertView = view.NewConvertModel(m.importService, m.exportService)

				return m, m.convertView.Init()
			case "2":
				if m.mappingService == nil {
					return m, nil
				}

				m.currentView = ViewMappings
				m.mappingsView = view.NewMappingsModel(m.mappingService)

				return m, m.mappingsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewConvert:
		var newModel tea.Model
		newModel, cmd = m.convertView.Update(msg)
		m.convertView = newModel.(view.ConvertModel)
	case ViewMappings:
		var newModel tea.Model
		newModel, cmd = m.mappingsView.Update(msg)
		m.mappingsView = newModel.(view.MappingsModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		mappings := "2. Symbol Mappings\n\n"
		if m.mappingService == nil {
			mappings = lipgloss.NewStyle().Faint(true).Render("2. Symbol Mappings (set DB_ENABLED=true)") + "\n\n"
		}

		return lipgloss.NewStyle().Padding(2).Render(
			m.appName + "\n\n" +
				"1. Convert Export\n" +
				mappings +
				"q. Quit",
		)
	case ViewConvert:
		return view.Frame(m.convertView)
	case ViewMappings:
		return view.Frame(m.mappingsView)
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	f, err := tea.LogToFile(logFile, "")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	log := logger.New(f, cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(log)

	var mappingSvc *security.MappingService

	if cfg.DB.Enabled {
		ctx := context.Background()

		db, err := database.New(ctx, cfg.ConnectionString())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store := mappingStore.New(db)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		mappingSvc = security.NewMappingService(store)
	}

	m, err := initialModel(cfg, log, mappingSvc)
	if err != nil {
		slog.Error("failed to build resolver", "error", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
