package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/importer"
)

// Service writes conversion results for people and for the portfolio tracker.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Encode writes the envelope as indented JSON.
func (s *Service) Encode(w io.Writer, env *activity.Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	return nil
}

// WriteFile writes the envelope to path, creating the parent directory if needed.
func (s *Service) WriteFile(path string, env *activity.Envelope) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := s.Encode(f, env); err != nil {
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// DefaultPath names an output file after the provider and the run date.
// Format: dir/YYYYMMDD_provider.json
func (s *Service) DefaultPath(dir string, provider importer.Provider, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", at.Format("20060102"), provider))
}

// Summary renders one line per activity.
func (s *Service) Summary(env *activity.Envelope) string {
	var sb strings.Builder

	for _, a := range env.Activities {
		sb.WriteString(fmt.Sprintf("* %s | %-8s | %s | %s x %s %s\n",
			a.Date.Format("2006-01-02"), a.Type, a.Symbol,
			formatNumber(a.Quantity), formatNumber(a.UnitPrice), a.Currency))
	}

	return sb.String()
}

// RenderTable prints the activities followed by a per-kind count.
func (s *Service) RenderTable(w io.Writer, env *activity.Envelope) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Date", "Type", "Symbol", "Quantity", "Unit Price", "Fee", "Currency", "Source", "Comment"})

	counts := make(map[activity.Kind]int)

	for _, a := range env.Activities {
		counts[a.Type]++

		t.AppendRow(table.Row{
			a.Date.String(),
			kindColor(a.Type).Sprint(string(a.Type)),
			a.Symbol,
			formatNumber(a.Quantity),
			formatNumber(a.UnitPrice),
			formatNumber(a.Fee),
			a.Currency,
			string(a.DataSource),
			a.Comment,
		})
	}

	t.AppendSeparator()

	var parts []string

	for _, k := range []activity.Kind{activity.KindBuy, activity.KindSell, activity.KindDividend, activity.KindInterest, activity.KindFX} {
		if counts[k] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
		}
	}

	t.AppendFooter(table.Row{text.Bold.Sprint("Total"), text.Bold.Sprint(strconv.Itoa(len(env.Activities))), strings.Join(parts, ", ")})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	t.Render()
}

// RenderSkips prints the rows that produced no activities.
func (s *Service) RenderSkips(w io.Writer, skips []importer.Skip) {
	if len(skips) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Line", "Reason", "Detail"})

	for _, sk := range skips {
		t.AppendRow(table.Row{sk.Line, string(sk.Reason), sk.Detail})
	}

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Render()
}

func kindColor(k activity.Kind) text.Colors {
	switch k {
	case activity.KindBuy:
		return text.Colors{text.FgGreen}
	case activity.KindSell:
		return text.Colors{text.FgRed}
	case activity.KindDividend, activity.KindInterest:
		return text.Colors{text.FgCyan}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
