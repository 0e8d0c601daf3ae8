package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/folioport/internal/config"
	"github.com/MrJamesThe3rd/folioport/internal/export"
	"github.com/MrJamesThe3rd/folioport/internal/importer"
	"github.com/MrJamesThe3rd/folioport/internal/logger"
	"github.com/MrJamesThe3rd/folioport/internal/security/chain"
)

type Params struct {
	Provider string `descr:"Export format" alts:"broker,bitpanda" strict:"true"`
	Out      string `descr:"Output file (defaults to ./<date>_<provider>.json)" optional:"true"`
	Quiet    bool   `descr:"Do not print the activity table" optional:"true"`
	File     string `descr:"Path to the provider CSV export" positional:"true"`
}

func main() {
	boa.NewCmdT[Params]("convert").
		WithShort("Convert a broker export into portfolio tracker activities").
		WithLong("Reads a provider CSV export, resolves every security and writes the activities as a JSON envelope ready for import.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(params *Params) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)

	resolver, err := chain.New(cfg, nil)
	if err != nil {
		return err
	}

	f, err := os.Open(params.File)
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var skipped []importer.Skip

	svc := importer.NewService(resolver, cfg.Settings(), importer.WithLogger(log))

	env, err := svc.Convert(ctx, importer.Provider(params.Provider), f,
		importer.WithSkipHandler(func(s importer.Skip) { skipped = append(skipped, s) }),
	)
	if err != nil {
		return err
	}

	exporter := export.NewService()

	if !params.Quiet {
		exporter.RenderTable(os.Stdout, env)
		exporter.RenderSkips(os.Stdout, skipped)
	}

	out := params.Out
	if out == "" {
		out = exporter.DefaultPath(".", importer.Provider(params.Provider), time.Now())
	}

	if err := exporter.WriteFile(out, env); err != nil {
		return err
	}

	log.Info("wrote envelope", "path", out, "activities", len(env.Activities), "skipped", len(skipped))

	return nil
}
