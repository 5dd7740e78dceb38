// Command battlesim runs a scenario many times with consecutive seeds and reports the
// outcome distribution.
//
// Usage:
//
//	go run ./cmd/battlesim -scenario scenarios/duel.yaml -runs 200 -out results.csv
//	go run ./cmd/battlesim -scenario scenarios/duel.yaml -runs 1 -log
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/db"
	"github.com/udisondev/shipyard/internal/game/design"
	"github.com/udisondev/shipyard/internal/sim"
)

const DefaultConfigPath = "config/shipyard.yaml"

type options struct {
	configPath string
	scenario   string
	runs       int
	workers    int
	out        string
	printLog   bool
	persist    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", DefaultConfigPath, "simulator config file")
	flag.StringVar(&opts.scenario, "scenario", "", "scenario file (required)")
	flag.IntVar(&opts.runs, "runs", 100, "number of battles, seeds start at the configured seed")
	flag.IntVar(&opts.workers, "workers", 0, "parallel battles (0 = GOMAXPROCS)")
	flag.StringVar(&opts.out, "out", "", "CSV output file (- for stdout)")
	flag.BoolVar(&opts.printLog, "log", false, "print the event log of the first battle")
	flag.BoolVar(&opts.persist, "persist", false, "store designs and results in the configured database")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.scenario == "" {
		return fmt.Errorf("-scenario is required")
	}
	if opts.runs <= 0 {
		return fmt.Errorf("-runs must be positive, got %d", opts.runs)
	}

	cfgPath := opts.configPath
	if p := os.Getenv("SHIPYARD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSimulator(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	reg, err := data.LoadRegistry(cfg.DataFiles)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}

	sc, err := sim.LoadScenario(opts.scenario)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}
	slog.Info("scenario loaded", "name", sc.Name, "teams", len(sc.Teams), "runs", opts.runs, "first_seed", cfg.Seed)

	runner := sim.NewRunner(reg, cfg, sc)
	outcomes, err := runner.RunBatch(ctx, opts.runs, opts.workers)
	if err != nil {
		return err
	}
	records := sim.Records(outcomes)

	if opts.printLog {
		fmt.Print(outcomes[0].Log)
	}
	if err := writeRecords(opts.out, records); err != nil {
		return err
	}
	fmt.Print(sim.Summarize(records))

	if opts.persist {
		if err := persist(ctx, cfg, sc, outcomes); err != nil {
			return err
		}
	}
	return nil
}

func writeRecords(path string, records []sim.Record) error {
	switch path {
	case "":
		return nil
	case "-":
		return sim.WriteCSV(os.Stdout, records)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := sim.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	slog.Info("results written", "path", path, "battles", len(records))
	return nil
}

func persist(ctx context.Context, cfg config.Simulator, sc *sim.Scenario, outcomes []sim.Outcome) error {
	if !cfg.Database.Enabled() {
		return fmt.Errorf("-persist needs a database host in the config")
	}

	if _, err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	seen := make(map[*design.SavedDesign]bool)
	for _, team := range sc.Teams {
		for _, d := range team {
			if seen[d] {
				continue
			}
			seen[d] = true
			if _, err := database.Designs().Save(ctx, d); err != nil {
				return err
			}
		}
	}

	battles := database.Battles()
	for _, o := range outcomes {
		if _, err := battles.Save(ctx, sc.Name, o.Result); err != nil {
			return err
		}
	}

	wins, err := battles.WinCounts(ctx, sc.Name)
	if err != nil {
		return err
	}
	slog.Info("results stored", "scenario", sc.Name, "battles", len(outcomes), "history", wins)
	return nil
}
