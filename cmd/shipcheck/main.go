// Command shipcheck builds saved designs, validates them and prints their derived stats.
//
// Usage:
//
//	go run ./cmd/shipcheck designs/picket.yaml designs/lancer.yaml
//	go run ./cmd/shipcheck -save designs/*.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/db"
	"github.com/udisondev/shipyard/internal/game/design"
	"github.com/udisondev/shipyard/internal/game/stats"
	"github.com/udisondev/shipyard/internal/model"
)

func main() {
	configPath := flag.String("config", "config/shipyard.yaml", "simulator config file")
	save := flag.Bool("save", false, "store valid designs in the configured database")
	flag.Parse()

	invalid, err := run(context.Background(), *configPath, *save, flag.Args(), os.Stdout)
	if err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
	if invalid > 0 {
		os.Exit(2)
	}
}

func run(ctx context.Context, configPath string, save bool, paths []string, w io.Writer) (invalid int, err error) {
	if len(paths) == 0 {
		return 0, fmt.Errorf("no design files given")
	}
	if p := os.Getenv("SHIPYARD_CONFIG"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadSimulator(configPath)
	if err != nil {
		return 0, fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	reg, err := data.LoadRegistry(cfg.DataFiles)
	if err != nil {
		return 0, fmt.Errorf("loading definitions: %w", err)
	}
	calc := stats.NewCalculator(cfg.Physics)

	var valid []*design.SavedDesign
	for _, path := range paths {
		d, err := design.LoadSavedDesign(path)
		if err != nil {
			return invalid, err
		}
		s, res, err := design.Build(reg, d, calc, cfg.ExpectedStatsTolerance)
		if err != nil {
			return invalid, fmt.Errorf("%s: %w", path, err)
		}
		report(w, path, d, s, res)
		if res.Valid {
			valid = append(valid, d)
		} else {
			invalid++
		}
	}

	if save {
		if err := saveDesigns(ctx, cfg, valid); err != nil {
			return invalid, err
		}
	}
	return invalid, nil
}

func report(w io.Writer, path string, d *design.SavedDesign, s *model.Ship, res design.Result) {
	status := "OK"
	if !res.Valid {
		status = "INVALID"
	}
	fmt.Fprintf(w, "== %s (%s, class %s) %s\n", d.Name, path, d.Class, status)
	fmt.Fprintf(w, "   fingerprint %s\n", d.Fingerprint())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		name  string
		value float64
	}{
		{"mass", s.Mass},
		{"hp", s.MaxHP},
		{"shields", s.MaxShields},
		{"thrust", s.TotalThrust},
		{"max speed", s.MaxSpeed},
		{"acceleration", s.AccelerationRate},
		{"turn speed", s.TurnSpeed},
		{"radius", s.Radius},
		{"defense", s.DefenseScore},
		{"attack bonus", s.AttackBonus},
		{"crew", s.CrewAvailable},
		{"crew required", s.CrewRequired},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "   %s\t%.2f\n", r.name, r.value)
	}
	for _, name := range s.Resources.Names() {
		fmt.Fprintf(tw, "   %s\t%.2f\n", name, s.Resources.Capacity(name))
	}
	for _, l := range s.Layers() {
		fmt.Fprintf(tw, "   layer %s\t%.2f / %.2f\t%d components\n", l.Type, l.Mass(), l.MaxMass, l.Len())
	}
	tw.Flush()

	for _, e := range res.Errors {
		fmt.Fprintf(w, "   error: %s\n", e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "   warning: %s\n", warn)
	}
}

func saveDesigns(ctx context.Context, cfg config.Simulator, designs []*design.SavedDesign) error {
	if !cfg.Database.Enabled() {
		return fmt.Errorf("-save needs a database host in the config")
	}
	if _, err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	repo := database.Designs()
	for _, d := range designs {
		fp, err := repo.Save(ctx, d)
		if err != nil {
			return err
		}
		slog.Info("design saved", "name", d.Name, "fingerprint", fp)
	}
	return nil
}
