// Package sim runs batches of seeded battles and summarizes them.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/game/combat"
	"github.com/udisondev/shipyard/internal/game/design"
)

// Record is one battle as written to CSV.
type Record struct {
	Scenario    string  `csv:"scenario"`
	Seed        uint64  `csv:"seed"`
	Ticks       int     `csv:"ticks"`
	Seconds     float64 `csv:"seconds"`
	Winner      int     `csv:"winner"`
	Hits        int     `csv:"hits"`
	Misses      int     `csv:"misses"`
	Launches    int     `csv:"launches"`
	Rams        int     `csv:"rams"`
	Destroyed   int     `csv:"destroyed"`
	Derelicts   int     `csv:"derelicts"`
	DamageDealt float64 `csv:"damage_dealt"`
	SurvivorHP  float64 `csv:"survivor_hp_pct"` // winner's remaining HP share, 0 on a draw
}

// Outcome is a finished battle.
type Outcome struct {
	Record Record
	Result combat.Result
	Log    string
}

// Runner builds and runs battles of one scenario. It is safe for concurrent use: every
// battle builds its own ships and generator, the registry is only read.
type Runner struct {
	reg *data.Registry
	cfg config.Simulator
	sc  *Scenario
}

func NewRunner(reg *data.Registry, cfg config.Simulator, sc *Scenario) *Runner {
	return &Runner{reg: reg, cfg: cfg, sc: sc}
}

// Run plays one battle with the given seed.
func (r *Runner) Run(seed uint64) (Outcome, error) {
	opts := combat.OptionsFromConfig(r.cfg)
	opts.Seed = seed
	b := combat.NewBattle(opts)
	pilot := combat.ChasePilot{StandOff: r.sc.StandOff}

	for team, designs := range r.sc.Teams {
		for i, d := range designs {
			s, res, err := design.Build(r.reg, d, b.Calculator(), r.cfg.ExpectedStatsTolerance)
			if err != nil {
				return Outcome{}, fmt.Errorf("seed %d: %w", seed, err)
			}
			if !res.Valid {
				slog.Debug("fielding invalid design", "design", d.Name, "errors", res.Errors)
			}
			s.Name = fmt.Sprintf("%s-%d.%d", d.Name, team, i)
			pos, heading := Placement(team, len(r.sc.Teams), i, len(designs), r.cfg.Combat.ArenaSize)
			b.AddShip(s, team, pos, heading)
			b.SetPilot(s, pilot)
		}
	}

	result := b.Run(r.cfg.MaxTicks)
	return Outcome{
		Record: newRecord(r.sc.Name, b, result),
		Result: result,
		Log:    b.Log(),
	}, nil
}

func newRecord(scenario string, b *combat.Battle, res combat.Result) Record {
	rec := Record{
		Scenario: scenario,
		Seed:     res.Seed,
		Ticks:    res.Ticks,
		Seconds:  b.Elapsed(),
		Winner:   res.Winner,
	}
	for _, e := range b.Events() {
		switch e.Kind {
		case combat.EventHit:
			rec.Hits++
			rec.DamageDealt += e.Amount
		case combat.EventMiss:
			rec.Misses++
		case combat.EventLaunch:
			rec.Launches++
		case combat.EventRam:
			rec.Rams++
		case combat.EventDestroyed:
			rec.Destroyed++
		case combat.EventDerelict:
			rec.Derelicts++
		}
	}

	if res.Winner >= 0 {
		var hp, maxHP float64
		for _, s := range res.Ships {
			if s.Team == res.Winner {
				hp += s.HP
				maxHP += s.MaxHP
			}
		}
		if maxHP > 0 {
			rec.SurvivorHP = hp / maxHP * 100
		}
	}
	return rec
}

// RunBatch plays runs battles with seeds cfg.Seed, cfg.Seed+1, ... on up to workers
// goroutines (GOMAXPROCS when workers <= 0). Outcomes are returned in seed order. The
// batch stops at the first error or when ctx is cancelled.
func (r *Runner) RunBatch(ctx context.Context, runs, workers int) ([]Outcome, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Outcome, runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range runs {
		seed := r.cfg.Seed + uint64(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := r.Run(seed)
			if err != nil {
				return err
			}
			out[i] = o
			slog.Debug("battle finished", "scenario", r.sc.Name, "seed", seed, "ticks", o.Result.Ticks, "winner", o.Result.Winner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("running batch %s: %w", r.sc.Name, err)
	}
	return out, nil
}
