package sim

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/game/design"
	"github.com/udisondev/shipyard/internal/game/stats"
)

func testRunner(t *testing.T) *Runner {
	t.Helper()
	reg, err := data.NewDefaultRegistry()
	require.NoError(t, err)
	sc, err := LoadScenario(filepath.Join("testdata", "duel.yaml"))
	require.NoError(t, err)

	cfg := config.DefaultSimulator()
	cfg.MaxTicks = 3000
	cfg.Combat.ArenaSize = 1200
	return NewRunner(reg, cfg, sc)
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "duel.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "duel", sc.Name)
	assert.Equal(t, 300.0, sc.StandOff)
	require.Len(t, sc.Teams, 2)
	assert.Equal(t, "Picket", sc.Teams[0][0].Name)
	assert.Equal(t, "Lancer", sc.Teams[1][0].Name)

	_, err = LoadScenario(filepath.Join("testdata", "solo.yaml"))
	assert.ErrorContains(t, err, "at least two teams")

	_, err = LoadScenario(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestPlacement(t *testing.T) {
	pos, heading := Placement(0, 2, 0, 1, 2000)
	assert.InDelta(t, 1000.0, pos.X, 1e-9)
	assert.InDelta(t, 0.0, pos.Y, 1e-9)
	assert.Equal(t, 180.0, heading)

	pos, heading = Placement(1, 2, 0, 1, 2000)
	assert.InDelta(t, -1000.0, pos.X, 1e-9)
	assert.InDelta(t, 0.0, pos.Y, 1e-9, "pointing at the centre")
	assert.Equal(t, 0.0, heading)

	a, _ := Placement(0, 2, 0, 2, 2000)
	b, _ := Placement(0, 2, 1, 2, 2000)
	assert.InDelta(t, -75.0, a.Y, 1e-9)
	assert.InDelta(t, 75.0, b.Y, 1e-9)
}

func TestRunner_RunIsDeterministic(t *testing.T) {
	r := testRunner(t)

	first, err := r.Run(11)
	require.NoError(t, err)
	second, err := r.Run(11)
	require.NoError(t, err)

	assert.Equal(t, first.Log, second.Log)
	assert.Equal(t, first.Record, second.Record)
	assert.Equal(t, uint64(11), first.Record.Seed)
	assert.Positive(t, first.Record.Launches, "the railgun fires")
	assert.Len(t, first.Result.Ships, 2)
	assert.Equal(t, "Picket-0.0", first.Result.Ships[0].Name)
}

func TestRunner_RunBatchMatchesSequential(t *testing.T) {
	r := testRunner(t)

	outcomes, err := r.RunBatch(context.Background(), 4, 3)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	for i, o := range outcomes {
		want, err := r.Run(r.cfg.Seed + uint64(i))
		require.NoError(t, err)
		assert.Equal(t, want.Record, o.Record, "seed %d", want.Record.Seed)
	}
}

func TestRunner_RunBatchCancelled(t *testing.T) {
	r := testRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunBatch(ctx, 4, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampleScenarios(t *testing.T) {
	reg, err := data.NewDefaultRegistry()
	require.NoError(t, err)
	calc := stats.NewCalculator(config.DefaultPhysics())

	for _, name := range []string{"duel.yaml", "skirmish.yaml"} {
		t.Run(name, func(t *testing.T) {
			sc, err := LoadScenario(filepath.Join("..", "..", "scenarios", name))
			require.NoError(t, err)

			for _, team := range sc.Teams {
				for _, d := range team {
					_, res, err := design.Build(reg, d, calc, 0.01)
					require.NoError(t, err)
					assert.True(t, res.Valid, "%s: %v", d.Name, res.Errors)
				}
			}
		})
	}
}
