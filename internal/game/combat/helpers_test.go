package combat

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/game/stats"
	"github.com/udisondev/shipyard/internal/model"
)

type placement struct {
	id    string
	layer data.LayerType
}

func testRegistry(t *testing.T) *data.Registry {
	t.Helper()
	reg, err := data.NewDefaultRegistry()
	require.NoError(t, err)
	return reg
}

func buildShip(t *testing.T, reg *data.Registry, name, class string, parts ...placement) *model.Ship {
	t.Helper()
	vc := reg.VehicleClass(class)
	require.NotNil(t, vc)
	s := model.NewShip(name, vc)
	for _, p := range parts {
		def := reg.Component(p.id)
		require.NotNil(t, def, p.id)
		require.True(t, s.AddComponent(model.NewComponent(def, reg), p.layer))
	}
	stats.NewCalculator(config.DefaultPhysics()).Recalculate(s)
	return s
}

// warship is a crewed escort with a laser, armor and propulsion.
func warship(t *testing.T, reg *data.Registry, name string) *model.Ship {
	return buildShip(t, reg, name, "escort",
		placement{"bridge", data.LayerCore},
		placement{"reactor", data.LayerCore},
		placement{"crew_quarters", data.LayerInner},
		placement{"life_support", data.LayerInner},
		placement{"engine", data.LayerInner},
		placement{"thruster", data.LayerOuter},
		placement{"laser", data.LayerOuter},
		placement{"armor_plate", data.LayerArmor},
	)
}

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
