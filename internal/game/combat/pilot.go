package combat

import (
	"math"

	"github.com/udisondev/shipyard/internal/model"
)

// Pilot steers a ship and sets its target and fire flag each tick. Derelict ships are not
// piloted.
type Pilot interface {
	Control(b *Battle, s *model.Ship, dt float64)
}

// PilotFunc adapts a function to Pilot.
type PilotFunc func(b *Battle, s *model.Ship, dt float64)

func (f PilotFunc) Control(b *Battle, s *model.Ship, dt float64) { f(b, s, dt) }

// ChasePilot closes on the nearest enemy, holds at StandOff and fires whenever it has a
// target.
type ChasePilot struct {
	StandOff float64
}

func (p ChasePilot) Control(b *Battle, s *model.Ship, dt float64) {
	if s.CurrentTarget == nil || !s.CurrentTarget.IsAlive() {
		s.CurrentTarget = b.NearestEnemy(s)
	}
	t := s.CurrentTarget
	if t == nil {
		s.Fire = false
		s.Throttle = 0
		return
	}

	want := Bearing(s.Position, t.Position)
	diff := model.AngleDiff(want, s.Heading)
	limit := s.TurnSpeed * dt
	s.Heading = normalizeHeading(s.Heading + math.Max(-limit, math.Min(limit, diff)))

	if Distance(s.Position, t.Position) > p.StandOff+s.Radius+t.Radius {
		s.Throttle = 1
	} else {
		s.Throttle = 0
	}
	s.Fire = true
}

func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
