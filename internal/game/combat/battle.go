package combat

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/game/stats"
	"github.com/udisondev/shipyard/internal/model"
)

// EventKind classifies battle log entries.
type EventKind string

const (
	EventMiss      EventKind = "miss"
	EventHit       EventKind = "hit"
	EventLaunch    EventKind = "launch"
	EventExpire    EventKind = "expire"
	EventRam       EventKind = "ram"
	EventDerelict  EventKind = "derelict"
	EventRestored  EventKind = "restored"
	EventDestroyed EventKind = "destroyed"
	EventShotDown  EventKind = "shot_down"
)

// Event is one battle log entry.
type Event struct {
	Tick   int
	Kind   EventKind
	Source string
	Target string
	Amount float64
	Detail string
}

// String formats the event with fixed precision so logs compare byte for byte.
func (e Event) String() string {
	s := fmt.Sprintf("%06d %-9s %s > %s %.4f", e.Tick, e.Kind, e.Source, e.Target, e.Amount)
	if e.Detail != "" {
		s += " " + e.Detail
	}
	return s
}

// Options configure a battle.
type Options struct {
	Seed     uint64
	TickRate float64
	Physics  config.Physics
	Selector DamageSelector
}

// OptionsFromConfig builds battle options from simulator config.
func OptionsFromConfig(cfg config.Simulator) Options {
	return Options{
		Seed:     cfg.Seed,
		TickRate: cfg.TickRate,
		Physics:  cfg.Physics,
		Selector: NewSelector(cfg.Combat.DamageSelection),
	}
}

// ShipResult is the final state of one ship.
type ShipResult struct {
	Name     string
	Team     int
	Alive    bool
	Derelict bool
	HP       float64
	MaxHP    float64
}

// Result summarizes a finished (or stopped) battle.
type Result struct {
	Seed   uint64
	Ticks  int
	Winner int // -1 when no single team survived
	Ships  []ShipResult
}

// Battle is a fixed-step combat world. All randomness comes from one generator seeded at
// construction, so the same seed and setup give the same event log.
//
// A Battle and its ships must be driven from a single goroutine.
type Battle struct {
	seed     uint64
	rng      *rand.Rand
	dt       float64
	calc     *stats.Calculator
	selector DamageSelector

	ships       []*model.Ship
	pilots      map[*model.Ship]Pilot
	projectiles []*Projectile
	nextID      int

	tick     int
	events   []Event
	observer func(Event)

	dirty map[*model.Ship]bool
	dead  map[*model.Ship]bool
}

// NewBattle creates an empty battle.
func NewBattle(opts Options) *Battle {
	if opts.TickRate <= 0 {
		opts.TickRate = 100
	}
	if opts.Physics == (config.Physics{}) {
		opts.Physics = config.DefaultPhysics()
	}
	if opts.Selector == nil {
		opts.Selector = UniformSelector{}
	}
	return &Battle{
		seed:     opts.Seed,
		rng:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		dt:       1 / opts.TickRate,
		calc:     stats.NewCalculator(opts.Physics),
		selector: opts.Selector,
		pilots:   make(map[*model.Ship]Pilot),
		dirty:    make(map[*model.Ship]bool),
		dead:     make(map[*model.Ship]bool),
	}
}

// SetObserver sets a callback invoked for every event as it is logged.
func (b *Battle) SetObserver(fn func(Event)) { b.observer = fn }

// AddShip places a ship, recalculates it and fills its shields.
func (b *Battle) AddShip(s *model.Ship, team int, pos r2.Vec, heading float64) {
	s.Team = team
	s.Position = pos
	s.Velocity = r2.Vec{}
	s.Heading = normalizeHeading(heading)
	b.calc.Recalculate(s)
	s.CurrentShields = s.MaxShields
	b.ships = append(b.ships, s)
}

// SetPilot assigns a pilot; ships without one are controlled by the caller.
func (b *Battle) SetPilot(s *model.Ship, p Pilot) { b.pilots[s] = p }

func (b *Battle) Ships() []*model.Ship          { return slices.Clone(b.ships) }
func (b *Battle) Projectiles() []*Projectile    { return slices.Clone(b.projectiles) }
func (b *Battle) Tick() int                     { return b.tick }
func (b *Battle) Elapsed() float64              { return float64(b.tick) * b.dt }
func (b *Battle) Events() []Event               { return slices.Clone(b.events) }
func (b *Battle) Calculator() *stats.Calculator { return b.calc }

// Log renders the event log, one event per line.
func (b *Battle) Log() string {
	var sb strings.Builder
	for _, e := range b.events {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// NearestEnemy returns the closest live hostile ship, or nil.
func (b *Battle) NearestEnemy(s *model.Ship) *model.Ship {
	var best *model.Ship
	bestDist := math.Inf(1)
	for _, o := range b.ships {
		if !Hostile(s, o) || !o.IsAlive() {
			continue
		}
		if d := Distance(s.Position, o.Position); d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// Finished reports whether at most one team has live ships, or nobody can fight anymore.
func (b *Battle) Finished() bool {
	teams := make(map[int]bool)
	armed := false
	for _, s := range b.ships {
		if !s.IsAlive() {
			continue
		}
		teams[s.Team] = true
		if !s.IsDerelict && hasWeapons(s) {
			armed = true
		}
	}
	return len(teams) <= 1 || (!armed && len(b.projectiles) == 0)
}

func hasWeapons(s *model.Ship) bool {
	for _, c := range s.Components() {
		if c.IsOperational() && len(c.Weapons()) > 0 {
			return true
		}
	}
	return false
}

// Run steps the battle until it is finished or maxTicks is reached.
func (b *Battle) Run(maxTicks int) Result {
	for !b.Finished() && b.tick < maxTicks {
		b.Update()
	}
	return b.Result()
}

// Result summarizes the current state.
func (b *Battle) Result() Result {
	res := Result{Seed: b.seed, Ticks: b.tick, Winner: -1}
	teams := make(map[int]bool)
	for _, s := range b.ships {
		alive := s.IsAlive()
		if alive {
			teams[s.Team] = true
		}
		res.Ships = append(res.Ships, ShipResult{
			Name:     s.Name,
			Team:     s.Team,
			Alive:    alive,
			Derelict: s.IsDerelict,
			HP:       s.TotalHP(),
			MaxHP:    s.MaxHP,
		})
	}
	if len(teams) == 1 {
		for team := range teams {
			res.Winner = team
		}
	}
	return res
}

// Update advances the battle by one fixed tick.
func (b *Battle) Update() {
	b.tick++
	dt := b.dt

	for _, s := range b.ships {
		if !s.IsAlive() {
			continue
		}
		b.tickSystems(s, dt)
		if s.IsDerelict {
			s.Fire = false
			s.Throttle = 0
		} else if p := b.pilots[s]; p != nil {
			p.Control(b, s, dt)
		}
		move(s, dt)
	}

	for _, s := range b.ships {
		if s.IsAlive() && !s.IsDerelict && s.Fire {
			b.fireWeapons(s)
		}
	}

	b.updateProjectiles(dt)
	b.checkRamming()
	b.settle()
}

func (b *Battle) tickSystems(s *model.Ship, dt float64) {
	s.Resources.Tick(dt)
	for _, c := range s.Components() {
		for _, w := range c.Weapons() {
			w.Tick(dt)
		}
	}

	if s.ShieldRegen <= 0 || s.CurrentShields >= s.MaxShields {
		return
	}
	amount := math.Min(s.ShieldRegen*dt, s.MaxShields-s.CurrentShields)
	if cost := s.ShieldRegenCost; cost > 0 {
		amount = math.Min(amount, s.Resources.Current(model.ResourceEnergy)/cost)
		if amount <= 0 || !s.Resources.Consume(model.ResourceEnergy, amount*cost) {
			return
		}
	}
	s.CurrentShields += amount
}

func move(s *model.Ship, dt float64) {
	want := r2.Scale(s.MaxSpeed*math.Max(0, math.Min(1, s.Throttle)), HeadingVec(s.Heading))
	dv := r2.Sub(want, s.Velocity)
	if maxDv := s.AccelerationRate * dt; r2.Norm(dv) > maxDv {
		if maxDv <= 0 {
			dv = r2.Vec{}
		} else {
			dv = r2.Scale(maxDv, r2.Unit(dv))
		}
	}
	s.Velocity = r2.Add(s.Velocity, dv)
	s.Position = r2.Add(s.Position, r2.Scale(dt, s.Velocity))
}

func (b *Battle) fireWeapons(s *model.Ship) {
	t := s.CurrentTarget
	if t == nil || !t.IsAlive() {
		return
	}
	dist := Distance(s.Position, t.Position)
	bearing := Bearing(s.Position, t.Position)

	var ready []*model.WeaponAbility
	for _, c := range s.Components() {
		if !c.IsOperational() {
			continue
		}
		ready = ready[:0]
		for _, w := range c.Weapons() {
			if w.Ready() && dist-t.Radius <= w.Range && w.InArc(s.Heading, bearing) {
				ready = append(ready, w)
			}
		}
		// one activation per component fires every ready weapon block
		if len(ready) == 0 || !s.Resources.ConsumeAll(model.ActivationCosts(c)) {
			continue
		}
		for _, w := range ready {
			w.StartCooldown()
			if w.Kind == model.WeaponBeam {
				b.fireBeam(s, c, w, t)
			} else {
				b.launch(s, c, w, t)
			}
		}
	}
}

func (b *Battle) fireBeam(s *model.Ship, c *model.Component, w *model.WeaponAbility, t *model.Ship) {
	src := s.Name + "/" + c.Label()
	hitDist, ok := RaycastCircle(s.Position, r2.Sub(t.Position, s.Position), t.Position, t.Radius, w.Range)
	if !ok {
		b.log(Event{Kind: EventMiss, Source: src, Target: t.Name, Detail: "out_of_range"})
		return
	}
	p := HitChance(w.Accuracy, s.AttackBonus, w.AccuracyFalloff, hitDist, t.DefenseScore)
	if b.rng.Float64() >= p {
		b.log(Event{Kind: EventMiss, Source: src, Target: t.Name, Amount: p})
		return
	}
	b.damage(src, t, w.DamageAt(hitDist))
}

func (b *Battle) launch(s *model.Ship, c *model.Component, w *model.WeaponAbility, t *model.Ship) {
	speed := math.Max(w.ProjectileSpeed, 1)
	var vel r2.Vec
	if w.Kind == model.WeaponSeeker {
		vel = r2.Scale(speed, r2.Unit(r2.Sub(t.Position, s.Position)))
	} else {
		aim := LeadPoint(s.Position, t.Position, t.Velocity, speed)
		vel = r2.Scale(speed, r2.Unit(r2.Sub(aim, s.Position)))
	}

	p := &Projectile{
		ID:        b.nextID,
		Kind:      w.Kind,
		Owner:     s,
		Source:    s.Name + "/" + c.Label(),
		Target:    t,
		Position:  s.Position,
		Velocity:  vel,
		Speed:     speed,
		Damage:    w.Damage,
		MaxRange:  w.Range,
		Endurance: w.Endurance,
		TurnRate:  w.TurnRate,
		HP:        w.ProjectileHP,
		weapon:    w,
	}
	b.nextID++
	b.projectiles = append(b.projectiles, p)
	b.log(Event{Kind: EventLaunch, Source: p.Source, Target: t.Name, Amount: float64(p.ID), Detail: w.Kind.String()})
}

func (b *Battle) updateProjectiles(dt float64) {
	for _, p := range b.projectiles {
		if !p.Alive() {
			continue
		}
		from := p.Step(dt)
		seg := r2.Sub(p.Position, from)
		segLen := r2.Norm(seg)

		var hit *model.Ship
		hitAt := math.Inf(1)
		for _, s := range b.ships {
			if !Hostile(p.Owner, s) || !s.IsAlive() {
				continue
			}
			if d, ok := RaycastCircle(from, seg, s.Position, s.Radius, segLen); ok && d < hitAt {
				hit, hitAt = s, d
			}
		}

		if hit != nil {
			p.kill()
			b.damage(p.Source, hit, p.DamageAt(p.Traveled-segLen+hitAt))
			continue
		}
		if p.Expired() {
			p.kill()
			b.log(Event{Kind: EventExpire, Source: p.Source, Target: "-", Amount: float64(p.ID)})
		}
	}
	b.projectiles = slices.DeleteFunc(b.projectiles, func(p *Projectile) bool { return !p.Alive() })
}

// DamageProjectile applies amount to the live projectile with the given id, as point
// defence fire from source would. It reports whether the projectile was destroyed; a
// destroyed projectile is removed at once and never reaches its target.
func (b *Battle) DamageProjectile(source string, id int, amount float64) bool {
	i := slices.IndexFunc(b.projectiles, func(p *Projectile) bool { return p.ID == id && p.Alive() })
	if i < 0 || amount <= 0 {
		return false
	}
	p := b.projectiles[i]
	if !p.TakeDamage(amount) {
		return false
	}
	b.projectiles = slices.Delete(b.projectiles, i, i+1)
	b.log(Event{Kind: EventShotDown, Source: source, Target: p.Source, Amount: float64(p.ID)})
	return true
}

func (b *Battle) checkRamming() {
	for i, a := range b.ships {
		for _, o := range b.ships[i+1:] {
			res := CheckRamming(a, o, b.selector, b.rng)
			if !res.Rammed {
				continue
			}
			b.dirty[a], b.dirty[o] = true, true
			b.log(Event{Kind: EventRam, Source: a.Name, Target: o.Name, Amount: res.Damage})
		}
	}
}

func (b *Battle) damage(source string, t *model.Ship, amount float64) {
	rep := ApplyDamage(t, amount, b.selector, b.rng)
	b.dirty[t] = true
	b.log(Event{
		Kind:   EventHit,
		Source: source,
		Target: t.Name,
		Amount: amount,
		Detail: fmt.Sprintf("ignored=%.4f shield=%.4f hull=%.4f", rep.Ignored, rep.Shields, rep.HullDamage()),
	})
}

// settle recalculates damaged ships in ship order and logs state changes.
func (b *Battle) settle() {
	for _, s := range b.ships {
		if !b.dirty[s] {
			continue
		}
		delete(b.dirty, s)

		if !s.IsAlive() {
			if !b.dead[s] {
				b.dead[s] = true
				b.log(Event{Kind: EventDestroyed, Source: "-", Target: s.Name})
			}
			continue
		}

		was := s.IsDerelict
		b.calc.Recalculate(s)
		switch {
		case s.IsDerelict && !was:
			b.log(Event{Kind: EventDerelict, Source: "-", Target: s.Name, Detail: strings.Join(s.MissingRequirements, ",")})
		case !s.IsDerelict && was:
			b.log(Event{Kind: EventRestored, Source: "-", Target: s.Name})
		}
	}
}

func (b *Battle) log(e Event) {
	e.Tick = b.tick
	b.events = append(b.events, e)
	slog.Debug("battle event", "tick", e.Tick, "kind", e.Kind, "source", e.Source, "target", e.Target, "amount", e.Amount)
	if b.observer != nil {
		b.observer(e)
	}
}
