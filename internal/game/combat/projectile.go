package combat

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/udisondev/shipyard/internal/model"
)

// Projectile is an in-flight round or seeker. Projectiles fly straight; seekers home on
// their target with a limited turn rate and keep their last heading once it is dead.
type Projectile struct {
	ID     int
	Kind   model.WeaponKind
	Owner  *model.Ship
	Source string // firing component label
	Target *model.Ship

	Position r2.Vec
	Velocity r2.Vec
	Speed    float64
	Damage   float64

	MaxRange  float64
	Traveled  float64
	Endurance float64 // seconds, seekers only
	Age       float64
	TurnRate  float64 // degrees per second
	HP        float64

	weapon *model.WeaponAbility
	dead   bool
}

// Alive reports whether the projectile is still in flight.
func (p *Projectile) Alive() bool { return !p.dead }

// Expired reports whether range or endurance is exhausted.
func (p *Projectile) Expired() bool {
	if p.MaxRange > 0 && p.Traveled >= p.MaxRange {
		return true
	}
	return p.Kind == model.WeaponSeeker && p.Endurance > 0 && p.Age >= p.Endurance
}

// TakeDamage damages the projectile and reports whether it was destroyed.
func (p *Projectile) TakeDamage(amount float64) bool {
	if p.dead {
		return false
	}
	p.HP -= amount
	if p.HP <= 0 {
		p.dead = true
		return true
	}
	return false
}

// Step advances the projectile by dt and returns the segment start for swept collision.
func (p *Projectile) Step(dt float64) (from r2.Vec) {
	from = p.Position
	if p.dead {
		return from
	}
	if p.Kind == model.WeaponSeeker && p.Target != nil && p.Target.IsAlive() {
		p.steer(dt)
	}
	step := r2.Scale(dt, p.Velocity)
	p.Position = r2.Add(p.Position, step)
	p.Traveled += r2.Norm(step)
	p.Age += dt
	return from
}

func (p *Projectile) steer(dt float64) {
	current := math.Atan2(p.Velocity.Y, p.Velocity.X) * 180 / math.Pi
	desired := Bearing(p.Position, p.Target.Position)
	diff := model.AngleDiff(desired, current)
	limit := p.TurnRate * dt
	if limit > 0 {
		diff = math.Max(-limit, math.Min(limit, diff))
	}
	p.Velocity = r2.Scale(p.Speed, HeadingVec(current+diff))
}

// DamageAt is the damage delivered after flying distance. Without a source weapon it is
// the launch damage.
func (p *Projectile) DamageAt(distance float64) float64 {
	if p.weapon == nil {
		return p.Damage
	}
	return p.weapon.DamageAt(distance)
}

func (p *Projectile) kill() { p.dead = true }
