package combat

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const hitScoreLimit = 20

// HitChance is the beam hit probability 1/(1+e^-x) with
// x = (accuracy + attackBonus) - (falloff*surfaceDistance + defense), x clamped to ±20.
func HitChance(accuracy, attackBonus, falloff, surfaceDistance, defense float64) float64 {
	rangePenalty := falloff * math.Max(0, surfaceDistance)
	x := (accuracy + attackBonus) - (rangePenalty + defense)
	x = math.Max(-hitScoreLimit, math.Min(hitScoreLimit, x))
	return 1 / (1 + math.Exp(-x))
}

// RaycastCircle returns the distance along dir from origin to the nearest intersection with
// a circle, if it lies within maxRange. An origin inside the circle hits at distance 0.
func RaycastCircle(origin, dir, center r2.Vec, radius, maxRange float64) (float64, bool) {
	if r2.Norm(dir) == 0 {
		return 0, false
	}
	d := r2.Unit(dir)
	f := r2.Sub(origin, center)
	c := r2.Dot(f, f) - radius*radius
	if c <= 0 {
		return 0, true
	}
	b := r2.Dot(f, d)
	if b > 0 {
		// pointing away
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 || t > maxRange {
		return 0, false
	}
	return t, true
}

// SolveLead returns the smallest positive t with |targetPos + targetVel*t - shooterPos| =
// speed*t: the time a projectile launched at speed in the world frame meets a target moving
// at constant velocity. The shooter's own velocity is not carried by the projectile. It
// returns 0 when there is no intercept.
func SolveLead(shooterPos, targetPos, targetVel r2.Vec, speed float64) float64 {
	rel := r2.Sub(targetPos, shooterPos)
	v := targetVel

	a := r2.Dot(v, v) - speed*speed
	b := 2 * r2.Dot(rel, v)
	c := r2.Dot(rel, rel)
	if c == 0 || speed <= 0 {
		return 0
	}

	if math.Abs(a) < 1e-9 {
		if b >= 0 {
			return 0
		}
		return positiveOrZero(-c / b)
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > 0 {
		return t1
	}
	return positiveOrZero(t2)
}

func positiveOrZero(t float64) float64 {
	if t > 0 {
		return t
	}
	return 0
}

// LeadPoint is where to aim so a projectile meets the target, falling back to the target's
// current position when there is no solution.
func LeadPoint(shooterPos, targetPos, targetVel r2.Vec, speed float64) r2.Vec {
	t := SolveLead(shooterPos, targetPos, targetVel, speed)
	if t == 0 {
		return targetPos
	}
	return r2.Add(targetPos, r2.Scale(t, targetVel))
}

// Bearing returns the world angle in degrees from one point to another, 0 along +X.
func Bearing(from, to r2.Vec) float64 {
	d := r2.Sub(to, from)
	return math.Atan2(d.Y, d.X) * 180 / math.Pi
}

// HeadingVec is the unit vector for a heading in degrees.
func HeadingVec(deg float64) r2.Vec {
	rad := deg * math.Pi / 180
	return r2.Vec{X: math.Cos(rad), Y: math.Sin(rad)}
}

// Distance between two points.
func Distance(a, b r2.Vec) float64 { return r2.Norm(r2.Sub(a, b)) }
