package model

import (
	"math"
	"slices"
)

// Well-known resource names.
const (
	ResourceEnergy = "energy"
	ResourceFuel   = "fuel"
	ResourceAmmo   = "ammo"
)

// Resource is one pooled ship resource (energy, fuel, ammo, ...).
type Resource struct {
	Name      string
	Capacity  float64
	Current   float64
	RegenRate float64 // net per second: generation minus constant consumption
}

// ResourceRegistry pools storage, generation and constant drain across components.
//
// Capacity is refreshed by Update. The first time any capacity appears the pools are
// filled; after that a capacity increase adds only the increase, a decrease clamps.
type ResourceRegistry struct {
	resources map[string]*Resource
	filled    bool
}

func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{resources: make(map[string]*Resource, 4)}
}

// Update recomputes capacity and regeneration from the operational components.
func (r *ResourceRegistry) Update(components []*Component) {
	capacity := make(map[string]float64, len(r.resources))
	regen := make(map[string]float64, len(r.resources))

	for _, c := range components {
		if !c.IsOperational() {
			continue
		}
		for _, a := range c.abilities {
			switch a := a.(type) {
			case *ResourceStorage:
				capacity[a.Resource] += a.Capacity()
			case *ResourceGeneration:
				regen[a.Resource] += a.Rate()
			case *ResourceConsumption:
				if a.Trigger == TriggerConstant {
					regen[a.Resource] -= a.Amount()
				}
			}
		}
	}

	for name := range capacity {
		r.get(name)
	}
	for name := range regen {
		r.get(name)
	}

	first := !r.filled && anyPositive(capacity)
	for name, res := range r.resources {
		newCap := capacity[name]
		switch {
		case first:
			res.Current = newCap
		case newCap > res.Capacity:
			res.Current += newCap - res.Capacity
		}
		res.Capacity = newCap
		res.Current = math.Min(math.Max(res.Current, 0), res.Capacity)
		res.RegenRate = regen[name]
	}
	if first {
		r.filled = true
	}
}

func anyPositive(m map[string]float64) bool {
	for _, v := range m {
		if v > 0 {
			return true
		}
	}
	return false
}

func (r *ResourceRegistry) get(name string) *Resource {
	res, ok := r.resources[name]
	if !ok {
		res = &Resource{Name: name}
		r.resources[name] = res
	}
	return res
}

// Get returns the named resource or nil.
func (r *ResourceRegistry) Get(name string) *Resource { return r.resources[name] }

// Current returns the stored amount, 0 for unknown resources.
func (r *ResourceRegistry) Current(name string) float64 {
	if res := r.resources[name]; res != nil {
		return res.Current
	}
	return 0
}

// Capacity returns the pool size, 0 for unknown resources.
func (r *ResourceRegistry) Capacity(name string) float64 {
	if res := r.resources[name]; res != nil {
		return res.Capacity
	}
	return 0
}

// Names returns the known resource names, sorted.
func (r *ResourceRegistry) Names() []string {
	names := make([]string, 0, len(r.resources))
	for n := range r.resources {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Tick applies net regeneration for dt seconds, clamped to [0, capacity].
func (r *ResourceRegistry) Tick(dt float64) {
	for _, res := range r.resources {
		res.Current = math.Min(math.Max(res.Current+res.RegenRate*dt, 0), res.Capacity)
	}
}

// Has reports whether amount of a resource is available.
func (r *ResourceRegistry) Has(name string, amount float64) bool {
	return amount <= 0 || r.Current(name)+1e-9 >= amount
}

// Consume deducts amount if fully available.
func (r *ResourceRegistry) Consume(name string, amount float64) bool {
	return r.ConsumeAll(map[string]float64{name: amount})
}

// ConsumeAll deducts every cost only if all of them are available; otherwise nothing
// is deducted.
func (r *ResourceRegistry) ConsumeAll(costs map[string]float64) bool {
	for name, amount := range costs {
		if !r.Has(name, amount) {
			return false
		}
	}
	for name, amount := range costs {
		if amount <= 0 {
			continue
		}
		res := r.resources[name]
		res.Current = math.Max(0, res.Current-amount)
	}
	return true
}

// ActivationCosts collects the per-activation resource costs of a component.
func ActivationCosts(c *Component) map[string]float64 {
	var costs map[string]float64
	for _, a := range c.abilities {
		rc, ok := a.(*ResourceConsumption)
		if !ok || rc.Trigger != TriggerActivation {
			continue
		}
		if costs == nil {
			costs = make(map[string]float64, 1)
		}
		costs[rc.Resource] += rc.Amount()
	}
	return costs
}
