package model

import (
	"fmt"

	"github.com/udisondev/shipyard/internal/data"
)

// RequirementStatus is the evaluation of one class requirement.
type RequirementStatus struct {
	Ability     string
	Requirement data.Requirement
	Total       float64
	Count       int
	Met         bool
}

func (r RequirementStatus) String() string {
	if r.Requirement.Boolean {
		return fmt.Sprintf("requires %s", r.Ability)
	}
	return fmt.Sprintf("requires %s >= %g (have %g)", r.Ability, r.Requirement.Min, r.Total)
}

// EvaluateRequirements checks the class requirements against the operational components,
// in sorted requirement order.
func EvaluateRequirements(s *Ship) []RequirementStatus {
	if s.Class == nil {
		return nil
	}
	names := s.Class.RequirementNames()
	out := make([]RequirementStatus, 0, len(names))
	for _, name := range names {
		req := s.Class.Requirements[name]
		abilities := s.OperationalAbilities(name)
		st := RequirementStatus{
			Ability:     name,
			Requirement: req,
			Total:       Total(abilities),
			Count:       len(abilities),
		}
		if req.Boolean {
			st.Met = st.Count > 0
		} else {
			st.Met = st.Total+1e-9 >= req.Min
		}
		out = append(out, st)
	}
	return out
}

// Unmet returns the ability names of failed requirements.
func Unmet(statuses []RequirementStatus) []string {
	var out []string
	for _, st := range statuses {
		if !st.Met {
			out = append(out, st.Ability)
		}
	}
	return out
}
