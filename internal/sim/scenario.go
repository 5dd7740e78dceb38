package sim

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/shipyard/internal/game/combat"
	"github.com/udisondev/shipyard/internal/game/design"
)

// teamSpacing separates ships of one team along the line perpendicular to their heading.
const teamSpacing = 150

// Scenario is a set of opposing teams of saved designs.
type Scenario struct {
	Name     string
	StandOff float64
	Teams    [][]*design.SavedDesign
}

type scenarioFile struct {
	Name     string     `yaml:"name"`
	StandOff float64    `yaml:"stand_off"`
	Teams    [][]string `yaml:"teams"` // design file paths, relative to the scenario file
}

// LoadScenario reads a scenario file and the design files it references.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if len(f.Teams) < 2 {
		return nil, fmt.Errorf("scenario %s: need at least two teams, got %d", path, len(f.Teams))
	}

	sc := &Scenario{Name: f.Name, StandOff: f.StandOff}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}

	dir := filepath.Dir(path)
	cache := make(map[string]*design.SavedDesign)
	for i, paths := range f.Teams {
		if len(paths) == 0 {
			return nil, fmt.Errorf("scenario %s: team %d is empty", path, i)
		}
		team := make([]*design.SavedDesign, 0, len(paths))
		for _, p := range paths {
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			d, ok := cache[p]
			if !ok {
				if d, err = design.LoadSavedDesign(p); err != nil {
					return nil, fmt.Errorf("scenario %s: %w", path, err)
				}
				cache[p] = d
			}
			team = append(team, d)
		}
		sc.Teams = append(sc.Teams, team)
	}
	return sc, nil
}

// Placement returns the start position and heading of ship index of team. Teams sit on a
// circle of diameter arena, every ship facing the centre.
func Placement(team, teams, index, size int, arena float64) (r2.Vec, float64) {
	angle := 360 * float64(team) / float64(teams)
	center := r2.Scale(arena/2, combat.HeadingVec(angle))
	side := combat.HeadingVec(angle + 90)
	offset := (float64(index) - float64(size-1)/2) * teamSpacing
	pos := r2.Add(center, r2.Scale(offset, side))
	return pos, math.Mod(angle+180, 360)
}
