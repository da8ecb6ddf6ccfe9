// Package progression is the default experience and leveling collaborator of
// a battle: experience curves, effort value caps and level-triggered
// evolution lookup.
package progression

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/creature"
)

// GrowthRate selects the experience curve of a species.
type GrowthRate int

const (
	MediumFast GrowthRate = iota
	Fast
	MediumSlow
	Slow
	Erratic
	Fluctuating
)

var growthNames = [...]string{"medium_fast", "fast", "medium_slow", "slow", "erratic", "fluctuating"}

// String returns the curve id.
func (g GrowthRate) String() string {
	if g >= 0 && int(g) < len(growthNames) {
		return growthNames[g]
	}
	return fmt.Sprintf("growth(%d)", int(g))
}

// ParseGrowthRate resolves a curve id. The empty id is MediumFast.
func ParseGrowthRate(s string) (GrowthRate, error) {
	if s == "" {
		return MediumFast, nil
	}
	norm := strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for i, n := range growthNames {
		if n == norm || strings.ReplaceAll(n, "_", "") == norm {
			return GrowthRate(i), nil
		}
	}
	return 0, fmt.Errorf("progression: unknown growth rate %q", s)
}

// ExperienceAt returns the total experience needed to reach level.
//
// Postcondition: ExperienceAt(creature.MinLevel) == 0 and the result never
// decreases as level grows.
func (g GrowthRate) ExperienceAt(level int) int {
	if level <= creature.MinLevel {
		return 0
	}
	level = min(level, creature.MaxLevel)
	n := level
	n3 := n * n * n
	var exp int
	switch g {
	case Fast:
		exp = 4 * n3 / 5
	case MediumSlow:
		exp = 6*n3/5 - 15*n*n + 100*n - 140
	case Slow:
		exp = 5 * n3 / 4
	case Erratic:
		switch {
		case n < 50:
			exp = n3 * (100 - n) / 50
		case n < 68:
			exp = n3 * (150 - n) / 100
		case n < 98:
			exp = n3 * ((1911 - 10*n) / 3) / 500
		default:
			exp = n3 * (160 - n) / 100
		}
	case Fluctuating:
		switch {
		case n < 15:
			exp = n3 * ((n+1)/3 + 24) / 50
		case n < 36:
			exp = n3 * (n + 14) / 50
		default:
			exp = n3 * (n/2 + 32) / 50
		}
	default:
		exp = n3
	}
	return max(exp, 0)
}

// LevelFor returns the highest level whose threshold exp reaches.
func (g GrowthRate) LevelFor(exp int) int {
	level := creature.MinLevel
	for level < creature.MaxLevel && exp >= g.ExperienceAt(level+1) {
		level++
	}
	return level
}
