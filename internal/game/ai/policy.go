// Package ai implements the decision policies of computer-controlled battle
// participants: weighted move selection, trainer heuristics and Lua scripts.
package ai

import (
	"context"
	"math"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/move"
)

// Policy chooses actions for one computer-controlled participant. A Policy
// may keep state across turns and must not be shared between battles.
type Policy interface {
	// ChooseAction returns the action for the current turn.
	ChooseAction(ctx context.Context, v battle.View) (battle.Action, error)
	// ChooseReplacement returns the roster index to send out.
	ChooseReplacement(ctx context.Context, v battle.View) (int, error)
}

// weightResolution is the granularity of weighted draws.
const weightResolution = 1_000_000

// pickWeighted draws an index with probability proportional to weights.
// When every weight is zero the draw is uniform.
//
// Precondition: len(weights) > 0 and no weight is negative.
func pickWeighted(roll *dice.Roller, kind string, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return roll.Roll(kind, len(weights))
	}
	r := float64(roll.Roll(kind, weightResolution)) / weightResolution * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	return len(weights) - 1
}

// firstHealthy is the replacement rule every built-in policy shares: the
// first non-fainted roster slot in order.
func firstHealthy(v battle.View) (int, error) {
	i, _ := v.Own.FirstHealthy()
	return i, nil
}

// encoreOption returns the only legal move while an encore is in force.
func encoreOption(ws *WorldState, v battle.View) (MoveOption, bool) {
	active := v.Active()
	vol := &active.Battle.Volatile
	if vol.Encore == 0 || vol.EncoreMove == 0 {
		return MoveOption{}, false
	}
	for _, m := range ws.Moves {
		if active.Moves[m.Slot].ID == vol.EncoreMove {
			return m, true
		}
	}
	return MoveOption{}, false
}

// isStatMove reports whether def changes stages or surely inflicts a
// non-volatile status.
func isStatMove(def *move.Definition) bool {
	if def == nil {
		return false
	}
	if len(def.UserStats) > 0 || len(def.TargetStats) > 0 {
		return true
	}
	for _, s := range def.Statuses {
		if s.Chance == 0 || s.Chance >= 1 {
			return true
		}
	}
	return false
}

// statMoveWeight favours stat moves early and fades as more are used.
func statMoveWeight(used int) float64 {
	return 0.1 + 1/(float64(used)+0.25)
}

// attackWeight favours moves the target is weak to.
func attackWeight(effectiveness float64) float64 {
	return math.Sqrt(effectiveness)
}

// healWeight favours healing moves below half health.
func healWeight(ratio float64) float64 {
	if ratio < 0.5 {
		return -4*ratio + 5
	}
	return 1
}
