package battle

import (
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
)

// ParalysisSpeedFactor scales the speed of a paralysed battler when ordering.
const ParalysisSpeedFactor = 0.25

// actionClass ranks action kinds: fleeing first, then switches and items,
// then moves.
func actionClass(k ActionKind) int {
	switch k {
	case Flee:
		return 2
	case Switch, UseItem:
		return 1
	}
	return 0
}

// priority returns the move priority of a Fight action.
func (s *Session) priority(side int, a Action) int {
	if a.Kind != Fight || a.Struggle {
		return 0
	}
	id := a.forcedMove
	if id == 0 {
		in := s.active(side)
		if a.MoveSlot < 0 || a.MoveSlot >= creature.MaxMoves {
			return 0
		}
		id = in.Moves[a.MoveSlot].ID
	}
	if def, ok := s.deps.Engine.Moves().Get(id); ok {
		return def.Priority
	}
	return 0
}

// EffectiveSpeed returns the speed used for ordering: the staged speed,
// scaled by weather and quartered by paralysis.
func (s *Session) EffectiveSpeed(side int) float64 {
	in := s.active(side)
	if in == nil {
		return 0
	}
	speed := float64(in.EffectiveStat(creature.Speed))
	if wdef, ok := s.deps.Weather.Get(s.ctx.Weather); ok {
		speed *= wdef.StatMultiplier(in.Types(), creature.Speed)
	}
	if in.Status == condition.Paralysed {
		speed *= ParalysisSpeedFactor
	}
	return speed
}

// order returns the sides in execution order. Flee beats switches and
// items, which beat moves; moves are ranked by priority, then by effective
// speed (reversed under trick room), then by the tie-break policy.
func (s *Session) order(acts [2]Action) [2]int {
	first := func(side int) [2]int { return [2]int{side, other(side)} }

	ca, cb := actionClass(acts[PlayerSide].Kind), actionClass(acts[OpponentSide].Kind)
	if ca != cb {
		if ca > cb {
			return first(PlayerSide)
		}
		return first(OpponentSide)
	}
	if ca == 0 {
		pa, pb := s.priority(PlayerSide, acts[PlayerSide]), s.priority(OpponentSide, acts[OpponentSide])
		if pa != pb {
			if pa > pb {
				return first(PlayerSide)
			}
			return first(OpponentSide)
		}
	}
	sa, sb := s.EffectiveSpeed(PlayerSide), s.EffectiveSpeed(OpponentSide)
	if s.ctx.TrickRoom() {
		sa, sb = sb, sa
	}
	switch {
	case sa > sb:
		return first(PlayerSide)
	case sb > sa:
		return first(OpponentSide)
	}
	lead := PlayerSide
	if s.cfg.Mirrored {
		lead = OpponentSide
	}
	if s.cfg.TieBreak == TieFirst {
		return first(lead)
	}
	if s.roll.Roll("speed tie", 2) == 0 {
		return first(lead)
	}
	return first(other(lead))
}
