package battle

import (
	"fmt"

	"github.com/cory-johannsen/monbattle/internal/game/capture"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"go.uber.org/zap"
)

// execute runs one ordered action.
func (s *Session) execute(side int, a Action) error {
	switch a.Kind {
	case Fight:
		s.fight(side, a)
	case Flee:
		s.flee(side)
	case Switch:
		s.switchTo(side, a.SwitchIndex)
	case UseItem:
		s.useItem(side, a)
	default:
		return fmt.Errorf("%w: unknown action kind %d", ErrContractBreach, int(a.Kind))
	}
	return nil
}

// field builds the read-only context a move by side resolves against.
func (s *Session) field(side int) move.Field {
	wdef, _ := s.deps.Weather.Lookup(s.ctx.Weather)
	return move.Field{
		Weather:       wdef,
		TrickRoom:     s.ctx.TrickRoom(),
		Turn:          s.ctx.Turn,
		TargetActed:   s.acted[other(side)],
		UserHazards:   s.ctx.Hazards[side],
		TargetHazards: s.ctx.Hazards[other(side)],
		UserParty:     s.parties[side],
	}
}

func (s *Session) fight(side int, a Action) {
	user, target := s.active(side), s.active(other(side))
	in := move.Input{
		User:         user,
		Target:       target,
		Field:        s.field(side),
		Struggle:     a.Struggle,
		Continuation: a.continuation,
	}
	slot := a.MoveSlot
	if !a.Struggle {
		id := a.forcedMove
		if id == 0 {
			id = user.Moves[slot].ID
		}
		def, err := s.deps.Engine.Moves().Lookup(id)
		if err != nil {
			s.diagnose(DiagUnknownMove, "%s knows unknown move %d, struggling instead", user.Name(), id)
			in.Struggle = true
		} else {
			in.Move = def
		}
	}
	res := s.deps.Engine.Resolve(in, s.roll)
	s.apply(side, slot, res)
}

func (s *Session) flee(side int) {
	in, foe := s.active(side), s.active(other(side))
	if side == OpponentSide {
		if s.ctx.Kind == Wild {
			s.say(side, fmt.Sprintf("The wild %s fled!", in.Name()))
			s.decide(OpponentFled)
			return
		}
		s.say(side, fmt.Sprintf("%s looked for an escape, but there is none!", in.Name()))
		return
	}
	if s.ctx.Kind != Wild {
		s.say(side, "No! There's no running from a trainer battle!")
		return
	}
	if trapped(&in.Battle.Volatile) {
		s.say(side, fmt.Sprintf("%s can't escape!", in.Name()))
		return
	}
	prior := s.ctx.FleeAttempts
	s.ctx.FleeAttempts++
	if capture.TryEscape(s.roll, in.Stats.Speed, foe.Stats.Speed, prior) {
		s.say(side, "Got away safely!")
		s.decide(Fled)
		return
	}
	s.say(side, "Can't escape!")
}

func (s *Session) switchTo(side, i int) {
	p := s.parties[side]
	if err := p.CanSwitchTo(i); err != nil {
		s.diagnose(DiagIllegalAction, "%s switch to %d: %v", s.sides[side].Name(), i, err)
		return
	}
	out := p.ActiveSlot()
	text := fmt.Sprintf("%s, come back!", out.Name())
	if side == OpponentSide {
		text = fmt.Sprintf("%s withdrew %s!", s.opponentName(), out.Name())
	}
	s.present.Enqueue(Event{Kind: EventRetract, Side: side, Name: out.Name(), Text: text})
	p.SwitchTo(i)
	s.sendOutEvent(side, p.ActiveSlot())
	s.enterField(side)
}

// Spike damage by layer, as a fraction of max health.
var spikeFractions = [...]float64{0, 1.0 / 8, 1.0 / 6, 1.0 / 4}

// enterField applies the entry hazards laid on side to its new active.
func (s *Session) enterField(side int) {
	in := s.active(side)
	h := &s.ctx.Hazards[side]
	grounded := !in.HasType(creature.Flying)
	if h.Spikes > 0 && grounded {
		n := max(1, int(float64(in.MaxHealth())*spikeFractions[min(h.Spikes, 3)]))
		s.hurt(side, in, n, fmt.Sprintf("%s is hurt by the spikes!", in.Name()))
	}
	if h.ToxicSpikes > 0 && grounded && !in.Fainted() {
		switch {
		case in.HasType(creature.Poison):
			h.ToxicSpikes = 0
			s.say(side, fmt.Sprintf("%s absorbed the toxic spikes!", in.Name()))
		case in.Status == condition.None && !in.HasType(creature.Steel):
			st := condition.Poisoned
			if h.ToxicSpikes >= 2 {
				st = condition.BadlyPoisoned
			}
			s.setStatus(side, in, st, 0)
		}
	}
	if h.StealthRock && !in.Fainted() {
		eff := 1.0
		for _, t := range in.Types() {
			eff *= creature.Multiplier(creature.Rock, t)
		}
		if n := int(float64(in.MaxHealth()) * eff / 8); n > 0 {
			s.hurt(side, in, n, fmt.Sprintf("Pointed stones dug into %s!", in.Name()))
		}
	}
	s.logger.Debug("entered field", zap.Int("side", side), zap.String("name", in.Name()))
}
