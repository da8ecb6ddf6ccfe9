package battle

import (
	"fmt"

	"github.com/cory-johannsen/monbattle/internal/game/capture"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"go.uber.org/zap"
)

// useItem consumes and applies an item. Balls are thrown at the opposing
// active; every other item targets a slot of the user's own party.
func (s *Session) useItem(side int, a Action) {
	it, ok := s.deps.Items.Item(a.ItemID)
	if !ok {
		s.diagnose(DiagUnknownItem, "%s used unknown item %d", s.sides[side].Name(), a.ItemID)
		s.say(side, "But nothing happened!")
		return
	}
	if a.Consume && side == PlayerSide && s.deps.Inventory != nil {
		if err := s.deps.Inventory.RemoveItem(it.ID, 1); err != nil {
			s.logger.Warn("item consumption failed", zap.Int("item", it.ID), zap.Error(err))
			s.say(side, fmt.Sprintf("There are no %ss left!", it.Name))
			return
		}
	}
	user := s.sides[side].Name()
	if it.Category == inventory.Ball {
		s.say(side, fmt.Sprintf("%s threw a %s!", user, it.Name))
		s.throwBall(side, it)
		return
	}

	if a.ItemTarget < 0 || a.ItemTarget >= len(s.parties[side].Slots) || s.parties[side].Slots[a.ItemTarget] == nil {
		s.say(side, "But nothing happened!")
		return
	}
	target := s.parties[side].Slots[a.ItemTarget]
	s.say(side, fmt.Sprintf("%s used a %s on %s!", user, it.Name, target.Name()))
	if !it.CanUse(target, a.ItemMove) {
		s.say(side, "It won't have any effect.")
		return
	}
	before := target.Health
	wasDown := target.Fainted()
	e := it.Use(target, a.ItemMove)
	if e.Revived {
		s.say(side, fmt.Sprintf("%s was revived!", target.Name()))
		s.processed[side][a.ItemTarget] = false
	}
	if e.Healed > 0 {
		s.present.Enqueue(Event{Kind: EventHeal, Side: side, Name: target.Name(), Before: before, After: target.Health, Max: target.MaxHealth()})
		if !wasDown {
			s.say(side, fmt.Sprintf("%s's HP was restored by %d point(s).", target.Name(), e.Healed))
		}
	}
	if e.Cured != condition.None {
		text := ""
		if def, ok := s.deps.Engine.Statuses().Get(e.Cured); ok {
			text = condition.Message(def.CureMessage, target.Name())
		}
		s.present.Enqueue(Event{Kind: EventStatus, Side: side, Name: target.Name(), Status: condition.None, Text: text})
	}
	if e.PPRestored > 0 {
		s.say(side, fmt.Sprintf("%s's PP was restored.", target.Name()))
	}
	if e.Stage != nil && e.Stage.Delta != 0 {
		s.present.Enqueue(Event{Kind: EventStage, Side: side, Name: target.Name(), Stat: e.Stage.Stat, Delta: e.Stage.Delta, Text: StageText(target.Name(), e.Stage.Stat, e.Stage.Delta)})
	}
	if e.CritBoost {
		s.say(side, fmt.Sprintf("%s is getting pumped!", target.Name()))
	}
}

// throwBall runs the shake trials against the opposing active.
func (s *Session) throwBall(side int, it *inventory.Item) {
	target := s.active(other(side))
	if side != PlayerSide || s.ctx.Kind != Wild {
		s.say(side, "The trainer blocked the ball! Don't be a thief!")
		return
	}
	sit := capture.Situation{Turn: s.ctx.Turn, TargetTypes: target.Types()}
	if s.deps.Inventory != nil && target.Species != nil {
		sit.AlreadyCaught = s.deps.Inventory.HasCaughtSpecies(target.Species.ID)
	}
	status := 1.0
	if def, ok := s.deps.Engine.Statuses().Get(target.Status); ok && def.CatchBonus >= 1 {
		status = def.CatchBonus
	}
	res := capture.Throw(s.roll, target, it.Ball.CatchModifier(sit), status)
	s.present.Enqueue(Event{Kind: EventWobble, Side: other(side), Name: target.Name(), Count: res.Shakes})
	s.logger.Debug("ball thrown", zap.String("ball", it.Name), zap.Bool("caught", res.Caught), zap.Int("shakes", res.Shakes), zap.Int("trials", res.Trials))
	if !res.Caught {
		s.say(side, escapeLines[min(res.Shakes, len(escapeLines)-1)])
		return
	}
	s.say(side, fmt.Sprintf("Gotcha! %s was caught!", target.Name()))
	caught := target.Clone()
	caught.ResetBattle()
	if s.deps.Inventory != nil {
		if err := s.deps.Inventory.AddCaughtCreature(caught); err != nil {
			s.logger.Warn("storing caught creature", zap.Error(err))
		}
	}
	s.caught = caught
	s.decide(Caught)
}

var escapeLines = [...]string{
	"Oh no! The creature broke free!",
	"Aww! It appeared to be caught!",
	"Aargh! Almost had it!",
	"Shoot! It was so close, too!",
}
