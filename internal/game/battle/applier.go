package battle

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
	"go.uber.org/zap"
)

// volatileMessages narrates a volatile condition taking hold. "{name}" is the
// holder. Kinds absent from the table are silent.
var volatileMessages = map[condition.Kind]string{
	condition.Confusion:   "{name} became confused!",
	condition.LeechSeed:   "{name} was seeded!",
	condition.Taunt:       "{name} fell for the taunt!",
	condition.Encore:      "{name} received an encore!",
	condition.Torment:     "{name} was subjected to torment!",
	condition.Embargo:     "{name} can't use items anymore!",
	condition.HealBlock:   "{name} was prevented from healing!",
	condition.PerishSong:  "All battlers hearing the song will faint in three turns!",
	condition.Identified:  "{name} was identified!",
	condition.Infatuation: "{name} fell in love!",
	condition.Nightmare:   "{name} began having a nightmare!",
	condition.Curse:       "{name} was cursed!",
	condition.Drowsy:      "{name} grew drowsy!",
	condition.Stockpile:   "{name} stockpiled!",
	condition.AquaRing:    "{name} surrounded itself with a veil of water!",
	condition.Ingrain:     "{name} planted its roots!",
	condition.Bracing:     "{name} braced itself!",
	condition.TakingAim:   "{name} took aim!",
	condition.DefenseCurl: "{name} curled up!",
	condition.CritBoost:   "{name} is getting pumped!",
	condition.Protection:  "{name} protected itself!",
	condition.Bound:       "{name} was trapped!",
	condition.CantEscape:  "{name} can't escape now!",
}

var hazardMessages = map[move.HazardKind]string{
	move.Spikes:      "Spikes were scattered around %s's feet!",
	move.ToxicSpikes: "Poison spikes were scattered around %s's feet!",
	move.StealthRock: "Pointed stones float in the air around %s!",
}

// apply mutates live state from one move's Results in a fixed order: PP,
// user then target damage with a faint check after each, healing, user then
// target stage changes, status and volatile directives with field effects,
// and finally the user's multi-turn counters.
func (s *Session) apply(side, slot int, res *move.Results) {
	user, target := s.active(side), s.active(other(side))
	foe := other(side)

	// 1. PP, once per use.
	if res.ConsumesPP && !res.Struggle {
		i := slot
		if i < 0 || i >= creature.MaxMoves || user.Moves[i].ID != res.MoveID {
			i = user.MoveIndex(res.MoveID)
		}
		if i >= 0 && user.Moves[i].PP > 0 {
			user.Moves[i].PP--
		}
	}
	for _, n := range res.Notes {
		s.say(side, n)
	}

	// 2. Damage: user first, then target.
	if res.User.IsDamage() {
		s.hurt(side, user, res.User.Amount(), "")
	}
	if res.Target.IsDamage() {
		s.hurt(foe, target, res.Target.Amount(), "")
		tv := &target.Battle.Volatile
		tv.TookDamage = true
		tv.DamageTakenAmount += res.Target.Amount()
		if res.Hits > 1 {
			s.present.Enqueue(Event{Kind: EventHits, Side: foe, Count: res.Hits})
		}
		if res.Critical {
			s.say(side, "A critical hit!")
		}
		switch res.Effectiveness {
		case move.SuperEffective:
			s.say(side, "It's super effective!")
		case move.NotVeryEffective:
			s.say(side, "It's not very effective...")
		}
	}
	userUp, targetUp := !user.Fainted(), !target.Fainted()

	// 3. Healing.
	if res.User.IsHeal() && userUp {
		s.heal(side, user, res.User.Amount(), "")
	}
	if res.Target.IsHeal() && targetUp {
		s.heal(foe, target, res.Target.Amount(), "")
	}

	// 4. Stage changes, user before target.
	for _, want := range []move.Side{move.User, move.Target} {
		mon, mside, up := user, side, userUp
		if want == move.Target {
			mon, mside, up = target, foe, targetUp
		}
		if !up {
			continue
		}
		for _, sc := range res.Stages {
			if sc.Side == want {
				s.changeStage(mside, mon, sc.Stat, sc.Delta)
			}
		}
	}

	// 5. Status and volatile directives, then field effects.
	for _, st := range res.Statuses {
		mon, mside, up := user, side, userUp
		if st.Side == move.Target {
			mon, mside, up = target, foe, targetUp
		}
		if !up {
			continue
		}
		if st.Status == condition.None {
			s.cureStatus(mside, mon, res.Notes)
			continue
		}
		s.setStatus(mside, mon, st.Status, st.SleepTurns)
	}
	for _, vc := range res.Volatiles {
		mon, mside, up := user, side, userUp
		if vc.Side == move.Target {
			mon, mside, up = target, foe, targetUp
		}
		if !up {
			continue
		}
		s.applyVolatile(mside, mon, vc, vc.Side == move.User && res.Outcome == move.Succeeded)
	}
	s.applyField(side, user, res)

	// 6. Multi-turn counters.
	if userUp {
		c := res.Counters
		v := &user.Battle.Volatile
		if user.Status == condition.Asleep {
			user.SleepTurns = c.SleepTurns
		}
		v.Confusion = c.Confusion
		v.ThrashTurns, v.ThrashMove = c.ThrashTurns, c.ThrashMove
		v.ChargingMove, v.SemiInvulnerable = c.ChargingMove, c.SemiInvulnerable
		v.Recharging = c.Recharging
		v.LastMove = c.LastMove
		v.ProtectStreak = c.ProtectStreak
		v.TakingAim = c.TakingAim
	}

	s.logger.Debug("applied move results",
		zap.Int("side", side),
		zap.Int("move", res.MoveID),
		zap.String("outcome", res.Outcome.String()),
		zap.Int("user_health", user.Health),
		zap.Int("target_health", target.Health),
	)
}

// hurt removes n health from in and enqueues the damage event.
func (s *Session) hurt(side int, in *creature.Instance, n int, text string) int {
	before := in.Health
	dealt := in.TakeDamage(n)
	if dealt == 0 {
		return 0
	}
	if text != "" {
		s.say(side, text)
	}
	s.present.Enqueue(Event{Kind: EventDamage, Side: side, Name: in.Name(), Before: before, After: in.Health, Max: in.MaxHealth()})
	return dealt
}

// heal restores up to n health on in and enqueues the heal event.
func (s *Session) heal(side int, in *creature.Instance, n int, text string) int {
	before := in.Health
	healed := in.Heal(n)
	if healed == 0 {
		return 0
	}
	if text != "" {
		s.say(side, text)
	}
	s.present.Enqueue(Event{Kind: EventHeal, Side: side, Name: in.Name(), Before: before, After: in.Health, Max: in.MaxHealth()})
	return healed
}

func (s *Session) changeStage(side int, in *creature.Instance, stat creature.Stat, delta int) {
	applied := in.Battle.Stages.Apply(stat, delta)
	if applied == 0 {
		switch cur := in.Battle.Stages.Get(stat); {
		case delta > 0 || (delta == 0 && cur >= creature.MaxStage):
			s.say(side, fmt.Sprintf("%s's %s won't go any higher!", in.Name(), stat.Display()))
		case delta < 0 || (delta == 0 && cur <= creature.MinStage):
			s.say(side, fmt.Sprintf("%s's %s won't go any lower!", in.Name(), stat.Display()))
		}
		return
	}
	s.present.Enqueue(Event{Kind: EventStage, Side: side, Name: in.Name(), Stat: stat, Delta: applied, Text: StageText(in.Name(), stat, applied)})
}

// StageText narrates a stage change of delta.
func StageText(name string, stat creature.Stat, delta int) string {
	var verb string
	switch {
	case delta >= 3:
		verb = "rose drastically"
	case delta == 2:
		verb = "rose sharply"
	case delta == 1:
		verb = "rose"
	case delta == -1:
		verb = "fell"
	case delta == -2:
		verb = "harshly fell"
	default:
		verb = "severely fell"
	}
	return fmt.Sprintf("%s's %s %s!", name, stat.Display(), verb)
}

func (s *Session) setStatus(side int, in *creature.Instance, st condition.NonVolatile, sleepTurns int) {
	in.SetStatus(st, sleepTurns)
	text := ""
	if def, ok := s.deps.Engine.Statuses().Get(st); ok {
		text = condition.Message(def.InflictMessage, in.Name())
	}
	s.present.Enqueue(Event{Kind: EventStatus, Side: side, Name: in.Name(), Status: st, Text: text})
}

// cureStatus clears in's status, narrating the cure unless a note already did.
func (s *Session) cureStatus(side int, in *creature.Instance, notes []string) {
	if in.Status == condition.None {
		return
	}
	text := ""
	if def, ok := s.deps.Engine.Statuses().Get(in.Status); ok {
		text = condition.Message(def.CureMessage, in.Name())
	}
	if slices.Contains(notes, text) {
		text = ""
	}
	in.CureStatus()
	s.present.Enqueue(Event{Kind: EventStatus, Side: side, Name: in.Name(), Status: condition.None, Text: text})
}

func (s *Session) applyVolatile(side int, in *creature.Instance, vc move.VolatileChange, selfInflicted bool) {
	v := &in.Battle.Volatile
	if vc.Remove {
		v.Remove(vc.Kind)
		return
	}
	if !v.Apply(vc.Kind, vc.Turns) {
		return
	}
	// A rampage ending in confusion is narrated by the engine.
	if vc.Kind == condition.Confusion && selfInflicted {
		return
	}
	if msg, ok := volatileMessages[vc.Kind]; ok {
		text := strings.ReplaceAll(msg, "{name}", in.Name())
		if vc.Kind == condition.PerishSong && side == OpponentSide {
			return
		}
		s.say(side, text)
	}
}

// applyField applies weather, hazard, defog and trick room directives.
func (s *Session) applyField(side int, user *creature.Instance, res *move.Results) {
	if res.Weather != nil {
		id := *res.Weather
		wdef, ok := s.deps.Weather.Get(id)
		if !ok {
			s.diagnose(DiagUnknownWeather, "move %d summoned unknown weather %d", res.MoveID, int(id))
		} else {
			s.ctx.Weather = id
			s.ctx.WeatherTurns = 0
			if id != s.ctx.InitialWeather {
				s.ctx.WeatherTurns = weather.MoveDuration
			}
			s.present.Enqueue(Event{Kind: EventWeather, Text: wdef.StartMessage})
		}
	}
	if res.Hazard != move.NoHazard {
		foe := other(side)
		h := &s.ctx.Hazards[foe]
		switch res.Hazard {
		case move.Spikes:
			h.Spikes = min(h.Spikes+1, move.MaxHazardLayers[move.Spikes])
		case move.ToxicSpikes:
			h.ToxicSpikes = min(h.ToxicSpikes+1, move.MaxHazardLayers[move.ToxicSpikes])
		case move.StealthRock:
			h.StealthRock = true
		}
		if msg, ok := hazardMessages[res.Hazard]; ok {
			s.say(side, fmt.Sprintf(msg, s.active(foe).Name()))
		}
	}
	if res.ClearHazards {
		s.ctx.Hazards[side] = move.Hazards{}
		s.say(side, fmt.Sprintf("The hazards around %s were blown away!", user.Name()))
	}
	if res.TrickRoom {
		if s.ctx.TrickRoom() {
			s.ctx.TrickRoomTurns = 0
			s.say(side, "The twisted dimensions returned to normal!")
		} else {
			s.ctx.TrickRoomTurns = TrickRoomDuration
			s.say(side, fmt.Sprintf("%s twisted the dimensions!", user.Name()))
		}
	}
}
