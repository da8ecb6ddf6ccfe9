package battle

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
)

// Residual fractions of max health applied at end of turn.
const (
	BindFraction       = 1.0 / 16
	LeechSeedFraction  = 1.0 / 8
	NightmareFraction  = 1.0 / 4
	CurseFraction      = 1.0 / 4
	AquaRingFraction   = 1.0 / 16
	BadPoisonDivisor   = 16
	maxBadPoisonCount  = 15
	defaultPoisonShare = 1.0 / 8
)

func fraction(in *creature.Instance, f float64) int {
	return max(1, int(float64(in.MaxHealth())*f))
}

// endOfTurn applies weather damage, status damage and the residual volatile
// effects, running the faint check after each source of passive damage, then
// clears the per-turn flags, advances the timers and the turn counter.
func (s *Session) endOfTurn(ctx context.Context) error {
	steps := []func(side int){s.weatherDamage, s.statusDamage, s.residuals}
	for _, step := range steps {
		for side := range s.parties {
			if in := s.active(side); in != nil && !in.Fainted() {
				step(side)
			}
		}
		if err := s.passiveFaintCheck(ctx); err != nil {
			return err
		}
		if s.decided {
			return nil
		}
	}

	for side := range s.parties {
		in := s.active(side)
		if in == nil {
			continue
		}
		in.Battle.Volatile.ClearTurnFlags()
		for _, k := range in.Battle.Volatile.Tick() {
			switch k {
			case condition.Taunt:
				s.say(side, fmt.Sprintf("%s's taunt wore off!", in.Name()))
			case condition.Encore:
				s.say(side, fmt.Sprintf("%s's encore ended!", in.Name()))
			case condition.HealBlock:
				s.say(side, fmt.Sprintf("%s's Heal Block wore off!", in.Name()))
			case condition.Embargo:
				s.say(side, fmt.Sprintf("%s can use items again!", in.Name()))
			}
		}
	}
	s.fadeWeather()
	if s.ctx.TrickRoomTurns > 0 {
		s.ctx.TrickRoomTurns--
		if s.ctx.TrickRoomTurns == 0 {
			s.say(PlayerSide, "The twisted dimensions returned to normal!")
		}
	}
	s.ctx.Turn++
	return nil
}

// passiveFaintCheck runs the faint routine after passive damage. Nobody has
// a pending action at this point so nothing is cancelled.
func (s *Session) passiveFaintCheck(ctx context.Context) error {
	s.acted = [2]bool{true, true}
	if s.decided {
		return nil
	}
	return s.faintCheck(ctx)
}

func (s *Session) weatherDamage(side int) {
	wdef, ok := s.deps.Weather.Get(s.ctx.Weather)
	if !ok {
		return
	}
	in := s.active(side)
	if in.Battle.Volatile.SemiInvulnerable || !wdef.Damages(in.Types()) {
		return
	}
	s.hurt(side, in, fraction(in, wdef.DamageFraction), condition.Message(wdef.DamageMessage, in.Name()))
}

func (s *Session) statusDamage(side int) {
	in := s.active(side)
	def, ok := s.deps.Engine.Statuses().Get(in.Status)
	if !ok {
		return
	}
	text := condition.Message(def.DamageMessage, in.Name())
	switch in.Status {
	case condition.BadlyPoisoned:
		counter := max(1, in.Battle.BadlyPoisonedCounter)
		s.hurt(side, in, max(1, in.MaxHealth()*counter/BadPoisonDivisor), text)
		in.Battle.BadlyPoisonedCounter = min(counter+1, maxBadPoisonCount)
	case condition.Burn, condition.Poisoned:
		f := def.DamageFraction
		if f == 0 {
			f = defaultPoisonShare
		}
		s.hurt(side, in, fraction(in, f), text)
	}
}

// residuals applies the end-of-turn volatile effects of side's active.
func (s *Session) residuals(side int) {
	in := s.active(side)
	foe := s.active(other(side))
	v := &in.Battle.Volatile

	if v.AquaRing && v.HealBlock == 0 {
		s.heal(side, in, fraction(in, AquaRingFraction), fmt.Sprintf("A veil of water restored %s's HP!", in.Name()))
	}
	if v.Ingrained && v.HealBlock == 0 {
		s.heal(side, in, fraction(in, AquaRingFraction), fmt.Sprintf("%s absorbed nutrients with its roots!", in.Name()))
	}
	if v.LeechSeeded && !in.Fainted() {
		drained := s.hurt(side, in, fraction(in, LeechSeedFraction), fmt.Sprintf("%s's health is sapped by Leech Seed!", in.Name()))
		if foe != nil && !foe.Fainted() && foe.Battle.Volatile.HealBlock == 0 {
			s.heal(other(side), foe, drained, "")
		}
	}
	if v.Nightmare {
		if in.Status != condition.Asleep {
			v.Nightmare = false
		} else if !in.Fainted() {
			s.hurt(side, in, fraction(in, NightmareFraction), fmt.Sprintf("%s is locked in a nightmare!", in.Name()))
		}
	}
	if v.Cursed && !in.Fainted() {
		s.hurt(side, in, fraction(in, CurseFraction), fmt.Sprintf("%s is afflicted by the curse!", in.Name()))
	}
	if v.Bound > 0 && !in.Fainted() {
		s.hurt(side, in, fraction(in, BindFraction), fmt.Sprintf("%s is hurt by the bind!", in.Name()))
		v.Bound--
		if v.Bound == 0 {
			s.say(side, fmt.Sprintf("%s was freed!", in.Name()))
		}
	}
	if v.Drowsy > 0 && !in.Fainted() {
		v.Drowsy--
		if v.Drowsy == 0 && in.Status == condition.None {
			s.setStatus(side, in, condition.Asleep, s.roll.Between("sleep turns", 1, move.MaxSleepTurns))
		}
	}
	if v.PerishSong > 0 && !in.Fainted() {
		v.PerishSong--
		s.say(side, fmt.Sprintf("%s's perish count fell to %d.", in.Name(), v.PerishSong))
		if v.PerishSong == 0 {
			s.hurt(side, in, in.Health, "")
		}
	}
}

// fadeWeather counts down a move-summoned weather and returns the field to
// the battle's initial weather when it runs out.
func (s *Session) fadeWeather() {
	if s.ctx.Weather == s.ctx.InitialWeather || s.ctx.WeatherTurns <= 0 {
		return
	}
	s.ctx.WeatherTurns--
	if s.ctx.WeatherTurns > 0 {
		return
	}
	if wdef, ok := s.deps.Weather.Get(s.ctx.Weather); ok && wdef.EndMessage != "" {
		s.present.Enqueue(Event{Kind: EventWeather, Text: wdef.EndMessage})
	}
	s.ctx.Weather = s.ctx.InitialWeather
	if s.ctx.Weather != weather.Clear {
		if wdef, ok := s.deps.Weather.Get(s.ctx.Weather); ok && wdef.StartMessage != "" {
			s.present.Enqueue(Event{Kind: EventWeather, Text: wdef.StartMessage})
		}
	}
}
