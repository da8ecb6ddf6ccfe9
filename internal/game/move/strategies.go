package move

import (
	"strconv"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
)

func init() {
	// Variable power.
	mustRegister("magnitude", &Hooks{Power: magnitudePower})
	mustRegister("present", &Hooks{Power: presentPower, Effect: presentHeal})
	mustRegister("return", &Hooks{Power: func(c *Ctx, _ int) int { return max(1, c.User.Friendship*2/5) }})
	mustRegister("frustration", &Hooks{Power: func(c *Ctx, _ int) int { return max(1, (255-c.User.Friendship)*2/5) }})
	mustRegister("flail", &Hooks{Power: flailPower})
	mustRegister("eruption", &Hooks{Power: func(c *Ctx, base int) int { return max(1, base*c.User.Health/c.User.MaxHealth()) }})
	mustRegister("wring_out", &Hooks{Power: func(c *Ctx, _ int) int { return 1 + 120*c.Target.Health/c.Target.MaxHealth() }})
	mustRegister("brine", &Hooks{Power: func(c *Ctx, base int) int {
		if c.Target.Health*2 <= c.Target.MaxHealth() {
			return base * 2
		}
		return base
	}})
	mustRegister("punishment", &Hooks{Power: func(c *Ctx, _ int) int {
		return min(200, 60+20*c.Target.Battle.Stages.PositiveTotal())
	}})
	mustRegister("gyro_ball", &Hooks{Power: func(c *Ctx, _ int) int {
		return min(150, 25*c.Target.EffectiveStat(creature.Speed)/c.User.EffectiveStat(creature.Speed)+1)
	}})
	mustRegister("weight", &Hooks{Power: weightPower})
	mustRegister("facade", &Hooks{Power: func(c *Ctx, base int) int {
		switch c.User.Status {
		case condition.Burn, condition.Paralysed, condition.Poisoned, condition.BadlyPoisoned:
			return base * 2
		}
		return base
	}})
	mustRegister("smelling_salt", &Hooks{
		Power:  statusDoubler(condition.Paralysed),
		Effect: statusCurer(condition.Paralysed),
	})
	mustRegister("wake_up_slap", &Hooks{
		Power:  statusDoubler(condition.Asleep),
		Effect: statusCurer(condition.Asleep),
	})
	mustRegister("payback", &Hooks{Power: func(c *Ctx, base int) int {
		if c.Field.TargetActed {
			return base * 2
		}
		return base
	}})
	mustRegister("assurance", &Hooks{Power: func(c *Ctx, base int) int {
		if c.Target.Battle.Volatile.TookDamage && c.Hit == 0 {
			return base * 2
		}
		return base
	}})
	mustRegister("revenge", &Hooks{Power: func(c *Ctx, base int) int {
		if c.User.Battle.Volatile.TookDamage {
			return base * 2
		}
		return base
	}})
	mustRegister("solar_beam", &Hooks{
		SkipCharge: func(c *Ctx) bool { return c.Field.WeatherID() == weather.HarshSunlight },
		Power: func(c *Ctx, base int) int {
			switch c.Field.WeatherID() {
			case weather.Rain, weather.Sandstorm, weather.Hail, weather.Fog:
				return base / 2
			}
			return base
		},
	})

	// Stockpile family.
	mustRegister("stockpile", &Hooks{
		Fail: func(c *Ctx) bool { return c.User.Battle.Volatile.Stockpile >= condition.MaxStockpile },
	})
	mustRegister("spit_up", &Hooks{
		NoSpread: true,
		Fail:     func(c *Ctx) bool { return c.User.Battle.Volatile.Stockpile == 0 },
		Power:    func(c *Ctx, _ int) int { return 100 * c.User.Battle.Volatile.Stockpile },
		Effect:   func(c *Ctx, _ int) { c.ClearVolatile(User, condition.Stockpile) },
	})
	mustRegister("swallow", &Hooks{
		Fail: func(c *Ctx) bool { return c.User.Battle.Volatile.Stockpile == 0 },
		HealFraction: func(c *Ctx, _ float64) float64 {
			switch c.User.Battle.Volatile.Stockpile {
			case 1:
				return 0.25
			case 2:
				return 0.5
			}
			return 1
		},
		Effect: func(c *Ctx, _ int) { c.ClearVolatile(User, condition.Stockpile) },
	})

	// Fixed and computed damage.
	mustRegister("level_damage", &Hooks{Damage: func(c *Ctx) (int, bool) { return c.User.Level, true }})
	mustRegister("super_fang", &Hooks{Damage: func(c *Ctx) (int, bool) {
		return max(1, (c.Target.Health+1)/2), true
	}})
	mustRegister("endeavor", &Hooks{
		Fail:   func(c *Ctx) bool { return c.Target.Health <= c.User.Health },
		Damage: func(c *Ctx) (int, bool) { return c.Target.Health - c.User.Health, true },
	})
	mustRegister("psywave", &Hooks{Damage: func(c *Ctx) (int, bool) {
		return max(1, c.User.Level*c.Roll.Between("psywave", 50, 150)/100), true
	}})
	mustRegister("false_swipe", &Hooks{LeaveOne: true})
	mustRegister("beat_up", &Hooks{Hits: beatUpHits})

	// Accuracy overrides.
	mustRegister("thunder", &Hooks{Accuracy: func(c *Ctx, base int) int {
		switch c.Field.WeatherID() {
		case weather.Rain:
			return 0
		case weather.HarshSunlight:
			return 50
		}
		return base
	}})
	mustRegister("blizzard", &Hooks{Accuracy: func(c *Ctx, base int) int {
		if c.Field.WeatherID() == weather.Hail {
			return 0
		}
		return base
	}})
	mustRegister("toxic", &Hooks{Accuracy: func(c *Ctx, base int) int {
		if c.User.HasType(creature.Poison) {
			return 0
		}
		return base
	}})

	// Failure predicates.
	mustRegister("leech_seed", &Hooks{Fail: func(c *Ctx) bool {
		return c.Target.HasType(creature.Grass) || c.Target.Battle.Volatile.LeechSeeded
	}})
	mustRegister("thunder_wave", &Hooks{Fail: func(c *Ctx) bool {
		return c.effectivenessOf(creature.Electric) == 0
	}})
	mustRegister("nightmare", &Hooks{Fail: func(c *Ctx) bool {
		return c.Target.Status != condition.Asleep
	}})
	mustRegister("dream_eater", &Hooks{Fail: func(c *Ctx) bool {
		return c.Target.Status != condition.Asleep
	}})
	mustRegister("snore", &Hooks{
		WhileAsleep: true,
		Fail:        func(c *Ctx) bool { return c.User.Status != condition.Asleep },
	})
	mustRegister("focus_punch", &Hooks{Fail: func(c *Ctx) bool {
		if c.User.Battle.Volatile.TookDamage {
			c.Note("{user} lost its focus and couldn't move!")
			return true
		}
		return false
	}})
	mustRegister("attract", &Hooks{Fail: func(c *Ctx) bool {
		u, t := c.User.Gender, c.Target.Gender
		return u == creature.Genderless || t == creature.Genderless || u == t
	}})
	mustRegister("encore", &Hooks{Fail: func(c *Ctx) bool {
		tv := c.Target.Battle.Volatile
		return tv.LastMove == 0 || tv.Encore > 0
	}})
	mustRegister("yawn", &Hooks{Fail: func(c *Ctx) bool {
		return c.Target.Status != condition.None || c.Target.Battle.Volatile.Drowsy > 0
	}})
	mustRegister("rest", &Hooks{
		Fail: func(c *Ctx) bool {
			return c.User.Status == condition.Asleep || c.User.Health >= c.User.MaxHealth()
		},
		Effect: func(c *Ctx, _ int) { c.SetStatus(User, condition.Asleep, 2) },
	})
	mustRegister("refresh", &Hooks{
		Fail: func(c *Ctx) bool {
			switch c.User.Status {
			case condition.Burn, condition.Paralysed, condition.Poisoned, condition.BadlyPoisoned:
				return false
			}
			return true
		},
		Effect: func(c *Ctx, _ int) { c.SetStatus(User, condition.None, 0) },
	})
	mustRegister("psycho_shift", &Hooks{
		Fail: func(c *Ctx) bool {
			s := c.User.Status
			return s == condition.None || !c.CanInflict(Target, s)
		},
		Effect: func(c *Ctx, _ int) {
			s, turns := c.User.Status, c.User.SleepTurns
			c.SetStatus(User, condition.None, 0)
			c.SetStatus(Target, s, turns)
		},
	})
	mustRegister("belly_drum", &Hooks{
		Fail: func(c *Ctx) bool {
			return c.User.Health*2 <= c.User.MaxHealth() || c.User.Battle.Stages.Get(creature.Attack) >= creature.MaxStage
		},
		Effect: func(c *Ctx, _ int) {
			c.ChangeStage(User, creature.Attack, creature.MaxStage-c.User.Battle.Stages.Get(creature.Attack))
		},
	})
	mustRegister("curse", &Hooks{
		SkipDataEffects: func(c *Ctx) bool { return c.User.HasType(creature.Ghost) },
		Fail: func(c *Ctx) bool {
			return c.User.HasType(creature.Ghost) && c.Target.Battle.Volatile.Cursed
		},
		Effect: func(c *Ctx, _ int) {
			if !c.User.HasType(creature.Ghost) {
				return
			}
			c.DealDamage(User, max(1, c.User.MaxHealth()/2))
			c.AddVolatile(Target, condition.Curse, 0)
		},
	})

	// Healing scaled by weather.
	mustRegister("weather_heal", &Hooks{HealFraction: func(c *Ctx, base float64) float64 {
		switch c.Field.WeatherID() {
		case weather.Clear:
			return base
		case weather.HarshSunlight:
			return 2.0 / 3.0
		}
		return 0.25
	}})

	// Stage manipulation.
	mustRegister("omniboost", &Hooks{Effect: func(c *Ctx, dealt int) {
		if dealt == 0 || !c.Roll.Chance("omniboost", 0.1) {
			return
		}
		for _, s := range []creature.Stat{creature.Attack, creature.Defense, creature.SpAttack, creature.SpDefense, creature.Speed} {
			c.ChangeStage(User, s, 1)
		}
	}})
	mustRegister("psych_up", &Hooks{Effect: func(c *Ctx, _ int) {
		copyStages(c, creature.StagedStats()...)
	}})
	mustRegister("power_swap", &Hooks{Effect: func(c *Ctx, _ int) {
		swapStages(c, creature.Attack, creature.SpAttack)
	}})
	mustRegister("guard_swap", &Hooks{Effect: func(c *Ctx, _ int) {
		swapStages(c, creature.Defense, creature.SpDefense)
	}})
	mustRegister("heart_swap", &Hooks{Effect: func(c *Ctx, _ int) {
		swapStages(c, creature.StagedStats()...)
	}})
	mustRegister("haze", &Hooks{Effect: func(c *Ctx, _ int) {
		for _, s := range []Side{User, Target} {
			for _, st := range creature.StagedStats() {
				if cur := c.Mon(s).Battle.Stages.Get(st); cur != 0 {
					c.ChangeStage(s, st, -cur)
				}
			}
		}
	}})

	// Health redistribution.
	mustRegister("pain_split", &Hooks{Effect: func(c *Ctx, _ int) {
		avg := (c.User.Health + c.Target.Health) / 2
		for _, s := range []Side{User, Target} {
			m := c.Mon(s)
			if d := m.Health - avg; d > 0 {
				c.DealDamage(s, d)
			} else if d < 0 {
				c.Restore(s, -d)
			}
		}
	}})
	mustRegister("rapid_spin", &Hooks{Effect: func(c *Ctx, dealt int) {
		if dealt == 0 {
			return
		}
		c.ClearVolatile(User, condition.Bound)
		c.ClearVolatile(User, condition.LeechSeed)
	}})
}

func magnitudePower(c *Ctx, _ int) int {
	n := c.Roll.Roll("magnitude", 100)
	levels := []struct{ upTo, magnitude, power int }{
		{5, 4, 10}, {15, 5, 30}, {35, 6, 50}, {65, 7, 70}, {85, 8, 90}, {95, 9, 110}, {100, 10, 150},
	}
	for _, l := range levels {
		if n < l.upTo {
			if c.Hit == 0 {
				c.Note("Magnitude " + strconv.Itoa(l.magnitude) + "!")
			}
			return l.power
		}
	}
	return 150
}

// presentPower draws the gift. A zero power means the gift heals instead.
func presentPower(c *Ctx, _ int) int {
	switch n := c.Roll.Roll("present", 10); {
	case n < 2:
		return 0
	case n < 6:
		return 40
	case n < 9:
		return 80
	default:
		return 120
	}
}

func presentHeal(c *Ctx, dealt int) {
	if dealt == 0 {
		c.Restore(Target, 80)
	}
}

func flailPower(c *Ctx, _ int) int {
	p := 64 * c.User.Health / c.User.MaxHealth()
	switch {
	case p < 2:
		return 200
	case p < 6:
		return 150
	case p < 13:
		return 100
	case p < 22:
		return 80
	case p < 43:
		return 40
	}
	return 20
}

func weightPower(c *Ctx, _ int) int {
	w := c.Target.Weight()
	switch {
	case w < 10:
		return 20
	case w < 25:
		return 40
	case w < 50:
		return 60
	case w < 100:
		return 80
	case w < 200:
		return 100
	}
	return 120
}

func statusDoubler(s condition.NonVolatile) func(c *Ctx, base int) int {
	return func(c *Ctx, base int) int {
		if c.Target.Status == s {
			return base * 2
		}
		return base
	}
}

func statusCurer(s condition.NonVolatile) func(c *Ctx, dealt int) {
	return func(c *Ctx, dealt int) {
		if dealt > 0 && !c.Target.Fainted() && c.Target.Status == s {
			c.SetStatus(Target, condition.None, 0)
		}
	}
}

// beatUpHits counts the party members able to join in: healthy and without a status.
func beatUpHits(c *Ctx) int {
	p := c.Field.UserParty
	if p == nil {
		return 1
	}
	n := 0
	for _, m := range p.Members() {
		if !m.Fainted() && m.Status == condition.None {
			n++
		}
	}
	return max(1, n)
}

func copyStages(c *Ctx, stats ...creature.Stat) {
	for _, st := range stats {
		delta := c.Target.Battle.Stages.Get(st) - c.User.Battle.Stages.Get(st)
		if delta != 0 {
			c.ChangeStage(User, st, delta)
		}
	}
}

func swapStages(c *Ctx, stats ...creature.Stat) {
	for _, st := range stats {
		u, t := c.User.Battle.Stages.Get(st), c.Target.Battle.Stages.Get(st)
		if u == t {
			continue
		}
		c.ChangeStage(User, st, t-u)
		c.ChangeStage(Target, st, u-t)
	}
}
