package progression

import (
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"go.uber.org/zap"
)

// Effort value caps.
const (
	MaxEffortPerStat = 255
	MaxEffortTotal   = 510
)

// Leveler applies experience and effort values to roster slots.
// It implements battle.Experience.
type Leveler struct {
	logger *zap.Logger
}

// New creates a Leveler. A nil logger is replaced with zap.NewNop().
func New(logger *zap.Logger) *Leveler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Leveler{logger: logger}
}

// RateOf returns the growth rate of in's species, falling back to
// MediumFast for unknown ids.
func (l *Leveler) RateOf(in *creature.Instance) GrowthRate {
	if in.Species == nil {
		return MediumFast
	}
	g, err := ParseGrowthRate(in.Species.Growth)
	if err != nil {
		l.logger.Warn("unknown growth rate, using medium_fast", zap.String("species", in.Species.Name), zap.Error(err))
		return MediumFast
	}
	return g
}

// AddExperience grants amount and raises the level as far as the total
// reaches, re-deriving stats once.
//
// Precondition: in must be non-nil.
// Postcondition: in.Experience is at least the threshold of its level and
// never beyond the MaxLevel threshold.
func (l *Leveler) AddExperience(in *creature.Instance, amount int) (int, bool) {
	rate := l.RateOf(in)
	floor := rate.ExperienceAt(in.Level)
	if in.Experience < floor {
		in.Experience = floor
	}
	if amount <= 0 || in.Level >= creature.MaxLevel {
		return in.Level, false
	}
	in.Experience = min(in.Experience+amount, rate.ExperienceAt(creature.MaxLevel))
	level := rate.LevelFor(in.Experience)
	if level <= in.Level {
		return in.Level, false
	}
	before := in.Level
	in.Level = level
	in.Recalculate()
	l.logger.Debug("level up",
		zap.String("name", in.Name()),
		zap.Int("from", before),
		zap.Int("to", level),
		zap.Int("experience", in.Experience),
	)
	return level, true
}

// AddEffortValues adds ev, capping each stat at MaxEffortPerStat and the sum
// at MaxEffortTotal. Stats are re-derived on the next level up.
func (l *Leveler) AddEffortValues(in *creature.Instance, ev creature.Stats) {
	room := MaxEffortTotal - in.EVs.Total()
	add := func(cur *int, gain int) {
		if gain <= 0 || room <= 0 {
			return
		}
		g := min(gain, MaxEffortPerStat-*cur, room)
		if g <= 0 {
			return
		}
		*cur += g
		room -= g
	}
	add(&in.EVs.HP, ev.HP)
	add(&in.EVs.Attack, ev.Attack)
	add(&in.EVs.Defense, ev.Defense)
	add(&in.EVs.SpAttack, ev.SpAttack)
	add(&in.EVs.SpDefense, ev.SpDefense)
	add(&in.EVs.Speed, ev.Speed)
}

// EvolutionTarget returns the species in evolves into at its current level.
func (l *Leveler) EvolutionTarget(in *creature.Instance) (int, bool) {
	if in.Species == nil || in.Species.Evolution == nil {
		return 0, false
	}
	if in.Level < in.Species.Evolution.Level {
		return 0, false
	}
	return in.Species.Evolution.Species, true
}

// Evolve changes in into species id, keeping its level, experience and
// effort values and re-deriving its stats.
//
// Postcondition: returns false and leaves in unchanged for an unknown id.
func (l *Leveler) Evolve(in *creature.Instance, species *creature.SpeciesRegistry, id int) bool {
	sp, ok := species.Get(id)
	if !ok {
		return false
	}
	from := in.Name()
	in.Species = sp
	in.Recalculate()
	l.logger.Info("evolved", zap.String("from", from), zap.String("into", sp.Name))
	return true
}
