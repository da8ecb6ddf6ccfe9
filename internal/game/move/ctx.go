package move

import (
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
)

// Hazards is the entry-hazard state of one side of the field.
type Hazards struct {
	Spikes      int
	ToxicSpikes int
	StealthRock bool
}

// Layers returns how many layers of k are down.
func (h Hazards) Layers(k HazardKind) int {
	switch k {
	case Spikes:
		return h.Spikes
	case ToxicSpikes:
		return h.ToxicSpikes
	case StealthRock:
		if h.StealthRock {
			return 1
		}
	}
	return 0
}

// Field is the read-only battle context a move resolves against.
type Field struct {
	Weather       *weather.Definition
	TrickRoom     bool
	Turn          int
	TargetActed   bool // the target has already acted this turn
	UserHazards   Hazards
	TargetHazards Hazards
	UserParty     *creature.Party
}

// WeatherID returns the current weather id.
func (f Field) WeatherID() weather.ID {
	if f.Weather == nil {
		return weather.Clear
	}
	return f.Weather.ID
}

// Ctx is the working state of one resolution. User and Target are private
// copies of the live battlers; every helper mutates the copy and records the
// matching directive on the Results so later hits see earlier ones.
type Ctx struct {
	Move   *Definition
	User   *creature.Instance
	Target *creature.Instance
	Field  Field
	Roll   *dice.Roller
	Hit    int

	engine  *Engine
	hooks   *Hooks
	res     *Results
	changed bool

	userDamage, userHeal     int
	targetDamage, targetHeal int
}

// Results exposes the record being built, for hooks that inspect earlier effects.
func (c *Ctx) Results() *Results { return c.res }

// Mon returns the working copy for side s.
func (c *Ctx) Mon(s Side) *creature.Instance {
	if s == User {
		return c.User
	}
	return c.Target
}

// Note appends a narration line. "{user}", "{target}" and "{move}" are substituted.
func (c *Ctx) Note(text string) {
	r := strings.NewReplacer("{user}", c.User.Name(), "{target}", c.Target.Name(), "{move}", c.Move.Name)
	c.res.Notes = append(c.res.Notes, r.Replace(text))
}

// DealDamage removes up to n health from side s and returns the amount removed.
func (c *Ctx) DealDamage(s Side, n int) int {
	dealt := c.Mon(s).TakeDamage(n)
	if dealt == 0 {
		return 0
	}
	c.changed = true
	if s == User {
		c.userDamage += dealt
	} else {
		c.targetDamage += dealt
		v := &c.Target.Battle.Volatile
		v.TookDamage = true
		v.DamageTakenAmount += dealt
	}
	return dealt
}

// Restore heals up to n health on side s and returns the amount restored.
// A heal-blocked battler restores nothing.
func (c *Ctx) Restore(s Side, n int) int {
	m := c.Mon(s)
	if m.Battle.Volatile.HealBlock > 0 {
		return 0
	}
	healed := m.Heal(n)
	if healed == 0 {
		return 0
	}
	c.changed = true
	if s == User {
		c.userHeal += healed
	} else {
		c.targetHeal += healed
	}
	return healed
}

// ChangeStage applies delta to stat on side s, clamped against the current
// stage, and records the change. A clamped-away change is recorded with a
// zero delta so it can be narrated.
func (c *Ctx) ChangeStage(s Side, stat creature.Stat, delta int) int {
	applied := c.Mon(s).Battle.Stages.Apply(stat, delta)
	if applied != 0 {
		c.changed = true
	}
	c.res.Stages = append(c.res.Stages, StageChange{Side: s, Stat: stat, Delta: applied})
	return applied
}

// SetStatus forces status on side s without immunity checks. condition.None cures.
func (c *Ctx) SetStatus(s Side, status condition.NonVolatile, sleepTurns int) {
	m := c.Mon(s)
	if m.Status == status && status != condition.Asleep {
		return
	}
	m.SetStatus(status, sleepTurns)
	c.changed = true
	c.res.Statuses = append(c.res.Statuses, StatusChange{Side: s, Status: status, SleepTurns: m.SleepTurns})
}

// CanInflict reports whether status could be placed on side s: the battler
// must have no status, must not be immune by type, and the weather must allow it.
func (c *Ctx) CanInflict(s Side, status condition.NonVolatile) bool {
	m := c.Mon(s)
	if m.Fainted() || m.Status != condition.None {
		return false
	}
	def := c.engine.statuses.MustGet(status)
	for _, t := range m.Types() {
		if def.ImmuneType(t.String()) {
			return false
		}
	}
	if c.Field.Weather != nil && c.Field.Weather.PreventsStatus(status) {
		return false
	}
	return true
}

// Inflict places status on side s when CanInflict allows it. Sleep rolls its duration.
func (c *Ctx) Inflict(s Side, status condition.NonVolatile) bool {
	if !c.CanInflict(s, status) {
		return false
	}
	turns := 0
	if status == condition.Asleep {
		turns = c.Roll.Between("sleep turns", 1, MaxSleepTurns)
	}
	c.SetStatus(s, status, turns)
	return true
}

// AddVolatile places kind on side s. turns <= 0 rolls the kind's default duration.
func (c *Ctx) AddVolatile(s Side, kind condition.Kind, turns int) bool {
	m := c.Mon(s)
	if m.Fainted() {
		return false
	}
	if turns <= 0 {
		if rg, ok := kind.DefaultTurns(); ok {
			turns = c.Roll.RollRange(kind.String()+" turns", rg)
		}
	}
	if !m.Battle.Volatile.Apply(kind, turns) {
		return false
	}
	c.changed = true
	c.res.Volatiles = append(c.res.Volatiles, VolatileChange{Side: s, Kind: kind, Turns: turns})
	return true
}

// ClearVolatile removes kind from side s if present.
func (c *Ctx) ClearVolatile(s Side, kind condition.Kind) bool {
	m := c.Mon(s)
	if !m.Battle.Volatile.Has(kind) && !(kind == condition.Stockpile && m.Battle.Volatile.Stockpile > 0) {
		return false
	}
	m.Battle.Volatile.Remove(kind)
	c.changed = true
	c.res.Volatiles = append(c.res.Volatiles, VolatileChange{Side: s, Kind: kind, Remove: true})
	return true
}

// Effectiveness returns the stacked type multiplier of the move against the
// target, honouring foresight on Ghost types.
func (c *Ctx) Effectiveness() float64 {
	return c.effectivenessOf(c.Move.Type)
}

func (c *Ctx) effectivenessOf(t creature.Type) float64 {
	m := 1.0
	for _, d := range c.Target.Types() {
		f := creature.Multiplier(t, d)
		if f == 0 && d == creature.Ghost && c.Target.Battle.Volatile.Identified && (t == creature.Normal || t == creature.Fighting) {
			f = 1
		}
		m *= f
	}
	return m
}

// MaxSleepTurns is the longest sleep a move can inflict.
const MaxSleepTurns = 3
