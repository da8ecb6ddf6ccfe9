package move

import (
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
)

// Outcome is the operative result of one move use. Exactly one applies.
type Outcome int

const (
	Succeeded Outcome = iota
	Missed
	Failed
)

var outcomeNames = [...]string{"succeeded", "missed", "failed"}

// String returns the outcome id.
func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Block names what stopped the user from acting at all.
type Block int

const (
	NotBlocked Block = iota
	BlockedFlinch
	BlockedSleep
	BlockedFreeze
	BlockedParalysis
	BlockedConfusion
	BlockedInfatuation
	BlockedRecharge
	BlockedTaunt
	BlockedHealBlock
)

// Tier is the coarse type-effectiveness bucket shown to players.
type Tier int

const (
	NormalEffect Tier = iota
	Immune
	NotVeryEffective
	SuperEffective
)

// TierOf buckets a stacked type multiplier.
func TierOf(m float64) Tier {
	switch {
	case m == 0:
		return Immune
	case m < 1:
		return NotVeryEffective
	case m > 1:
		return SuperEffective
	}
	return NormalEffect
}

// HealthChange is either damage or healing for one side, never both.
// The zero value is no change.
type HealthChange struct {
	delta int
}

// Damage returns a change that removes n health.
func Damage(n int) HealthChange {
	if n < 0 {
		n = 0
	}
	return HealthChange{delta: -n}
}

// Healing returns a change that restores n health.
func Healing(n int) HealthChange {
	if n < 0 {
		n = 0
	}
	return HealthChange{delta: n}
}

// IsDamage reports whether the change removes health.
func (h HealthChange) IsDamage() bool { return h.delta < 0 }

// IsHeal reports whether the change restores health.
func (h HealthChange) IsHeal() bool { return h.delta > 0 }

// IsZero reports whether nothing changes.
func (h HealthChange) IsZero() bool { return h.delta == 0 }

// Amount returns the non-negative magnitude of the change.
func (h HealthChange) Amount() int {
	if h.delta < 0 {
		return -h.delta
	}
	return h.delta
}

// StageChange is a clamped stage delta for one side.
type StageChange struct {
	Side  Side
	Stat  creature.Stat
	Delta int // 0 records an attempted change that hit the stage limit
}

// StatusChange inflicts or cures a non-volatile status on one side.
type StatusChange struct {
	Side       Side
	Status     condition.NonVolatile // condition.None cures
	SleepTurns int
}

// VolatileChange places or removes a volatile condition on one side.
type VolatileChange struct {
	Side   Side
	Kind   condition.Kind
	Turns  int
	Remove bool
}

// Counters is the user's multi-turn bookkeeping as it stands after this use.
// The applier copies it onto the live user in its final step.
type Counters struct {
	SleepTurns       int
	Confusion        int
	ThrashTurns      int
	ThrashMove       int
	ChargingMove     int
	SemiInvulnerable bool
	Recharging       bool
	LastMove         int
	ProtectStreak    int
	TakingAim        int
}

// Results is the immutable record of every effect one move use produces.
// Damage and healing for a side are mutually exclusive by construction.
type Results struct {
	MoveID        int
	Struggle      bool
	Outcome       Outcome
	Block         Block
	ConsumesPP    bool
	Notes         []string
	User          HealthChange
	Target        HealthChange
	Effectiveness Tier
	Critical      bool
	Stages        []StageChange
	Statuses      []StatusChange
	Volatiles     []VolatileChange
	Weather       *weather.ID
	Hazard        HazardKind
	ClearHazards  bool
	TrickRoom     bool
	Counters      Counters
	HitsPlanned   int
	Hits          int
}

// Landed reports whether the move went off, as opposed to missing, failing
// or being blocked.
func (r *Results) Landed() bool {
	return r.Outcome == Succeeded
}
