package creature

import (
	"errors"
	"math"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/google/uuid"
)

// MaxMoves is the number of move slots on a roster slot.
const MaxMoves = 4

// Gender of an instance; some moves only work across genders.
type Gender int

const (
	Genderless Gender = iota
	Male
	Female
)

// MoveSlot is one learned move and its remaining power points. ID 0 marks an
// empty slot.
type MoveSlot struct {
	ID    int
	PP    int
	MaxPP int
}

// Empty reports whether no move is learned in the slot.
func (m MoveSlot) Empty() bool { return m.ID == 0 }

// BattleProperties is the transient state of the active roster slot.
// It is discarded whenever the slot leaves active duty.
type BattleProperties struct {
	Stages               Stages
	Volatile             condition.Volatile
	BadlyPoisonedCounter int
}

// Instance is one creature occupying a roster slot.
type Instance struct {
	ID         uuid.UUID
	Species    *Species
	Nickname   string
	Level      int
	Experience int
	Gender     Gender
	Friendship int
	IVs        Stats
	EVs        Stats
	Stats      Stats // derived maxima; Stats.HP is the maximum health
	Health     int
	Moves      [MaxMoves]MoveSlot
	Status     condition.NonVolatile
	SleepTurns int
	Battle     BattleProperties
}

// ErrNoSpecies is returned when an instance is built without a species.
var ErrNoSpecies = errors.New("creature: species must not be nil")

// NewInstance builds a full-health instance of sp at level with derived stats.
//
// Precondition: sp must be non-nil; level is clamped to [MinLevel, MaxLevel].
// Postcondition: Health == Stats.HP and every move slot is empty.
func NewInstance(sp *Species, level int, ivs, evs Stats) (*Instance, error) {
	if sp == nil {
		return nil, ErrNoSpecies
	}
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	in := &Instance{
		ID:         uuid.New(),
		Species:    sp,
		Level:      level,
		Friendship: 70,
		IVs:        ivs,
		EVs:        evs,
	}
	in.Recalculate()
	in.Health = in.Stats.HP
	return in, nil
}

// Recalculate re-derives Stats from species, level, IVs and EVs, keeping the
// amount of health already lost.
func (in *Instance) Recalculate() {
	fainted := in.Stats.HP > 0 && in.Health <= 0
	lost := in.Stats.HP - in.Health
	in.Stats = CalcStats(in.Species.BaseStats, in.Level, in.IVs, in.EVs)
	in.Health = max(0, in.Stats.HP-lost)
	if fainted {
		in.Health = 0
	}
}

// SetMove places move id with maxPP power points in slot i at full PP.
//
// Precondition: 0 <= i < MaxMoves.
func (in *Instance) SetMove(i, id, maxPP int) {
	in.Moves[i] = MoveSlot{ID: id, PP: maxPP, MaxPP: maxPP}
}

// Name returns the nickname or the species name.
func (in *Instance) Name() string {
	if in.Nickname != "" {
		return in.Nickname
	}
	if in.Species == nil {
		return "???"
	}
	return in.Species.Name
}

// MaxHealth returns the maximum health.
func (in *Instance) MaxHealth() int { return in.Stats.HP }

// Fainted reports whether health has reached zero.
func (in *Instance) Fainted() bool { return in.Health <= 0 }

// HealthRatio returns Health / MaxHealth in [0, 1].
func (in *Instance) HealthRatio() float64 {
	if in.Stats.HP <= 0 {
		return 0
	}
	return float64(in.Health) / float64(in.Stats.HP)
}

// Types returns the species types.
func (in *Instance) Types() []Type {
	if in.Species == nil {
		return nil
	}
	return in.Species.Types
}

// HasType reports whether the instance is of type t.
func (in *Instance) HasType(t Type) bool {
	for _, own := range in.Types() {
		if own == t {
			return true
		}
	}
	return false
}

// Weight returns the species weight in kilograms.
func (in *Instance) Weight() float64 {
	if in.Species == nil {
		return 0
	}
	return in.Species.Weight
}

// EffectiveStat returns the raw stat scaled by its current stage, floored and
// at least 1.
func (in *Instance) EffectiveStat(stat Stat) int {
	v := int(math.Floor(float64(in.Stats.Get(stat)) * StageMultiplier(in.Battle.Stages.Get(stat))))
	if v < 1 {
		v = 1
	}
	return v
}

// TakeDamage lowers health by up to n and returns the amount actually lost.
//
// Postcondition: 0 <= Health <= MaxHealth.
func (in *Instance) TakeDamage(n int) int {
	if n <= 0 {
		return 0
	}
	if n > in.Health {
		n = in.Health
	}
	in.Health -= n
	return n
}

// Heal raises health by up to n and returns the amount actually restored.
//
// Postcondition: 0 <= Health <= MaxHealth.
func (in *Instance) Heal(n int) int {
	if n <= 0 {
		return 0
	}
	if room := in.Stats.HP - in.Health; n > room {
		n = room
	}
	in.Health += n
	return n
}

// SetStatus replaces the non-volatile status. sleepTurns is only kept for Asleep.
func (in *Instance) SetStatus(s condition.NonVolatile, sleepTurns int) {
	in.Status = s
	in.SleepTurns = 0
	if s == condition.Asleep {
		in.SleepTurns = sleepTurns
	}
	in.Battle.BadlyPoisonedCounter = 0
	if s == condition.BadlyPoisoned {
		in.Battle.BadlyPoisonedCounter = 1
	}
}

// CureStatus clears the non-volatile status.
func (in *Instance) CureStatus() {
	in.SetStatus(condition.None, 0)
}

// ResetBattle discards every in-battle-only property.
//
// Postcondition: Battle is the default BattleProperties, except that a badly
// poisoned instance restarts its counter at 1.
func (in *Instance) ResetBattle() {
	in.Battle = BattleProperties{}
	if in.Status == condition.BadlyPoisoned {
		in.Battle.BadlyPoisonedCounter = 1
	}
}

// MoveIndex returns the slot holding move id, or -1.
func (in *Instance) MoveIndex(id int) int {
	for i, m := range in.Moves {
		if !m.Empty() && m.ID == id {
			return i
		}
	}
	return -1
}

// UsableMoves returns the indexes of learned moves with PP left.
func (in *Instance) UsableMoves() []int {
	var out []int
	for i, m := range in.Moves {
		if !m.Empty() && m.PP > 0 {
			out = append(out, i)
		}
	}
	return out
}

// KnownMoves returns how many move slots are filled.
func (in *Instance) KnownMoves() int {
	n := 0
	for _, m := range in.Moves {
		if !m.Empty() {
			n++
		}
	}
	return n
}

// RestorePP adds up to amount PP to slot i and returns what was restored.
func (in *Instance) RestorePP(i, amount int) int {
	m := &in.Moves[i]
	if m.Empty() {
		return 0
	}
	room := m.MaxPP - m.PP
	if amount > room {
		amount = room
	}
	m.PP += amount
	return amount
}

// Clone returns a deep copy sharing only the immutable species definition.
func (in *Instance) Clone() *Instance {
	if in == nil {
		return nil
	}
	cp := *in
	return &cp
}
