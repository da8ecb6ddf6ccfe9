package condition

import (
	"fmt"

	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"gopkg.in/yaml.v3"
)

// Kind names one volatile effect that a move can place on a battler.
type Kind int

const (
	Confusion Kind = iota + 1
	Flinch
	LeechSeed
	Taunt
	Encore
	Torment
	Embargo
	HealBlock
	PerishSong
	Identified
	Infatuation
	Nightmare
	Curse
	Drowsy
	Stockpile
	AquaRing
	Ingrain
	Bracing
	TakingAim
	DefenseCurl
	CritBoost
	Protection
	Bound
	CantEscape
)

var kindIDs = map[Kind]string{
	Confusion:   "confusion",
	Flinch:      "flinch",
	LeechSeed:   "leech_seed",
	Taunt:       "taunt",
	Encore:      "encore",
	Torment:     "torment",
	Embargo:     "embargo",
	HealBlock:   "heal_block",
	PerishSong:  "perish_song",
	Identified:  "identified",
	Infatuation: "infatuation",
	Nightmare:   "nightmare",
	Curse:       "curse",
	Drowsy:      "drowsy",
	Stockpile:   "stockpile",
	AquaRing:    "aqua_ring",
	Ingrain:     "ingrain",
	Bracing:     "bracing",
	TakingAim:   "taking_aim",
	DefenseCurl: "defense_curl",
	CritBoost:   "crit_boost",
	Protection:  "protection",
	Bound:       "bound",
	CantEscape:  "cant_escape",
}

// defaultTurns holds the duration rolled when a directive carries none.
// Kinds absent from the table are flags without a duration.
var defaultTurns = map[Kind]dice.Range{
	Confusion:  dice.MustParseRange("2-5"),
	Taunt:      dice.MustParseRange("3-5"),
	Encore:     dice.MustParseRange("4-8"),
	Embargo:    dice.MustParseRange("5"),
	HealBlock:  dice.MustParseRange("5"),
	PerishSong: dice.MustParseRange("4"),
	Drowsy:     dice.MustParseRange("2"),
	TakingAim:  dice.MustParseRange("2"),
	Bound:      dice.MustParseRange("2-5"),
}

// MaxStockpile caps the stockpile counter.
const MaxStockpile = 3

// ParseKind resolves a volatile id such as "leech_seed".
func ParseKind(id string) (Kind, error) {
	for k, name := range kindIDs {
		if name == id {
			return k, nil
		}
	}
	return 0, fmt.Errorf("condition: unknown volatile %q", id)
}

// String returns the volatile id.
func (k Kind) String() string {
	if name, ok := kindIDs[k]; ok {
		return name
	}
	return fmt.Sprintf("volatile(%d)", int(k))
}

// DefaultTurns returns the duration range for k and whether k is timed.
func (k Kind) DefaultTurns() (dice.Range, bool) {
	rg, ok := defaultTurns[k]
	return rg, ok
}

// UnmarshalYAML decodes a volatile id.
func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseKind(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*k = parsed
	return nil
}

// Volatile is the battle-local condition bundle of an active battler. Its
// zero value is the default state a slot enters battle with.
// It is not safe for concurrent use; the caller must serialise access.
type Volatile struct {
	Confusion   int // counts down on each attempt to act; snaps out at 1
	Flinched    bool
	LeechSeeded bool
	Taunt       int
	Encore      int
	EncoreMove  int
	Tormented   bool
	Embargo     int
	HealBlock   int
	PerishSong  int // turns until the holder faints; 0 when not counting down
	Identified  bool
	Infatuated  bool
	Nightmare   bool
	Cursed      bool
	Drowsy      int // turns until yawn puts the holder to sleep
	Stockpile   int
	AquaRing    bool
	Ingrained   bool
	Bracing     bool
	TakingAim   int
	DefenseCurl bool
	CritBoost   bool
	Protected   bool
	Bound       int
	CantEscape  bool

	// Multi-turn move bookkeeping.
	ThrashTurns      int
	ThrashMove       int
	ChargingMove     int
	SemiInvulnerable bool
	Recharging       bool

	// Per-turn memory.
	LastMove          int
	TookDamage        bool
	DamageTakenAmount int
	ProtectStreak     int
}

// Has reports whether k is currently in effect.
func (v *Volatile) Has(k Kind) bool {
	switch k {
	case Confusion:
		return v.Confusion > 0
	case Flinch:
		return v.Flinched
	case LeechSeed:
		return v.LeechSeeded
	case Taunt:
		return v.Taunt > 0
	case Encore:
		return v.Encore > 0
	case Torment:
		return v.Tormented
	case Embargo:
		return v.Embargo > 0
	case HealBlock:
		return v.HealBlock > 0
	case PerishSong:
		return v.PerishSong > 0
	case Identified:
		return v.Identified
	case Infatuation:
		return v.Infatuated
	case Nightmare:
		return v.Nightmare
	case Curse:
		return v.Cursed
	case Drowsy:
		return v.Drowsy > 0
	case Stockpile:
		return v.Stockpile >= MaxStockpile
	case AquaRing:
		return v.AquaRing
	case Ingrain:
		return v.Ingrained
	case Bracing:
		return v.Bracing
	case TakingAim:
		return v.TakingAim > 0
	case DefenseCurl:
		return v.DefenseCurl
	case CritBoost:
		return v.CritBoost
	case Protection:
		return v.Protected
	case Bound:
		return v.Bound > 0
	case CantEscape:
		return v.CantEscape
	}
	return false
}

// Apply places k on the holder. turns is used by timed kinds and ignored by
// flags. Stockpile increments its counter instead.
//
// Postcondition: returns false and leaves v unchanged when k was already in
// effect, so a reapplication never extends a running timer.
func (v *Volatile) Apply(k Kind, turns int) bool {
	if v.Has(k) {
		return false
	}
	if turns < 1 {
		turns = 1
	}
	switch k {
	case Confusion:
		v.Confusion = turns
	case Flinch:
		v.Flinched = true
	case LeechSeed:
		v.LeechSeeded = true
	case Taunt:
		v.Taunt = turns
	case Encore:
		v.Encore = turns
		v.EncoreMove = v.LastMove
	case Torment:
		v.Tormented = true
	case Embargo:
		v.Embargo = turns
	case HealBlock:
		v.HealBlock = turns
	case PerishSong:
		v.PerishSong = turns
	case Identified:
		v.Identified = true
	case Infatuation:
		v.Infatuated = true
	case Nightmare:
		v.Nightmare = true
	case Curse:
		v.Cursed = true
	case Drowsy:
		v.Drowsy = turns
	case Stockpile:
		v.Stockpile++
	case AquaRing:
		v.AquaRing = true
	case Ingrain:
		v.Ingrained = true
	case Bracing:
		v.Bracing = true
	case TakingAim:
		v.TakingAim = turns
	case DefenseCurl:
		v.DefenseCurl = true
	case CritBoost:
		v.CritBoost = true
	case Protection:
		v.Protected = true
	case Bound:
		v.Bound = turns
	case CantEscape:
		v.CantEscape = true
	default:
		return false
	}
	return true
}

// Remove clears k. Removing an absent kind is a no-op.
//
// Postcondition: Has(k) is false.
func (v *Volatile) Remove(k Kind) {
	switch k {
	case Confusion:
		v.Confusion = 0
	case Flinch:
		v.Flinched = false
	case LeechSeed:
		v.LeechSeeded = false
	case Taunt:
		v.Taunt = 0
	case Encore:
		v.Encore, v.EncoreMove = 0, 0
	case Torment:
		v.Tormented = false
	case Embargo:
		v.Embargo = 0
	case HealBlock:
		v.HealBlock = 0
	case PerishSong:
		v.PerishSong = 0
	case Identified:
		v.Identified = false
	case Infatuation:
		v.Infatuated = false
	case Nightmare:
		v.Nightmare = false
	case Curse:
		v.Cursed = false
	case Drowsy:
		v.Drowsy = 0
	case Stockpile:
		v.Stockpile = 0
	case AquaRing:
		v.AquaRing = false
	case Ingrain:
		v.Ingrained = false
	case Bracing:
		v.Bracing = false
	case TakingAim:
		v.TakingAim = 0
	case DefenseCurl:
		v.DefenseCurl = false
	case CritBoost:
		v.CritBoost = false
	case Protection:
		v.Protected = false
	case Bound:
		v.Bound = 0
	case CantEscape:
		v.CantEscape = false
	}
}

// Tick advances the timed counters that expire at end of turn: taunt, encore,
// embargo, heal block and taking aim. Confusion, binding, perish song and
// drowsiness are advanced by the rules that consume them.
//
// Postcondition: For every kind in the returned slice, Has(kind) is false.
func (v *Volatile) Tick() []Kind {
	var expired []Kind
	step := func(k Kind, counter *int) {
		if *counter <= 0 {
			return
		}
		*counter--
		if *counter == 0 {
			expired = append(expired, k)
		}
	}
	step(Taunt, &v.Taunt)
	step(Encore, &v.Encore)
	if v.Encore == 0 {
		v.EncoreMove = 0
	}
	step(Embargo, &v.Embargo)
	step(HealBlock, &v.HealBlock)
	step(TakingAim, &v.TakingAim)
	return expired
}

// ClearTurnFlags drops the flags that only last until the end of the turn.
func (v *Volatile) ClearTurnFlags() {
	v.Flinched = false
	v.Protected = false
	v.Bracing = false
	v.TookDamage = false
	v.DamageTakenAmount = 0
}

// Reset returns the bundle to the state of a freshly sent out battler.
//
// Postcondition: *v equals the zero Volatile.
func (v *Volatile) Reset() {
	*v = Volatile{}
}

// Kinds lists every volatile kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindIDs))
	for k := Confusion; k <= CantEscape; k++ {
		out = append(out, k)
	}
	return out
}
