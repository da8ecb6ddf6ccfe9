// Package move holds the move data table, the named strategy hooks that
// specialise it, and the engine that resolves one use of a move into a
// Results value without touching live battle state.
package move

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
	"gopkg.in/yaml.v3"
)

// Category selects the stat pair a move attacks with.
type Category int

const (
	Physical Category = iota
	Special
	Status
)

var categoryNames = [...]string{"physical", "special", "status"}

// String returns the category id.
func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// UnmarshalYAML decodes a category id.
func (c *Category) UnmarshalYAML(node *yaml.Node) error {
	for i, n := range categoryNames {
		if strings.EqualFold(n, node.Value) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown move category %q", node.Line, node.Value)
}

// Targeting tells the engine whom a move acts on.
type Targeting int

const (
	// Opponent moves act on the opposing battler and can be blocked by protection.
	Opponent Targeting = iota
	// Self moves only act on the user.
	Self
	// Field moves act on the battlefield or a side of it.
	FieldWide
)

var targetingNames = [...]string{"opponent", "self", "field"}

// UnmarshalYAML decodes a targeting id.
func (t *Targeting) UnmarshalYAML(node *yaml.Node) error {
	for i, n := range targetingNames {
		if strings.EqualFold(n, node.Value) {
			*t = Targeting(i)
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown move target %q", node.Line, node.Value)
}

// Side selects the user or the target of a move.
type Side int

const (
	User Side = iota
	Target
)

var sideNames = [...]string{"user", "target"}

// String returns the side id.
func (s Side) String() string {
	if s == User || s == Target {
		return sideNames[s]
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// UnmarshalYAML decodes a side id.
func (s *Side) UnmarshalYAML(node *yaml.Node) error {
	for i, n := range sideNames {
		if strings.EqualFold(n, node.Value) {
			*s = Side(i)
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown side %q", node.Line, node.Value)
}

// StatChange is one entry of a stat-change table. A zero Chance always applies.
type StatChange struct {
	Stat   creature.Stat `yaml:"stat"`
	Delta  int           `yaml:"delta"`
	Chance float64       `yaml:"chance"`
}

// StatusChance is one entry of the non-volatile status table inflicted on the target.
type StatusChance struct {
	Status condition.NonVolatile `yaml:"status"`
	Chance float64               `yaml:"chance"`
}

// VolatileEffect places a volatile condition on one side. A zero Chance always
// applies and a zero Turns uses the kind's default duration.
type VolatileEffect struct {
	Kind   condition.Kind `yaml:"kind"`
	Side   Side           `yaml:"side"`
	Chance float64        `yaml:"chance"`
	Turns  dice.Range     `yaml:"turns"`
}

// Recoil is the damage a move deals back to its user.
type Recoil struct {
	DamageFraction    float64 `yaml:"damage_fraction"`     // of damage dealt
	MaxHealthFraction float64 `yaml:"max_health_fraction"` // of the user's max health
	Absolute          int     `yaml:"absolute"`
}

// IsZero reports whether the move has no recoil.
func (r Recoil) IsZero() bool {
	return r.DamageFraction == 0 && r.MaxHealthFraction == 0 && r.Absolute == 0
}

// Charge marks a two-turn move that spends its first turn preparing.
type Charge struct {
	Message          string `yaml:"message"`
	SemiInvulnerable bool   `yaml:"semi_invulnerable"`
}

// HazardKind names an entry hazard laid on the opposing side.
type HazardKind string

const (
	NoHazard    HazardKind = ""
	Spikes      HazardKind = "spikes"
	ToxicSpikes HazardKind = "toxic_spikes"
	StealthRock HazardKind = "stealth_rock"
)

// Definition is the immutable data of one move, loaded from YAML.
type Definition struct {
	ID              int              `yaml:"id"`
	Name            string           `yaml:"name"`
	Description     string           `yaml:"description"`
	Type            creature.Type    `yaml:"type"`
	Category        Category         `yaml:"category"`
	Power           int              `yaml:"power"`
	Accuracy        int              `yaml:"accuracy"` // 0 always hits
	MaxPP           int              `yaml:"pp"`
	Priority        int              `yaml:"priority"`
	Target          Targeting        `yaml:"target"`
	CritStage       int              `yaml:"crit_stage"`
	Hits            dice.Range       `yaml:"hits"`
	UserStats       []StatChange     `yaml:"user_stats"`
	TargetStats     []StatChange     `yaml:"target_stats"`
	Statuses        []StatusChance   `yaml:"statuses"`
	FlinchChance    float64          `yaml:"flinch_chance"`
	ConfusionChance float64          `yaml:"confusion_chance"`
	Volatiles       []VolatileEffect `yaml:"volatiles"`
	Recoil          Recoil           `yaml:"recoil"`
	Drain           float64          `yaml:"drain"` // of damage dealt
	Heal            float64          `yaml:"heal"`  // of the user's max health
	FixedDamage     int              `yaml:"fixed_damage"`
	InstantKO       bool             `yaml:"instant_ko"`
	Thaws           bool             `yaml:"thaws"` // thaws a frozen user
	UserFaints      bool             `yaml:"user_faints"`
	Rampage         bool             `yaml:"rampage"`
	Recharge        bool             `yaml:"recharge"`
	Protect         bool             `yaml:"protect"`
	Charge          *Charge          `yaml:"charge"`
	Reaches         []int            `yaml:"reaches"` // charging move ids this move can hit mid-charge
	Weather         *weather.ID      `yaml:"weather"`
	Hazard          HazardKind       `yaml:"hazard"`
	ClearHazards    bool             `yaml:"clear_hazards"`
	TrickRoom       bool             `yaml:"trick_room"`
	CureUser        bool             `yaml:"cure_user"`
	Strategy        string           `yaml:"strategy"`
}

// IsDamaging reports whether the move deals damage through the damage formula
// or a fixed amount.
func (d *Definition) IsDamaging() bool {
	return d.Category != Status
}

// MaxHazardLayers is the number of layers each hazard can stack to.
var MaxHazardLayers = map[HazardKind]int{
	Spikes:      3,
	ToxicSpikes: 2,
	StealthRock: 1,
}

// Validate reports authoring errors in the definition.
func (d *Definition) Validate() error {
	var errs []string
	if d.ID == 0 {
		errs = append(errs, "id must not be 0")
	}
	if d.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if d.MaxPP < 0 {
		errs = append(errs, "pp must be >= 0")
	}
	if d.Accuracy < 0 || d.Accuracy > 100 {
		errs = append(errs, "accuracy must be in [0,100]")
	}
	if d.Power < 0 {
		errs = append(errs, "power must be >= 0")
	}
	if d.Power > 0 && d.Category == Status {
		errs = append(errs, "status moves must not have power")
	}
	if d.Power == 0 && d.Category != Status && d.Strategy == "" && d.FixedDamage == 0 && !d.InstantKO {
		errs = append(errs, "damaging moves need power, fixed_damage, instant_ko or a strategy")
	}
	if d.Priority < -1 || d.Priority > 1 {
		errs = append(errs, "priority must be -1, 0 or 1")
	}
	if d.Hazard != NoHazard {
		if _, ok := MaxHazardLayers[d.Hazard]; !ok {
			errs = append(errs, fmt.Sprintf("unknown hazard %q", d.Hazard))
		}
	}
	checkChance := func(name string, p float64) {
		if p < 0 || p > 1 {
			errs = append(errs, name+" must be in [0,1]")
		}
	}
	checkChance("flinch_chance", d.FlinchChance)
	checkChance("confusion_chance", d.ConfusionChance)
	checkChance("drain", d.Drain)
	checkChance("heal", d.Heal)
	for _, sc := range append(append([]StatChange{}, d.UserStats...), d.TargetStats...) {
		checkChance("stat change chance", sc.Chance)
		if sc.Delta == 0 {
			errs = append(errs, "stat change delta must not be 0")
		}
	}
	for _, st := range d.Statuses {
		checkChance("status chance", st.Chance)
		if st.Status == condition.None {
			errs = append(errs, "status table must not list none")
		}
	}
	for _, v := range d.Volatiles {
		checkChance("volatile chance", v.Chance)
	}
	if len(errs) > 0 {
		return fmt.Errorf("move %d %q: %s", d.ID, d.Name, strings.Join(errs, "; "))
	}
	return nil
}

// StruggleID is the reserved id of the fallback move used when no move has PP.
const StruggleID = -1

// Struggle is the typeless fallback attack. It never consumes PP and costs the
// user a quarter of its maximum health.
var Struggle = &Definition{
	ID:       StruggleID,
	Name:     "Struggle",
	Type:     creature.Typeless,
	Category: Physical,
	Power:    50,
	Recoil:   Recoil{MaxHealthFraction: 0.25},
}
