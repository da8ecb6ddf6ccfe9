// Package inventory holds the item catalogue and the Bag that stores a
// trainer's items, money and newly caught creatures.
package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/capture"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"gopkg.in/yaml.v3"
)

// Category groups items by the battle permission that gates them.
type Category int

const (
	Ball Category = iota
	HPRestore
	Revive
	PPRestore
	StatusCure
	BattleItem
)

var categoryNames = [...]string{"ball", "hp_restore", "revive", "pp_restore", "status_cure", "battle_item"}

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
	return fmt.Errorf("line %d: unknown item category %q", node.Line, node.Value)
}

// StatBoost raises one stat stage of the active battler.
type StatBoost struct {
	Stat  creature.Stat `yaml:"stat"`
	Delta int           `yaml:"delta"`
}

// Item is the static definition of an item, loaded from YAML.
type Item struct {
	ID          int      `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    Category `yaml:"category"`
	Price       int      `yaml:"price"`

	Ball *capture.Ball `yaml:"ball"`

	Heal     int  `yaml:"heal"`      // health restored
	HealFull bool `yaml:"heal_full"` // restore to max health

	ReviveFraction float64 `yaml:"revive_fraction"` // of max health

	Cures   []condition.NonVolatile `yaml:"cures"`
	CureAll bool                    `yaml:"cure_all"`

	PP       int  `yaml:"pp"`        // restored to the chosen move, or to every move with PPAll
	PPAll    bool `yaml:"pp_all"`    // restore every move
	PPFull   bool `yaml:"pp_full"`   // restore to max
	NeedMove bool `yaml:"need_move"` // a target move slot must be chosen

	Boost     *StatBoost `yaml:"boost"`
	CritBoost bool       `yaml:"crit_boost"`
}

// Validate reports authoring errors in the item.
func (it *Item) Validate() error {
	var errs []error
	if it.ID <= 0 {
		errs = append(errs, errors.New("id must be > 0"))
	}
	if it.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if it.Price < 0 {
		errs = append(errs, errors.New("price must be >= 0"))
	}
	switch it.Category {
	case Ball:
		if it.Ball == nil {
			errs = append(errs, errors.New("ball items need a ball section"))
		}
	case HPRestore:
		if it.Heal <= 0 && !it.HealFull {
			errs = append(errs, errors.New("hp_restore items need heal or heal_full"))
		}
	case Revive:
		if it.ReviveFraction <= 0 || it.ReviveFraction > 1 {
			errs = append(errs, errors.New("revive_fraction must be in (0,1]"))
		}
	case PPRestore:
		if it.PP <= 0 && !it.PPFull {
			errs = append(errs, errors.New("pp_restore items need pp or pp_full"))
		}
	case StatusCure:
		if len(it.Cures) == 0 && !it.CureAll {
			errs = append(errs, errors.New("status_cure items need cures or cure_all"))
		}
	case BattleItem:
		if it.Boost == nil && !it.CritBoost {
			errs = append(errs, errors.New("battle items need a boost or crit_boost"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %d %q: %w", it.ID, it.Name, errors.Join(errs...))
	}
	return nil
}

// cures reports whether the item removes status s.
func (it *Item) cures(s condition.NonVolatile) bool {
	if s == condition.None {
		return false
	}
	if it.CureAll {
		return true
	}
	for _, c := range it.Cures {
		if c == s || (c == condition.Poisoned && s == condition.BadlyPoisoned) {
			return true
		}
	}
	return false
}

// CanUse reports whether using the item on target would have any effect.
// Balls are never used on a party member.
func (it *Item) CanUse(target *creature.Instance, moveSlot int) bool {
	if target == nil {
		return false
	}
	switch it.Category {
	case Ball:
		return false
	case Revive:
		return target.Fainted()
	}
	if target.Fainted() {
		return false
	}
	switch it.Category {
	case HPRestore:
		if target.Health < target.MaxHealth() {
			return true
		}
		return it.cures(target.Status)
	case StatusCure:
		return it.cures(target.Status)
	case PPRestore:
		if it.PPAll {
			for _, m := range target.Moves {
				if !m.Empty() && m.PP < m.MaxPP {
					return true
				}
			}
			return false
		}
		if moveSlot < 0 || moveSlot >= creature.MaxMoves {
			return false
		}
		m := target.Moves[moveSlot]
		return !m.Empty() && m.PP < m.MaxPP
	case BattleItem:
		if it.CritBoost {
			return !target.Battle.Volatile.CritBoost
		}
		cur := target.Battle.Stages.Get(it.Boost.Stat)
		return creature.ClampStageDelta(cur, it.Boost.Delta) != 0
	}
	return false
}

// Effect describes what one use of an item changed.
type Effect struct {
	Healed     int
	Revived    bool
	Cured      condition.NonVolatile
	PPRestored int
	Stage      *StatBoost // applied delta
	CritBoost  bool
}

// Use applies the item to target.
//
// Precondition: CanUse(target, moveSlot) is true.
// Postcondition: target is mutated by exactly the returned Effect.
func (it *Item) Use(target *creature.Instance, moveSlot int) Effect {
	var e Effect
	switch it.Category {
	case HPRestore:
		n := it.Heal
		if it.HealFull {
			n = target.MaxHealth()
		}
		e.Healed = target.Heal(n)
		if it.cures(target.Status) {
			e.Cured = target.Status
			target.CureStatus()
		}
	case Revive:
		target.Health = 0
		e.Healed = target.Heal(max(1, int(float64(target.MaxHealth())*it.ReviveFraction)))
		e.Revived = true
	case StatusCure:
		e.Cured = target.Status
		target.CureStatus()
	case PPRestore:
		slots := []int{moveSlot}
		if it.PPAll {
			slots = []int{0, 1, 2, 3}
		}
		for _, i := range slots {
			amount := it.PP
			if it.PPFull {
				amount = target.Moves[i].MaxPP
			}
			e.PPRestored += target.RestorePP(i, amount)
		}
	case BattleItem:
		if it.CritBoost {
			target.Battle.Volatile.CritBoost = true
			e.CritBoost = true
			break
		}
		applied := target.Battle.Stages.Apply(it.Boost.Stat, it.Boost.Delta)
		e.Stage = &StatBoost{Stat: it.Boost.Stat, Delta: applied}
	}
	return e
}
