// Package battle runs one battle between two participants: setup, action
// collection, ordering, execution through the move engine, the outcome
// applier, end-of-turn effects, faint replacement and termination.
package battle

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/inventory"
)

// Kind selects the entrance rules of a battle.
type Kind int

const (
	// Wild battles allow fleeing and throwing balls.
	Wild Kind = iota
	// Trainer battles pay out prize money.
	Trainer
	// Link battles mirror a remote peer and award nothing.
	Link
)

var kindNames = [...]string{"wild", "trainer", "link"}

// String returns the kind id.
func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// ParseKind resolves a kind id such as "trainer".
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, s) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("battle: unknown kind %q", s)
}

// ItemPermissions gates which item categories may be used during a battle.
type ItemPermissions struct {
	Balls         bool
	Revival       bool
	PPRestoration bool
	HPRestoration bool
	BattleItems   bool
	StatusItems   bool
}

// AllItems permits every category.
func AllItems() ItemPermissions {
	return ItemPermissions{Balls: true, Revival: true, PPRestoration: true, HPRestoration: true, BattleItems: true, StatusItems: true}
}

// DefaultPermissions returns the permissions a battle of kind k starts with.
// Balls are only usable in wild battles and link battles allow no items.
func DefaultPermissions(k Kind) ItemPermissions {
	switch k {
	case Wild:
		return AllItems()
	case Trainer:
		p := AllItems()
		p.Balls = false
		return p
	}
	return ItemPermissions{}
}

// Allows reports whether items of category c may be used.
func (p ItemPermissions) Allows(c inventory.Category) bool {
	switch c {
	case inventory.Ball:
		return p.Balls
	case inventory.Revive:
		return p.Revival
	case inventory.PPRestore:
		return p.PPRestoration
	case inventory.HPRestore:
		return p.HPRestoration
	case inventory.BattleItem:
		return p.BattleItems
	case inventory.StatusCure:
		return p.StatusItems
	}
	return false
}
