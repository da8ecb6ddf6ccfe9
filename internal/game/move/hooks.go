package move

import (
	"fmt"
	"sort"
	"sync"
)

// Hooks is the set of named overrides a strategy applies to the shared
// resolution pipeline. A nil function keeps the data-driven default.
type Hooks struct {
	// Power replaces the base power; base is the definition's power.
	Power func(c *Ctx, base int) int
	// Accuracy replaces the base accuracy; 0 means the move cannot miss.
	Accuracy func(c *Ctx, base int) int
	// Fail reports a move-specific failure condition.
	Fail func(c *Ctx) bool
	// Hits replaces the hit count.
	Hits func(c *Ctx) int
	// Damage replaces the damage formula when its boolean result is true.
	Damage func(c *Ctx) (int, bool)
	// Effect runs after the standard secondary effects of each hit.
	Effect func(c *Ctx, dealt int)
	// HealFraction replaces the definition's heal fraction.
	HealFraction func(c *Ctx, base float64) float64
	// SkipCharge reports that a charging move fires immediately.
	SkipCharge func(c *Ctx) bool
	// SkipDataEffects suppresses the definition's stat tables when true.
	SkipDataEffects func(c *Ctx) bool

	// NoSpread disables the random damage multiplier.
	NoSpread bool
	// WhileAsleep lets the move be used by a sleeping user.
	WhileAsleep bool
	// LeaveOne stops the move from knocking the target out.
	LeaveOne bool
}

var (
	strategiesMu sync.RWMutex
	strategies   = map[string]*Hooks{}
)

// RegisterStrategy binds name to h so move definitions can refer to it.
//
// Precondition: name is non-empty and h is non-nil.
// Postcondition: returns an error if name is already registered.
func RegisterStrategy(name string, h *Hooks) error {
	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	if _, dup := strategies[name]; dup {
		return fmt.Errorf("move: strategy %q already registered", name)
	}
	strategies[name] = h
	return nil
}

func mustRegister(name string, h *Hooks) {
	if err := RegisterStrategy(name, h); err != nil {
		panic(err.Error())
	}
}

// LookupStrategy returns the hooks registered under name.
func LookupStrategy(name string) (*Hooks, bool) {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	h, ok := strategies[name]
	return h, ok
}

// StrategyNames returns every registered strategy name, sorted.
func StrategyNames() []string {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	out := make([]string, 0, len(strategies))
	for name := range strategies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
