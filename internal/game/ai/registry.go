package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"go.uber.org/zap"
)

// Built-in policy ids.
const (
	PolicyRandomAttack = "random_attack"
	PolicyWild         = "wild"
	PolicyBasicTrainer = "basic_trainer"
	PolicyGymLeader    = "gym_leader"
	PolicyGeneric      = "generic"
)

// LuaPrefix selects a Lua script policy: "lua:<script>".
const LuaPrefix = "lua:"

// Factory builds a fresh Policy for one battle.
type Factory func(roll *dice.Roller, logger *zap.Logger) Policy

// Registry indexes policy factories by id.
//
// Invariant: each policy id is registered at most once.
type Registry struct {
	factories map[string]Factory
	scripts   ScriptCaller
}

// NewRegistry returns a Registry holding the built-in policies. scripts may
// be nil, in which case "lua:" policies cannot be built.
func NewRegistry(scripts ScriptCaller) *Registry {
	r := &Registry{factories: make(map[string]Factory), scripts: scripts}
	builtins := map[string]Factory{
		PolicyRandomAttack: func(roll *dice.Roller, _ *zap.Logger) Policy { return NewRandomAttack(roll) },
		PolicyWild:         func(roll *dice.Roller, _ *zap.Logger) Policy { return NewWild(roll) },
		PolicyGeneric:      func(roll *dice.Roller, _ *zap.Logger) Policy { return NewGeneric(roll) },
		PolicyBasicTrainer: func(roll *dice.Roller, l *zap.Logger) Policy { return NewBasicTrainer(roll, l) },
		PolicyGymLeader:    func(roll *dice.Roller, l *zap.Logger) Policy { return NewGymLeader(roll, l) },
	}
	for id, f := range builtins {
		r.factories[id] = f
	}
	return r
}

// Register adds a factory under id.
//
// Precondition: f must not be nil.
// Postcondition: returns error on id collision or a reserved prefix.
func (r *Registry) Register(id string, f Factory) error {
	if strings.HasPrefix(id, LuaPrefix) {
		return fmt.Errorf("ai.Registry: id %q uses the reserved %q prefix", id, LuaPrefix)
	}
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("ai.Registry: policy %q already registered", id)
	}
	r.factories[id] = f
	return nil
}

// New builds the policy named id. An empty id builds a Generic policy.
// "lua:<script>" builds a Scripted policy falling back to BasicTrainer.
func (r *Registry) New(id string, roll *dice.Roller, logger *zap.Logger) (Policy, error) {
	if id == "" {
		id = PolicyGeneric
	}
	if script, ok := strings.CutPrefix(id, LuaPrefix); ok {
		if r.scripts == nil {
			return nil, fmt.Errorf("ai.Registry: policy %q needs a script manager", id)
		}
		return NewScripted(r.scripts, script, NewBasicTrainer(roll, logger), logger), nil
	}
	f, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("ai.Registry: unknown policy %q", id)
	}
	return f(roll, logger), nil
}

// IDs returns the registered built-in ids in order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.factories))
	for id := range r.factories {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
