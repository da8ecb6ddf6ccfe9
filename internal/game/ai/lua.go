package ai

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"go.uber.org/zap"
)

// ScriptCaller is the interface required by Scripted to evaluate Lua hooks.
// scripting.Manager implements it.
type ScriptCaller interface {
	// Call invokes a Lua global in script and returns its first result as
	// plain Go values. Returns (nil, nil) if the script or hook is undefined.
	Call(script, hook string, args ...any) (any, error)
}

// Lua hook names.
const (
	HookChooseAction      = "choose_action"
	HookChooseReplacement = "choose_replacement"
)

// Scripted delegates decisions to a Lua script's choose_action and
// choose_replacement hooks. A hook that is missing, errors, or answers with
// an illegal choice falls back to Fallback.
//
// Invariant: caller and Fallback are non-nil.
type Scripted struct {
	caller   ScriptCaller
	script   string
	logger   *zap.Logger
	Fallback Policy
}

// NewScripted creates a Scripted policy backed by script.
//
// Precondition: caller and fallback must not be nil.
func NewScripted(caller ScriptCaller, script string, fallback Policy, logger *zap.Logger) *Scripted {
	if caller == nil {
		panic("ai.NewScripted: caller must not be nil")
	}
	if fallback == nil {
		panic("ai.NewScripted: fallback must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scripted{caller: caller, script: script, logger: logger, Fallback: fallback}
}

func (p *Scripted) ChooseAction(ctx context.Context, v battle.View) (battle.Action, error) {
	ret, err := p.caller.Call(p.script, HookChooseAction, BuildState(v).Table())
	if err == nil && ret != nil {
		a, perr := parseAction(ret)
		if perr == nil && battle.CheckAction(v, a) == nil {
			return a, nil
		}
		err = perr
		if err == nil {
			err = battle.CheckAction(v, a)
		}
	}
	if err != nil {
		p.logger.Warn("ai script choice rejected", zap.String("script", p.script), zap.Error(err))
	}
	return p.Fallback.ChooseAction(ctx, v)
}

func (p *Scripted) ChooseReplacement(ctx context.Context, v battle.View) (int, error) {
	ret, err := p.caller.Call(p.script, HookChooseReplacement, BuildState(v).Table())
	if err == nil {
		if f, ok := ret.(float64); ok && battle.CheckReplacement(v.Own, int(f)) == nil {
			return int(f), nil
		}
	}
	return p.Fallback.ChooseReplacement(ctx, v)
}

// parseAction converts a script's {kind=..., slot=..., index=..., item=...,
// target=...} table into an Action.
func parseAction(ret any) (battle.Action, error) {
	t, ok := ret.(map[string]any)
	if !ok {
		return battle.Action{}, fmt.Errorf("choose_action must return a table, got %T", ret)
	}
	num := func(key string) int {
		if f, ok := t[key].(float64); ok {
			return int(f)
		}
		return -1
	}
	kind, _ := t["kind"].(string)
	switch kind {
	case "fight":
		return battle.FightAction(num("slot")), nil
	case "struggle":
		return battle.StruggleAction(), nil
	case "switch":
		return battle.SwitchAction(num("index")), nil
	case "flee":
		return battle.FleeAction(), nil
	case "item":
		return battle.ItemAction(num("item"), num("target"), num("move")), nil
	}
	return battle.Action{}, fmt.Errorf("unknown action kind %q", kind)
}
