package ai

import (
	"context"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"go.uber.org/zap"
)

// RandomAttack picks uniformly among the legal moves.
type RandomAttack struct {
	roll *dice.Roller
}

// NewRandomAttack creates a RandomAttack policy.
//
// Precondition: roll must be non-nil.
func NewRandomAttack(roll *dice.Roller) *RandomAttack {
	return &RandomAttack{roll: roll}
}

func (p *RandomAttack) ChooseAction(_ context.Context, v battle.View) (battle.Action, error) {
	ws := BuildState(v)
	if len(ws.Moves) == 0 {
		return battle.StruggleAction(), nil
	}
	return battle.FightAction(ws.Moves[p.roll.Roll("ai random move", len(ws.Moves))].Slot), nil
}

func (p *RandomAttack) ChooseReplacement(_ context.Context, v battle.View) (int, error) {
	return firstHealthy(v)
}

// Wild weights each legal move by the square root of its effectiveness
// against the opposing active.
type Wild struct {
	roll *dice.Roller
}

// NewWild creates a Wild policy.
//
// Precondition: roll must be non-nil.
func NewWild(roll *dice.Roller) *Wild {
	return &Wild{roll: roll}
}

func (p *Wild) ChooseAction(_ context.Context, v battle.View) (battle.Action, error) {
	ws := BuildState(v)
	if len(ws.Moves) == 0 {
		return battle.StruggleAction(), nil
	}
	weights := make([]float64, len(ws.Moves))
	for i, m := range ws.Moves {
		weights[i] = attackWeight(m.Effectiveness)
	}
	return battle.FightAction(ws.Moves[pickWeighted(p.roll, "ai wild move", weights)].Slot), nil
}

func (p *Wild) ChooseReplacement(_ context.Context, v battle.View) (int, error) {
	return firstHealthy(v)
}

// Generic honours an encore by repeating the encored move and otherwise
// picks uniformly among the legal moves.
type Generic struct {
	roll *dice.Roller
}

// NewGeneric creates a Generic policy.
//
// Precondition: roll must be non-nil.
func NewGeneric(roll *dice.Roller) *Generic {
	return &Generic{roll: roll}
}

func (p *Generic) ChooseAction(_ context.Context, v battle.View) (battle.Action, error) {
	ws := BuildState(v)
	if len(ws.Moves) == 0 {
		return battle.StruggleAction(), nil
	}
	if m, ok := encoreOption(ws, v); ok {
		return battle.FightAction(m.Slot), nil
	}
	return battle.FightAction(ws.Moves[p.roll.Roll("ai generic move", len(ws.Moves))].Slot), nil
}

func (p *Generic) ChooseReplacement(_ context.Context, v battle.View) (int, error) {
	return firstHealthy(v)
}

// PriorityThreshold is the foe health ratio below which a BasicTrainer
// finishes with a priority move when it has one.
const PriorityThreshold = 0.2

// BasicTrainer weights moves by effectiveness, favours stat moves it has
// not used much yet, favours healing when hurt and finishes a weakened foe
// with a priority move.
type BasicTrainer struct {
	roll      *dice.Roller
	logger    *zap.Logger
	statMoves int
}

// NewBasicTrainer creates a BasicTrainer policy.
//
// Precondition: roll must be non-nil. A nil logger is replaced with zap.NewNop().
func NewBasicTrainer(roll *dice.Roller, logger *zap.Logger) *BasicTrainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BasicTrainer{roll: roll, logger: logger}
}

// Weights returns the selection weight of each legal move in ws.
func (p *BasicTrainer) Weights(ws *WorldState) []float64 {
	weights := make([]float64, len(ws.Moves))
	for i, m := range ws.Moves {
		w := 1.0
		switch {
		case m.Def != nil && m.Def.Category == move.Status:
			w *= statMoveWeight(p.statMoves)
		default:
			w *= attackWeight(m.Effectiveness)
		}
		if m.Def != nil && m.Def.Heal > 0 && ws.Self != nil {
			w *= healWeight(ws.Self.HPRatio())
		}
		weights[i] = w
	}
	return weights
}

func (p *BasicTrainer) ChooseAction(_ context.Context, v battle.View) (battle.Action, error) {
	ws := BuildState(v)
	if len(ws.Moves) == 0 {
		return battle.StruggleAction(), nil
	}
	if m, ok := encoreOption(ws, v); ok {
		return battle.FightAction(m.Slot), nil
	}
	if ws.Foe != nil && ws.Foe.HPRatio() < PriorityThreshold {
		for _, m := range ws.Moves {
			if m.Def != nil && m.Def.Priority > 0 && m.Def.IsDamaging() && m.Effectiveness > 0 {
				p.logger.Debug("ai finishing with priority move", zap.String("move", m.Def.Name))
				return battle.FightAction(m.Slot), nil
			}
		}
	}
	chosen := ws.Moves[pickWeighted(p.roll, "ai trainer move", p.Weights(ws))]
	if isStatMove(chosen.Def) {
		p.statMoves++
	}
	return battle.FightAction(chosen.Slot), nil
}

func (p *BasicTrainer) ChooseReplacement(_ context.Context, v battle.View) (int, error) {
	return firstHealthy(v)
}

// Gym leader defaults.
const (
	DefaultHealItem   = 22 // Hyper Potion
	DefaultMaxHeals   = 3
	HealThresholdRate = 0.2
)

// GymLeader heals its active with an item when it drops to HealThresholdRate
// of its health, up to MaxHeals times, and otherwise plays as a BasicTrainer.
type GymLeader struct {
	*BasicTrainer
	HealItem int
	MaxHeals int
	healed   int
}

// NewGymLeader creates a GymLeader policy with the default heal item and budget.
//
// Precondition: roll must be non-nil.
func NewGymLeader(roll *dice.Roller, logger *zap.Logger) *GymLeader {
	return &GymLeader{BasicTrainer: NewBasicTrainer(roll, logger), HealItem: DefaultHealItem, MaxHeals: DefaultMaxHeals}
}

func (p *GymLeader) ChooseAction(ctx context.Context, v battle.View) (battle.Action, error) {
	active := v.Active()
	if active != nil && p.healed < p.MaxHeals && active.HealthRatio() <= HealThresholdRate {
		a := battle.ItemAction(p.HealItem, v.Own.Active, -1)
		if battle.CheckAction(v, a) == nil {
			p.healed++
			p.logger.Debug("ai healing", zap.Int("item", p.HealItem), zap.Int("times", p.healed))
			return a, nil
		}
	}
	return p.BasicTrainer.ChooseAction(ctx, v)
}
