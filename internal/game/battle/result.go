package battle

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is how a battle ended, from the player's point of view.
type Outcome int

const (
	Win Outcome = iota
	Loss
	Fled
	Caught
	OpponentFled
)

var outcomeNames = [...]string{"win", "loss", "fled", "caught", "opponent_fled"}

// String returns the outcome id.
func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result summarises a finished battle for the host.
type Result struct {
	BattleID     uuid.UUID
	Kind         Kind
	Outcome      Outcome
	Turns        int
	Seed         uint64
	Participants [2]string
	MoneyDelta   int
	Caught       *creature.Instance
	Evolutions   []EvolutionPrompt
	Diagnostics  []Diagnostic
}

// finish runs the terminated state: badly poisoned members revert to plain
// poison, battle properties are dropped, prize money changes hands and the
// final events are played.
func (s *Session) finish(ctx context.Context) (*Result, error) {
	s.transition(StateTerminated)
	for _, p := range s.parties {
		for _, in := range p.Members() {
			if in.Status == condition.BadlyPoisoned {
				in.SetStatus(condition.Poisoned, 0)
			}
			in.ResetBattle()
		}
	}

	res := &Result{
		BattleID:     s.ctx.ID,
		Kind:         s.ctx.Kind,
		Outcome:      s.outcome,
		Turns:        s.ctx.Turn,
		Seed:         s.ctx.Seed,
		Participants: [2]string{s.sides[PlayerSide].Name(), s.sides[OpponentSide].Name()},
		Caught:       s.caught,
		Evolutions:   s.evolutions,
		Diagnostics:  s.diagnostics,
	}

	switch s.outcome {
	case Win:
		if s.ctx.Kind == Wild {
			break
		}
		s.say(PlayerSide, fmt.Sprintf("%s was defeated!", s.opponentName()))
		if s.ctx.Kind == Trainer {
			res.MoneyDelta = s.payout()
		}
	case Loss:
		s.say(PlayerSide, fmt.Sprintf("%s is out of usable battlers!", s.sides[PlayerSide].Name()))
		if s.ctx.Kind != Link {
			res.MoneyDelta = s.forfeit()
		}
		s.say(PlayerSide, fmt.Sprintf("%s blacked out!", s.sides[PlayerSide].Name()))
	}

	s.logger.Info("battle finished",
		zap.String("outcome", res.Outcome.String()),
		zap.Int("turns", res.Turns),
		zap.Int("money_delta", res.MoneyDelta),
		zap.Int("diagnostics", len(res.Diagnostics)),
	)
	if err := s.present.Play(ctx); err != nil {
		return nil, fmt.Errorf("presenting outcome: %w", err)
	}
	return res, nil
}

// payout pays basePayout times the level of the loser's last roster slot.
func (s *Session) payout() int {
	last := s.parties[OpponentSide].Last()
	if s.deps.Inventory == nil || last == nil || s.cfg.BasePayout <= 0 {
		return 0
	}
	applied := s.deps.Inventory.AddMoney(s.cfg.BasePayout * last.Level)
	if applied > 0 {
		s.say(PlayerSide, fmt.Sprintf("You got %s for winning!", inventory.FormatMoney(s.cfg.Language, applied)))
	}
	return applied
}

// forfeit drops half of the player's money, clamped at zero.
func (s *Session) forfeit() int {
	if s.deps.Inventory == nil {
		return 0
	}
	applied := s.deps.Inventory.AddMoney(-s.deps.Inventory.Money() / 2)
	if applied < 0 {
		s.say(PlayerSide, fmt.Sprintf("You panicked and dropped %s...", inventory.FormatMoney(s.cfg.Language, -applied)))
	}
	return applied
}
