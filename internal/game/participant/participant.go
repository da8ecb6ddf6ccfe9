// Package participant provides the battle.Participant variants: a human at a
// line console, a policy-driven computer trainer and a remote peer mirrored
// over netplay.
package participant

import (
	"context"

	"github.com/cory-johannsen/monbattle/internal/game/ai"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
)

// Scripted is a computer-controlled participant that asks a policy for every
// choice. It never suspends.
type Scripted struct {
	name   string
	party  *creature.Party
	policy ai.Policy
}

// NewScripted creates a Scripted participant.
//
// Precondition: party and policy must not be nil.
func NewScripted(name string, party *creature.Party, policy ai.Policy) *Scripted {
	if party == nil || policy == nil {
		panic("participant.NewScripted: party and policy must not be nil")
	}
	return &Scripted{name: name, party: party, policy: policy}
}

func (s *Scripted) Name() string           { return s.name }
func (s *Scripted) Party() *creature.Party { return s.party }

// Policy returns the decision policy.
func (s *Scripted) Policy() ai.Policy { return s.policy }

func (s *Scripted) RequestAction(ctx context.Context, v battle.View) (battle.Action, error) {
	return s.policy.ChooseAction(ctx, v)
}

func (s *Scripted) RequestReplacement(ctx context.Context, v battle.View) (int, error) {
	return s.policy.ChooseReplacement(ctx, v)
}
