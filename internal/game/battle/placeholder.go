package battle

import (
	"context"

	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/move"
)

// PlaceholderLevel is the level of a generated stand-in opponent.
const PlaceholderLevel = 1

// tackleID is the fallback move taught to a placeholder whose species lists none.
const tackleID = 33

// placeholderSpecies stands in when no species catalogue is loaded.
var placeholderSpecies = &creature.Species{
	ID:             1,
	Name:           "Missing",
	Types:          []creature.Type{creature.Normal},
	BaseStats:      creature.Stats{HP: 33, Attack: 136, Defense: 0, SpAttack: 6, SpDefense: 6, Speed: 29},
	CatchRate:      3,
	BaseExperience: 1,
	FemaleRatio:    -1,
}

// placeholder is the wild opponent synthesized when a battle starts without
// an opposing roster. It picks a random usable move each turn.
type placeholder struct {
	party *creature.Party
	roll  *dice.Roller
}

func newPlaceholder(species *creature.SpeciesRegistry, moves *move.Registry, roll *dice.Roller) (*placeholder, error) {
	sp := placeholderSpecies
	if species != nil {
		if found, ok := species.Get(1); ok {
			sp = found
		} else if all := species.All(); len(all) > 0 {
			sp = all[0]
		}
	}
	in, err := creature.NewInstance(sp, PlaceholderLevel, creature.Stats{}, creature.Stats{})
	if err != nil {
		return nil, err
	}
	if moves != nil {
		if err := moves.Teach(in, sp.Moves); err != nil || in.KnownMoves() == 0 {
			_ = moves.Teach(in, []int{tackleID})
		}
	}
	p, err := creature.NewParty(in)
	if err != nil {
		return nil, err
	}
	return &placeholder{party: p, roll: roll}, nil
}

func (p *placeholder) Name() string { return "wild" }

func (p *placeholder) Party() *creature.Party { return p.party }

func (p *placeholder) RequestAction(_ context.Context, v View) (Action, error) {
	usable := v.Active().UsableMoves()
	if len(usable) == 0 {
		return StruggleAction(), nil
	}
	return FightAction(usable[p.roll.Roll("placeholder move", len(usable))]), nil
}

func (p *placeholder) RequestReplacement(_ context.Context, v View) (int, error) {
	i, _ := v.Own.FirstHealthy()
	return i, nil
}
