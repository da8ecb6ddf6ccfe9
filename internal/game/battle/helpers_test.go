package battle_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/catalog"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
)

// Move ids from the bundled content.
const (
	pound       = 1
	headbutt    = 29
	quickAttack = 98
	harden      = 106
	rainDance   = 240
	pokeBall    = 1
)

// maxSrc always rolls the top of the range: accuracy 100 moves hit, chances
// never fire, damage spread is maximal and random speed ties go to the
// trailing side.
type maxSrc struct{}

func (maxSrc) Intn(n int) int { return n - 1 }

// zeroSrc always rolls 0: every chance fires and every escape and shake
// succeeds.
type zeroSrc struct{}

func (zeroSrc) Intn(int) int { return 0 }

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(content.FS, nil)
	require.NoError(t, err)
	return cat
}

func species(id int, name string, speed int) *creature.Species {
	return &creature.Species{
		ID:             id,
		Name:           name,
		Types:          []creature.Type{creature.Normal},
		BaseStats:      creature.Stats{HP: 80, Attack: 80, Defense: 80, SpAttack: 80, SpDefense: 80, Speed: speed},
		CatchRate:      45,
		BaseExperience: 64,
		FemaleRatio:    -1,
	}
}

func mon(t *testing.T, cat *catalog.Catalog, sp *creature.Species, level int, moves ...int) *creature.Instance {
	t.Helper()
	in, err := creature.NewInstance(sp, level, creature.Stats{}, creature.Stats{})
	require.NoError(t, err)
	require.NoError(t, cat.Moves.Teach(in, moves))
	return in
}

func party(t *testing.T, members ...*creature.Instance) *creature.Party {
	t.Helper()
	p, err := creature.NewParty(members...)
	require.NoError(t, err)
	return p
}

// stub answers with choose, or the first usable move when choose is nil,
// and replaces with pick, or the first healthy slot.
type stub struct {
	name   string
	party  *creature.Party
	choose func(v battle.View) battle.Action
	pick   func(v battle.View) int
	err    error
	views  []battle.View
}

func (s *stub) Name() string { return s.name }

func (s *stub) Party() *creature.Party { return s.party }

func (s *stub) RequestAction(ctx context.Context, v battle.View) (battle.Action, error) {
	if s.err != nil {
		return battle.Action{}, s.err
	}
	if err := ctx.Err(); err != nil {
		return battle.Action{}, err
	}
	s.views = append(s.views, v)
	if s.choose != nil {
		return s.choose(v), nil
	}
	return firstUsable(v), nil
}

func (s *stub) RequestReplacement(_ context.Context, v battle.View) (int, error) {
	if s.pick != nil {
		return s.pick(v), nil
	}
	i, ok := v.Own.FirstHealthy()
	if !ok {
		return 0, errors.New("no healthy slot")
	}
	return i, nil
}

func firstUsable(v battle.View) battle.Action {
	usable := v.Active().UsableMoves()
	if len(usable) == 0 {
		return battle.StruggleAction()
	}
	return battle.FightAction(usable[0])
}

func always(a battle.Action) func(battle.View) battle.Action {
	return func(battle.View) battle.Action { return a }
}

// newSession builds a session with the catalog wired in. Unset deps default
// to the catalog, a Recorder and maxSrc.
func newSession(t *testing.T, cat *catalog.Catalog, cfg battle.Config, deps battle.Deps, player, opponent battle.Participant) (*battle.Session, *battle.Recorder) {
	t.Helper()
	rec := &battle.Recorder{}
	if deps.Engine == nil {
		deps.Engine = cat.Engine
	}
	if deps.Weather == nil {
		deps.Weather = cat.Weather
	}
	if deps.Items == nil {
		deps.Items = cat.Items
	}
	if deps.Species == nil {
		deps.Species = cat.Species
	}
	if deps.Presenter == nil {
		deps.Presenter = rec
	}
	if deps.Source == nil {
		deps.Source = maxSrc{}
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	s, err := battle.NewSession(cfg, deps, player, opponent)
	require.NoError(t, err)
	return s, rec
}

func play(t *testing.T, cat *catalog.Catalog, cfg battle.Config, deps battle.Deps, player, opponent battle.Participant) (*battle.Result, *battle.Recorder, error) {
	t.Helper()
	s, rec := newSession(t, cat, cfg, deps, player, opponent)
	res, err := s.Run(context.Background())
	return res, rec, err
}

// index returns the position of the first line containing sub, or -1.
func index(lines []string, sub string) int {
	return slices.IndexFunc(lines, func(l string) bool { return strings.Contains(l, sub) })
}

func codes(res *battle.Result) []string {
	var out []string
	for _, d := range res.Diagnostics {
		out = append(out, d.Code)
	}
	return out
}
