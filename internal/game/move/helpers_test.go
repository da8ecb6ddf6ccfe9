package move_test

import (
	"testing"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seqSrc replays vals in order, each reduced modulo n. Once exhausted it
// returns n-1, which fails every chance roll and misses every accuracy check
// below 100.
type seqSrc struct {
	vals []int
	i    int
}

func (s *seqSrc) Intn(n int) int {
	if s.i >= len(s.vals) {
		return n - 1
	}
	v := s.vals[s.i]
	s.i++
	return v % n
}

func seq(vals ...int) *dice.Roller {
	return dice.NewLoggedRoller(&seqSrc{vals: vals}, nil)
}

// Draw values for readability.
const (
	hit      = 0       // accuracy roll of 0 hits anything with accuracy > 0
	noCrit   = 999_999 // chance roll that fails every probability below 1
	yes      = 0       // chance roll that passes every positive probability
	topRoll  = 15      // damage spread 85+15 = 100
	lowRoll  = 0       // damage spread 85
	missRoll = 99
)

func testSpecies(types ...creature.Type) *creature.Species {
	return &creature.Species{
		ID:        1,
		Name:      "Testmon",
		Types:     types,
		BaseStats: creature.Stats{HP: 100, Attack: 100, Defense: 100, SpAttack: 100, SpDefense: 100, Speed: 100},
		CatchRate: 45,
		Weight:    30,
	}
}

func newMon(t *testing.T, level int, types ...creature.Type) *creature.Instance {
	t.Helper()
	if len(types) == 0 {
		types = []creature.Type{creature.Fighting}
	}
	m, err := creature.NewInstance(testSpecies(types...), level, creature.Stats{}, creature.Stats{})
	require.NoError(t, err)
	return m
}

func loadStatuses(t *testing.T) *condition.Registry {
	t.Helper()
	reg, err := condition.LoadFS(content.FS, content.StatusesDir)
	require.NoError(t, err)
	return reg
}

func loadMoves(t *testing.T) *move.Registry {
	t.Helper()
	reg, err := move.LoadFS(content.FS, content.MovesDir)
	require.NoError(t, err)
	return reg
}

func newEngine(t *testing.T, logger *zap.Logger) *move.Engine {
	t.Helper()
	return move.NewEngine(loadMoves(t), loadStatuses(t), logger)
}

func mustMove(t *testing.T, e *move.Engine, id int) *move.Definition {
	t.Helper()
	d, err := e.Moves().Lookup(id)
	require.NoError(t, err)
	return d
}
