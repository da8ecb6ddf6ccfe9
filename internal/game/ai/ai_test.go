package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/game/ai"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"github.com/cory-johannsen/monbattle/internal/scripting"
)

// Move ids from the bundled catalogue.
const (
	tackle      = 33
	quickAttack = 98
	ember       = 52
	waterGun    = 55
	growl       = 45
	recover     = 105
)

func loadMoves(t testing.TB) *move.Registry {
	t.Helper()
	reg, err := move.LoadFS(content.FS, content.MovesDir)
	require.NoError(t, err)
	return reg
}

func loadItems(t testing.TB) *inventory.Registry {
	t.Helper()
	reg, err := inventory.LoadFS(content.FS, content.ItemsDir)
	require.NoError(t, err)
	return reg
}

func mon(t testing.TB, moves *move.Registry, types []creature.Type, ids ...int) *creature.Instance {
	t.Helper()
	sp := &creature.Species{ID: 1, Name: "Testmon", Types: types,
		BaseStats: creature.Stats{HP: 100, Attack: 100, Defense: 100, SpAttack: 100, SpDefense: 100, Speed: 100}, CatchRate: 45}
	in, err := creature.NewInstance(sp, 50, creature.Stats{}, creature.Stats{})
	require.NoError(t, err)
	require.NoError(t, moves.Teach(in, ids))
	return in
}

func view(t testing.TB, self, foe *creature.Instance, bench ...*creature.Instance) battle.View {
	t.Helper()
	party, err := creature.NewParty(append([]*creature.Instance{self}, bench...)...)
	require.NoError(t, err)
	return battle.View{
		Side:        battle.OpponentSide,
		Kind:        battle.Trainer,
		Own:         party,
		Foe:         foe,
		Moves:       loadMoves(t),
		Items:       loadItems(t),
		Permissions: battle.ItemPermissions{HPRestoration: true},
	}
}

func roller(seed uint64) *dice.Roller {
	return dice.NewLoggedRoller(dice.NewSeededSource(seed), nil)
}

func TestBuildState_ListsLegalMovesWithEffectiveness(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Water}, waterGun, tackle)
	foe := mon(t, moves, []creature.Type{creature.Fire}, ember)
	self.Moves[1].PP = 0

	ws := ai.BuildState(view(t, self, foe))
	require.Len(t, ws.Moves, 1)
	assert.Equal(t, 0, ws.Moves[0].Slot)
	assert.Equal(t, 2.0, ws.Moves[0].Effectiveness)
	assert.False(t, ws.CanSwitch)
	assert.Equal(t, []string{"fire"}, ws.Foe.Types)
}

func TestBuildState_TableForScripts(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Water}, waterGun)
	bench := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	foe := mon(t, moves, []creature.Type{creature.Fire}, ember)

	tbl := ai.BuildState(view(t, self, foe, bench)).Table()
	assert.Equal(t, true, tbl["can_switch"])
	party := tbl["party"].([]any)
	require.Len(t, party, 2)
	assert.Equal(t, 1, party[1].(map[string]any)["slot"])
	mv := tbl["moves"].([]any)[0].(map[string]any)
	assert.Equal(t, "water", mv["type"])
	assert.Equal(t, "special", mv["category"])
}

func TestRandomAttack_StrugglesWithoutPP(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	self.Moves[0].PP = 0
	foe := mon(t, moves, []creature.Type{creature.Normal}, tackle)

	a, err := ai.NewRandomAttack(roller(1)).ChooseAction(context.Background(), view(t, self, foe))
	require.NoError(t, err)
	assert.True(t, a.Struggle)
}

func TestWild_NeverPicksImmuneMove(t *testing.T) {
	moves := loadMoves(t)
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		self := mon(t, moves, []creature.Type{creature.Normal}, tackle, ember)
		foe := mon(t, moves, []creature.Type{creature.Ghost}, tackle)
		a, err := ai.NewWild(roller(seed)).ChooseAction(context.Background(), view(t, self, foe))
		require.NoError(rt, err)
		if a.MoveSlot != 1 {
			rt.Fatalf("picked slot %d with zero effectiveness", a.MoveSlot)
		}
	})
}

func TestBasicTrainer_PriorityFinisher(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Normal}, tackle, quickAttack)
	foe := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	foe.Health = foe.MaxHealth() / 10

	a, err := ai.NewBasicTrainer(roller(3), zap.NewNop()).ChooseAction(context.Background(), view(t, self, foe))
	require.NoError(t, err)
	assert.Equal(t, 1, a.MoveSlot)
}

func TestBasicTrainer_StatMoveWeightFades(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Normal}, growl)
	foe := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	p := ai.NewBasicTrainer(roller(5), zap.NewNop())
	v := view(t, self, foe)

	first := p.Weights(ai.BuildState(v))[0]
	assert.InDelta(t, 4.1, first, 1e-9)
	_, err := p.ChooseAction(context.Background(), v)
	require.NoError(t, err)
	second := p.Weights(ai.BuildState(v))[0]
	assert.InDelta(t, 0.9, second, 1e-9)
}

func TestBasicTrainer_HealWeightBelowHalf(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Normal}, tackle, recover)
	foe := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	self.Health = self.MaxHealth() / 4
	p := ai.NewBasicTrainer(roller(5), zap.NewNop())

	w := p.Weights(ai.BuildState(view(t, self, foe)))
	assert.Greater(t, w[1], w[0])
}

func TestGymLeader_HealsUpToBudget(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Rock}, tackle)
	foe := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	p := ai.NewGymLeader(roller(9), zap.NewNop())
	v := view(t, self, foe)

	for i := 0; i < ai.DefaultMaxHeals; i++ {
		self.Health = 1
		a, err := p.ChooseAction(context.Background(), v)
		require.NoError(t, err)
		require.Equal(t, battle.UseItem, a.Kind)
		assert.Equal(t, ai.DefaultHealItem, a.ItemID)
	}
	a, err := p.ChooseAction(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, battle.Fight, a.Kind)
}

func TestGymLeader_NoHealWhenItemsForbidden(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Rock}, tackle)
	foe := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	v := view(t, self, foe)
	v.Permissions = battle.ItemPermissions{}
	self.Health = 1

	a, err := ai.NewGymLeader(roller(9), zap.NewNop()).ChooseAction(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, battle.Fight, a.Kind)
}

func TestPolicies_ReplaceWithFirstHealthy(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	second := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	third := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	self.Health = 0
	second.Health = 0
	v := view(t, self, self, second, third)

	reg := ai.NewRegistry(nil)
	for _, id := range reg.IDs() {
		p, err := reg.New(id, roller(1), nil)
		require.NoError(t, err)
		i, err := p.ChooseReplacement(context.Background(), v)
		require.NoError(t, err)
		assert.Equal(t, 2, i, id)
	}
}

func TestRegistry_UnknownAndLua(t *testing.T) {
	reg := ai.NewRegistry(nil)
	_, err := reg.New("nope", roller(1), nil)
	assert.Error(t, err)
	_, err = reg.New("lua:cautious", roller(1), nil)
	assert.Error(t, err)
	assert.Error(t, reg.Register(ai.PolicyWild, nil))
	assert.Error(t, reg.Register("lua:x", nil))
}

type stubCaller struct {
	ret any
	err error
}

func (s stubCaller) Call(_, _ string, _ ...any) (any, error) { return s.ret, s.err }

func TestScripted_UsesScriptChoice(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Normal}, tackle, growl)
	foe := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	caller := stubCaller{ret: map[string]any{"kind": "fight", "slot": 1.0}}

	a, err := ai.NewScripted(caller, "s", ai.NewRandomAttack(roller(1)), nil).ChooseAction(context.Background(), view(t, self, foe))
	require.NoError(t, err)
	assert.Equal(t, battle.FightAction(1), a)
}

func TestScripted_FallsBackOnIllegalOrError(t *testing.T) {
	moves := loadMoves(t)
	self := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	foe := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	v := view(t, self, foe)

	for name, c := range map[string]stubCaller{
		"empty slot": {ret: map[string]any{"kind": "fight", "slot": 3.0}},
		"bad kind":   {ret: map[string]any{"kind": "dance"}},
		"not table":  {ret: 7.0},
		"error":      {err: errors.New("boom")},
		"nil":        {},
	} {
		a, err := ai.NewScripted(c, "s", ai.NewRandomAttack(roller(1)), nil).ChooseAction(context.Background(), v)
		require.NoError(t, err, name)
		assert.Equal(t, battle.FightAction(0), a, name)
	}
}

func TestScripted_BundledCautiousScript(t *testing.T) {
	moves := loadMoves(t)
	mgr := scripting.NewManager(roller(2), zap.NewNop(), 0)
	mgr.Effectiveness = func(attack string, defenders ...string) float64 {
		a, err := creature.ParseType(attack)
		if err != nil {
			return 1
		}
		var ds []creature.Type
		for _, d := range defenders {
			if dt, err := creature.ParseType(d); err == nil {
				ds = append(ds, dt)
			}
		}
		return creature.Effectiveness(a, ds...)
	}
	require.NoError(t, mgr.LoadFS(content.FS, content.AIScripts))
	reg := ai.NewRegistry(mgr)
	p, err := reg.New("lua:cautious", roller(2), nil)
	require.NoError(t, err)

	self := mon(t, moves, []creature.Type{creature.Water}, tackle, waterGun)
	bench := mon(t, moves, []creature.Type{creature.Normal}, tackle)
	foe := mon(t, moves, []creature.Type{creature.Fire}, ember)
	v := view(t, self, foe, bench)

	a, err := p.ChooseAction(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, battle.FightAction(1), a)

	self.Health = 1
	a, err = p.ChooseAction(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, battle.SwitchAction(1), a)
}
