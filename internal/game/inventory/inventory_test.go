package inventory_test

import (
	"testing"
	"testing/fstest"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"pgregory.net/rapid"
)

func loadCatalog(t *testing.T) *inventory.Registry {
	t.Helper()
	reg, err := inventory.LoadFS(content.FS, content.ItemsDir)
	require.NoError(t, err)
	return reg
}

func newMon(t *testing.T) *creature.Instance {
	t.Helper()
	sp := &creature.Species{ID: 1, Name: "Testmon", Types: []creature.Type{creature.Normal},
		BaseStats: creature.Stats{HP: 100, Attack: 50, Defense: 50, SpAttack: 50, SpDefense: 50, Speed: 50}, CatchRate: 45}
	m, err := creature.NewInstance(sp, 50, creature.Stats{}, creature.Stats{})
	require.NoError(t, err)
	m.SetMove(0, 33, 35)
	return m
}

func TestLoadFS_DefaultCatalog(t *testing.T) {
	reg := loadCatalog(t)
	potion, ok := reg.ByName("potion")
	require.True(t, ok)
	assert.Equal(t, inventory.HPRestore, potion.Category)
	ball, ok := reg.Item(1)
	require.True(t, ok)
	require.NotNil(t, ball.Ball)
}

func TestLoadFS_RejectsInvalidItem(t *testing.T) {
	fsys := fstest.MapFS{"items/bad.yaml": {Data: []byte("- {id: 1, name: Empty Ball, category: ball}\n")}}
	_, err := inventory.LoadFS(fsys, "items")
	assert.Error(t, err)
}

func TestItem_PotionHeals(t *testing.T) {
	reg := loadCatalog(t)
	potion, _ := reg.Item(20)
	m := newMon(t)
	assert.False(t, potion.CanUse(m, -1))
	m.Health -= 30
	require.True(t, potion.CanUse(m, -1))
	e := potion.Use(m, -1)
	assert.Equal(t, 20, e.Healed)
	assert.Equal(t, m.MaxHealth()-10, m.Health)
}

func TestItem_ReviveOnlyOnFainted(t *testing.T) {
	reg := loadCatalog(t)
	revive, _ := reg.Item(30)
	m := newMon(t)
	assert.False(t, revive.CanUse(m, -1))
	m.Health = 0
	require.True(t, revive.CanUse(m, -1))
	e := revive.Use(m, -1)
	assert.True(t, e.Revived)
	assert.Equal(t, m.MaxHealth()/2, m.Health)
}

func TestItem_AntidoteCuresBadPoison(t *testing.T) {
	reg := loadCatalog(t)
	antidote, _ := reg.Item(40)
	m := newMon(t)
	m.SetStatus(condition.BadlyPoisoned, 0)
	require.True(t, antidote.CanUse(m, -1))
	e := antidote.Use(m, -1)
	assert.Equal(t, condition.BadlyPoisoned, e.Cured)
	assert.Equal(t, condition.None, m.Status)
}

func TestItem_EtherNeedsSpentMove(t *testing.T) {
	reg := loadCatalog(t)
	ether, _ := reg.Item(50)
	m := newMon(t)
	assert.False(t, ether.CanUse(m, 0))
	m.Moves[0].PP = 30
	assert.False(t, ether.CanUse(m, 1))
	require.True(t, ether.CanUse(m, 0))
	assert.Equal(t, 5, ether.Use(m, 0).PPRestored)
}

func TestItem_XAttackStopsAtCap(t *testing.T) {
	reg := loadCatalog(t)
	x, _ := reg.Item(60)
	m := newMon(t)
	m.Battle.Stages.Set(creature.Attack, 6)
	assert.False(t, x.CanUse(m, -1))
	m.Battle.Stages.Set(creature.Attack, 2)
	e := x.Use(m, -1)
	require.NotNil(t, e.Stage)
	assert.Equal(t, 1, e.Stage.Delta)
}

func TestBag_RemoveItem(t *testing.T) {
	bag := inventory.NewBag(loadCatalog(t), 0, 0)
	require.NoError(t, bag.Add(20, 2))
	assert.Error(t, bag.Add(9999, 1))
	require.NoError(t, bag.RemoveItem(20, 1))
	assert.Equal(t, 1, bag.Quantity(20))
	assert.ErrorIs(t, bag.RemoveItem(20, 2), inventory.ErrNotEnough)
	require.NoError(t, bag.RemoveItem(20, 1))
	assert.Empty(t, bag.Stacks())
}

func TestProperty_BagMoneyStaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxMoney := rapid.IntRange(1, 1_000_000).Draw(rt, "max")
		bag := inventory.NewBag(inventory.NewRegistry(), rapid.IntRange(-100, 2_000_000).Draw(rt, "start"), maxMoney)
		for _, d := range rapid.SliceOf(rapid.IntRange(-500_000, 500_000)).Draw(rt, "deltas") {
			before := bag.Money()
			applied := bag.AddMoney(d)
			if bag.Money() < 0 || bag.Money() > maxMoney {
				rt.Fatalf("money %d outside [0,%d]", bag.Money(), maxMoney)
			}
			if bag.Money() != before+applied {
				rt.Fatalf("applied %d does not match change %d", applied, bag.Money()-before)
			}
		}
	})
}

func TestBag_CaughtCreatures(t *testing.T) {
	bag := inventory.NewBag(inventory.NewRegistry(), 0, 0)
	m := newMon(t)
	require.NoError(t, bag.AddCaughtCreature(m))
	assert.Error(t, bag.AddCaughtCreature(nil))
	assert.True(t, bag.HasCaughtSpecies(1))
	assert.False(t, bag.HasCaughtSpecies(2))
	assert.Len(t, bag.Caught(), 1)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "₽12,400", inventory.FormatMoney(language.English, 12400))
	assert.Equal(t, "₽0", inventory.FormatMoney(language.English, 0))
}
