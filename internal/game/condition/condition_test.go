package condition_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const statusYAML = `
- id: burn
  name: Burn
  abbreviation: BRN
  inflict_message: "{name} was burned!"
  damage_message: "{name} is hurt by its burn!"
  damage_fraction: 0.125
  catch_bonus: 1.5
  immune_types: [fire]
- id: asleep
  name: Sleep
  abbreviation: SLP
  blocked_message: "{name} is fast asleep."
  block_chance: 1
  catch_bonus: 2
`

func writeStatusDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "statuses.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadDirectory(t *testing.T) {
	reg, err := condition.LoadDirectory(writeStatusDir(t, statusYAML))
	require.NoError(t, err)

	burn, ok := reg.Get(condition.Burn)
	require.True(t, ok)
	assert.Equal(t, "BRN", burn.Abbreviation)
	assert.InDelta(t, 0.125, burn.DamageFraction, 1e-9)
	assert.True(t, burn.ImmuneType("Fire"))
	assert.False(t, burn.ImmuneType("water"))
	assert.Equal(t, "Pikachu was burned!", condition.Message(burn.InflictMessage, "Pikachu"))

	sleep, ok := reg.Get(condition.Asleep)
	require.True(t, ok)
	assert.Equal(t, 1.0, sleep.BlockChance)
}

func TestLoadDirectory_UnknownFieldRejected(t *testing.T) {
	_, err := condition.LoadDirectory(writeStatusDir(t, "- id: burn\n  colour: red\n"))
	assert.Error(t, err)
}

func TestLoadDirectory_InvalidDefinitionRejected(t *testing.T) {
	_, err := condition.LoadDirectory(writeStatusDir(t, "- id: burn\n  damage_fraction: 2\n"))
	assert.ErrorContains(t, err, "damage_fraction")
}

func TestRegistry_MustGetFallsBack(t *testing.T) {
	def := condition.NewRegistry().MustGet(condition.Frozen)
	assert.Equal(t, "frozen", def.ID)
	assert.Zero(t, def.DamageFraction)
}

func TestParseNonVolatile(t *testing.T) {
	s, err := condition.ParseNonVolatile("badly_poisoned")
	require.NoError(t, err)
	assert.Equal(t, condition.BadlyPoisoned, s)
	assert.True(t, s.IsPoison())

	_, err = condition.ParseNonVolatile("dizzy")
	assert.Error(t, err)
}

func TestVolatile_ApplyDoesNotRefreshTimer(t *testing.T) {
	var v condition.Volatile
	require.True(t, v.Apply(condition.Taunt, 3))
	assert.False(t, v.Apply(condition.Taunt, 5))
	assert.Equal(t, 3, v.Taunt)
}

func TestVolatile_StockpileCaps(t *testing.T) {
	var v condition.Volatile
	for i := 0; i < condition.MaxStockpile; i++ {
		require.True(t, v.Apply(condition.Stockpile, 0))
	}
	assert.False(t, v.Apply(condition.Stockpile, 0))
	assert.Equal(t, condition.MaxStockpile, v.Stockpile)
}

func TestVolatile_EncoreLocksLastMove(t *testing.T) {
	v := condition.Volatile{LastMove: 33}
	require.True(t, v.Apply(condition.Encore, 2))
	assert.Equal(t, 33, v.EncoreMove)

	assert.Empty(t, v.Tick())
	assert.Equal(t, []condition.Kind{condition.Encore}, v.Tick())
	assert.Zero(t, v.EncoreMove)
}

func TestVolatile_ClearTurnFlags(t *testing.T) {
	v := condition.Volatile{Flinched: true, Protected: true, Bracing: true, TookDamage: true, DamageTakenAmount: 7, Confusion: 2}
	v.ClearTurnFlags()
	assert.False(t, v.Flinched)
	assert.False(t, v.Protected)
	assert.False(t, v.Bracing)
	assert.False(t, v.TookDamage)
	assert.Zero(t, v.DamageTakenAmount)
	assert.Equal(t, 2, v.Confusion, "confusion survives the end of turn")
}

func TestProperty_Volatile_ApplyThenRemove(t *testing.T) {
	kinds := condition.Kinds()
	rapid.Check(t, func(rt *rapid.T) {
		k := kinds[rapid.IntRange(0, len(kinds)-1).Draw(rt, "kind")]
		turns := rapid.IntRange(0, 8).Draw(rt, "turns")
		var v condition.Volatile
		if k == condition.Stockpile {
			v.Stockpile = condition.MaxStockpile - 1
		}
		if !v.Apply(k, turns) {
			rt.Fatalf("Apply(%s) on fresh bundle must succeed", k)
		}
		if !v.Has(k) {
			rt.Fatalf("Has(%s) false after Apply", k)
		}
		v.Remove(k)
		if v.Has(k) {
			rt.Fatalf("Has(%s) true after Remove", k)
		}
	})
}

func TestProperty_Volatile_ResetIsZero(t *testing.T) {
	kinds := condition.Kinds()
	rapid.Check(t, func(rt *rapid.T) {
		var v condition.Volatile
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		for i := 0; i < n; i++ {
			v.Apply(kinds[rapid.IntRange(0, len(kinds)-1).Draw(rt, "kind")], 3)
		}
		v.Reset()
		if v != (condition.Volatile{}) {
			rt.Fatalf("Reset left state behind: %+v", v)
		}
	})
}
