package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monbattle/internal/scripting"
)

func TestNewSandboxedState_Globals(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()

	for _, name := range []string{"os", "io", "debug", "package", "coroutine", "dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "module"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), name)
	}
	for _, name := range []string{"math", "string", "table", "pairs", "ipairs", "tostring"} {
		assert.NotEqual(t, lua.LNil, L.GetGlobal(name), name)
	}
}

func TestNewSandboxedState_PolicyArithmetic(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	require.NoError(t, L.DoString(`
		local moves = {{name = "Tackle", power = 40}, {name = "Ember", power = 40 * 1.5}}
		table.sort(moves, function(a, b) return a.power > b.power end)
		best = string.upper(moves[1].name) .. ":" .. math.floor(moves[1].power)
	`))
	assert.Equal(t, "EMBER:60", L.GetGlobal("best").String())
}

func TestLimit_Exhaustion(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()

	b := scripting.Limit(L, 10)
	err := b.Wrap(L.DoString(`while true do end`))
	assert.True(t, b.Exhausted())
	assert.ErrorIs(t, err, scripting.ErrBudgetExhausted)
	b.Release()

	b = scripting.Limit(L, 0)
	defer b.Release()
	assert.NoError(t, b.Wrap(L.DoString(`for i = 1, 100 do end`)))
	assert.False(t, b.Exhausted())
}

func TestBudget_WrapLeavesOtherErrors(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	b := scripting.Limit(L, 0)
	defer b.Release()

	err := b.Wrap(L.DoString(`error("no moves left")`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, scripting.ErrBudgetExhausted)
	assert.Contains(t, err.Error(), "no moves left")
}

// Property: any finite budget stops an endless loop and says so.
func TestProperty_BudgetStopsEndlessLoops(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 200).Draw(rt, "limit")
		L := scripting.NewSandboxedState(limit)
		defer L.Close()
		if err := L.DoString(`while true do end`); err == nil {
			rt.Fatalf("limit %d: endless loop returned", limit)
		}
	})
}
