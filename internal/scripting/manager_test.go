package scripting_test

import (
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(7), logger)
	return scripting.NewManager(roller, logger, 0), logs
}

func TestManager_Load_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("sum", `
		function test_hook(a, b)
			return a + b
		end
	`))
	ret, err := mgr.Call("sum", "test_hook", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 7.0, ret)
}

func TestManager_Call_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("empty", `-- no functions`))
	ret, err := mgr.Call("empty", "nonexistent_hook")
	require.NoError(t, err)
	assert.Nil(t, ret)
}

func TestManager_Call_UnknownScript_LogsInfoReturnsNil(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret, err := mgr.Call("no_such_script", "some_hook")
	require.NoError(t, err)
	assert.Nil(t, ret)
	assert.Equal(t, 1, logs.FilterMessage("scripting: no VM for script").Len())
}

func TestManager_Call_RuntimeError_WarnLogged(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load("bad", `
		function bad_hook()
			error("intentional error")
		end
	`))
	_, err := mgr.Call("bad", "bad_hook")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, scripting.ErrBudgetExhausted)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestManager_Call_InstructionBudgetPerCall(t *testing.T) {
	logger := zap.NewNop()
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), logger)
	mgr := scripting.NewManager(roller, logger, 500)
	require.NoError(t, mgr.Load("loop", `
		function spin() while true do end end
		function short() local x = 0 for i = 1, 10 do x = x + i end return x end
	`))
	_, err := mgr.Call("loop", "spin")
	assert.ErrorIs(t, err, scripting.ErrBudgetExhausted)
	// A fresh budget is installed for the next call.
	ret, err := mgr.Call("loop", "short")
	require.NoError(t, err)
	assert.Equal(t, 55.0, ret)
}

func TestManager_Call_TableRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("tables", `
		function pick(view)
			local best = nil
			for _, m in ipairs(view.moves) do
				if best == nil or m.power > best.power then best = m end
			end
			return {kind = "fight", slot = best.slot, name = view.name}
		end
	`))
	view := map[string]any{
		"name": "Sproutle",
		"moves": []any{
			map[string]any{"slot": 0, "power": 35},
			map[string]any{"slot": 2, "power": 45},
		},
	}
	ret, err := mgr.Call("tables", "pick", view)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"kind": "fight", "slot": 2.0, "name": "Sproutle"}, ret)
}

func TestManager_EngineModule(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Effectiveness = func(attack string, defenders ...string) float64 {
		if attack == "water" && len(defenders) == 1 && defenders[0] == "fire" {
			return 2
		}
		return 1
	}
	require.NoError(t, mgr.Load("mod", `
		function eff() return engine.effectiveness("water", "fire") end
		function roll() engine.log("rolling") return engine.roll(4) end
	`))
	ret, err := mgr.Call("mod", "eff")
	require.NoError(t, err)
	assert.Equal(t, 2.0, ret)

	ret, err = mgr.Call("mod", "roll")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ret.(float64), 0.0)
	assert.Less(t, ret.(float64), 4.0)
}

func TestManager_Load_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.Load("bad", `this is not valid lua @@@@`))
	assert.False(t, mgr.Has("bad"))
}

func TestManager_LoadFS_KeysByFileName(t *testing.T) {
	mgr, _ := newTestManager(t)
	fsys := fstest.MapFS{
		"ai/b.lua":     {Data: []byte(`function get_val() return 2 end`)},
		"ai/a.lua":     {Data: []byte(`function get_val() return 1 end`)},
		"ai/notes.txt": {Data: []byte(`ignored`)},
	}
	require.NoError(t, mgr.LoadFS(fsys, "ai"))
	assert.Equal(t, []string{"a", "b"}, mgr.Names())
	ret, err := mgr.Call("b", "get_val")
	require.NoError(t, err)
	assert.Equal(t, 2.0, ret)
}

func TestManager_LoadFS_BundledScripts(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadFS(content.FS, content.AIScripts))
	assert.True(t, mgr.Has("cautious"))
}

func TestProperty_CallMissingScriptNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		script := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "script")
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		ret, err := mgr.Call(script, hook)
		if err != nil || ret != nil {
			rt.Fatalf("expected (nil, nil), got (%v, %v)", ret, err)
		}
	})
}

func TestManager_CallConcurrentSameScript_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("conc", `
		function concurrent_hook(a, b)
			return a + b
		end
	`))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.Call("conc", "concurrent_hook", 1, 2)
				assert.NoError(t, err)
				assert.Equal(t, 3.0, ret)
			}
		}()
	}
	wg.Wait()
}

func TestNewManager_PanicsOnNilRoller(t *testing.T) {
	assert.Panics(t, func() {
		scripting.NewManager(nil, zap.NewNop(), 0)
	})
}

func TestNewManager_PanicsOnNilLogger(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), zap.NewNop())
	assert.Panics(t, func() {
		scripting.NewManager(roller, nil, 0)
	})
}

func TestManager_Close_ReleasesScripts(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("closing", `function get_x() return 1 end`))
	mgr.Close()
	ret, err := mgr.Call("closing", "get_x")
	assert.NoError(t, err)
	assert.Nil(t, ret)
}
