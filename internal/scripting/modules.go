package scripting

import (
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua table into L:
//
//	engine.roll(n)                  uniform int in [0, n) from the battle dice
//	engine.log(msg)                 debug log line
//	engine.effectiveness(a, d...)   type effectiveness multiplier
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"roll":          m.luaRoll,
		"log":           m.luaLog,
		"effectiveness": m.luaEffectiveness,
	})
	L.SetGlobal("engine", engine)
}

func (m *Manager) luaRoll(L *lua.LState) int {
	n := L.CheckInt(1)
	if n <= 0 {
		L.ArgError(1, "bound must be > 0")
		return 0
	}
	L.Push(lua.LNumber(m.roller.Roll("lua roll", n)))
	return 1
}

func (m *Manager) luaLog(L *lua.LState) int {
	m.logger.Debug("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

func (m *Manager) luaEffectiveness(L *lua.LState) int {
	attack := L.CheckString(1)
	var defenders []string
	for i := 2; i <= L.GetTop(); i++ {
		defenders = append(defenders, L.CheckString(i))
	}
	eff := 1.0
	if m.Effectiveness != nil {
		eff = m.Effectiveness(attack, defenders...)
	}
	L.Push(lua.LNumber(eff))
	return 1
}

// ToLua converts a Go value into a Lua value owned by L. Maps with string
// keys become tables, slices become 1-based arrays, numbers become
// LNumber. Unsupported values become nil.
func ToLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []any:
		t := L.NewTable()
		for _, e := range x {
			t.Append(ToLua(L, e))
		}
		return t
	case []string:
		t := L.NewTable()
		for _, e := range x {
			t.Append(lua.LString(e))
		}
		return t
	case []map[string]any:
		t := L.NewTable()
		for _, e := range x {
			t.Append(ToLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, ToLua(L, x[k]))
		}
		return t
	}
	return lua.LNil
}

// ToGo converts a Lua value into plain Go: numbers become float64, tables
// with a non-empty array part become []any, other tables become
// map[string]any keyed by their string keys.
func ToGo(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		if n := x.Len(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, ToGo(x.RawGetInt(i)))
			}
			return out
		}
		out := map[string]any{}
		x.ForEach(func(k, val lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				out[string(ks)] = ToGo(val)
			}
		})
		return out
	}
	return nil
}
