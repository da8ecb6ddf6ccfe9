package scripting

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/internal/game/dice"
)

// vm is one script's interpreter. Its LState is single-threaded.
type vm struct {
	mu sync.Mutex
	L  *lua.LState
}

// Manager owns one sandboxed LState per loaded script and exposes hook
// dispatch. Scripts are keyed by file name without the .lua extension.
//
// Manager is safe for concurrent Call after loading completes. Calls into the
// same script are serialized; different scripts run concurrently.
type Manager struct {
	mu        sync.RWMutex
	vms       map[string]*vm
	roller    *dice.Roller
	logger    *zap.Logger
	instLimit int

	// Effectiveness answers engine.effectiveness(attack, defender...). nil
	// answers 1 for every query.
	Effectiveness func(attack string, defenders ...string) float64
}

// NewManager creates a Manager whose hook calls are limited to instLimit
// opcodes each.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:       make(map[string]*vm),
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
}

// LoadFS loads every *.lua file under dir in fsys into its own VM, in
// lexicographic order. A script reloaded under an existing name replaces it.
//
// Postcondition: returns an error naming the first script that fails to load;
// scripts loaded before it stay registered.
func (m *Manager) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		p := path.Join(dir, name)
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("scripting: reading %q: %w", p, err)
		}
		if err := m.Load(strings.TrimSuffix(name, ".lua"), string(src)); err != nil {
			return err
		}
	}
	return nil
}

// Load compiles src into a fresh VM registered under name.
//
// Precondition: name must be non-empty.
// Postcondition: on success name is registered and its top-level chunk has run.
func (m *Manager) Load(name, src string) error {
	L := NewSandboxedState(m.instLimit)
	m.RegisterModules(L)
	if err := L.DoString(src); err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}

	m.mu.Lock()
	if old, ok := m.vms[name]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.vms[name] = &vm{L: L}
	m.mu.Unlock()
	m.logger.Debug("scripting: loaded script", zap.String("script", name))
	return nil
}

// Has reports whether a script named name is loaded.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[name]
	return ok
}

// Names returns the loaded script names in order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vms))
	for n := range m.vms {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Call invokes the Lua global hook in script with args converted by ToLua,
// and returns its first result converted by ToGo. A missing script or hook
// yields (nil, nil). Lua runtime errors, including an exhausted instruction
// budget, are logged at Warn level and returned.
//
// Postcondition: the script's VM is unlocked when Call returns.
func (m *Manager) Call(script, hook string, args ...any) (any, error) {
	m.mu.RLock()
	v, ok := m.vms[script]
	m.mu.RUnlock()
	if !ok {
		m.logger.Info("scripting: no VM for script",
			zap.String("script", script),
			zap.String("hook", hook),
		)
		return nil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return nil, nil
	}
	budget := Limit(v.L, m.instLimit)
	defer budget.Release()

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = ToLua(v.L, a)
	}
	if err := budget.Wrap(v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, largs...)); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", script),
			zap.String("hook", hook),
			zap.Bool("budget_exhausted", budget.Exhausted()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("scripting: %s.%s: %w", script, hook, err)
	}
	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ToGo(ret), nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, v := range m.vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.vms, name)
	}
}
