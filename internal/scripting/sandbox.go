// Package scripting provides a sandboxed GopherLua execution environment
// for battle policy scripts. It has no dependency on game domain packages;
// game queries are injected via Manager callback fields and values cross
// the boundary as plain Go maps, slices and scalars.
package scripting

import (
	"context"
	"errors"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one hook call when none
// is configured.
const DefaultInstructionLimit = 100_000

// ErrBudgetExhausted marks a hook call stopped for running too many opcodes.
var ErrBudgetExhausted = errors.New("scripting: instruction budget exhausted")

// safeLibs are the only standard libraries a policy script sees.
var safeLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// strippedGlobals are base library entries that reach outside the sandbox or
// the budget.
var strippedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "module"}

// Budget caps the opcodes a state may execute. GopherLua consults the
// state's context once per opcode, so Done doubles as the counter.
type Budget struct {
	context.Context
	cancel    context.CancelFunc
	left      atomic.Int64
	exhausted atomic.Bool
}

// Done spends one opcode.
func (b *Budget) Done() <-chan struct{} {
	if b.left.Add(-1) < 0 && !b.exhausted.Swap(true) {
		b.cancel()
	}
	return b.Context.Done()
}

// Exhausted reports whether the script ran out of opcodes.
func (b *Budget) Exhausted() bool {
	return b.exhausted.Load()
}

// Release frees the budget's context.
func (b *Budget) Release() {
	b.cancel()
}

// Wrap tags err with ErrBudgetExhausted when the budget ran out.
func (b *Budget) Wrap(err error) error {
	if err == nil || !b.Exhausted() {
		return err
	}
	return errors.Join(ErrBudgetExhausted, err)
}

// NewSandboxedState returns an LState with only the base, table, string
// and math libraries, no file or module loading, and a budget of instLimit
// opcodes that stays in force until the next Limit call.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller owns the LState and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	Limit(L, instLimit)
	return L
}

// Limit replaces L's opcode budget with a fresh one of instLimit opcodes.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
func Limit(L *lua.LState, instLimit int) *Budget {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Budget{Context: ctx, cancel: cancel}
	b.left.Store(int64(instLimit))
	L.SetContext(b)
	return b
}
