package move

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"gopkg.in/yaml.v3"
)

// ErrUnknownMove is returned when a move id has no definition.
var ErrUnknownMove = errors.New("move: unknown move")

// Registry holds every move definition keyed by id together with the strategy
// hooks bound to it.
type Registry struct {
	byID        map[int]*Definition
	hooks       map[int]*Hooks
	diagnostics []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[int]*Definition), hooks: make(map[int]*Hooks)}
}

// Register validates def and binds its strategy. An unknown strategy name is
// not fatal: the move falls back to plain data behaviour and a diagnostic is
// recorded.
//
// Postcondition: Get(def.ID) returns def when the returned error is nil.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if def.ID == StruggleID {
		return fmt.Errorf("move %d is reserved for struggle", StruggleID)
	}
	if _, dup := r.byID[def.ID]; dup {
		return fmt.Errorf("move %d registered twice", def.ID)
	}
	r.byID[def.ID] = def
	if def.Strategy != "" {
		h, ok := LookupStrategy(def.Strategy)
		if !ok {
			r.diagnostics = append(r.diagnostics, fmt.Sprintf("move %d %q: unknown strategy %q, using data only", def.ID, def.Name, def.Strategy))
			return nil
		}
		r.hooks[def.ID] = h
	}
	return nil
}

// Get returns the definition for id. Struggle is always present.
func (r *Registry) Get(id int) (*Definition, bool) {
	if id == StruggleID {
		return Struggle, true
	}
	d, ok := r.byID[id]
	return d, ok
}

// Lookup returns the definition for id or an error wrapping ErrUnknownMove.
func (r *Registry) Lookup(id int) (*Definition, error) {
	if d, ok := r.Get(id); ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMove, id)
}

// HooksFor returns the strategy bound to def, or an empty Hooks.
func (r *Registry) HooksFor(def *Definition) *Hooks {
	if h, ok := r.hooks[def.ID]; ok {
		return h
	}
	return &Hooks{}
}

// All returns every definition ordered by id.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered moves.
func (r *Registry) Len() int { return len(r.byID) }

// Diagnostics returns the non-fatal problems recorded while registering.
func (r *Registry) Diagnostics() []string {
	return append([]string(nil), r.diagnostics...)
}

// LoadFS reads every *.yaml file under dir in fsys. Each file holds a list of
// move definitions.
//
// Postcondition: Returns a non-nil Registry, or an error naming the first bad file.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading move dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		var defs []*Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&defs); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		for _, d := range defs {
			if err := reg.Register(d); err != nil {
				return nil, fmt.Errorf("%q: %w", p, err)
			}
		}
	}
	return reg, nil
}

// LoadDirectory reads move definitions from a directory on disk.
func LoadDirectory(dir string) (*Registry, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// Teach fills in's move slots with ids in order at full PP, clearing the
// remaining slots.
//
// Precondition: len(ids) <= creature.MaxMoves.
// Postcondition: on error in's moves are unchanged.
func (r *Registry) Teach(in *creature.Instance, ids []int) error {
	if len(ids) > creature.MaxMoves {
		return fmt.Errorf("move: at most %d moves, got %d", creature.MaxMoves, len(ids))
	}
	var slots [creature.MaxMoves]creature.MoveSlot
	for i, id := range ids {
		def, err := r.Lookup(id)
		if err != nil {
			return err
		}
		slots[i] = creature.MoveSlot{ID: id, PP: def.MaxPP, MaxPP: def.MaxPP}
	}
	in.Moves = slots
	return nil
}
