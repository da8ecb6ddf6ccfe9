package inventory

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds every item definition indexed by id.
type Registry struct {
	items map[int]*Item
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[int]*Item)}
}

// Register validates and adds it.
//
// Precondition: it must not be nil.
// Postcondition: Item(it.ID) returns (it, true); returns error if it.ID already registered.
func (r *Registry) Register(it *Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	if _, exists := r.items[it.ID]; exists {
		return fmt.Errorf("inventory: item %d already registered", it.ID)
	}
	r.items[it.ID] = it
	return nil
}

// Item returns the definition for id and whether it was found.
func (r *Registry) Item(id int) (*Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// ByName returns the item whose name matches case-insensitively.
func (r *Registry) ByName(name string) (*Item, bool) {
	for _, it := range r.items {
		if strings.EqualFold(it.Name, name) {
			return it, true
		}
	}
	return nil, false
}

// All returns every item ordered by id.
func (r *Registry) All() []*Item {
	out := make([]*Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadFS reads every *.yaml file under dir in fsys. Each file holds a list of items.
//
// Postcondition: returns a populated Registry or the first encountered error.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading item dir %q: %w", dir, err)
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
		var items []*Item
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		for _, it := range items {
			if err := reg.Register(it); err != nil {
				return nil, fmt.Errorf("%q: %w", p, err)
			}
		}
	}
	return reg, nil
}

// LoadDirectory reads item definitions from a directory on disk.
func LoadDirectory(dir string) (*Registry, error) {
	return LoadFS(os.DirFS(dir), ".")
}
