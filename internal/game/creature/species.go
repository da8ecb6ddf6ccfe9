package creature

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

// Evolution describes a level-triggered evolution.
type Evolution struct {
	Species int `yaml:"species"`
	Level   int `yaml:"level"`
}

// Species is the static definition of a creature species, loaded from YAML.
type Species struct {
	ID             int        `yaml:"id"`
	Name           string     `yaml:"name"`
	Types          []Type     `yaml:"types"`
	BaseStats      Stats      `yaml:"base_stats"`
	CatchRate      int        `yaml:"catch_rate"`
	Weight         float64    `yaml:"weight"` // kilograms
	BaseExperience int        `yaml:"base_experience"`
	EffortYield    Stats      `yaml:"effort_yield"`
	Growth         string     `yaml:"growth"` // experience curve id; empty means medium_fast
	FemaleRatio    float64    `yaml:"female_ratio"` // negative for genderless species
	Evolution      *Evolution `yaml:"evolution"`
	Moves          []int      `yaml:"moves"` // default moveset, at most MaxMoves
}

// Validate reports authoring errors in the species definition.
func (s *Species) Validate() error {
	var errs []string
	if s.ID <= 0 {
		errs = append(errs, "id must be > 0")
	}
	if s.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if len(s.Types) == 0 || len(s.Types) > 2 {
		errs = append(errs, "types must list one or two types")
	}
	if s.BaseStats.HP <= 0 {
		errs = append(errs, "base_stats.hp must be > 0")
	}
	if s.CatchRate < 1 || s.CatchRate > 255 {
		errs = append(errs, "catch_rate must be in [1,255]")
	}
	if len(s.Moves) > MaxMoves {
		errs = append(errs, fmt.Sprintf("moves may list at most %d ids", MaxMoves))
	}
	if s.Evolution != nil && (s.Evolution.Species <= 0 || s.Evolution.Level < MinLevel || s.Evolution.Level > MaxLevel) {
		errs = append(errs, "evolution requires a species id and a level in [1,100]")
	}
	if len(errs) > 0 {
		return fmt.Errorf("species %d %q: %s", s.ID, s.Name, strings.Join(errs, "; "))
	}
	return nil
}

// SpeciesRegistry holds every known Species keyed by id.
type SpeciesRegistry struct {
	byID map[int]*Species
}

// NewSpeciesRegistry creates an empty SpeciesRegistry.
func NewSpeciesRegistry() *SpeciesRegistry {
	return &SpeciesRegistry{byID: make(map[int]*Species)}
}

// Register adds sp, rejecting invalid definitions and duplicate ids.
func (r *SpeciesRegistry) Register(sp *Species) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	if _, dup := r.byID[sp.ID]; dup {
		return fmt.Errorf("species %d registered twice", sp.ID)
	}
	r.byID[sp.ID] = sp
	return nil
}

// Get returns the species with id, or (nil, false).
func (r *SpeciesRegistry) Get(id int) (*Species, bool) {
	sp, ok := r.byID[id]
	return sp, ok
}

// ByName returns the species with a case-insensitive name match.
func (r *SpeciesRegistry) ByName(name string) (*Species, bool) {
	for _, sp := range r.byID {
		if strings.EqualFold(sp.Name, name) {
			return sp, true
		}
	}
	return nil, false
}

// All returns every species ordered by id.
func (r *SpeciesRegistry) All() []*Species {
	out := make([]*Species, 0, len(r.byID))
	for _, sp := range r.byID {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadSpeciesFS reads every *.yaml file under dir in fsys. Each file holds a
// list of species.
//
// Postcondition: Returns a non-nil registry, or an error naming the first bad file.
func LoadSpeciesFS(fsys fs.FS, dir string) (*SpeciesRegistry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading species dir %q: %w", dir, err)
	}
	reg := NewSpeciesRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		var list []*Species
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		for _, sp := range list {
			if err := reg.Register(sp); err != nil {
				return nil, fmt.Errorf("%q: %w", p, err)
			}
		}
	}
	return reg, nil
}

// LoadSpeciesDirectory reads species definitions from a directory on disk.
func LoadSpeciesDirectory(dir string) (*SpeciesRegistry, error) {
	return LoadSpeciesFS(os.DirFS(dir), ".")
}
