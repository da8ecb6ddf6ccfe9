// Package weather holds the field weather catalogue and the rules each
// weather imposes on damage, accuracy, stats and statuses.
package weather

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"gopkg.in/yaml.v3"
)

// ID identifies a weather definition.
type ID int

const (
	Clear ID = iota
	HarshSunlight
	Rain
	Sandstorm
	Hail
	Fog
)

var idNames = [...]string{"clear", "harsh_sunlight", "rain", "sandstorm", "hail", "fog"}

// String returns the weather id.
func (id ID) String() string {
	if id >= 0 && int(id) < len(idNames) {
		return idNames[id]
	}
	return fmt.Sprintf("weather(%d)", int(id))
}

// ParseID resolves a weather id such as "rain".
func ParseID(s string) (ID, error) {
	for i, n := range idNames {
		if strings.EqualFold(n, s) {
			return ID(i), nil
		}
	}
	return Clear, fmt.Errorf("weather: unknown weather %q", s)
}

// MoveDuration is how many turns a weather summoned by a move lasts before it
// fades back to the battle's initial weather.
const MoveDuration = 5

// StatBoost scales one stat of battlers of a given type.
type StatBoost struct {
	Type       creature.Type `yaml:"type"`
	Stat       creature.Stat `yaml:"stat"`
	Multiplier float64       `yaml:"multiplier"`
}

// Definition is the static definition of a weather, loaded from YAML.
type Definition struct {
	ID                 ID                     `yaml:"id"`
	Name               string                 `yaml:"name"`
	StartMessage       string                 `yaml:"start_message"`
	ContinueMessage    string                 `yaml:"continue_message"`
	EndMessage         string                 `yaml:"end_message"`
	DamageMessage      string                 `yaml:"damage_message"`
	DamageFraction     float64                `yaml:"damage_fraction"`
	ImmuneTypes        []creature.Type        `yaml:"immune_types"`
	BoostedType        *creature.Type         `yaml:"boosted_type"`
	WeakenedType       *creature.Type         `yaml:"weakened_type"`
	StatBoosts         []StatBoost            `yaml:"stat_boosts"`
	AccuracyMultiplier float64                `yaml:"accuracy_multiplier"`
	StatusImmunities   []condition.NonVolatile `yaml:"status_immunities"`
}

// Validate reports authoring errors in the definition.
func (d *Definition) Validate() error {
	var errs []string
	if d.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if d.DamageFraction < 0 || d.DamageFraction > 1 {
		errs = append(errs, "damage_fraction must be in [0,1]")
	}
	if d.AccuracyMultiplier < 0 {
		errs = append(errs, "accuracy_multiplier must be >= 0")
	}
	for _, b := range d.StatBoosts {
		if b.Multiplier <= 0 {
			errs = append(errs, "stat_boosts multiplier must be > 0")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("weather %d: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Damages reports whether a battler with the given types takes end-of-turn
// weather damage. A battler is spared if any of its types is immune.
func (d *Definition) Damages(types []creature.Type) bool {
	if d.DamageFraction <= 0 {
		return false
	}
	for _, t := range types {
		for _, immune := range d.ImmuneTypes {
			if t == immune {
				return false
			}
		}
	}
	return true
}

// PowerMultiplier returns the damage factor for a move of type t.
func (d *Definition) PowerMultiplier(t creature.Type) float64 {
	if d.BoostedType != nil && *d.BoostedType == t {
		return 1.5
	}
	if d.WeakenedType != nil && *d.WeakenedType == t {
		return 0.5
	}
	return 1
}

// StatMultiplier returns the factor applied to stat for a battler with types.
func (d *Definition) StatMultiplier(types []creature.Type, stat creature.Stat) float64 {
	m := 1.0
	for _, b := range d.StatBoosts {
		if b.Stat != stat {
			continue
		}
		for _, t := range types {
			if t == b.Type {
				m *= b.Multiplier
				break
			}
		}
	}
	return m
}

// Accuracy returns the accuracy factor of the weather; 1 when unset.
func (d *Definition) Accuracy() float64 {
	if d.AccuracyMultiplier == 0 {
		return 1
	}
	return d.AccuracyMultiplier
}

// PreventsStatus reports whether s cannot be inflicted under this weather.
func (d *Definition) PreventsStatus(s condition.NonVolatile) bool {
	for _, im := range d.StatusImmunities {
		if im == s {
			return true
		}
	}
	return false
}

// Registry holds every weather definition keyed by id.
type Registry struct {
	defs map[ID]*Definition
}

// NewRegistry creates a Registry holding only a built-in clear sky.
func NewRegistry() *Registry {
	return &Registry{defs: map[ID]*Definition{Clear: {ID: Clear, Name: "Clear Sky"}}}
}

// Register adds def, overwriting an existing definition with the same id.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the definition for id, or (nil, false).
func (r *Registry) Get(id ID) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Lookup returns the definition for id, falling back to clear sky when id is
// unknown. The boolean reports whether id was found.
func (r *Registry) Lookup(id ID) (*Definition, bool) {
	if d, ok := r.defs[id]; ok {
		return d, true
	}
	return r.defs[Clear], false
}

// LoadFS reads every *.yaml file under dir in fsys. Each file holds a list of
// weather definitions.
//
// Postcondition: Returns a non-nil Registry, or an error naming the first bad file.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading weather dir %q: %w", dir, err)
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

// LoadDirectory reads weather definitions from a directory on disk.
func LoadDirectory(dir string) (*Registry, error) {
	return LoadFS(os.DirFS(dir), ".")
}
