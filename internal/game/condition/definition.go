package condition

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatusDef is the static definition of a non-volatile status, loaded from YAML.
// Message templates use "{name}" for the affected battler's display name.
type StatusDef struct {
	ID             string      `yaml:"id"`
	Status         NonVolatile `yaml:"-"`
	Name           string      `yaml:"name"`
	Abbreviation   string      `yaml:"abbreviation"`
	InflictMessage string      `yaml:"inflict_message"`
	BlockedMessage string      `yaml:"blocked_message"`
	CureMessage    string      `yaml:"cure_message"`
	DamageMessage  string      `yaml:"damage_message"`
	DamageFraction float64     `yaml:"damage_fraction"` // end-of-turn damage as a fraction of max health
	BlockChance    float64     `yaml:"block_chance"`    // chance the holder cannot act
	CatchBonus     float64     `yaml:"catch_bonus"`
	ImmuneTypes    []string    `yaml:"immune_types"`
}

// Validate reports authoring errors in the definition.
func (d *StatusDef) Validate() error {
	var errs []string
	if _, err := ParseNonVolatile(d.ID); err != nil || d.ID == "none" {
		errs = append(errs, fmt.Sprintf("id %q is not a status", d.ID))
	}
	if d.DamageFraction < 0 || d.DamageFraction > 1 {
		errs = append(errs, "damage_fraction must be in [0,1]")
	}
	if d.BlockChance < 0 || d.BlockChance > 1 {
		errs = append(errs, "block_chance must be in [0,1]")
	}
	if d.CatchBonus != 0 && d.CatchBonus < 1 {
		errs = append(errs, "catch_bonus must be 0 or >= 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("status %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// ImmuneType reports whether a battler of the named elemental type is immune.
func (d *StatusDef) ImmuneType(typeName string) bool {
	for _, t := range d.ImmuneTypes {
		if strings.EqualFold(t, typeName) {
			return true
		}
	}
	return false
}

// Message fills a template with the battler name.
func Message(template, name string) string {
	return strings.ReplaceAll(template, "{name}", name)
}

// Registry holds all known StatusDefs keyed by status.
type Registry struct {
	defs map[NonVolatile]*StatusDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[NonVolatile]*StatusDef)}
}

// Register adds def to the registry, overwriting any existing entry for the same status.
//
// Precondition: def must not be nil and must pass Validate.
func (r *Registry) Register(def *StatusDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s, _ := ParseNonVolatile(def.ID)
	def.Status = s
	r.defs[s] = def
	return nil
}

// Get returns the StatusDef for s, or (nil, false) if not found.
func (r *Registry) Get(s NonVolatile) (*StatusDef, bool) {
	d, ok := r.defs[s]
	return d, ok
}

// MustGet returns the StatusDef for s or a blank definition carrying only
// the id, so that rule code never has to branch on missing content.
func (r *Registry) MustGet(s NonVolatile) *StatusDef {
	if d, ok := r.defs[s]; ok {
		return d
	}
	return &StatusDef{ID: s.String(), Status: s, Name: s.String()}
}

// LoadFS reads every *.yaml file under dir in fsys. Each file holds a list of
// StatusDefs.
//
// Precondition: dir must be a readable directory in fsys.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading status dir %q: %w", dir, err)
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
		var defs []*StatusDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&defs); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		for _, def := range defs {
			if err := reg.Register(def); err != nil {
				return nil, fmt.Errorf("%q: %w", p, err)
			}
		}
	}
	return reg, nil
}

// LoadDirectory reads status definitions from a directory on disk.
func LoadDirectory(dir string) (*Registry, error) {
	return LoadFS(os.DirFS(dir), ".")
}
