package creature

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// TeamMember describes one roster slot of a predefined team.
type TeamMember struct {
	Species  int    `yaml:"species"`
	Level    int    `yaml:"level"`
	Nickname string `yaml:"nickname"`
	IVs      Stats  `yaml:"ivs"`
	EVs      Stats  `yaml:"evs"`
	// Moves overrides the species default moveset when non-empty.
	Moves []int `yaml:"moves"`
}

// Team is a predefined roster loaded from YAML: a trainer's party or a wild
// encounter table entry.
//
// Precondition: ID must be non-empty and Members must hold 1..PartySize entries.
type Team struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Kind    string       `yaml:"kind"`   // wild, trainer or link
	Policy  string       `yaml:"policy"` // ai policy id
	Payout  int          `yaml:"payout"` // base prize money per level
	Members []TeamMember `yaml:"members"`
}

// Validate reports authoring errors in the team definition.
func (t *Team) Validate() error {
	var errs []string
	if t.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if len(t.Members) == 0 || len(t.Members) > PartySize {
		errs = append(errs, fmt.Sprintf("members must list 1..%d entries", PartySize))
	}
	for i, m := range t.Members {
		if m.Level < MinLevel || m.Level > MaxLevel {
			errs = append(errs, fmt.Sprintf("members[%d].level must be in [1,100]", i))
		}
		if len(m.Moves) > MaxMoves {
			errs = append(errs, fmt.Sprintf("members[%d].moves may list at most %d ids", i, MaxMoves))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("team %q: %s", t.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Build creates a fresh party for t. teach fills each member's move slots.
//
// Precondition: species must be non-nil.
// Postcondition: every member is at full health with Active == 0.
func (t *Team) Build(species *SpeciesRegistry, teach func(*Instance, []int) error) (*Party, error) {
	members := make([]*Instance, 0, len(t.Members))
	for i, m := range t.Members {
		sp, ok := species.Get(m.Species)
		if !ok {
			return nil, fmt.Errorf("team %q member %d: unknown species %d", t.ID, i, m.Species)
		}
		in, err := NewInstance(sp, m.Level, m.IVs, m.EVs)
		if err != nil {
			return nil, err
		}
		in.Nickname = m.Nickname
		moves := m.Moves
		if len(moves) == 0 {
			moves = sp.Moves
		}
		if teach != nil {
			if err := teach(in, moves); err != nil {
				return nil, fmt.Errorf("team %q member %d: %w", t.ID, i, err)
			}
		}
		members = append(members, in)
	}
	return NewParty(members...)
}

// TeamRegistry holds every predefined team keyed by id.
type TeamRegistry struct {
	byID map[string]*Team
}

// NewTeamRegistry creates an empty TeamRegistry.
func NewTeamRegistry() *TeamRegistry {
	return &TeamRegistry{byID: make(map[string]*Team)}
}

// Register adds t, rejecting invalid definitions and duplicate ids.
func (r *TeamRegistry) Register(t *Team) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, dup := r.byID[t.ID]; dup {
		return fmt.Errorf("team %q registered twice", t.ID)
	}
	r.byID[t.ID] = t
	return nil
}

// Get returns the team with id.
func (r *TeamRegistry) Get(id string) (*Team, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// All returns every team ordered by id.
func (r *TeamRegistry) All() []*Team {
	out := make([]*Team, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadTeamsFS reads every *.yaml file under dir in fsys. Each file holds a
// list of teams.
//
// Postcondition: Returns a non-nil registry, or an error naming the first bad file.
func LoadTeamsFS(fsys fs.FS, dir string) (*TeamRegistry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading teams dir %q: %w", dir, err)
	}
	reg := NewTeamRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		var list []*Team
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("parsing team file %q: %w", p, err)
		}
		for _, t := range list {
			if err := reg.Register(t); err != nil {
				return nil, fmt.Errorf("%q: %w", p, err)
			}
		}
	}
	return reg, nil
}
