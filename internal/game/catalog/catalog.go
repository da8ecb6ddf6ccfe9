// Package catalog loads every battle data table from one content tree and
// builds the rule collaborators that share them.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
)

// Catalog holds the loaded data tables and the move engine built on them.
type Catalog struct {
	FS       fs.FS
	Moves    *move.Registry
	Species  *creature.SpeciesRegistry
	Statuses *condition.Registry
	Weather  *weather.Registry
	Items    *inventory.Registry
	Teams    *creature.TeamRegistry
	Engine   *move.Engine
}

// Open loads the catalog from dir, or from the embedded default content when
// dir is empty.
func Open(dir string, logger *zap.Logger) (*Catalog, error) {
	if dir == "" {
		return Load(content.FS, logger)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("opening content directory: %w", err)
	}
	return Load(os.DirFS(dir), logger)
}

// Load reads every table from fsys using the content directory layout.
//
// Precondition: fsys must hold the moves, species, statuses, weather, items
// and teams directories.
// Postcondition: Returns a complete Catalog or the first loading error.
func Load(fsys fs.FS, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	c := &Catalog{FS: fsys}
	var err error

	if c.Moves, err = move.LoadFS(fsys, content.MovesDir); err != nil {
		return nil, fmt.Errorf("loading moves: %w", err)
	}
	if c.Species, err = creature.LoadSpeciesFS(fsys, content.SpeciesDir); err != nil {
		return nil, fmt.Errorf("loading species: %w", err)
	}
	if c.Statuses, err = condition.LoadFS(fsys, content.StatusesDir); err != nil {
		return nil, fmt.Errorf("loading statuses: %w", err)
	}
	if c.Weather, err = weather.LoadFS(fsys, content.WeatherDir); err != nil {
		return nil, fmt.Errorf("loading weather: %w", err)
	}
	if c.Items, err = inventory.LoadFS(fsys, content.ItemsDir); err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	if c.Teams, err = creature.LoadTeamsFS(fsys, content.TeamsDir); err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}
	c.Engine = move.NewEngine(c.Moves, c.Statuses, logger)

	logger.Info("catalog loaded",
		zap.Int("moves", c.Moves.Len()),
		zap.Int("species", len(c.Species.All())),
		zap.Int("items", len(c.Items.All())),
		zap.Int("teams", len(c.Teams.All())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return c, nil
}

// Party builds a fresh party for the team with id.
//
// Postcondition: Returns the team and its party, or an error naming the
// unknown team.
func (c *Catalog) Party(id string) (*creature.Party, *creature.Team, error) {
	t, ok := c.Teams.Get(id)
	if !ok {
		return nil, nil, fmt.Errorf("unknown team %q", id)
	}
	p, err := t.Build(c.Species, c.Moves.Teach)
	if err != nil {
		return nil, nil, fmt.Errorf("building team %q: %w", id, err)
	}
	return p, t, nil
}

// TeamsOfKind returns the teams whose kind is kind, in id order.
func (c *Catalog) TeamsOfKind(kind string) []*creature.Team {
	var out []*creature.Team
	for _, t := range c.Teams.All() {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

type stock struct {
	name string
	qty  int
}

var starterKit = []stock{
	{"Poke Ball", 5},
	{"Potion", 3},
	{"Antidote", 1},
	{"Revive", 1},
}

// StarterKit fills a new bag with the items a fresh player carries.
func (c *Catalog) StarterKit(money, maxMoney int) (*inventory.Bag, error) {
	bag := inventory.NewBag(c.Items, money, maxMoney)
	for _, s := range starterKit {
		it, ok := c.Items.ByName(s.name)
		if !ok {
			continue
		}
		if err := bag.Add(it.ID, s.qty); err != nil {
			return nil, fmt.Errorf("stocking %s: %w", s.name, err)
		}
	}
	return bag, nil
}
