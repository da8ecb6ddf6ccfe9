package battle

import (
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
	"github.com/google/uuid"
)

// Side indexes the two participants. The player side acts first on ties
// under the "first" tie-break policy.
const (
	PlayerSide   = 0
	OpponentSide = 1
)

// TrickRoomDuration is how many turns trick room reverses the speed order.
const TrickRoomDuration = 5

// Context is the shared state of one battle. It is owned by its Session and
// only mutated from the session goroutine.
type Context struct {
	ID             uuid.UUID
	Kind           Kind
	InitialWeather weather.ID
	Weather        weather.ID
	WeatherTurns   int // turns until Weather fades back to InitialWeather
	TrickRoomTurns int
	Turn           int
	FleeAttempts   int
	Permissions    ItemPermissions
	Hazards        [2]move.Hazards
	Seed           uint64

	// credit maps an opposing roster slot to the player slots that fought it.
	credit map[int]map[int]bool
}

func newContext(id uuid.UUID, k Kind, w weather.ID, perms ItemPermissions, seed uint64) *Context {
	return &Context{
		ID:             id,
		Kind:           k,
		InitialWeather: w,
		Weather:        w,
		Permissions:    perms,
		Seed:           seed,
		credit:         make(map[int]map[int]bool),
	}
}

// TrickRoom reports whether trick room is in effect.
func (c *Context) TrickRoom() bool { return c.TrickRoomTurns > 0 }

// Fought records that player slot p has faced opposing slot o.
func (c *Context) Fought(o, p int) {
	set, ok := c.credit[o]
	if !ok {
		set = make(map[int]bool)
		c.credit[o] = set
	}
	set[p] = true
}

// Credited returns the player slots that fought opposing slot o, ascending.
func (c *Context) Credited(o int) []int {
	var out []int
	for p := 0; p < creature.PartySize; p++ {
		if c.credit[o][p] {
			out = append(out, p)
		}
	}
	return out
}

// forgetPlayer strips player slot p from every credit record.
func (c *Context) forgetPlayer(p int) {
	for _, set := range c.credit {
		delete(set, p)
	}
}

// forgetOpponent drops the credit record of opposing slot o.
func (c *Context) forgetOpponent(o int) {
	delete(c.credit, o)
}

func other(side int) int { return 1 - side }
