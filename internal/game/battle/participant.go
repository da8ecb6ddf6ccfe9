package battle

import (
	"context"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
	"github.com/google/uuid"
)

// Participant is one side of a battle. Implementations may block in either
// request until a choice is available; the session awaits both.
type Participant interface {
	// Name is the display name of the trainer or "wild" side.
	Name() string
	// Party returns the roster the battle borrows for its duration.
	Party() *creature.Party
	// RequestAction returns the action for the current turn.
	RequestAction(ctx context.Context, v View) (Action, error)
	// RequestReplacement returns the roster index to send out after the
	// active slot fainted.
	RequestReplacement(ctx context.Context, v View) (int, error)
}

// View is what a participant may see when choosing. Own is the live party
// and must be treated as read-only; Foe is a snapshot of the opposing active.
type View struct {
	BattleID     uuid.UUID
	Side         int
	Kind         Kind
	Turn         int
	Weather      weather.ID
	Permissions  ItemPermissions
	CanFlee      bool
	Own          *creature.Party
	Foe          *creature.Instance
	FoeRemaining int
	Moves        *move.Registry
	Items        *inventory.Registry
	Bag          Inventory // nil when the side has no inventory
}

// Active returns the participant's active instance.
func (v View) Active() *creature.Instance {
	if v.Own == nil {
		return nil
	}
	return v.Own.ActiveSlot()
}

// Trapped reports whether the active battler is prevented from switching or fleeing.
func (v View) Trapped() bool {
	a := v.Active()
	if a == nil {
		return false
	}
	return trapped(&a.Battle.Volatile)
}

func trapped(vol *condition.Volatile) bool {
	return vol.Ingrained || vol.Bound > 0 || vol.CantEscape
}

// CheckAction reports why a is not a legal choice in v, or nil. Every error
// wraps ErrIllegalAction.
func CheckAction(v View, a Action) error {
	active := v.Active()
	if active == nil {
		return illegal("no active battler")
	}
	switch a.Kind {
	case Fight:
		if a.Struggle {
			if len(active.UsableMoves()) > 0 {
				return illegal("struggle while moves have PP")
			}
			return nil
		}
		if a.MoveSlot < 0 || a.MoveSlot >= creature.MaxMoves || active.Moves[a.MoveSlot].Empty() {
			return illegal("no move in slot %d", a.MoveSlot)
		}
		slot := active.Moves[a.MoveSlot]
		if slot.PP <= 0 {
			return illegal("%s has no PP left", moveName(v.Moves, slot.ID))
		}
		vol := &active.Battle.Volatile
		if vol.Tormented && slot.ID == vol.LastMove {
			return illegal("%s can't use the same move twice in a row", active.Name())
		}
		if vol.Taunt > 0 && v.Moves != nil {
			if def, ok := v.Moves.Get(slot.ID); ok && def.Category == move.Status {
				return illegal("%s can't use %s after the taunt", active.Name(), def.Name)
			}
		}
	case Flee:
		if !v.CanFlee {
			return illegal("there's no running from this battle")
		}
		if v.Trapped() {
			return illegal("%s can't escape", active.Name())
		}
	case Switch:
		if err := v.Own.CanSwitchTo(a.SwitchIndex); err != nil {
			return illegal("switch to %d: %v", a.SwitchIndex, err)
		}
		if v.Trapped() {
			return illegal("%s can't be switched out", active.Name())
		}
	case UseItem:
		if active.Battle.Volatile.Embargo > 0 {
			return illegal("%s can't use items under the embargo", active.Name())
		}
		if v.Items == nil {
			return illegal("no item catalogue")
		}
		it, ok := v.Items.Item(a.ItemID)
		if !ok {
			return illegal("unknown item %d", a.ItemID)
		}
		if !v.Permissions.Allows(it.Category) {
			return illegal("%s can't be used here", it.Name)
		}
		if a.Consume && v.Bag != nil && v.Bag.Quantity(a.ItemID) <= 0 {
			return illegal("no %s left", it.Name)
		}
		if it.Category == inventory.Ball {
			return nil
		}
		if a.ItemTarget < 0 || a.ItemTarget >= creature.PartySize || v.Own.Slots[a.ItemTarget] == nil {
			return illegal("no party member in slot %d", a.ItemTarget)
		}
		if !it.CanUse(v.Own.Slots[a.ItemTarget], a.ItemMove) {
			return illegal("%s would have no effect", it.Name)
		}
	default:
		return illegal("unknown action kind %d", int(a.Kind))
	}
	return nil
}

// CheckReplacement reports why roster index i cannot replace a fainted active.
func CheckReplacement(p *creature.Party, i int) error {
	if i < 0 || i >= creature.PartySize || p.Slots[i] == nil {
		return illegal("no party member in slot %d", i)
	}
	if p.Slots[i].Fainted() {
		return illegal("%s has fainted", p.Slots[i].Name())
	}
	return nil
}

func moveName(reg *move.Registry, id int) string {
	if reg != nil {
		if def, ok := reg.Get(id); ok {
			return def.Name
		}
	}
	return "that move"
}

// Inventory is the item and economy collaborator of the player side.
// inventory.Bag implements it.
type Inventory interface {
	Quantity(id int) int
	RemoveItem(id, qty int) error
	Money() int
	AddMoney(delta int) int
	AddCaughtCreature(in *creature.Instance) error
	HasCaughtSpecies(id int) bool
}

// Experience is the leveling collaborator. The session decides when and how
// much to award; the collaborator owns the leveling math.
type Experience interface {
	// AddExperience grants amount and returns the new level and whether it changed.
	AddExperience(in *creature.Instance, amount int) (level int, leveled bool)
	AddEffortValues(in *creature.Instance, ev creature.Stats)
	// EvolutionTarget returns the species in should evolve into at its level.
	EvolutionTarget(in *creature.Instance) (species int, ok bool)
}
