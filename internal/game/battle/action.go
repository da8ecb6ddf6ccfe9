package battle

import "fmt"

// ActionKind discriminates the variants of Action.
type ActionKind int

const (
	Fight ActionKind = iota
	Flee
	Switch
	UseItem
)

var actionKindNames = [...]string{"fight", "flee", "switch", "item"}

// String returns the action kind id.
func (k ActionKind) String() string {
	if k >= 0 && int(k) < len(actionKindNames) {
		return actionKindNames[k]
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is one participant's chosen intent for a turn.
//
// Fight uses MoveSlot, or Struggle when no move has PP. Switch uses
// SwitchIndex. UseItem uses ItemID, ItemTarget (a slot of the user's own
// party; ignored for balls) and ItemMove for PP restoring items that need a
// move. Consume removes the item from the participant's inventory.
type Action struct {
	Kind        ActionKind
	MoveSlot    int
	Struggle    bool
	SwitchIndex int
	ItemID      int
	ItemTarget  int
	ItemMove    int
	Consume     bool

	// continuation marks a forced follow-up of a charging or rampaging move;
	// forcedMove is the move id it is locked into.
	continuation bool
	forcedMove   int
}

// FightAction uses the move in slot.
func FightAction(slot int) Action { return Action{Kind: Fight, MoveSlot: slot} }

// StruggleAction attacks with the typeless fallback move.
func StruggleAction() Action { return Action{Kind: Fight, MoveSlot: -1, Struggle: true} }

// FleeAction tries to run from the battle.
func FleeAction() Action { return Action{Kind: Flee} }

// SwitchAction sends out roster slot i.
func SwitchAction(i int) Action { return Action{Kind: Switch, SwitchIndex: i} }

// ItemAction uses item id on roster slot target of the user's party,
// consuming it from the inventory. moveSlot is -1 unless the item restores
// PP to a single move.
func ItemAction(id, target, moveSlot int) Action {
	return Action{Kind: UseItem, ItemID: id, ItemTarget: target, ItemMove: moveSlot, Consume: true}
}

// BallAction throws ball item id at the opposing active battler.
func BallAction(id int) Action {
	return Action{Kind: UseItem, ItemID: id, ItemTarget: -1, ItemMove: -1, Consume: true}
}

// String renders the action for logs.
func (a Action) String() string {
	switch a.Kind {
	case Fight:
		if a.Struggle {
			return "fight(struggle)"
		}
		return fmt.Sprintf("fight(%d)", a.MoveSlot)
	case Switch:
		return fmt.Sprintf("switch(%d)", a.SwitchIndex)
	case UseItem:
		return fmt.Sprintf("item(%d->%d)", a.ItemID, a.ItemTarget)
	}
	return a.Kind.String()
}
