package ai

import (
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/move"
)

// BattlerState captures a battler's state at decision time.
type BattlerState struct {
	Slot   int
	Name   string
	Level  int
	HP     int
	MaxHP  int
	Status string
	Types  []string
	Active bool
	Dead   bool
}

// HPRatio returns current HP as a fraction of MaxHP; 0 if MaxHP == 0.
func (b *BattlerState) HPRatio() float64 {
	if b.MaxHP <= 0 {
		return 0
	}
	return float64(b.HP) / float64(b.MaxHP)
}

// MoveOption is one legal Fight choice.
type MoveOption struct {
	Slot          int
	Def           *move.Definition
	PP            int
	Effectiveness float64
}

// WorldState is the snapshot a policy decides from.
//
// Invariant: Self is non-nil while the participant has an active battler.
type WorldState struct {
	Turn      int
	Kind      string
	Weather   string
	Self      *BattlerState
	Foe       *BattlerState
	Party     []*BattlerState
	Moves     []MoveOption // legal, usable moves only
	CanSwitch bool
	CanFlee   bool
}

func battlerState(slot int, in *creature.Instance, active bool) *BattlerState {
	if in == nil {
		return nil
	}
	b := &BattlerState{
		Slot:   slot,
		Name:   in.Name(),
		Level:  in.Level,
		HP:     in.Health,
		MaxHP:  in.MaxHealth(),
		Status: in.Status.String(),
		Active: active,
		Dead:   in.Fainted(),
	}
	for _, t := range in.Types() {
		b.Types = append(b.Types, strings.ToLower(t.String()))
	}
	return b
}

// BuildState snapshots v for a policy. Moves lists every slot that CheckAction
// accepts, with its effectiveness against the opposing active.
//
// Postcondition: Moves is empty when the active battler must struggle.
func BuildState(v battle.View) *WorldState {
	ws := &WorldState{
		Turn:    v.Turn,
		Kind:    v.Kind.String(),
		Weather: v.Weather.String(),
		CanFlee: v.CanFlee && !v.Trapped(),
	}
	active := v.Active()
	if active == nil {
		return ws
	}
	ws.Self = battlerState(v.Own.Active, active, true)
	ws.Foe = battlerState(-1, v.Foe, true)
	for i, in := range v.Own.Slots {
		if in == nil {
			continue
		}
		b := battlerState(i, in, i == v.Own.Active)
		ws.Party = append(ws.Party, b)
		if !b.Active && !b.Dead && !v.Trapped() {
			ws.CanSwitch = true
		}
	}
	for _, i := range active.UsableMoves() {
		if battle.CheckAction(v, battle.FightAction(i)) != nil {
			continue
		}
		opt := MoveOption{Slot: i, PP: active.Moves[i].PP, Effectiveness: 1}
		if v.Moves != nil {
			opt.Def, _ = v.Moves.Get(active.Moves[i].ID)
		}
		if opt.Def != nil && opt.Def.Category != move.Status && v.Foe != nil {
			opt.Effectiveness = creature.Effectiveness(opt.Def.Type, v.Foe.Types()...)
		}
		ws.Moves = append(ws.Moves, opt)
	}
	return ws
}

// Table renders ws as plain Go values for a Lua script. Slots are 0-based
// roster and move indices, as the session expects them back.
func (ws *WorldState) Table() map[string]any {
	t := map[string]any{
		"turn":       ws.Turn,
		"kind":       ws.Kind,
		"weather":    ws.Weather,
		"can_switch": ws.CanSwitch,
		"can_flee":   ws.CanFlee,
	}
	if ws.Self != nil {
		t["active"] = ws.Self.table()
	}
	if ws.Foe != nil {
		t["foe"] = ws.Foe.table()
	}
	party := make([]any, 0, len(ws.Party))
	for _, b := range ws.Party {
		party = append(party, b.table())
	}
	t["party"] = party
	moves := make([]any, 0, len(ws.Moves))
	for _, m := range ws.Moves {
		mt := map[string]any{"slot": m.Slot, "pp": m.PP, "effectiveness": m.Effectiveness}
		if m.Def != nil {
			mt["id"] = m.Def.ID
			mt["name"] = m.Def.Name
			mt["type"] = strings.ToLower(m.Def.Type.String())
			mt["category"] = m.Def.Category.String()
			mt["power"] = m.Def.Power
			mt["priority"] = m.Def.Priority
		}
		moves = append(moves, mt)
	}
	t["moves"] = moves
	return t
}

func (b *BattlerState) table() map[string]any {
	types := make([]any, 0, len(b.Types))
	for _, ty := range b.Types {
		types = append(types, ty)
	}
	return map[string]any{
		"slot":    b.Slot,
		"name":    b.Name,
		"level":   b.Level,
		"hp":      b.HP,
		"max_hp":  b.MaxHP,
		"status":  b.Status,
		"types":   types,
		"active":  b.Active,
		"fainted": b.Dead,
	}
}
