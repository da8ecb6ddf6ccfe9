package creature

import (
	"errors"
	"fmt"
)

// PartySize is the fixed number of roster slots.
const PartySize = 6

// Errors returned by Party.CanSwitchTo.
var (
	ErrSlotOutOfRange = errors.New("creature: roster index out of range")
	ErrSlotEmpty      = errors.New("creature: roster slot is empty")
	ErrSlotFainted    = errors.New("creature: roster slot has fainted")
	ErrSlotActive     = errors.New("creature: roster slot is already active")
)

// Party is a participant's roster: six nullable slots and the index of the
// active one.
//
// Invariant: while the party is not defeated, Active points at a non-nil slot.
type Party struct {
	Slots  [PartySize]*Instance
	Active int
}

// NewParty places members in order, leaving the remaining slots empty.
//
// Postcondition: Active == 0.
func NewParty(members ...*Instance) (*Party, error) {
	if len(members) > PartySize {
		return nil, fmt.Errorf("creature: party holds at most %d members, got %d", PartySize, len(members))
	}
	p := &Party{}
	copy(p.Slots[:], members)
	return p, nil
}

// ActiveSlot returns the active instance, or nil if the active index is empty.
func (p *Party) ActiveSlot() *Instance {
	if p.Active < 0 || p.Active >= PartySize {
		return nil
	}
	return p.Slots[p.Active]
}

// Members returns the non-nil slots in order.
func (p *Party) Members() []*Instance {
	var out []*Instance
	for _, s := range p.Slots {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// IsDefeated reports whether every non-nil slot has fainted. An empty party
// is defeated.
func (p *Party) IsDefeated() bool {
	for _, s := range p.Slots {
		if s != nil && !s.Fainted() {
			return false
		}
	}
	return true
}

// FirstHealthy returns the lowest index holding a non-fainted instance.
func (p *Party) FirstHealthy() (int, bool) {
	for i, s := range p.Slots {
		if s != nil && !s.Fainted() {
			return i, true
		}
	}
	return 0, false
}

// HealthyCount returns how many slots hold a non-fainted instance.
func (p *Party) HealthyCount() int {
	n := 0
	for _, s := range p.Slots {
		if s != nil && !s.Fainted() {
			n++
		}
	}
	return n
}

// Last returns the highest-index non-nil slot, or nil for an empty party.
func (p *Party) Last() *Instance {
	for i := PartySize - 1; i >= 0; i-- {
		if p.Slots[i] != nil {
			return p.Slots[i]
		}
	}
	return nil
}

// CanSwitchTo reports why index i cannot become active, or nil.
func (p *Party) CanSwitchTo(i int) error {
	if i < 0 || i >= PartySize {
		return ErrSlotOutOfRange
	}
	if p.Slots[i] == nil {
		return ErrSlotEmpty
	}
	if p.Slots[i].Fainted() {
		return ErrSlotFainted
	}
	if i == p.Active {
		return ErrSlotActive
	}
	return nil
}

// SwitchTo makes slot i active, resetting the battle properties of both the
// outgoing and the incoming slot.
//
// Precondition: CanSwitchTo(i) == nil.
func (p *Party) SwitchTo(i int) {
	if out := p.ActiveSlot(); out != nil {
		out.ResetBattle()
	}
	p.Active = i
	p.Slots[i].ResetBattle()
}

// Clone returns a deep copy of the party.
func (p *Party) Clone() *Party {
	cp := &Party{Active: p.Active}
	for i, s := range p.Slots {
		cp.Slots[i] = s.Clone()
	}
	return cp
}
