// Package netplay carries linked battles between two peers: the wire
// messages, their protobuf wire-format codec, the transport boundary and the
// handshake that agrees on a shared seed.
package netplay

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/move"
)

// ProtocolVersion is bumped on any incompatible wire change.
const ProtocolVersion = 1

var (
	// ErrUnexpectedMessage is returned when a peer sends a message kind that
	// is not valid at that point of the exchange.
	ErrUnexpectedMessage = errors.New("netplay: unexpected message")
	// ErrMalformed wraps every decoding failure.
	ErrMalformed = errors.New("netplay: malformed message")
)

// Kind identifies a wire message. Its value is the envelope field number.
type Kind int

const (
	KindHello       Kind = 1
	KindAction      Kind = 2
	KindReplacement Kind = 3
)

// String returns the kind id.
func (k Kind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindAction:
		return "action"
	case KindReplacement:
		return "replacement"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Message is one wire message.
type Message interface {
	Kind() Kind
}

// MoveState is one learned move of a roster member.
type MoveState struct {
	ID int
	PP int
}

// Member is one roster slot as sent in a Hello.
type Member struct {
	Slot     int
	Species  int
	Level    int
	Nickname string
	IVs      creature.Stats
	EVs      creature.Stats
	Moves    []MoveState
	Health   int
	Status   condition.NonVolatile
}

// Hello opens a linked battle. Exactly one peer is the host; the host's seed
// drives both mirrored engines.
type Hello struct {
	Version uint32
	Host    bool
	Seed    uint64
	Name    string
	Roster  []Member
}

// Kind implements Message.
func (*Hello) Kind() Kind { return KindHello }

// Action mirrors one battle.Action chosen by the sending peer.
type Action struct {
	Choice      battle.ActionKind
	MoveSlot    int
	Struggle    bool
	SwitchIndex int
	ItemID      int
	ItemTarget  int
	ItemMove    int
}

// Kind implements Message.
func (*Action) Kind() Kind { return KindAction }

// NewAction converts a to its wire form.
func NewAction(a battle.Action) *Action {
	return &Action{
		Choice:      a.Kind,
		MoveSlot:    a.MoveSlot,
		Struggle:    a.Struggle,
		SwitchIndex: a.SwitchIndex,
		ItemID:      a.ItemID,
		ItemTarget:  a.ItemTarget,
		ItemMove:    a.ItemMove,
	}
}

// Battle converts m back into an action for the mirrored participant.
func (m *Action) Battle() battle.Action {
	return battle.Action{
		Kind:        m.Choice,
		MoveSlot:    m.MoveSlot,
		Struggle:    m.Struggle,
		SwitchIndex: m.SwitchIndex,
		ItemID:      m.ItemID,
		ItemTarget:  m.ItemTarget,
		ItemMove:    m.ItemMove,
		Consume:     m.Choice == battle.UseItem,
	}
}

// ReplacementIndex mirrors a replacement choice after a faint.
type ReplacementIndex struct {
	Index int
}

// Kind implements Message.
func (*ReplacementIndex) Kind() Kind { return KindReplacement }

// Roster describes every occupied slot of p for a Hello.
func Roster(p *creature.Party) []Member {
	var out []Member
	for i, in := range p.Slots {
		if in == nil {
			continue
		}
		m := Member{
			Slot:     i,
			Species:  in.Species.ID,
			Level:    in.Level,
			Nickname: in.Nickname,
			IVs:      in.IVs,
			EVs:      in.EVs,
			Health:   in.Health,
			Status:   in.Status,
		}
		for _, mv := range in.Moves {
			if !mv.Empty() {
				m.Moves = append(m.Moves, MoveState{ID: mv.ID, PP: mv.PP})
			}
		}
		out = append(out, m)
	}
	return out
}

// BuildParty rebuilds the peer's party from a Hello roster.
//
// Precondition: species and moves must be non-nil.
// Postcondition: returns an error for unknown species or moves, duplicate
// or out-of-range slots, or an empty roster.
func BuildParty(roster []Member, species *creature.SpeciesRegistry, moves *move.Registry) (*creature.Party, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrMalformed)
	}
	p := &creature.Party{}
	for _, m := range roster {
		if m.Slot < 0 || m.Slot >= creature.PartySize || p.Slots[m.Slot] != nil {
			return nil, fmt.Errorf("%w: bad roster slot %d", ErrMalformed, m.Slot)
		}
		sp, ok := species.Get(m.Species)
		if !ok {
			return nil, fmt.Errorf("roster slot %d: unknown species %d", m.Slot, m.Species)
		}
		in, err := creature.NewInstance(sp, m.Level, m.IVs, m.EVs)
		if err != nil {
			return nil, err
		}
		in.Nickname = m.Nickname
		ids := make([]int, 0, len(m.Moves))
		for _, mv := range m.Moves {
			ids = append(ids, mv.ID)
		}
		if err := moves.Teach(in, ids); err != nil {
			return nil, fmt.Errorf("roster slot %d: %w", m.Slot, err)
		}
		for i, mv := range m.Moves {
			in.Moves[i].PP = min(max(mv.PP, 0), in.Moves[i].MaxPP)
		}
		in.Health = min(max(m.Health, 0), in.MaxHealth())
		in.Status = m.Status
		p.Slots[m.Slot] = in
	}
	if i, ok := p.FirstHealthy(); ok {
		p.Active = i
	}
	return p, nil
}
