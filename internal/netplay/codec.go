package netplay

import (
	"fmt"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"google.golang.org/protobuf/encoding/protowire"
)

// The envelope holds exactly one length-delimited field whose number is the
// message Kind. Payloads use the field numbers below; unknown fields are
// skipped so newer peers may add fields without a version bump.
const (
	helloVersion protowire.Number = 1
	helloHost    protowire.Number = 2
	helloSeed    protowire.Number = 3
	helloName    protowire.Number = 4
	helloMember  protowire.Number = 5

	memberSlot     protowire.Number = 1
	memberSpecies  protowire.Number = 2
	memberLevel    protowire.Number = 3
	memberNickname protowire.Number = 4
	memberIVs      protowire.Number = 5
	memberEVs      protowire.Number = 6
	memberMove     protowire.Number = 7
	memberHealth   protowire.Number = 8
	memberStatus   protowire.Number = 9

	moveID protowire.Number = 1
	movePP protowire.Number = 2

	actionKind        protowire.Number = 1
	actionMoveSlot    protowire.Number = 2
	actionStruggle    protowire.Number = 3
	actionSwitchIndex protowire.Number = 4
	actionItemID      protowire.Number = 5
	actionItemTarget  protowire.Number = 6
	actionItemMove    protowire.Number = 7

	replacementIndex protowire.Number = 1
)

// Marshal encodes m into its wire form.
func Marshal(m Message) ([]byte, error) {
	var payload []byte
	switch m := m.(type) {
	case *Hello:
		payload = appendHello(nil, m)
	case *Action:
		payload = appendAction(nil, m)
	case *ReplacementIndex:
		payload = appendSint(nil, replacementIndex, m.Index)
	default:
		return nil, fmt.Errorf("%w: cannot encode %T", ErrUnexpectedMessage, m)
	}
	b := protowire.AppendTag(nil, protowire.Number(m.Kind()), protowire.BytesType)
	return protowire.AppendBytes(b, payload), nil
}

// Unmarshal decodes one wire message.
func Unmarshal(b []byte) (Message, error) {
	fs, err := fields(b)
	if err != nil {
		return nil, err
	}
	if len(fs) != 1 || fs[0].typ != protowire.BytesType {
		return nil, fmt.Errorf("%w: envelope must hold one message", ErrMalformed)
	}
	switch Kind(fs[0].num) {
	case KindHello:
		return decodeHello(fs[0].bytes)
	case KindAction:
		return decodeAction(fs[0].bytes)
	case KindReplacement:
		m := &ReplacementIndex{}
		pf, err := fields(fs[0].bytes)
		if err != nil {
			return nil, err
		}
		for _, f := range pf {
			if f.num == replacementIndex {
				m.Index = f.sint()
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: kind %d", ErrUnexpectedMessage, fs[0].num)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSint(b []byte, num protowire.Number, v int) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendHello(b []byte, m *Hello) []byte {
	b = appendVarint(b, helloVersion, uint64(m.Version))
	b = appendBool(b, helloHost, m.Host)
	b = protowire.AppendTag(b, helloSeed, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, m.Seed)
	if m.Name != "" {
		b = protowire.AppendTag(b, helloName, protowire.BytesType)
		b = protowire.AppendString(b, m.Name)
	}
	for _, mem := range m.Roster {
		b = appendBytes(b, helloMember, appendMember(nil, mem))
	}
	return b
}

func appendMember(b []byte, m Member) []byte {
	b = appendSint(b, memberSlot, m.Slot)
	b = appendSint(b, memberSpecies, m.Species)
	b = appendSint(b, memberLevel, m.Level)
	if m.Nickname != "" {
		b = protowire.AppendTag(b, memberNickname, protowire.BytesType)
		b = protowire.AppendString(b, m.Nickname)
	}
	b = appendBytes(b, memberIVs, appendStats(nil, m.IVs))
	b = appendBytes(b, memberEVs, appendStats(nil, m.EVs))
	for _, mv := range m.Moves {
		mb := appendSint(nil, moveID, mv.ID)
		mb = appendSint(mb, movePP, mv.PP)
		b = appendBytes(b, memberMove, mb)
	}
	b = appendSint(b, memberHealth, m.Health)
	return appendSint(b, memberStatus, int(m.Status))
}

func appendStats(b []byte, s creature.Stats) []byte {
	for i, v := range []int{s.HP, s.Attack, s.Defense, s.SpAttack, s.SpDefense, s.Speed} {
		b = appendSint(b, protowire.Number(i+1), v)
	}
	return b
}

func appendAction(b []byte, m *Action) []byte {
	b = appendVarint(b, actionKind, uint64(m.Choice))
	b = appendSint(b, actionMoveSlot, m.MoveSlot)
	b = appendBool(b, actionStruggle, m.Struggle)
	b = appendSint(b, actionSwitchIndex, m.SwitchIndex)
	b = appendSint(b, actionItemID, m.ItemID)
	b = appendSint(b, actionItemTarget, m.ItemTarget)
	return appendSint(b, actionItemMove, m.ItemMove)
}

// field is one decoded key/value pair.
type field struct {
	num   protowire.Number
	typ   protowire.Type
	value uint64
	bytes []byte
}

func (f field) sint() int { return int(protowire.DecodeZigZag(f.value)) }

// fields splits b into its top-level fields, skipping group-encoded ones.
func fields(b []byte) ([]field, error) {
	var out []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.value, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.value, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
		out = append(out, f)
	}
	return out, nil
}

func decodeHello(b []byte) (*Hello, error) {
	fs, err := fields(b)
	if err != nil {
		return nil, err
	}
	m := &Hello{}
	for _, f := range fs {
		switch f.num {
		case helloVersion:
			m.Version = uint32(f.value)
		case helloHost:
			m.Host = protowire.DecodeBool(f.value)
		case helloSeed:
			m.Seed = f.value
		case helloName:
			m.Name = string(f.bytes)
		case helloMember:
			mem, err := decodeMember(f.bytes)
			if err != nil {
				return nil, err
			}
			m.Roster = append(m.Roster, mem)
		}
	}
	return m, nil
}

func decodeMember(b []byte) (Member, error) {
	fs, err := fields(b)
	if err != nil {
		return Member{}, err
	}
	var m Member
	for _, f := range fs {
		switch f.num {
		case memberSlot:
			m.Slot = f.sint()
		case memberSpecies:
			m.Species = f.sint()
		case memberLevel:
			m.Level = f.sint()
		case memberNickname:
			m.Nickname = string(f.bytes)
		case memberIVs:
			if m.IVs, err = decodeStats(f.bytes); err != nil {
				return Member{}, err
			}
		case memberEVs:
			if m.EVs, err = decodeStats(f.bytes); err != nil {
				return Member{}, err
			}
		case memberMove:
			mfs, err := fields(f.bytes)
			if err != nil {
				return Member{}, err
			}
			var mv MoveState
			for _, mf := range mfs {
				switch mf.num {
				case moveID:
					mv.ID = mf.sint()
				case movePP:
					mv.PP = mf.sint()
				}
			}
			m.Moves = append(m.Moves, mv)
		case memberHealth:
			m.Health = f.sint()
		case memberStatus:
			m.Status = condition.NonVolatile(f.sint())
		}
	}
	if len(m.Moves) > creature.MaxMoves {
		return Member{}, fmt.Errorf("%w: member lists %d moves", ErrMalformed, len(m.Moves))
	}
	return m, nil
}

func decodeStats(b []byte) (creature.Stats, error) {
	fs, err := fields(b)
	if err != nil {
		return creature.Stats{}, err
	}
	var s creature.Stats
	dst := []*int{&s.HP, &s.Attack, &s.Defense, &s.SpAttack, &s.SpDefense, &s.Speed}
	for _, f := range fs {
		if f.num >= 1 && int(f.num) <= len(dst) {
			*dst[f.num-1] = f.sint()
		}
	}
	return s, nil
}

func decodeAction(b []byte) (*Action, error) {
	fs, err := fields(b)
	if err != nil {
		return nil, err
	}
	m := &Action{}
	for _, f := range fs {
		switch f.num {
		case actionKind:
			m.Choice = battle.ActionKind(f.value)
		case actionMoveSlot:
			m.MoveSlot = f.sint()
		case actionStruggle:
			m.Struggle = protowire.DecodeBool(f.value)
		case actionSwitchIndex:
			m.SwitchIndex = f.sint()
		case actionItemID:
			m.ItemID = f.sint()
		case actionItemTarget:
			m.ItemTarget = f.sint()
		case actionItemMove:
			m.ItemMove = f.sint()
		}
	}
	return m, nil
}
