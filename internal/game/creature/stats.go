package creature

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Stats is a six-stat block used for base stats, derived maxima,
// individual values and effort values alike.
type Stats struct {
	HP        int `yaml:"hp"`
	Attack    int `yaml:"attack"`
	Defense   int `yaml:"defense"`
	SpAttack  int `yaml:"sp_attack"`
	SpDefense int `yaml:"sp_defense"`
	Speed     int `yaml:"speed"`
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		HP:        s.HP + o.HP,
		Attack:    s.Attack + o.Attack,
		Defense:   s.Defense + o.Defense,
		SpAttack:  s.SpAttack + o.SpAttack,
		SpDefense: s.SpDefense + o.SpDefense,
		Speed:     s.Speed + o.Speed,
	}
}

// Total returns the sum of every field.
func (s Stats) Total() int {
	return s.HP + s.Attack + s.Defense + s.SpAttack + s.SpDefense + s.Speed
}

// Get returns the raw value of a staged stat. Accuracy and Evasion have no
// raw value and return 0.
func (s Stats) Get(stat Stat) int {
	switch stat {
	case Attack:
		return s.Attack
	case Defense:
		return s.Defense
	case SpAttack:
		return s.SpAttack
	case SpDefense:
		return s.SpDefense
	case Speed:
		return s.Speed
	}
	return 0
}

// Stat names a stat that carries an in-battle stage.
type Stat int

const (
	Attack Stat = iota
	Defense
	SpAttack
	SpDefense
	Speed
	Accuracy
	Evasion
	numStats
)

var statNames = [...]string{"attack", "defense", "sp_attack", "sp_defense", "speed", "accuracy", "evasion"}

var statDisplay = [...]string{"Attack", "Defense", "Sp. Atk", "Sp. Def", "Speed", "accuracy", "evasiveness"}

// StagedStats lists every staged stat.
func StagedStats() []Stat {
	out := make([]Stat, numStats)
	for i := range out {
		out[i] = Stat(i)
	}
	return out
}

// ParseStat resolves a stat id such as "sp_attack".
func ParseStat(id string) (Stat, error) {
	for i, n := range statNames {
		if n == id {
			return Stat(i), nil
		}
	}
	return 0, fmt.Errorf("creature: unknown stat %q", id)
}

// String returns the stat id.
func (s Stat) String() string {
	if s >= 0 && s < numStats {
		return statNames[s]
	}
	return fmt.Sprintf("stat(%d)", int(s))
}

// Display returns the name used in battle narration.
func (s Stat) Display() string {
	if s >= 0 && s < numStats {
		return statDisplay[s]
	}
	return s.String()
}

// UnmarshalYAML decodes a stat id.
func (s *Stat) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseStat(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

// Level-driven stat formula constants.
const (
	MinLevel = 1
	MaxLevel = 100
	MaxIV    = 31
	MaxEV    = 252
	MaxEVSum = 510
)

// CalcStats derives maximum stats from base stats, level, individual values
// and effort values.
//
// Precondition: MinLevel <= level <= MaxLevel.
// Postcondition: every field of the result is >= 1.
func CalcStats(base Stats, level int, ivs, evs Stats) Stats {
	other := func(b, iv, ev int) int {
		v := (2*b+iv+ev/4)*level/100 + 5
		if v < 1 {
			v = 1
		}
		return v
	}
	hp := (2*base.HP+ivs.HP+evs.HP/4)*level/100 + level + 10
	if base.HP == 1 {
		hp = 1
	}
	return Stats{
		HP:        hp,
		Attack:    other(base.Attack, ivs.Attack, evs.Attack),
		Defense:   other(base.Defense, ivs.Defense, evs.Defense),
		SpAttack:  other(base.SpAttack, ivs.SpAttack, evs.SpAttack),
		SpDefense: other(base.SpDefense, ivs.SpDefense, evs.SpDefense),
		Speed:     other(base.Speed, ivs.Speed, evs.Speed),
	}
}
