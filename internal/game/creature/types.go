// Package creature models roster slots: elemental types, base and derived
// stats, stat stages, species data, and the fixed-size party a participant
// fields.
package creature

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is an elemental type.
type Type int

// Typeless marks damage that ignores the type chart, such as a confusion self hit.
const Typeless Type = -1

const (
	Normal Type = iota
	Fire
	Water
	Electric
	Grass
	Ice
	Fighting
	Poison
	Ground
	Flying
	Psychic
	Bug
	Rock
	Ghost
	Dragon
	Dark
	Steel
)

var typeNames = [...]string{
	"Normal", "Fire", "Water", "Electric", "Grass", "Ice", "Fighting", "Poison",
	"Ground", "Flying", "Psychic", "Bug", "Rock", "Ghost", "Dragon", "Dark", "Steel",
}

// AllTypes lists every type in chart order.
func AllTypes() []Type {
	out := make([]Type, len(typeNames))
	for i := range typeNames {
		out[i] = Type(i)
	}
	return out
}

// ParseType resolves a case-insensitive type name.
func ParseType(name string) (Type, error) {
	if strings.EqualFold(name, "typeless") {
		return Typeless, nil
	}
	for i, n := range typeNames {
		if strings.EqualFold(n, name) {
			return Type(i), nil
		}
	}
	return Typeless, fmt.Errorf("creature: unknown type %q", name)
}

// String returns the display name of t.
func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Typeless"
}

// UnmarshalYAML decodes a type name.
func (t *Type) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseType(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes the type name.
func (t Type) MarshalYAML() (any, error) {
	return strings.ToLower(t.String()), nil
}

// chart holds every attacker/defender pair whose multiplier differs from 1.
var chart = map[Type]map[Type]float64{
	Normal:   {Rock: 0.5, Ghost: 0, Steel: 0.5},
	Fire:     {Fire: 0.5, Water: 0.5, Grass: 2, Ice: 2, Bug: 2, Rock: 0.5, Dragon: 0.5, Steel: 2},
	Water:    {Fire: 2, Water: 0.5, Grass: 0.5, Ground: 2, Rock: 2, Dragon: 0.5},
	Electric: {Water: 2, Electric: 0.5, Grass: 0.5, Ground: 0, Flying: 2, Dragon: 0.5},
	Grass:    {Fire: 0.5, Water: 2, Grass: 0.5, Poison: 0.5, Ground: 2, Flying: 0.5, Bug: 0.5, Rock: 2, Dragon: 0.5, Steel: 0.5},
	Ice:      {Fire: 0.5, Water: 0.5, Grass: 2, Ice: 0.5, Ground: 2, Flying: 2, Dragon: 2, Steel: 0.5},
	Fighting: {Normal: 2, Ice: 2, Poison: 0.5, Flying: 0.5, Psychic: 0.5, Bug: 0.5, Rock: 2, Ghost: 0, Dark: 2, Steel: 2},
	Poison:   {Grass: 2, Poison: 0.5, Ground: 0.5, Rock: 0.5, Ghost: 0.5, Steel: 0},
	Ground:   {Fire: 2, Electric: 2, Grass: 0.5, Poison: 2, Flying: 0, Bug: 0.5, Rock: 2, Steel: 2},
	Flying:   {Electric: 0.5, Grass: 2, Fighting: 2, Bug: 2, Rock: 0.5, Steel: 0.5},
	Psychic:  {Fighting: 2, Poison: 2, Psychic: 0.5, Dark: 0, Steel: 0.5},
	Bug:      {Fire: 0.5, Grass: 2, Fighting: 0.5, Poison: 0.5, Flying: 0.5, Psychic: 2, Ghost: 0.5, Dark: 2, Steel: 0.5},
	Rock:     {Fire: 2, Ice: 2, Fighting: 0.5, Ground: 0.5, Flying: 2, Bug: 2, Steel: 0.5},
	Ghost:    {Normal: 0, Psychic: 2, Ghost: 2, Dark: 0.5, Steel: 0.5},
	Dragon:   {Dragon: 2, Steel: 0.5},
	Dark:     {Fighting: 0.5, Psychic: 2, Ghost: 2, Dark: 0.5, Steel: 0.5},
	Steel:    {Fire: 0.5, Water: 0.5, Electric: 0.5, Ice: 2, Rock: 2, Steel: 0.5},
}

// Multiplier returns the single-type multiplier of attack against defender.
func Multiplier(attack, defender Type) float64 {
	if attack == Typeless || defender == Typeless {
		return 1
	}
	if m, ok := chart[attack][defender]; ok {
		return m
	}
	return 1
}

// Effectiveness returns the stacked multiplier of attack against every
// defending type: 0, 0.25, 0.5, 1, 2, or 4.
func Effectiveness(attack Type, defenders ...Type) float64 {
	m := 1.0
	for _, d := range defenders {
		m *= Multiplier(attack, d)
	}
	return m
}
