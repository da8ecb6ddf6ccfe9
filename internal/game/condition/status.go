// Package condition models the non-volatile status conditions that persist on
// a roster slot and the volatile bundle that only lives while a slot is active.
package condition

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NonVolatile identifies a long-lived status condition. At most one can be
// held by a roster slot at any time.
type NonVolatile int

const (
	None NonVolatile = iota
	Burn
	Frozen
	Paralysed
	Poisoned
	BadlyPoisoned
	Asleep
)

var statusIDs = map[NonVolatile]string{
	None:          "none",
	Burn:          "burn",
	Frozen:        "frozen",
	Paralysed:     "paralysed",
	Poisoned:      "poisoned",
	BadlyPoisoned: "badly_poisoned",
	Asleep:        "asleep",
}

// ParseNonVolatile resolves a status id such as "badly_poisoned".
//
// Postcondition: returns an error when id is unknown.
func ParseNonVolatile(id string) (NonVolatile, error) {
	for s, name := range statusIDs {
		if name == id {
			return s, nil
		}
	}
	return None, fmt.Errorf("condition: unknown status %q", id)
}

// String returns the status id.
func (s NonVolatile) String() string {
	if name, ok := statusIDs[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// IsPoison reports whether s is either poison variant.
func (s NonVolatile) IsPoison() bool {
	return s == Poisoned || s == BadlyPoisoned
}

// UnmarshalYAML decodes a status id.
func (s *NonVolatile) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseNonVolatile(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes the status id.
func (s NonVolatile) MarshalYAML() (any, error) {
	return s.String(), nil
}
