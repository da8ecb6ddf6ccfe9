package dice

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive integer interval parsed from data files, such as a
// multi-hit count "2-5" or a fixed duration "3".
//
// Invariant: 0 <= Min <= Max after a successful ParseRange.
type Range struct {
	Raw string
	Min int
	Max int
}

// ParseRange parses a range expression.
// Supported forms: "3", "2-5", "1..4".
//
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a Range with 0 <= Min <= Max or a descriptive error.
func ParseRange(expr string) (Range, error) {
	raw := expr
	s := strings.TrimSpace(expr)
	if s == "" {
		return Range{}, fmt.Errorf("dice: empty range")
	}

	lo, hi := s, s
	if idx := strings.Index(s, ".."); idx >= 0 {
		lo, hi = s[:idx], s[idx+2:]
	} else if idx := strings.Index(s[1:], "-"); idx >= 0 {
		lo, hi = s[:idx+1], s[idx+2:]
	}

	min, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Range{}, fmt.Errorf("dice: invalid range minimum in %q: %w", raw, err)
	}
	max, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return Range{}, fmt.Errorf("dice: invalid range maximum in %q: %w", raw, err)
	}
	if min < 0 {
		return Range{}, fmt.Errorf("dice: range minimum in %q must be >= 0", raw)
	}
	if max < min {
		return Range{}, fmt.Errorf("dice: range %q has maximum below minimum", raw)
	}
	return Range{Raw: raw, Min: min, Max: max}, nil
}

// MustParseRange parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid range expression.
func MustParseRange(expr string) Range {
	rg, err := ParseRange(expr)
	if err != nil {
		panic("dice: MustParseRange failed for expression " + expr + ": " + err.Error())
	}
	return rg
}

// IsZero reports whether the range was never set.
func (r Range) IsZero() bool {
	return r.Raw == "" && r.Min == 0 && r.Max == 0
}

// Fixed reports whether the range always yields the same value.
func (r Range) Fixed() bool {
	return r.Min == r.Max
}

// String returns the canonical "min-max" form.
func (r Range) String() string {
	if r.Fixed() {
		return strconv.Itoa(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// UnmarshalYAML accepts either an integer node or a range string.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("dice: range must be a scalar at line %d", node.Line)
	}
	parsed, err := ParseRange(node.Value)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
