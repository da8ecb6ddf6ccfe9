// Package dice provides the randomness abstraction shared by every battle
// rule that depends on chance: accuracy, critical hits, damage spread,
// secondary effects, speed ties, escape, and capture.
package dice

// Source is the randomness provider for battle rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// chanceResolution is the number of discrete steps a probability is
// quantised to before it is compared against a draw.
const chanceResolution = 1_000_000

// Chance reports whether a draw from src falls under probability p.
//
// Precondition: src must be non-nil.
// Postcondition: p <= 0 always yields false; p >= 1 always yields true.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Intn(chanceResolution) < int(p*chanceResolution)
}

// Between returns a uniform int in the closed interval [lo, hi].
//
// Precondition: src must be non-nil.
// Postcondition: when hi <= lo the result is lo and src is not consulted.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}
