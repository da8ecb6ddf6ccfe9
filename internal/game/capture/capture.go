package capture

import (
	"math"

	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
)

// ShakeTrials is the number of consecutive shakes a capture needs.
const ShakeTrials = 4

// shakeRange is the exclusive upper bound of a single shake draw.
const shakeRange = 65536

// Result is the outcome of one throw.
type Result struct {
	Caught bool
	// Shakes counts the consecutive successful trials, for the wobble cue.
	Shakes int
	// Trials counts the trials actually evaluated.
	Trials int
}

// ModifiedCatchRate returns the health-, ball- and status-adjusted catch rate:
//
//	floor((3*max - 2*current) / (3*max) * catchRate * ball * status)
//
// Precondition: maxHealth > 0.
// Postcondition: result >= 0.
func ModifiedCatchRate(maxHealth, health, catchRate int, ball, status float64) int {
	if maxHealth <= 0 {
		return 0
	}
	if health < 0 {
		health = 0
	}
	healthMod := float64(3*maxHealth-2*health) / float64(3*maxHealth)
	v := math.Floor(healthMod * float64(catchRate) * ball * status)
	if v < 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// ShakeProbability converts a modified catch rate into the chance of one
// shake, out of 65536:
//
//	1048560 / isqrt(isqrt(16711680 / modified))
//
// Postcondition: 0 for a non-positive rate. A result of 65536 or more always shakes.
func ShakeProbability(modified int) int {
	if modified <= 0 {
		return 0
	}
	inner := isqrt(isqrt(16711680 / modified))
	if inner <= 0 {
		return shakeRange
	}
	return 1048560 / inner
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Floor(math.Sqrt(float64(n))))
}

// Attempt runs up to trials shake trials. The first failure ends the sequence;
// no further trials are evaluated.
//
// Precondition: trials > 0 and shake is non-nil.
// Postcondition: Caught iff Shakes == trials; Trials == min(Shakes+1, trials).
func Attempt(trials int, shake func() bool) Result {
	var r Result
	for r.Trials < trials {
		r.Trials++
		if !shake() {
			return r
		}
		r.Shakes++
	}
	r.Caught = true
	return r
}

// Throw attempts to catch target with the given ball and status modifiers.
//
// Precondition: roll and target are non-nil.
func Throw(roll *dice.Roller, target *creature.Instance, ball, status float64) Result {
	p := ShakeProbability(ModifiedCatchRate(target.MaxHealth(), target.Health, target.Species.CatchRate, ball, status))
	return Attempt(ShakeTrials, func() bool {
		if p >= shakeRange {
			return true
		}
		return roll.Roll("shake", shakeRange) < p
	})
}
