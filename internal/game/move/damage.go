package move

import "math"

// RawDamage evaluates the damage formula
//
//	floor((((2*level/5 + 2) * power * ratio) / 50 + 2) * modifier)
//
// in floating point and floors once at the end.
//
// Postcondition: result >= 0.
func RawDamage(level, power int, ratio, modifier float64) int {
	if power <= 0 || modifier <= 0 {
		return 0
	}
	base := ((2*float64(level)/5+2)*float64(power)*ratio)/50 + 2
	v := math.Floor(base * modifier)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

// CritChance returns the critical-hit probability of a critical-boost stage.
func CritChance(stage int) float64 {
	switch {
	case stage <= 0:
		return 0.0625
	case stage == 1:
		return 0.125
	case stage == 2:
		return 0.25
	case stage == 3:
		return 1.0 / 3.0
	}
	return 0.5
}

// Damage spread bounds, in percent.
const (
	MinSpread = 85
	MaxSpread = 100
)

// Multipliers applied by the damage pipeline.
const (
	STABMultiplier    = 1.5
	CritMultiplier    = 2.0
	BurnMultiplier    = 0.5
	ConfusionHitPower = 40
)

// roundHalf rounds to the nearest integer, halves away from zero.
func roundHalf(v float64) int {
	return int(math.Round(v))
}
