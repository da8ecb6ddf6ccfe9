// Package capture computes the probability rolls that end a wild battle
// early: fleeing and throwing a ball.
package capture

import "github.com/cory-johannsen/monbattle/internal/game/dice"

// EscapeCeiling is the chance value that always succeeds.
const EscapeCeiling = 255

// EscapeChance returns the flee chance out of 256 for an escaper against an
// opponent, using raw (unstaged) speeds.
//
// A faster escaper always gets the ceiling. Otherwise the chance is
// floor(escaper*128/opponent) + 30*priorAttempts, wrapped to a byte.
//
// Postcondition: 0 <= result <= 255.
func EscapeChance(escaperSpeed, opponentSpeed, priorAttempts int) int {
	if escaperSpeed > opponentSpeed || opponentSpeed <= 0 {
		return EscapeCeiling
	}
	chance := escaperSpeed*128/opponentSpeed + 30*priorAttempts
	return chance & 0xff
}

// TryEscape rolls a flee attempt. The roll is uniform in [0,255] and succeeds
// when it does not exceed the chance.
func TryEscape(roll *dice.Roller, escaperSpeed, opponentSpeed, priorAttempts int) bool {
	chance := EscapeChance(escaperSpeed, opponentSpeed, priorAttempts)
	if chance >= EscapeCeiling {
		return true
	}
	return roll.Roll("escape", 256) <= chance
}
