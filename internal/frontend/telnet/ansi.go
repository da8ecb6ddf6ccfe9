// Package telnet serves human battlers over Telnet: connection handling with
// IAC filtering, a TCP acceptor, and ANSI styling for battle narration.
package telnet

import "strings"

// ANSI escape codes used by the battle narration.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns text wrapped with the color code and Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// HealthColor picks the health bar color: green above half, yellow above a
// fifth, red otherwise.
func HealthColor(current, total int) string {
	switch {
	case total <= 0 || current*5 <= total:
		return Red
	case current*2 <= total:
		return Yellow
	}
	return Green
}

// HealthBar renders current/total as a colored bar width cells wide. A
// battler with any health left shows at least one filled cell.
//
// Precondition: width must be > 0.
func HealthBar(current, total, width int) string {
	filled := 0
	if total > 0 {
		current = min(max(current, 0), total)
		filled = current * width / total
		if filled == 0 && current > 0 {
			filled = 1
		}
	}
	return "[" + Colorize(HealthColor(current, total), strings.Repeat("=", filled)) + strings.Repeat(" ", width-filled) + "]"
}

// StripANSI removes all ANSI escape sequences from a string.
// This is useful for measuring the printable width of styled text.
//
// Postcondition: Returns text with all \033[...m sequences removed.
func StripANSI(s string) string {
	result := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				i = j + 1
				continue
			}
		}
		result = append(result, s[i])
		i++
	}
	return string(result)
}
