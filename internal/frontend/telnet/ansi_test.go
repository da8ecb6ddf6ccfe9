package telnet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, "\033[31mfainted\033[0m", Colorize(Red, "fainted"))
}

func TestStripANSI(t *testing.T) {
	input := "\033[31mred\033[0m normal \033[1m\033[32mbold green\033[0m"
	assert.Equal(t, "red normal bold green", StripANSI(input))
	assert.Equal(t, "", StripANSI(""))
}

func TestHealthColor(t *testing.T) {
	assert.Equal(t, Green, HealthColor(20, 20))
	assert.Equal(t, Green, HealthColor(11, 20))
	assert.Equal(t, Yellow, HealthColor(10, 20))
	assert.Equal(t, Yellow, HealthColor(5, 20))
	assert.Equal(t, Red, HealthColor(4, 20))
	assert.Equal(t, Red, HealthColor(0, 20))
	assert.Equal(t, Red, HealthColor(0, 0))
}

func TestHealthBar(t *testing.T) {
	assert.Equal(t, "[==========]", StripANSI(HealthBar(20, 20, 10)))
	assert.Equal(t, "[=====     ]", StripANSI(HealthBar(10, 20, 10)))
	assert.Equal(t, "[=         ]", StripANSI(HealthBar(1, 200, 10)))
	assert.Equal(t, "[          ]", StripANSI(HealthBar(0, 20, 10)))
}

// Property: the visible bar is always width cells between brackets.
func TestPropertyHealthBarWidth(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.IntRange(1, 999).Draw(rt, "total")
		current := rapid.IntRange(-10, total+10).Draw(rt, "current")
		width := rapid.IntRange(1, 40).Draw(rt, "width")
		bar := StripANSI(HealthBar(current, total, width))
		inner := strings.TrimSuffix(strings.TrimPrefix(bar, "["), "]")
		assert.Len(t, inner, width)
		if current > 0 {
			assert.True(t, strings.HasPrefix(inner, "="))
		}
	})
}

// Property: StripANSI(Colorize(color, text)) == text for any ASCII text.
func TestPropertyStripANSIInversesColorize(t *testing.T) {
	colors := []string{Red, Green, Blue, Yellow, Cyan, Magenta, White, Bold, Dim}
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 ]{0,50}`).Draw(t, "text")
		colorIdx := rapid.IntRange(0, len(colors)-1).Draw(t, "color")
		assert.Equal(t, text, StripANSI(Colorize(colors[colorIdx], text)))
	})
}
