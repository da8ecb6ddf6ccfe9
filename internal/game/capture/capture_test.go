package capture_test

import (
	"testing"

	"github.com/cory-johannsen/monbattle/internal/game/capture"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fixedSrc always returns val % n.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int { return f.val % n }

func TestEscapeChance_FasterEscaperAlwaysSucceeds(t *testing.T) {
	assert.Equal(t, capture.EscapeCeiling, capture.EscapeChance(100, 50, 0))
	roll := dice.NewLoggedRoller(fixedSrc{val: 255}, nil)
	assert.True(t, capture.TryEscape(roll, 100, 50, 0))
}

func TestEscapeChance_SlowerEscaper(t *testing.T) {
	assert.Equal(t, 64, capture.EscapeChance(50, 100, 0))
	assert.Equal(t, 94, capture.EscapeChance(50, 100, 1))
	assert.Equal(t, 128, capture.EscapeChance(80, 80, 0))
}

func TestEscapeChance_WrapsAtByte(t *testing.T) {
	// 64 + 30*7 = 274, wrapped to 18
	assert.Equal(t, 18, capture.EscapeChance(50, 100, 7))
}

func TestTryEscape_RollAgainstChance(t *testing.T) {
	assert.True(t, capture.TryEscape(dice.NewLoggedRoller(fixedSrc{val: 64}, nil), 50, 100, 0))
	assert.False(t, capture.TryEscape(dice.NewLoggedRoller(fixedSrc{val: 65}, nil), 50, 100, 0))
}

func TestProperty_EscapeChanceInByteRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		esc := rapid.IntRange(1, 999).Draw(rt, "escaper")
		opp := rapid.IntRange(1, 999).Draw(rt, "opponent")
		attempts := rapid.IntRange(0, 50).Draw(rt, "attempts")
		c := capture.EscapeChance(esc, opp, attempts)
		if c < 0 || c > 255 {
			rt.Fatalf("chance %d outside [0,255]", c)
		}
		if esc > opp && c != capture.EscapeCeiling {
			rt.Fatalf("faster escaper got %d", c)
		}
	})
}

func TestAttempt_ShortCircuitsOnFailure(t *testing.T) {
	outcomes := []bool{true, false, true}
	calls := 0
	r := capture.Attempt(4, func() bool {
		v := outcomes[calls]
		calls++
		return v
	})
	assert.False(t, r.Caught)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, r.Trials)
	assert.Equal(t, 1, r.Shakes)
}

func TestAttempt_AllSucceed(t *testing.T) {
	r := capture.Attempt(capture.ShakeTrials, func() bool { return true })
	assert.True(t, r.Caught)
	assert.Equal(t, capture.ShakeTrials, r.Shakes)
	assert.Equal(t, capture.ShakeTrials, r.Trials)
}

func TestProperty_AttemptCaughtIffEveryTrialSucceeds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		trials := rapid.IntRange(1, 6).Draw(rt, "trials")
		outcomes := rapid.SliceOfN(rapid.Bool(), trials, trials).Draw(rt, "outcomes")
		calls := 0
		r := capture.Attempt(trials, func() bool {
			v := outcomes[calls]
			calls++
			return v
		})
		allTrue := true
		firstFail := trials
		for i, o := range outcomes {
			if !o {
				allTrue = false
				firstFail = i
				break
			}
		}
		if r.Caught != allTrue {
			rt.Fatalf("caught = %v, want %v", r.Caught, allTrue)
		}
		if r.Shakes != firstFail {
			rt.Fatalf("shakes = %d, want %d", r.Shakes, firstFail)
		}
		if calls != r.Trials || calls != min(firstFail+1, trials) {
			rt.Fatalf("evaluated %d trials, reported %d", calls, r.Trials)
		}
	})
}

func TestModifiedCatchRate(t *testing.T) {
	// full health: (300-200)/300 * 45 = 15
	assert.Equal(t, 15, capture.ModifiedCatchRate(100, 100, 45, 1, 1))
	// one health point left, ultra ball, asleep: 298/300 * 45 * 2 * 2 = 178.8
	assert.Equal(t, 178, capture.ModifiedCatchRate(100, 1, 45, 2, 2))
	assert.Equal(t, 0, capture.ModifiedCatchRate(0, 0, 45, 1, 1))
}

func TestShakeProbability(t *testing.T) {
	assert.Equal(t, 0, capture.ShakeProbability(0))
	// 16711680/15 = 1114112, isqrt = 1055, isqrt = 32
	assert.Equal(t, 32767, capture.ShakeProbability(15))
	assert.Equal(t, 65535, capture.ShakeProbability(255))
	assert.GreaterOrEqual(t, capture.ShakeProbability(3825), 65536)
}

func TestThrow_MasterBallNeverFails(t *testing.T) {
	sp := &creature.Species{ID: 1, Name: "Testmon", Types: []creature.Type{creature.Normal},
		BaseStats: creature.Stats{HP: 100, Attack: 50, Defense: 50, SpAttack: 50, SpDefense: 50, Speed: 50}, CatchRate: 45}
	target, err := creature.NewInstance(sp, 50, creature.Stats{}, creature.Stats{})
	require.NoError(t, err)
	roll := dice.NewLoggedRoller(fixedSrc{val: 65535}, nil)
	r := capture.Throw(roll, target, 255, 1)
	assert.True(t, r.Caught)
	assert.Equal(t, capture.ShakeTrials, r.Shakes)
}

func TestBall_CatchModifier(t *testing.T) {
	cases := []struct {
		name string
		ball capture.Ball
		s    capture.Situation
		want float64
	}{
		{"great", capture.Ball{Kind: capture.FlatBall, Modifier: 1.5}, capture.Situation{}, 1.5},
		{"zero modifier", capture.Ball{Kind: capture.FlatBall}, capture.Situation{}, 1},
		{"net on water", capture.Ball{Kind: capture.NetBall}, capture.Situation{TargetTypes: []creature.Type{creature.Water}}, 3.5},
		{"net on fire", capture.Ball{Kind: capture.NetBall}, capture.Situation{TargetTypes: []creature.Type{creature.Fire}}, 1},
		{"timer early", capture.Ball{Kind: capture.TimerBall}, capture.Situation{Turn: 5}, 1.5},
		{"timer capped", capture.Ball{Kind: capture.TimerBall}, capture.Situation{Turn: 90}, 4},
		{"quick first turn", capture.Ball{Kind: capture.QuickBall}, capture.Situation{Turn: 0}, 4},
		{"quick later", capture.Ball{Kind: capture.QuickBall}, capture.Situation{Turn: 3}, 1},
		{"repeat caught", capture.Ball{Kind: capture.RepeatBall}, capture.Situation{AlreadyCaught: true}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.ball.CatchModifier(tc.s), 1e-9)
		})
	}
}
