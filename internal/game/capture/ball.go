package capture

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"gopkg.in/yaml.v3"
)

// BallKind selects how a ball computes its catch modifier.
type BallKind int

const (
	// FlatBall uses its fixed modifier.
	FlatBall BallKind = iota
	// NetBall favours Water and Bug types.
	NetBall
	// TimerBall grows stronger as the battle drags on.
	TimerBall
	// QuickBall is strongest on the first turn.
	QuickBall
	// RepeatBall favours species already caught.
	RepeatBall
)

var ballKindNames = [...]string{"flat", "net", "timer", "quick", "repeat"}

// String returns the ball kind id.
func (k BallKind) String() string {
	if k >= 0 && int(k) < len(ballKindNames) {
		return ballKindNames[k]
	}
	return fmt.Sprintf("ball(%d)", int(k))
}

// UnmarshalYAML decodes a ball kind id.
func (k *BallKind) UnmarshalYAML(node *yaml.Node) error {
	for i, n := range ballKindNames {
		if strings.EqualFold(n, node.Value) {
			*k = BallKind(i)
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown ball kind %q", node.Line, node.Value)
}

// Ball is the catch data of a ball item.
type Ball struct {
	Kind     BallKind `yaml:"kind"`
	Modifier float64  `yaml:"modifier"`
}

// Situation is what a ball may inspect when computing its modifier.
type Situation struct {
	Turn          int
	TargetTypes   []creature.Type
	AlreadyCaught bool
}

// MaxTimerModifier caps the timer ball's modifier.
const MaxTimerModifier = 4

// CatchModifier returns the ball's catch rate multiplier in situation s.
func (b Ball) CatchModifier(s Situation) float64 {
	switch b.Kind {
	case NetBall:
		for _, t := range s.TargetTypes {
			if t == creature.Water || t == creature.Bug {
				return 3.5
			}
		}
		return 1
	case TimerBall:
		return min(float64(s.Turn+10)/10, MaxTimerModifier)
	case QuickBall:
		if s.Turn == 0 {
			return 4
		}
		return 1
	case RepeatBall:
		if s.AlreadyCaught {
			return 3
		}
		return 1
	}
	if b.Modifier <= 0 {
		return 1
	}
	return b.Modifier
}
