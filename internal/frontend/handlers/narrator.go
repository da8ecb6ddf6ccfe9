package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
)

// lineWriter is the part of a console the narrator writes through.
type lineWriter interface {
	WriteLine(text string) error
}

// Narrator is a battle.Presenter that renders queued events to a Telnet
// console each time the session awaits playback.
type Narrator struct {
	mu    sync.Mutex
	queue []battle.Event
	out   lineWriter
}

// NewNarrator creates a Narrator writing to out.
//
// Precondition: out must not be nil.
func NewNarrator(out lineWriter) *Narrator {
	return &Narrator{out: out}
}

// Enqueue implements battle.Presenter.
func (n *Narrator) Enqueue(e battle.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, e)
}

// Play implements battle.Presenter.
func (n *Narrator) Play(ctx context.Context) error {
	n.mu.Lock()
	queue := n.queue
	n.queue = nil
	n.mu.Unlock()

	for _, e := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}
		text := RenderEvent(e)
		if text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\r\n") {
			if err := n.out.WriteLine(line); err != nil {
				return fmt.Errorf("narrating %s: %w", e.Kind, err)
			}
		}
	}
	return nil
}
