package battle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
)

// EventKind discriminates visual events.
type EventKind int

const (
	EventText EventKind = iota
	EventSendOut
	EventRetract
	EventDamage
	EventHeal
	EventStage
	EventStatus
	EventHits
	EventWobble
	EventFaint
	EventWeather
)

var eventKindNames = [...]string{"text", "send_out", "retract", "damage", "heal", "stage", "status", "hits", "wobble", "faint", "weather"}

// String returns the event kind id.
func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one opaque visual cue handed to the presentation layer.
type Event struct {
	Kind   EventKind
	Side   int
	Name   string
	Text   string
	Before int
	After  int
	Max    int
	Stat   creature.Stat
	Delta  int
	Status condition.NonVolatile
	Count  int
}

// Line renders the event as one line of narration. Events without anything
// to say render as "".
func (e Event) Line() string {
	if e.Text != "" {
		return e.Text
	}
	switch e.Kind {
	case EventDamage, EventHeal:
		return fmt.Sprintf("%s: %d/%d HP", e.Name, e.After, e.Max)
	case EventHits:
		return fmt.Sprintf("Hit %d time(s)!", e.Count)
	case EventWobble:
		return fmt.Sprintf("The ball shook %d time(s).", e.Count)
	}
	return ""
}

// Presenter queues visual events and plays them back. The session enqueues
// events as rules resolve and awaits Play at fixed points, never mid-move.
type Presenter interface {
	Enqueue(e Event)
	Play(ctx context.Context) error
}

// NopPresenter discards every event.
type NopPresenter struct{}

// Enqueue implements Presenter.
func (NopPresenter) Enqueue(Event) {}

// Play implements Presenter.
func (NopPresenter) Play(context.Context) error { return nil }

// Recorder keeps every event it is given. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	pending int
	plays   int
}

// Enqueue implements Presenter.
func (r *Recorder) Enqueue(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.pending++
}

// Play implements Presenter.
func (r *Recorder) Play(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = 0
	r.plays++
	return ctx.Err()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Lines returns the rendered, non-empty lines of every recorded event.
func (r *Recorder) Lines() []string {
	var out []string
	for _, e := range r.Events() {
		if l := e.Line(); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Plays returns how many times Play was awaited.
func (r *Recorder) Plays() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plays
}

// LinePresenter writes each event's line through a sink when played.
type LinePresenter struct {
	mu    sync.Mutex
	queue []Event
	write func(string) error
}

// NewLinePresenter creates a presenter that hands rendered lines to write.
//
// Precondition: write must not be nil.
func NewLinePresenter(write func(string) error) *LinePresenter {
	return &LinePresenter{write: write}
}

// NewWriterPresenter creates a presenter that prints one line per event to w.
func NewWriterPresenter(w io.Writer) *LinePresenter {
	return NewLinePresenter(func(line string) error {
		_, err := fmt.Fprintln(w, line)
		return err
	})
}

// Enqueue implements Presenter.
func (p *LinePresenter) Enqueue(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, e)
}

// Play implements Presenter.
func (p *LinePresenter) Play(ctx context.Context) error {
	p.mu.Lock()
	queue := p.queue
	p.queue = nil
	p.mu.Unlock()
	for _, e := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l := e.Line(); l != "" {
			if err := p.write(l); err != nil {
				return fmt.Errorf("presenting event: %w", err)
			}
		}
	}
	return nil
}

// Tee fans events out to several presenters. Play awaits every one and joins
// their errors.
func Tee(ps ...Presenter) Presenter {
	return tee(ps)
}

type tee []Presenter

func (t tee) Enqueue(e Event) {
	for _, p := range t {
		p.Enqueue(e)
	}
}

func (t tee) Play(ctx context.Context) error {
	var errs []error
	for _, p := range t {
		if err := p.Play(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
