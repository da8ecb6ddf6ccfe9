package participant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/netplay"
	"go.uber.org/zap"
)

// ErrListenerStopped is returned by a Remote's requests once its listener has
// exited and every queued choice has been consumed.
var ErrListenerStopped = errors.New("participant: remote listener stopped")

// Receiver delivers the peer's wire messages. netplay.Conn implements it.
type Receiver interface {
	Receive(ctx context.Context) (netplay.Message, error)
}

// Sender delivers wire messages to the peer. netplay.Conn implements it.
type Sender interface {
	Send(ctx context.Context, m netplay.Message) error
}

// Remote mirrors the peer of a linked battle. A background listener enqueues
// the peer's choices as they arrive; requests drain the queues in order.
//
// Invariant: each queue is written only by Listen and read only by the
// battle goroutine.
type Remote struct {
	name         string
	party        *creature.Party
	logger       *zap.Logger
	actions      *fifo[battle.Action]
	replacements *fifo[int]

	stopOnce sync.Once
	done     chan struct{}
	cause    error
}

// NewRemote creates a Remote for the peer's party.
//
// Precondition: party must not be nil. A nil logger is replaced with zap.NewNop().
func NewRemote(name string, party *creature.Party, logger *zap.Logger) *Remote {
	if party == nil {
		panic("participant.NewRemote: party must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remote{
		name:         name,
		party:        party,
		logger:       logger,
		actions:      newFIFO[battle.Action](),
		replacements: newFIFO[int](),
		done:         make(chan struct{}),
	}
}

// Name returns the peer trainer's name.
func (r *Remote) Name() string { return r.name }

// Party returns the peer's party.
func (r *Remote) Party() *creature.Party { return r.party }

// Listen receives messages until rx fails, ctx ends or the peer breaks the
// protocol. It returns the cause, which later requests also report.
func (r *Remote) Listen(ctx context.Context, rx Receiver) error {
	for {
		m, err := rx.Receive(ctx)
		if err != nil {
			r.stop(err)
			return err
		}
		switch m := m.(type) {
		case *netplay.Action:
			r.actions.push(m.Battle())
		case *netplay.ReplacementIndex:
			r.replacements.push(m.Index)
		default:
			err := fmt.Errorf("%w: %s during battle", netplay.ErrUnexpectedMessage, m.Kind())
			r.logger.Warn("remote peer broke protocol", zap.String("peer", r.name), zap.Error(err))
			r.stop(err)
			return err
		}
	}
}

// Stop ends the listener's contribution; pending requests fail once the
// queues are drained.
func (r *Remote) Stop() {
	r.stop(nil)
}

func (r *Remote) stop(cause error) {
	r.stopOnce.Do(func() {
		r.cause = cause
		close(r.done)
	})
}

func (r *Remote) stoppedErr() error {
	if r.cause == nil {
		return ErrListenerStopped
	}
	return fmt.Errorf("%w: %w", ErrListenerStopped, r.cause)
}

// Pending returns how many actions and replacements are queued.
func (r *Remote) Pending() (actions, replacements int) {
	return r.actions.len(), r.replacements.len()
}

// RequestAction returns the next action the peer sent, blocking until one arrives.
func (r *Remote) RequestAction(ctx context.Context, _ battle.View) (battle.Action, error) {
	a, ok, err := r.actions.pop(ctx, r.done)
	if err != nil {
		return battle.Action{}, err
	}
	if !ok {
		return battle.Action{}, r.stoppedErr()
	}
	return a, nil
}

// RequestReplacement returns the next replacement slot the peer sent.
func (r *Remote) RequestReplacement(ctx context.Context, _ battle.View) (int, error) {
	i, ok, err := r.replacements.pop(ctx, r.done)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, r.stoppedErr()
	}
	return i, nil
}

// Publishing decorates a local participant, mirroring each choice to the
// peer so its Remote sees the same sequence.
type Publishing struct {
	battle.Participant
	tx Sender
}

// Publish wraps p so that its choices are sent through tx.
//
// Precondition: p and tx must not be nil.
func Publish(p battle.Participant, tx Sender) *Publishing {
	if p == nil || tx == nil {
		panic("participant.Publish: participant and sender must not be nil")
	}
	return &Publishing{Participant: p, tx: tx}
}

func (p *Publishing) RequestAction(ctx context.Context, v battle.View) (battle.Action, error) {
	a, err := p.Participant.RequestAction(ctx, v)
	if err != nil {
		return a, err
	}
	if err := p.tx.Send(ctx, netplay.NewAction(a)); err != nil {
		return a, fmt.Errorf("publishing action: %w", err)
	}
	return a, nil
}

func (p *Publishing) RequestReplacement(ctx context.Context, v battle.View) (int, error) {
	i, err := p.Participant.RequestReplacement(ctx, v)
	if err != nil {
		return i, err
	}
	if err := p.tx.Send(ctx, &netplay.ReplacementIndex{Index: i}); err != nil {
		return i, fmt.Errorf("publishing replacement: %w", err)
	}
	return i, nil
}

// Timed bounds every request of the wrapped participant.
type Timed struct {
	battle.Participant
	limit time.Duration
}

// WithTimeout wraps p so each request fails with context.DeadlineExceeded
// after limit. A limit <= 0 returns p unchanged.
func WithTimeout(p battle.Participant, limit time.Duration) battle.Participant {
	if limit <= 0 {
		return p
	}
	return &Timed{Participant: p, limit: limit}
}

func (t *Timed) RequestAction(ctx context.Context, v battle.View) (battle.Action, error) {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()
	return t.Participant.RequestAction(ctx, v)
}

func (t *Timed) RequestReplacement(ctx context.Context, v battle.View) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()
	return t.Participant.RequestReplacement(ctx, v)
}
