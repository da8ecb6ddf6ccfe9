package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/monbattle/internal/frontend/handlers"
	"github.com/cory-johannsen/monbattle/internal/frontend/telnet"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
)

type lines struct {
	out []string
	err error
}

func (l *lines) WriteLine(text string) error {
	if l.err != nil {
		return l.err
	}
	l.out = append(l.out, telnet.StripANSI(text))
	return nil
}

func TestNarrator_PlaysQueuedEventsOnce(t *testing.T) {
	out := &lines{}
	n := handlers.NewNarrator(out)
	n.Enqueue(battle.Event{Kind: battle.EventText, Text: "Charmander used Ember!"})
	n.Enqueue(battle.Event{Kind: battle.EventRetract})
	n.Enqueue(battle.Event{Kind: battle.EventDamage, Name: "Bulbasaur", Text: "It's super effective!", After: 10, Max: 30})

	require.NoError(t, n.Play(context.Background()))
	require.Len(t, out.out, 3)
	assert.Equal(t, "Charmander used Ember!", out.out[0])
	assert.Equal(t, "It's super effective!", out.out[1])
	assert.Contains(t, out.out[2], "10/30")

	require.NoError(t, n.Play(context.Background()))
	assert.Len(t, out.out, 3)
}

func TestNarrator_WrapsWriteErrors(t *testing.T) {
	boom := errors.New("connection reset")
	n := handlers.NewNarrator(&lines{err: boom})
	n.Enqueue(battle.Event{Kind: battle.EventFaint, Text: "Pidgey fainted!"})

	err := n.Play(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "narrating faint")
}

func TestNarrator_StopsOnCancellation(t *testing.T) {
	out := &lines{}
	n := handlers.NewNarrator(out)
	n.Enqueue(battle.Event{Kind: battle.EventText, Text: "never shown"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Play(ctx), context.Canceled)
	assert.Empty(t, out.out)
}
