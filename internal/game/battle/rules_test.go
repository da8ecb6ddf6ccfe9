package battle_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
)

func TestParseKind(t *testing.T) {
	for s, want := range map[string]battle.Kind{"wild": battle.Wild, "Trainer": battle.Trainer, "LINK": battle.Link} {
		got, err := battle.ParseKind(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got)
	}
	_, err := battle.ParseKind("safari")
	assert.Error(t, err)
	assert.Equal(t, "kind(9)", battle.Kind(9).String())
}

func TestParseTieBreak(t *testing.T) {
	for s, want := range map[string]battle.TieBreak{"": battle.TieRandom, "random": battle.TieRandom, "FIRST": battle.TieFirst} {
		got, err := battle.ParseTieBreak(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got)
	}
	_, err := battle.ParseTieBreak("coin")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "opponent_fled", battle.OpponentFled.String())
	assert.Equal(t, "caught", battle.Caught.String())
	assert.Equal(t, "end_of_turn", battle.StateEndOfTurn.String())
	assert.Equal(t, "item", battle.UseItem.String())
	assert.Equal(t, "outcome(12)", battle.Outcome(12).String())
}

func TestDefaultPermissions(t *testing.T) {
	assert.Equal(t, battle.AllItems(), battle.DefaultPermissions(battle.Wild))
	trainer := battle.DefaultPermissions(battle.Trainer)
	assert.False(t, trainer.Balls)
	assert.True(t, trainer.Allows(inventory.HPRestore))
	assert.Equal(t, battle.ItemPermissions{}, battle.DefaultPermissions(battle.Link))
	assert.False(t, battle.DefaultPermissions(battle.Link).Allows(inventory.Ball))
}

func TestCheckAction(t *testing.T) {
	cat := loadCatalog(t)
	active := mon(t, cat, species(900, "Titan", 100), 60, pound, harden)
	bench := mon(t, cat, species(901, "Squire", 100), 60, pound)
	down := mon(t, cat, species(902, "Pebble", 10), 2, pound)
	down.Health = 0
	own := party(t, active, bench, down)
	bag := inventory.NewBag(cat.Items, 0, 0)
	require.NoError(t, bag.Add(pokeBall, 1))

	wild := battle.View{Kind: battle.Wild, CanFlee: true, Permissions: battle.AllItems(), Own: own, Moves: cat.Moves, Items: cat.Items, Bag: bag}
	trainer := wild
	trainer.Kind, trainer.CanFlee, trainer.Permissions = battle.Trainer, false, battle.DefaultPermissions(battle.Trainer)

	tests := []struct {
		name  string
		view  battle.View
		act   battle.Action
		legal bool
	}{
		{name: "fight", view: wild, act: battle.FightAction(1), legal: true},
		{name: "empty move slot", view: wild, act: battle.FightAction(3)},
		{name: "struggle with PP left", view: wild, act: battle.StruggleAction()},
		{name: "flee wild", view: wild, act: battle.FleeAction(), legal: true},
		{name: "flee trainer", view: trainer, act: battle.FleeAction()},
		{name: "switch to bench", view: wild, act: battle.SwitchAction(1), legal: true},
		{name: "switch to active", view: wild, act: battle.SwitchAction(0)},
		{name: "switch to fainted", view: wild, act: battle.SwitchAction(2)},
		{name: "ball wild", view: wild, act: battle.BallAction(pokeBall), legal: true},
		{name: "ball trainer", view: trainer, act: battle.BallAction(pokeBall)},
		{name: "ball not in bag", view: wild, act: battle.BallAction(pokeBall + 1)},
		{name: "unknown item", view: wild, act: battle.ItemAction(9999, 0, -1)},
		{name: "potion at full health", view: wild, act: battle.ItemAction(20, 0, -1)},
		{name: "unknown kind", view: wild, act: battle.Action{Kind: battle.ActionKind(9)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := battle.CheckAction(tc.view, tc.act)
			if tc.legal {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, battle.ErrIllegalAction)
		})
	}

	t.Run("struggle without PP", func(t *testing.T) {
		for i := range active.Moves {
			active.Moves[i].PP = 0
		}
		defer func() {
			for i := range active.Moves {
				active.Moves[i].PP = active.Moves[i].MaxPP
			}
		}()
		assert.NoError(t, battle.CheckAction(wild, battle.StruggleAction()))
		assert.ErrorIs(t, battle.CheckAction(wild, battle.FightAction(0)), battle.ErrIllegalAction)
	})
	t.Run("trapped", func(t *testing.T) {
		active.Battle.Volatile.CantEscape = true
		defer func() { active.Battle.Volatile.CantEscape = false }()
		assert.True(t, wild.Trapped())
		assert.ErrorIs(t, battle.CheckAction(wild, battle.FleeAction()), battle.ErrIllegalAction)
		assert.ErrorIs(t, battle.CheckAction(wild, battle.SwitchAction(1)), battle.ErrIllegalAction)
	})
}

func TestCheckReplacement(t *testing.T) {
	cat := loadCatalog(t)
	down := mon(t, cat, species(902, "Pebble", 10), 2, pound)
	down.Health = 0
	p := party(t, down, mon(t, cat, species(901, "Squire", 100), 60, pound))

	assert.NoError(t, battle.CheckReplacement(p, 1))
	assert.ErrorIs(t, battle.CheckReplacement(p, 0), battle.ErrIllegalAction)
	assert.ErrorIs(t, battle.CheckReplacement(p, 4), battle.ErrIllegalAction)
	assert.ErrorIs(t, battle.CheckReplacement(p, -1), battle.ErrIllegalAction)
	assert.ErrorIs(t, battle.CheckReplacement(p, creature.PartySize), battle.ErrIllegalAction)
}

func TestEventLine(t *testing.T) {
	assert.Equal(t, "Go! Titan!", battle.Event{Kind: battle.EventSendOut, Text: "Go! Titan!"}.Line())
	assert.Equal(t, "Titan: 40/120 HP", battle.Event{Kind: battle.EventDamage, Name: "Titan", After: 40, Max: 120}.Line())
	assert.Equal(t, "Hit 3 time(s)!", battle.Event{Kind: battle.EventHits, Count: 3}.Line())
	assert.Equal(t, "The ball shook 2 time(s).", battle.Event{Kind: battle.EventWobble, Count: 2}.Line())
	assert.Empty(t, battle.Event{Kind: battle.EventRetract}.Line())
}

func TestWriterPresenter_WritesQueuedLinesOnPlay(t *testing.T) {
	var buf bytes.Buffer
	p := battle.NewWriterPresenter(&buf)
	p.Enqueue(battle.Event{Kind: battle.EventText, Text: "A wild Pebble appeared!"})
	p.Enqueue(battle.Event{Kind: battle.EventRetract})
	assert.Empty(t, buf.String())

	require.NoError(t, p.Play(context.Background()))
	require.NoError(t, p.Play(context.Background()))
	assert.Equal(t, "A wild Pebble appeared!\n", buf.String())
}

func TestTee_JoinsErrors(t *testing.T) {
	broken := errors.New("terminal closed")
	rec := &battle.Recorder{}
	failing := battle.NewLinePresenter(func(string) error { return broken })
	p := battle.Tee(rec, failing)

	p.Enqueue(battle.Event{Kind: battle.EventText, Text: "Pebble fainted!"})
	err := p.Play(context.Background())
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, []string{"Pebble fainted!"}, rec.Lines())
	assert.Equal(t, 1, rec.Plays())
}
