package handlers_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/frontend/handlers"
	"github.com/cory-johannsen/monbattle/internal/frontend/telnet"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/catalog"
	"github.com/cory-johannsen/monbattle/internal/storage/postgres"
)

func TestRenderEvent(t *testing.T) {
	cases := []struct {
		name  string
		event battle.Event
		color string
		want  string
	}{
		{"damage", battle.Event{Kind: battle.EventDamage, Name: "Pidgey", After: 7, Max: 28}, "", "Pidgey       [=====               ] 7/28"},
		{"faint", battle.Event{Kind: battle.EventFaint, Text: "Pidgey fainted!"}, telnet.Red, "Pidgey fainted!"},
		{"stage down", battle.Event{Kind: battle.EventStage, Delta: -1, Text: "Attack fell!"}, telnet.Blue, "Attack fell!"},
		{"stage up", battle.Event{Kind: battle.EventStage, Delta: 2, Text: "Attack sharply rose!"}, telnet.Magenta, "Attack sharply rose!"},
		{"status", battle.Event{Kind: battle.EventStatus, Text: "Pidgey was burned!"}, telnet.Yellow, "Pidgey was burned!"},
		{"weather", battle.Event{Kind: battle.EventWeather, Text: "It started to rain!"}, telnet.Cyan, "It started to rain!"},
		{"send out", battle.Event{Kind: battle.EventSendOut, Text: "Go! Charmander!"}, telnet.Bold, "Go! Charmander!"},
		{"wobble", battle.Event{Kind: battle.EventWobble, Count: 2}, "", "The ball shook 2 time(s)."},
		{"silent", battle.Event{Kind: battle.EventRetract}, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := handlers.RenderEvent(tc.event)
			assert.Equal(t, tc.want, telnet.StripANSI(got))
			if tc.color != "" {
				assert.True(t, strings.HasPrefix(got, tc.color), "want %q color", tc.name)
			}
		})
	}
}

func TestRenderEvent_DamageWithText(t *testing.T) {
	got := telnet.StripANSI(handlers.RenderEvent(battle.Event{Kind: battle.EventHeal, Name: "Squirtle", Text: "Squirtle regained health!", After: 20, Max: 20}))
	lines := strings.Split(got, "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Squirtle regained health!", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "20/20"))
}

func TestRenderParty_MarksActive(t *testing.T) {
	cat, err := catalog.Load(content.FS, nil)
	require.NoError(t, err)
	p, _, err := cat.Party("starter_fire")
	require.NoError(t, err)
	p.Active = 1

	lines := strings.Split(strings.TrimRight(telnet.StripANSI(handlers.RenderParty(p)), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "  1. "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], " *2. "), lines[1])
}

func TestRenderTeams(t *testing.T) {
	assert.Contains(t, handlers.RenderTeams(nil), "Nobody is around.")

	cat, err := catalog.Load(content.FS, nil)
	require.NoError(t, err)
	out := handlers.RenderTeams(cat.TeamsOfKind("link"))
	assert.Contains(t, out, "1. starter_fire")
	assert.Contains(t, out, "Lv12 Lv10")
}

func TestRenderResult(t *testing.T) {
	cat, err := catalog.Load(content.FS, nil)
	require.NoError(t, err)
	p, _, err := cat.Party("wild_route1")
	require.NoError(t, err)

	res := &battle.Result{
		Outcome:     battle.Caught,
		Turns:       4,
		MoneyDelta:  -120,
		Caught:      p.Slots[0],
		Diagnostics: []battle.Diagnostic{{Code: "placeholder", Message: "opponent missing"}},
	}
	out := telnet.StripANSI(handlers.RenderResult(res))
	assert.Contains(t, out, "CAUGHT after 4 turn(s).")
	assert.Contains(t, out, "Money: -120")
	assert.Contains(t, out, p.Slots[0].Name()+" was added to your collection.")
	assert.Contains(t, out, "note: ")

	win := handlers.RenderResult(&battle.Result{Outcome: battle.Win, Turns: 1})
	assert.True(t, strings.HasPrefix(win, telnet.Green))
	assert.NotContains(t, win, "Money")
}

func TestRenderRecords(t *testing.T) {
	assert.Contains(t, handlers.RenderRecords(nil), "No battles recorded yet.")

	out := handlers.RenderRecords([]postgres.BattleRecord{{
		ID:           uuid.New(),
		Kind:         "trainer",
		Outcome:      "win",
		Turns:        6,
		PlayerName:   "Ash",
		OpponentName: "Youngster Ben",
		CreatedAt:    time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC),
	}})
	assert.Contains(t, out, "2024-03-09 14:05")
	assert.Contains(t, out, "Youngster Ben")
	assert.Contains(t, out, "6 turn(s)")
}
