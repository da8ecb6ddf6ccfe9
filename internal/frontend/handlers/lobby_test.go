package handlers_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/config"
	"github.com/cory-johannsen/monbattle/internal/frontend/handlers"
	"github.com/cory-johannsen/monbattle/internal/frontend/telnet"
	"github.com/cory-johannsen/monbattle/internal/game/ai"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/catalog"
	"github.com/cory-johannsen/monbattle/internal/storage/postgres"
)

// battleChoices cycles through every move slot and then falls back to a
// bare fight, which struggles once no move has PP left.
var battleChoices = []string{"1", "2", "3", "4", "fight"}

// playerConsole answers lobby prompts from a script and battle prompts with
// a fixed rotation, so any battle eventually ends.
type playerConsole struct {
	mu      sync.Mutex
	lobby   []string
	prompt  string
	turns   int
	members int
	out     []string
}

func (c *playerConsole) WriteLine(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, telnet.StripANSI(text))
	return nil
}

func (c *playerConsole) WritePrompt(prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = telnet.StripANSI(prompt)
	c.out = append(c.out, c.prompt)
	return nil
}

func (c *playerConsole) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case strings.HasPrefix(c.prompt, "What will"):
		c.turns++
		return battleChoices[c.turns%len(battleChoices)], nil
	case strings.HasPrefix(c.prompt, "Send out"):
		c.members++
		return string(rune('1' + c.members%6)), nil
	case strings.Contains(c.prompt, "evolving"):
		return "y", nil
	}
	if len(c.lobby) == 0 {
		return "", io.EOF
	}
	l := c.lobby[0]
	c.lobby = c.lobby[1:]
	return l, nil
}

func (c *playerConsole) said(sub string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.out {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

type fakeRecords struct {
	saved  []postgres.BattleRecord
	recent []postgres.BattleRecord
	err    error
}

func (f *fakeRecords) Save(_ context.Context, rec postgres.BattleRecord) (postgres.BattleRecord, error) {
	if f.err != nil {
		return postgres.BattleRecord{}, f.err
	}
	rec.CreatedAt = time.Now()
	f.saved = append(f.saved, rec)
	return rec, nil
}

func (f *fakeRecords) ListRecent(context.Context, int) ([]postgres.BattleRecord, error) {
	return f.recent, f.err
}

func battleConfig() config.BattleConfig {
	return config.BattleConfig{
		TieBreak:      "random",
		BasePayout:    10,
		StartingMoney: 3000,
		MaxMoney:      999999,
		Language:      "en",
	}
}

func newHandler(t *testing.T, records handlers.Records) (*handlers.BattleHandler, *observer.ObservedLogs) {
	t.Helper()
	cat, err := catalog.Load(content.FS, nil)
	require.NoError(t, err)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	return handlers.NewBattleHandler(cat, ai.NewRegistry(nil), battle.NewManager(logger), records, battleConfig(), logger), logs
}

func serve(t *testing.T, h *handlers.BattleHandler, c *playerConsole) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, h.Serve(ctx, c))
}

func TestServe_LobbyCommands(t *testing.T) {
	h, logs := newHandler(t, nil)
	c := &playerConsole{lobby: []string{"Ash", "9", "starter_water", "", "help", "opponents", "party", "bag", "heal", "records", "dance", "quit"}}
	serve(t, h, c)

	assert.True(t, c.said("Pick a number from the list."))
	assert.True(t, c.said("Good luck, Ash!"))
	assert.True(t, c.said("battle <n|id>"))
	assert.True(t, c.said("Youngster Ben"))
	assert.True(t, c.said("Money: "))
	assert.True(t, c.said("Poke Ball"))
	assert.True(t, c.said("Your team is fully restored."))
	assert.True(t, c.said("Battle records are not kept on this server."))
	assert.True(t, c.said(`Unknown command "dance"`))
	assert.True(t, c.said("Goodbye!"))
	assert.Equal(t, 1, logs.FilterMessage("trainer left").Len())
}

func TestServe_DefaultsNameAndEndsOnHangUp(t *testing.T) {
	h, logs := newHandler(t, nil)
	c := &playerConsole{lobby: []string{"  ", "1"}}
	serve(t, h, c)

	assert.True(t, c.said("Good luck, Player!"))
	assert.Equal(t, 1, logs.FilterMessage("trainer joined").Len())
	assert.Zero(t, logs.FilterMessage("trainer left").Len())
}

func TestServe_UnknownOpponent(t *testing.T) {
	h, _ := newHandler(t, nil)
	c := &playerConsole{lobby: []string{"Ash", "1", "battle", "battle nobody", "battle 99", "quit"}}
	serve(t, h, c)

	assert.True(t, c.said("Battle whom?"))
	assert.True(t, c.said("Nobody by that name is around."))
}

func TestServe_WildBattleIsRecorded(t *testing.T) {
	records := &fakeRecords{}
	h, logs := newHandler(t, records)
	c := &playerConsole{lobby: []string{"Ash", "starter_fire", "battle wild_route1", "quit"}}
	serve(t, h, c)

	assert.True(t, c.said("turn(s)."))
	require.Len(t, records.saved, 1)
	rec := records.saved[0]
	assert.Equal(t, "Ash", rec.PlayerName)
	assert.Equal(t, "wild", rec.Kind)
	assert.Contains(t, []string{"win", "loss", "fled", "caught", "opponent_fled"}, rec.Outcome)
	assert.NotEmpty(t, rec.Events)
	assert.Equal(t, 1, logs.FilterMessage("battle finished").Len())
}

func TestServe_StorageFailureKeepsSession(t *testing.T) {
	records := &fakeRecords{err: errors.New("database unavailable")}
	h, logs := newHandler(t, records)
	c := &playerConsole{lobby: []string{"Ash", "1", "records", "battle wild_cave", "quit"}}
	serve(t, h, c)

	assert.True(t, c.said("Battle records are unavailable right now."))
	assert.True(t, c.said("This battle could not be recorded."))
	assert.True(t, c.said("Goodbye!"))
	assert.Equal(t, 1, logs.FilterMessage("saving battle record").Len())
}

func TestServe_RecordsListsRecent(t *testing.T) {
	records := &fakeRecords{recent: []postgres.BattleRecord{{PlayerName: "Misty", OpponentName: "Hiker Dale", Outcome: "loss", Kind: "trainer", Turns: 9}}}
	h, _ := newHandler(t, records)
	c := &playerConsole{lobby: []string{"Ash", "1", "records", "quit"}}
	serve(t, h, c)

	assert.True(t, c.said("Hiker Dale"))
}

func TestServe_HonoursCancellation(t *testing.T) {
	h, _ := newHandler(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &playerConsole{lobby: []string{"Ash", "1", "party"}}
	assert.ErrorIs(t, h.Serve(ctx, c), context.Canceled)
}
