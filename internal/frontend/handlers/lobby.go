// Package handlers drives battles for Telnet clients: the lobby where a
// player picks a team and an opponent, and the rendering of battle events.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/internal/config"
	"github.com/cory-johannsen/monbattle/internal/frontend/telnet"
	"github.com/cory-johannsen/monbattle/internal/game/ai"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/catalog"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"github.com/cory-johannsen/monbattle/internal/game/participant"
	"github.com/cory-johannsen/monbattle/internal/game/progression"
	"github.com/cory-johannsen/monbattle/internal/storage/postgres"
)

// recentLimit is how many records the records command shows.
const recentLimit = 10

// errQuit ends a lobby session normally.
var errQuit = errors.New("player quit")

// Records stores finished battles. *postgres.BattleRecordRepository implements it.
type Records interface {
	Save(ctx context.Context, rec postgres.BattleRecord) (postgres.BattleRecord, error)
	ListRecent(ctx context.Context, limit int) ([]postgres.BattleRecord, error)
}

// BattleHandler implements telnet.SessionHandler. Each connection gets a
// starter team and a bag, then picks opponents from the catalog until it
// quits.
type BattleHandler struct {
	catalog  *catalog.Catalog
	policies *ai.Registry
	battles  *battle.Manager
	records  Records
	leveler  *progression.Leveler
	cfg      config.BattleConfig
	logger   *zap.Logger
}

// NewBattleHandler creates a BattleHandler.
//
// Precondition: cat, policies and battles must not be nil. records may be
// nil, which disables the records command and persistence.
func NewBattleHandler(cat *catalog.Catalog, policies *ai.Registry, battles *battle.Manager, records Records, cfg config.BattleConfig, logger *zap.Logger) *BattleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BattleHandler{
		catalog:  cat,
		policies: policies,
		battles:  battles,
		records:  records,
		leveler:  progression.New(logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// trainer is the lobby state of one connection.
type trainer struct {
	name  string
	party *creature.Party
	bag   *inventory.Bag
}

// HandleSession implements telnet.SessionHandler.
func (h *BattleHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	return h.Serve(ctx, conn)
}

// Serve runs the lobby over console until the player quits, the input ends
// or ctx is cancelled.
func (h *BattleHandler) Serve(ctx context.Context, console participant.Console) error {
	if err := h.banner(console); err != nil {
		return err
	}
	tr, err := h.register(console)
	if err != nil {
		return quiet(err)
	}
	h.logger.Info("trainer joined", zap.String("trainer", tr.name))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := console.WritePrompt(telnet.Colorize(telnet.Green, "> ")); err != nil {
			return err
		}
		line, err := console.ReadLine()
		if err != nil {
			return quiet(err)
		}
		if err := h.dispatch(ctx, console, tr, participant.Parse(line)); err != nil {
			if errors.Is(err, errQuit) {
				h.logger.Info("trainer left", zap.String("trainer", tr.name))
				return console.WriteLine("Goodbye!")
			}
			return quiet(err)
		}
	}
}

// quiet treats the client hanging up as a normal end of session.
func quiet(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *BattleHandler) banner(console participant.Console) error {
	lines := []string{
		telnet.Colorize(telnet.Bold, "Welcome to the battle arena."),
		telnet.Colorize(telnet.Dim, "Type 'help' in the lobby for commands."),
	}
	for _, l := range lines {
		if err := console.WriteLine(l); err != nil {
			return err
		}
	}
	return nil
}

func (h *BattleHandler) register(console participant.Console) (*trainer, error) {
	if err := console.WritePrompt("What is your name? "); err != nil {
		return nil, err
	}
	name, err := console.ReadLine()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player"
	}

	starters := h.catalog.TeamsOfKind("link")
	if len(starters) == 0 {
		return nil, errors.New("no starter teams in content")
	}
	if err := console.WriteLine("Choose your team:\r\n" + strings.TrimRight(RenderTeams(starters), "\r\n")); err != nil {
		return nil, err
	}
	var team *creature.Team
	for team == nil {
		if err := console.WritePrompt("Team: "); err != nil {
			return nil, err
		}
		line, err := console.ReadLine()
		if err != nil {
			return nil, err
		}
		if team = pick(starters, strings.TrimSpace(line)); team == nil {
			if err := console.WriteLine("Pick a number from the list."); err != nil {
				return nil, err
			}
		}
	}
	party, _, err := h.catalog.Party(team.ID)
	if err != nil {
		return nil, fmt.Errorf("building starter team %s: %w", team.ID, err)
	}
	bag, err := h.catalog.StarterKit(h.cfg.StartingMoney, h.cfg.MaxMoney)
	if err != nil {
		return nil, err
	}
	tr := &trainer{name: name, party: party, bag: bag}
	if err := console.WriteLine(fmt.Sprintf("Good luck, %s!", name)); err != nil {
		return nil, err
	}
	return tr, console.WriteLine(strings.TrimRight(RenderParty(party), "\r\n"))
}

// pick resolves a 1-based menu number or a team id.
func pick(teams []*creature.Team, choice string) *creature.Team {
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(teams) {
			return teams[n-1]
		}
		return nil
	}
	for _, t := range teams {
		if strings.EqualFold(t.ID, choice) {
			return t
		}
	}
	return nil
}

// opponents lists everyone a lobby player can challenge.
func (h *BattleHandler) opponents() []*creature.Team {
	return append(h.catalog.TeamsOfKind("wild"), h.catalog.TeamsOfKind("trainer")...)
}

var lobbyHelp = []string{
	"opponents         list who you can battle",
	"battle <n|id>     start a battle",
	"party             show your team",
	"bag               show your items and money",
	"heal              restore your team",
	"records           show recent battles",
	"quit              leave",
}

func (h *BattleHandler) dispatch(ctx context.Context, console participant.Console, tr *trainer, cmd participant.Command) error {
	switch cmd.Name {
	case "":
		return nil
	case "help", "?":
		return console.WriteLine(strings.Join(lobbyHelp, "\r\n"))
	case "opponents", "list":
		return console.WriteLine(strings.TrimRight(RenderTeams(h.opponents()), "\r\n"))
	case "battle", "fight", "challenge":
		if len(cmd.Args) == 0 {
			return console.WriteLine("Battle whom? Try 'opponents'.")
		}
		team := pick(h.opponents(), strings.Join(cmd.Args, " "))
		if team == nil {
			return console.WriteLine("Nobody by that name is around.")
		}
		return h.fight(ctx, console, tr, team)
	case "party", "team":
		return console.WriteLine(strings.TrimRight(RenderParty(tr.party), "\r\n"))
	case "bag", "items":
		return console.WriteLine(h.renderBag(tr.bag))
	case "heal", "center":
		restore(tr.party)
		return console.WriteLine("Your team is fully restored.")
	case "records", "history":
		if h.records == nil {
			return console.WriteLine("Battle records are not kept on this server.")
		}
		recs, err := h.records.ListRecent(ctx, recentLimit)
		if err != nil {
			h.logger.Warn("listing battle records", zap.Error(err))
			return console.WriteLine("Battle records are unavailable right now.")
		}
		return console.WriteLine(strings.TrimRight(RenderRecords(recs), "\r\n"))
	case "quit", "exit", "logout":
		return errQuit
	}
	return console.WriteLine(fmt.Sprintf("Unknown command %q. Type 'help'.", cmd.Name))
}

func (h *BattleHandler) renderBag(bag *inventory.Bag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Money: %s", inventory.FormatMoney(h.cfg.Tag(), bag.Money()))
	for _, s := range bag.Stacks() {
		name := fmt.Sprintf("item %d", s.ItemID)
		if it, ok := h.catalog.Items.Item(s.ItemID); ok {
			name = it.Name
		}
		fmt.Fprintf(&b, "\r\n  %-14s x%d", name, s.Quantity)
	}
	if n := len(bag.Caught()); n > 0 {
		fmt.Fprintf(&b, "\r\nCaught: %d", n)
	}
	return b.String()
}

// restore heals every member fully, clears statuses and refills PP.
func restore(p *creature.Party) {
	for _, in := range p.Slots {
		if in == nil {
			continue
		}
		in.Heal(in.MaxHealth())
		in.CureStatus()
		for i, m := range in.Moves {
			if !m.Empty() {
				in.RestorePP(i, m.MaxPP)
			}
		}
	}
	if i, ok := p.FirstHealthy(); ok {
		p.Active = i
	}
}

// fight plays one battle against team and applies its results to tr.
func (h *BattleHandler) fight(ctx context.Context, console participant.Console, tr *trainer, team *creature.Team) error {
	if tr.party.IsDefeated() {
		return console.WriteLine("Your team can't fight. Try 'heal' first.")
	}
	foe, _, err := h.catalog.Party(team.ID)
	if err != nil {
		h.logger.Error("building opponent team", zap.String("team", team.ID), zap.Error(err))
		return console.WriteLine("That opponent isn't ready to battle.")
	}
	kind, err := battle.ParseKind(team.Kind)
	if err != nil {
		h.logger.Warn("team kind not playable, using wild", zap.String("team", team.ID), zap.Error(err))
		kind = battle.Wild
	}
	policyID := team.Policy
	if policyID == "" {
		policyID = ai.PolicyWild
		if kind == battle.Trainer {
			policyID = ai.PolicyBasicTrainer
		}
	}
	roll := dice.NewLoggedRoller(dice.NewCryptoSource(), h.logger)
	policy, err := h.policies.New(policyID, roll, h.logger)
	if err != nil {
		h.logger.Error("building opponent policy", zap.String("policy", policyID), zap.Error(err))
		return console.WriteLine("That opponent isn't ready to battle.")
	}
	tie, err := battle.ParseTieBreak(h.cfg.TieBreak)
	if err != nil {
		return err
	}
	payout := team.Payout
	if payout == 0 {
		payout = h.cfg.BasePayout
	}
	cfg := battle.Config{
		Kind:       kind,
		TieBreak:   tie,
		BasePayout: payout,
		Language:   h.cfg.Tag(),
	}
	if kind == battle.Trainer {
		cfg.Opponent = team.Name
	}

	rec := &battle.Recorder{}
	sess, err := battle.NewSession(cfg, battle.Deps{
		Engine:     h.catalog.Engine,
		Weather:    h.catalog.Weather,
		Items:      h.catalog.Items,
		Species:    h.catalog.Species,
		Presenter:  battle.Tee(NewNarrator(console), rec),
		Inventory:  tr.bag,
		Experience: h.leveler,
		Logger:     h.logger,
	}, participant.NewHuman(tr.name, tr.party, console, h.logger), participant.NewScripted(team.Name, foe, policy))
	if err != nil {
		return err
	}
	res, err := h.battles.Run(ctx, sess)
	if err != nil {
		return err
	}
	if err := console.WriteLine(strings.TrimRight(RenderResult(res), "\r\n")); err != nil {
		return err
	}
	if err := h.settle(console, tr, res); err != nil {
		return err
	}
	h.record(ctx, console, res, rec.Events())
	return nil
}

// settle applies the outcome to the trainer's team outside the battle:
// evolutions, catches and the trip to the center after a loss.
func (h *BattleHandler) settle(console participant.Console, tr *trainer, res *battle.Result) error {
	for _, ev := range res.Evolutions {
		in := tr.party.Slots[ev.Slot]
		if in == nil {
			continue
		}
		target := fmt.Sprintf("species %d", ev.Species)
		if sp, ok := h.catalog.Species.Get(ev.Species); ok {
			target = sp.Name
		}
		if err := console.WritePrompt(fmt.Sprintf("%s is evolving into %s! Allow it? (y/n) ", ev.Name, target)); err != nil {
			return err
		}
		answer, err := console.ReadLine()
		if err != nil {
			return err
		}
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			if err := console.WriteLine(fmt.Sprintf("%s stopped evolving.", ev.Name)); err != nil {
				return err
			}
			continue
		}
		if h.leveler.Evolve(in, h.catalog.Species, ev.Species) {
			if err := console.WriteLine(telnet.Colorize(telnet.Bold, fmt.Sprintf("%s evolved into %s!", ev.Name, in.Name()))); err != nil {
				return err
			}
		}
	}
	if res.Caught != nil {
		for i, in := range tr.party.Slots {
			if in == nil {
				tr.party.Slots[i] = res.Caught
				if err := console.WriteLine(fmt.Sprintf("%s joined your team.", res.Caught.Name())); err != nil {
					return err
				}
				break
			}
		}
	}
	if res.Outcome == battle.Loss {
		restore(tr.party)
		return console.WriteLine("You hurry back to the center. Your team is restored.")
	}
	return nil
}

// record stores the battle when persistence is enabled. A storage failure is
// reported but never ends the session.
func (h *BattleHandler) record(ctx context.Context, console participant.Console, res *battle.Result, events []battle.Event) {
	if h.records == nil {
		return
	}
	if _, err := h.records.Save(ctx, postgres.NewBattleRecord(res, events)); err != nil {
		h.logger.Warn("saving battle record", zap.String("battle_id", res.BattleID.String()), zap.Error(err))
		_ = console.WriteLine(telnet.Colorize(telnet.Dim, "This battle could not be recorded."))
	}
}
