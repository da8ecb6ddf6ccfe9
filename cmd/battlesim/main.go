// Package main provides the battle simulator. It plays one battle from the
// command line: AI against AI, a human at the terminal against an AI, or
// either of them against a linked peer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/arena"
	"github.com/cory-johannsen/monbattle/internal/config"
	"github.com/cory-johannsen/monbattle/internal/game/ai"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/catalog"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"github.com/cory-johannsen/monbattle/internal/game/participant"
	"github.com/cory-johannsen/monbattle/internal/game/progression"
	"github.com/cory-johannsen/monbattle/internal/netplay"
	"github.com/cory-johannsen/monbattle/internal/observability"
	"github.com/cory-johannsen/monbattle/internal/scripting"
	"github.com/cory-johannsen/monbattle/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	playerTeam := flag.String("player", "starter_fire", "team id of the player side")
	playerPolicy := flag.String("player-policy", ai.PolicyGeneric, "ai policy driving the player side unless -human is set")
	opponentTeam := flag.String("opponent", "youngster", "team id of the opponent side")
	opponentPolicy := flag.String("policy", "", "ai policy override for the opponent; empty uses the team's own")
	human := flag.Bool("human", false, "play the player side from the terminal")
	seed := flag.Uint64("seed", 0, "battle seed; 0 draws a fresh one")
	link := flag.String("link", "", "websocket url of a battle server to join as a linked guest")
	record := flag.Bool("record", false, "store the result when storage is enabled")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Fatal("initializing tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	cat, err := catalog.Open(cfg.Battle.ContentDir, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	scripts := scripting.NewManager(roller, logger, cfg.Battle.ScriptInstructionLimit)
	defer scripts.Close()
	if err := scripts.LoadFS(cat.FS, content.AIScripts); err != nil {
		logger.Fatal("loading ai scripts", zap.Error(err))
	}
	policies := ai.NewRegistry(scripts)
	battles := battle.NewManager(logger)

	party, _, err := cat.Party(*playerTeam)
	if err != nil {
		logger.Fatal("building player team", zap.Error(err))
	}

	console := participant.NewStdioConsole(os.Stdin, os.Stdout)
	presenter := battle.NewLinePresenter(console.WriteLine)

	var player battle.Participant
	if *human {
		player = participant.NewHuman("Player", party, console, logger)
	} else {
		policy, err := policies.New(*playerPolicy, roller, logger)
		if err != nil {
			logger.Fatal("building player policy", zap.Error(err))
		}
		player = participant.NewScripted("Player", party, policy)
	}

	var res *battle.Result
	if *link != "" {
		tr, err := netplay.Dial(ctx, *link)
		if err != nil {
			logger.Fatal("joining linked battle", zap.String("url", *link), zap.Error(err))
		}
		linker := arena.NewLinker(cat, battles, cfg.Battle, cfg.Netplay.HandshakeTimeout, logger)
		res, err = linker.Play(ctx, netplay.NewConn(tr, logger), player, false, presenter)
		if err != nil {
			logger.Fatal("linked battle", zap.Error(err))
		}
	} else {
		res, err = offline(ctx, cat, policies, battles, cfg.Battle, player, *opponentTeam, *opponentPolicy, *seed, presenter, roller, logger)
		if err != nil {
			logger.Fatal("battle", zap.Error(err))
		}
	}

	fmt.Printf("%s after %d turn(s), seed %d\n", res.Outcome, res.Turns, res.Seed)
	if res.MoneyDelta != 0 {
		fmt.Printf("money %s\n", inventory.FormatMoney(cfg.Battle.Tag(), res.MoneyDelta))
	}
	for _, d := range res.Diagnostics {
		fmt.Printf("note: %s\n", d)
	}

	if *record && cfg.Storage.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		saved, err := pool.Records().Save(ctx, postgres.NewBattleRecord(res, nil))
		if err != nil {
			logger.Fatal("saving battle record", zap.Error(err))
		}
		logger.Info("battle recorded", zap.String("battle_id", saved.ID.String()))
	}
	logger.Debug("simulation finished", zap.Duration("elapsed", time.Since(start)))
}

// offline plays player against a catalog team on this machine.
func offline(ctx context.Context, cat *catalog.Catalog, policies *ai.Registry, battles *battle.Manager, cfg config.BattleConfig,
	player battle.Participant, teamID, policyID string, seed uint64, presenter battle.Presenter, roller *dice.Roller, logger *zap.Logger) (*battle.Result, error) {
	foe, team, err := cat.Party(teamID)
	if err != nil {
		return nil, err
	}
	kind, err := battle.ParseKind(team.Kind)
	if err != nil {
		return nil, err
	}
	if policyID == "" {
		policyID = team.Policy
	}
	if policyID == "" {
		policyID = ai.PolicyRandomAttack
	}
	policy, err := policies.New(policyID, roller, logger)
	if err != nil {
		return nil, err
	}
	tie, err := battle.ParseTieBreak(cfg.TieBreak)
	if err != nil {
		return nil, err
	}
	bag, err := cat.StarterKit(cfg.StartingMoney, cfg.MaxMoney)
	if err != nil {
		return nil, err
	}
	payout := team.Payout
	if payout == 0 {
		payout = cfg.BasePayout
	}
	bcfg := battle.Config{
		Kind:       kind,
		TieBreak:   tie,
		BasePayout: payout,
		Seed:       seed,
		Language:   cfg.Tag(),
	}
	if kind == battle.Trainer {
		bcfg.Opponent = team.Name
	}
	sess, err := battle.NewSession(bcfg, battle.Deps{
		Engine:     cat.Engine,
		Weather:    cat.Weather,
		Items:      cat.Items,
		Species:    cat.Species,
		Presenter:  presenter,
		Inventory:  bag,
		Experience: progression.New(logger),
		Logger:     logger,
	}, player, participant.NewScripted(team.Name, foe, policy))
	if err != nil {
		return nil, err
	}
	return battles.Run(ctx, sess)
}
