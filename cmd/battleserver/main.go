// Package main provides the battle server. It serves the Telnet lobby where
// players battle AI opponents and a websocket endpoint where linked peers
// battle the arena's own team.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/arena"
	"github.com/cory-johannsen/monbattle/internal/config"
	"github.com/cory-johannsen/monbattle/internal/frontend/handlers"
	"github.com/cory-johannsen/monbattle/internal/frontend/telnet"
	"github.com/cory-johannsen/monbattle/internal/game/ai"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/catalog"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/participant"
	"github.com/cory-johannsen/monbattle/internal/netplay"
	"github.com/cory-johannsen/monbattle/internal/observability"
	"github.com/cory-johannsen/monbattle/internal/scripting"
	"github.com/cory-johannsen/monbattle/internal/server"
	"github.com/cory-johannsen/monbattle/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	linkTeam := flag.String("link-team", "starter_grass", "team the arena fields against linked peers")
	linkPolicy := flag.String("link-policy", ai.PolicyGymLeader, "ai policy driving the arena team")
	flag.Parse()

	ctx := context.Background()

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
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	logger.Info("starting battle server",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("netplay_addr", cfg.Netplay.Addr()),
		zap.Bool("storage", cfg.Storage.Enabled),
	)

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

	lifecycle := server.NewLifecycle(logger)

	var records handlers.Records
	var repo *postgres.BattleRecordRepository
	if cfg.Storage.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		repo = pool.Records()
		records = repo

		stop := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error { return pool.Monitor(stop, 30*time.Second, 5*time.Second, logger) },
			StopFn: func() {
				close(stop)
				pool.Close()
			},
		})
	}

	handler := handlers.NewBattleHandler(cat, policies, battles, records, cfg.Battle, logger)
	acceptor := telnet.NewAcceptor(cfg.Telnet, handler, logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	linker := arena.NewLinker(cat, battles, cfg.Battle, cfg.Netplay.HandshakeTimeout, logger)
	upgrader := netplay.NewUpgrader(nil)
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Netplay.Path, func(w http.ResponseWriter, r *http.Request) {
		tr, err := upgrader.Accept(w, r)
		if err != nil {
			logger.Warn("link upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			return
		}
		party, team, err := cat.Party(*linkTeam)
		if err != nil {
			logger.Error("building arena team", zap.String("team", *linkTeam), zap.Error(err))
			_ = tr.Close()
			return
		}
		policy, err := policies.New(*linkPolicy, roller, logger)
		if err != nil {
			logger.Error("building arena policy", zap.String("policy", *linkPolicy), zap.Error(err))
			_ = tr.Close()
			return
		}
		local := participant.NewScripted("Arena "+team.Name, party, policy)
		res, err := linker.Play(r.Context(), netplay.NewConn(tr, logger), local, true, nil)
		if err != nil {
			logger.Warn("linked battle aborted", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			return
		}
		if repo != nil {
			if _, err := repo.Save(r.Context(), postgres.NewBattleRecord(res, nil)); err != nil {
				logger.Warn("saving linked battle", zap.Error(err))
			}
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"battles":         battles.Len(),
			"telnet_sessions": acceptor.ActiveSessions(),
			"telnet_refused":  acceptor.Refused(),
			"services":        lifecycle.Status(),
		})
	})
	lifecycle.Add("netplay", &server.HTTPService{
		Server: &http.Server{
			Addr:              cfg.Netplay.Addr(),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Grace: 5 * time.Second,
	})

	logger.Info("battle server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Strings("policies", policies.IDs()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
