// Package arena plays linked battles: two peers connected by a netplay.Conn
// each run their own session, fed by the choices the other side publishes.
package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/monbattle/internal/config"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/catalog"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/participant"
	"github.com/cory-johannsen/monbattle/internal/netplay"
)

// Linker runs the local half of linked battles.
type Linker struct {
	catalog          *catalog.Catalog
	battles          *battle.Manager
	cfg              config.BattleConfig
	handshakeTimeout time.Duration
	logger           *zap.Logger
}

// NewLinker creates a Linker. A zero handshakeTimeout waits for the peer's
// Hello as long as ctx allows.
//
// Precondition: cat and battles must not be nil.
func NewLinker(cat *catalog.Catalog, battles *battle.Manager, cfg config.BattleConfig, handshakeTimeout time.Duration, logger *zap.Logger) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{catalog: cat, battles: battles, cfg: cfg, handshakeTimeout: handshakeTimeout, logger: logger}
}

// Play exchanges Hellos over conn and battles the peer with local as the
// player side. The host draws the seed; the guest runs its session mirrored
// so both engines order speed ties identically. presenter may be nil.
//
// Postcondition: conn is closed when Play returns.
func (l *Linker) Play(ctx context.Context, conn *netplay.Conn, local battle.Participant, host bool, presenter battle.Presenter) (*battle.Result, error) {
	defer conn.Close()

	hello := &netplay.Hello{Host: host, Name: local.Name(), Roster: netplay.Roster(local.Party())}
	if host {
		hello.Seed = dice.NewSeed()
	}
	var (
		hctx   context.Context
		cancel context.CancelFunc
	)
	if l.handshakeTimeout > 0 {
		hctx, cancel = context.WithTimeout(ctx, l.handshakeTimeout)
	} else {
		hctx, cancel = context.WithCancel(ctx)
	}
	peer, err := netplay.Handshake(hctx, conn, hello)
	cancel()
	if err != nil {
		return nil, err
	}
	party, err := netplay.BuildParty(peer.Roster, l.catalog.Species, l.catalog.Moves)
	if err != nil {
		return nil, fmt.Errorf("peer roster: %w", err)
	}
	name := peer.Name
	if name == "" {
		name = "Rival"
	}
	remote := participant.NewRemote(name, party, l.logger)

	tie, err := battle.ParseTieBreak(l.cfg.TieBreak)
	if err != nil {
		return nil, err
	}
	sess, err := battle.NewSession(battle.Config{
		Kind:     battle.Link,
		TieBreak: tie,
		Seed:     netplay.SharedSeed(hello, peer),
		Language: l.cfg.Tag(),
		Opponent: name,
		Mirrored: !host,
	}, battle.Deps{
		Engine:    l.catalog.Engine,
		Weather:   l.catalog.Weather,
		Items:     l.catalog.Items,
		Species:   l.catalog.Species,
		Presenter: presenter,
		Logger:    l.logger,
	}, participant.Publish(local, conn), participant.WithTimeout(remote, l.cfg.ActionTimeout))
	if err != nil {
		return nil, err
	}
	l.logger.Info("linked battle starting",
		zap.String("peer", name),
		zap.Bool("host", host),
		zap.Uint64("seed", netplay.SharedSeed(hello, peer)),
	)

	lctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(lctx)
	g.Go(func() error {
		err := remote.Listen(gctx, conn)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	res, runErr := l.battles.Run(ctx, sess)
	stop()
	if err := g.Wait(); err != nil {
		l.logger.Debug("link listener ended", zap.Error(err))
	}
	if runErr != nil {
		return nil, runErr
	}
	return res, nil
}
