package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/internal/config"
)

// FullMessage is written to a client refused because MaxSessions trainers
// are already connected.
const FullMessage = "The arena is full. Try again later."

// SessionHandler runs the battle lobby for one connected Telnet client.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// Acceptor owns the Telnet listener and one goroutine per connected trainer.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	running  bool
	quit     chan struct{}
	sessions sync.WaitGroup
	active   atomic.Int64
	refused  atomic.Int64
}

// NewAcceptor creates an acceptor that is not yet listening.
//
// Precondition: handler must be non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acceptor{cfg: cfg, handler: handler, logger: logger, quit: make(chan struct{})}
}

// ListenAndServe binds cfg.Addr() and serves until Stop.
//
// Postcondition: Returns nil after Stop, or the bind error.
func (a *Acceptor) ListenAndServe() error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(ln)
}

// Serve accepts trainers on ln until Stop closes it. The acceptor takes
// ownership of ln.
//
// Precondition: Serve must be called at most once.
// Postcondition: Returns nil after Stop.
func (a *Acceptor) Serve(ln net.Listener) error {
	a.mu.Lock()
	select {
	case <-a.quit:
		a.mu.Unlock()
		_ = ln.Close()
		return nil
	default:
	}
	a.listener = ln
	a.running = true
	a.mu.Unlock()

	a.logger.Info("telnet acceptor listening",
		zap.String("addr", ln.Addr().String()),
		zap.Int("max_sessions", a.cfg.MaxSessions),
	)
	for {
		raw, err := ln.Accept()
		if err != nil {
			select {
			case <-a.quit:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			a.logger.Error("accepting connection", zap.Error(err))
			continue
		}
		if a.cfg.MaxSessions > 0 && a.active.Load() >= int64(a.cfg.MaxSessions) {
			a.refuse(raw)
			continue
		}
		a.active.Add(1)
		a.sessions.Add(1)
		go a.serveTrainer(raw)
	}
}

func (a *Acceptor) refuse(raw net.Conn) {
	defer raw.Close()
	a.refused.Add(1)
	a.logger.Warn("arena full, refusing client",
		zap.String("remote_addr", raw.RemoteAddr().String()),
		zap.Int64("active_sessions", a.active.Load()),
	)
	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	_ = conn.WriteLine(FullMessage)
}

func (a *Acceptor) serveTrainer(raw net.Conn) {
	defer a.sessions.Done()
	defer a.active.Add(-1)
	start := time.Now()
	log := a.logger.With(zap.String("remote_addr", raw.RemoteAddr().String()))
	log.Info("client connected", zap.Int64("active_sessions", a.active.Load()))

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	defer conn.Close()
	if err := conn.Negotiate(); err != nil {
		log.Error("telnet negotiation failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// A battle blocked on ReadLine is released by closing the connection.
	defer conn.Bind(ctx)()
	go func() {
		select {
		case <-a.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := a.handler.HandleSession(ctx, conn)
	fields := []zap.Field{zap.Duration("duration", time.Since(start))}
	if err != nil {
		log.Debug("session ended", append(fields, zap.Error(err))...)
		return
	}
	log.Info("session ended cleanly", fields...)
}

// Stop closes the listener, cancels every session and waits for them to
// return. Calling Stop more than once is harmless.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	select {
	case <-a.quit:
		a.mu.Unlock()
		return
	default:
	}
	close(a.quit)
	a.running = false
	if a.listener != nil {
		_ = a.listener.Close()
	}
	a.mu.Unlock()

	a.sessions.Wait()
	a.logger.Info("telnet acceptor stopped", zap.Int64("refused", a.refused.Load()))
}

// Addr returns the bound address, or "" before Serve.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// ActiveSessions returns the number of connected trainers.
func (a *Acceptor) ActiveSessions() int {
	return int(a.active.Load())
}

// Refused returns how many clients were turned away for a full arena.
func (a *Acceptor) Refused() int {
	return int(a.refused.Load())
}

// IsRunning reports whether the acceptor is accepting connections.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
