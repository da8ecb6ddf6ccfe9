// Package server runs the battle host's long-running services (the telnet
// lobby, the record store monitor and the linked-battle websocket endpoint)
// and stops them in reverse order on a termination signal.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultStopTimeout bounds one service's Stop during shutdown.
const DefaultStopTimeout = 10 * time.Second

// Service is a component whose Start blocks until Stop is called or it fails.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

// HTTPService serves an http.Server as a Service. Stop drains open requests
// for at most Grace before the server is closed.
type HTTPService struct {
	Server *http.Server
	Grace  time.Duration
}

// Start listens on Server.Addr. A normal shutdown is not an error.
func (h *HTTPService) Start() error {
	if err := h.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (h *HTTPService) Stop() {
	grace := h.Grace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := h.Server.Shutdown(ctx); err != nil {
		_ = h.Server.Close()
	}
}

// State is where a registered service is in its life.
type State int

const (
	Pending State = iota
	Running
	Stopping
	Stopped
	Failed
)

var stateNames = [...]string{"pending", "running", "stopping", "stopped", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Lifecycle starts services in registration order and stops them in reverse.
type Lifecycle struct {
	logger *zap.Logger

	// StopTimeout bounds each Stop call; 0 uses DefaultStopTimeout. A service
	// that overruns is logged and left behind.
	StopTimeout time.Duration

	mu       sync.Mutex
	services []*entry
}

type entry struct {
	name    string
	service Service
	state   State
}

// NewLifecycle creates an empty Lifecycle.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{logger: logger}
}

// Add registers svc under name.
//
// Precondition: name must be unique and svc non-nil; Run has not started.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, &entry{name: name, service: svc})
}

// Status reports each service's state by name.
func (l *Lifecycle) Status() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.services))
	for _, e := range l.services {
		out[e.name] = e.state.String()
	}
	return out
}

func (l *Lifecycle) set(e *entry, s State) {
	l.mu.Lock()
	e.state = s
	l.mu.Unlock()
}

// Run starts every service and blocks until SIGINT or SIGTERM, ctx is
// cancelled, or a service fails.
//
// Postcondition: every service has been asked to stop; the first failure,
// if any, is returned.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	l.mu.Lock()
	services := append([]*entry(nil), l.services...)
	l.mu.Unlock()

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	g, gctx := errgroup.WithContext(sigCtx)
	for _, e := range services {
		l.set(e, Running)
		g.Go(func() error {
			l.logger.Info("starting service", zap.String("service", e.name))
			up := time.Now()
			if err := e.service.Start(); err != nil {
				l.set(e, Failed)
				l.logger.Error("service failed",
					zap.String("service", e.name),
					zap.Duration("uptime", time.Since(up)),
					zap.Error(err),
				)
				return fmt.Errorf("service %s: %w", e.name, err)
			}
			return nil
		})
	}
	l.logger.Info("all services started", zap.Int("count", len(services)), zap.Duration("startup", time.Since(start)))

	<-gctx.Done()
	switch {
	case ctx.Err() != nil:
		l.logger.Info("context cancelled, shutting down")
	case sigCtx.Err() != nil:
		l.logger.Info("received signal, shutting down")
	default:
		l.logger.Error("service error, shutting down")
	}

	l.shutdown(services)
	waited := make(chan error, 1)
	go func() { waited <- g.Wait() }()
	var err error
	select {
	case err = <-waited:
	case <-time.After(l.stopTimeout()):
		err = errors.New("services still running after shutdown")
	}
	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return err
}

func (l *Lifecycle) stopTimeout() time.Duration {
	if l.StopTimeout <= 0 {
		return DefaultStopTimeout
	}
	return l.StopTimeout
}

func (l *Lifecycle) shutdown(services []*entry) {
	timeout := l.stopTimeout()
	for i := len(services) - 1; i >= 0; i-- {
		e := services[i]
		l.mu.Lock()
		failed := e.state == Failed
		if !failed {
			e.state = Stopping
		}
		l.mu.Unlock()

		began := time.Now()
		done := make(chan struct{})
		go func() {
			defer close(done)
			e.service.Stop()
		}()
		select {
		case <-done:
			if !failed {
				l.set(e, Stopped)
			}
			l.logger.Info("service stopped", zap.String("service", e.name), zap.Duration("elapsed", time.Since(began)))
		case <-time.After(timeout):
			l.logger.Warn("service stop timed out", zap.String("service", e.name), zap.Duration("timeout", timeout))
		}
	}
}
