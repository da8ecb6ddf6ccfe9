// Package postgres persists finished battle records in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/internal/config"
)

// ApplicationName tags every connection so battle servers are visible in
// pg_stat_activity.
const ApplicationName = "monbattle"

// Pool owns the connections behind the battle record store.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the record database and verifies it answers.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a pinged Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s: %w", cfg.Name, err)
	}
	return &Pool{pool: pool}, nil
}

// Records returns a repository over this pool.
func (p *Pool) Records() *BattleRecordRepository {
	return NewBattleRecordRepository(p.pool)
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Monitor pings the database every interval until stop closes, logging
// failures and recoveries. It blocks, so lifecycle services run it as their
// start function.
//
// Precondition: interval > 0.
// Postcondition: Returns nil once stop is closed.
func (p *Pool) Monitor(stop <-chan struct{}, interval, timeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	healthy := true
	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			err := p.Health(context.Background(), timeout)
			switch {
			case err != nil:
				logger.Warn("database health check failed", zap.Error(err), zap.Int32("connections", p.pool.Stat().TotalConns()))
				healthy = false
			case !healthy:
				logger.Info("database reachable again")
				healthy = true
			}
		}
	}
}

// Close releases all connections. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB exposes the pgx pool for migrations and tests.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
