// Package testutil provides test helpers: a PostgreSQL test container with the
// schema migrations applied, and a Telnet client that plays the lobby.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/internal/config"
	"github.com/cory-johannsen/monbattle/internal/storage/postgres"
	"github.com/cory-johannsen/monbattle/migrations"
)

// PostgresContainer is a throwaway PostgreSQL server with a connected pool.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// shared backs NewPool: one migrated container per test binary, emptied
// between tests. testcontainers' reaper removes it when the binary exits.
var shared struct {
	once sync.Once
	pc   *PostgresContainer
	err  error
}

func startPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "monbattle",
				"POSTGRES_PASSWORD": "monbattle",
				"POSTGRES_DB":       "monbattle_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container port: %w", err)
	}

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "monbattle",
		Password:        "monbattle",
		Name:            "monbattle_test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &PostgresContainer{container: container, Pool: pool, RawPool: pool.DB(), Config: cfg}, nil
}

// NewPostgresContainer starts an unmigrated server owned by t.
//
// Precondition: Docker must be available.
// Postcondition: the container is terminated when t ends.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	start := time.Now()
	pc, err := startPostgres(context.Background())
	if err != nil {
		t.Fatalf("%v [%s]", err, time.Since(start))
	}
	t.Logf("postgres container started [%s]", time.Since(start))
	t.Cleanup(func() {
		pc.Pool.Close()
		_ = pc.container.Terminate(context.Background())
	})
	return pc
}

func (pc *PostgresContainer) migrate(logger *zap.Logger) error {
	mg, err := migrations.New(pc.DSN(), logger)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up(0)
}

// NewPool returns a pool on the shared migrated server with every battle
// record removed. The test is skipped under -short.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	shared.once.Do(func() {
		shared.pc, shared.err = startPostgres(context.Background())
		if shared.err == nil {
			shared.err = shared.pc.migrate(zap.NewNop())
		}
	})
	if shared.err != nil {
		t.Fatalf("shared postgres: %v", shared.err)
	}
	if _, err := shared.pc.RawPool.Exec(context.Background(), "TRUNCATE battle_records CASCADE"); err != nil {
		t.Fatalf("emptying battle records: %v", err)
	}
	return shared.pc.RawPool
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return pc.Config.DSN()
}
