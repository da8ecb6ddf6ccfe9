// Package migrations embeds the battle record schema and applies it with
// golang-migrate. cmd/migrate and the test database helper both go through
// Migrator.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FS holds every *.up.sql and *.down.sql migration in version order.
//
//go:embed *.sql
var FS embed.FS

// Migrator moves one database between schema versions.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New opens a migrator for the PostgreSQL database at dsn.
//
// Postcondition: the caller must Close the returned Migrator.
func New(dsn string, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := iofs.New(FS, ".")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	m.Log = migrateLogger{logger.Sugar()}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies steps pending migrations, or all of them when steps is 0.
// Being already current is not an error.
func (mg *Migrator) Up(steps int) error {
	var err error
	if steps > 0 {
		err = mg.m.Steps(steps)
	} else {
		err = mg.m.Up()
	}
	return mg.settle("up", err)
}

// Down reverts steps migrations, or all of them when steps is 0.
func (mg *Migrator) Down(steps int) error {
	var err error
	if steps > 0 {
		err = mg.m.Steps(-steps)
	} else {
		err = mg.m.Down()
	}
	return mg.settle("down", err)
}

func (mg *Migrator) settle(direction string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("schema already current", zap.String("direction", direction))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrating %s: %w", direction, err)
	}
	return nil
}

// Version returns the applied schema version; 0 means none.
func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// migrateLogger routes golang-migrate's progress lines to zap at debug level.
type migrateLogger struct {
	s *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.s.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.s.Desugar().Core().Enabled(zapcore.DebugLevel)
}
