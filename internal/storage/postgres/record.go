package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
)

// ErrBattleNotFound is returned when a battle record lookup yields no results.
var ErrBattleNotFound = errors.New("battle record not found")

// ErrBattleExists is returned when saving a record whose id is already stored.
var ErrBattleExists = errors.New("battle record already exists")

// RecordedEvent is one narrated event of a stored battle.
type RecordedEvent struct {
	Seq  int
	Kind string
	Side int
	Line string
}

// BattleRecord is the persisted summary of one finished battle.
type BattleRecord struct {
	ID           uuid.UUID
	Kind         string
	Outcome      string
	Turns        int
	Seed         uint64
	PlayerName   string
	OpponentName string
	MoneyDelta   int
	Caught       string
	Events       []RecordedEvent
	Diagnostics  []battle.Diagnostic
	CreatedAt    time.Time
}

// NewBattleRecord builds a record from a battle result and the events the
// battle produced. Events that render no line are dropped.
//
// Precondition: res must not be nil.
func NewBattleRecord(res *battle.Result, events []battle.Event) BattleRecord {
	rec := BattleRecord{
		ID:           res.BattleID,
		Kind:         res.Kind.String(),
		Outcome:      res.Outcome.String(),
		Turns:        res.Turns,
		Seed:         res.Seed,
		PlayerName:   res.Participants[battle.PlayerSide],
		OpponentName: res.Participants[battle.OpponentSide],
		MoneyDelta:   res.MoneyDelta,
		Diagnostics:  append([]battle.Diagnostic(nil), res.Diagnostics...),
	}
	if res.Caught != nil {
		rec.Caught = res.Caught.Name()
	}
	for _, e := range events {
		line := e.Line()
		if line == "" {
			continue
		}
		rec.Events = append(rec.Events, RecordedEvent{
			Seq:  len(rec.Events),
			Kind: e.Kind.String(),
			Side: e.Side,
			Line: line,
		})
	}
	return rec
}

// BattleRecordRepository provides battle record persistence operations.
type BattleRecordRepository struct {
	db *pgxpool.Pool
}

// NewBattleRecordRepository creates a BattleRecordRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRecordRepository(db *pgxpool.Pool) *BattleRecordRepository {
	return &BattleRecordRepository{db: db}
}

// Save stores rec with its events and diagnostics in one transaction.
//
// Precondition: rec.ID must not be the nil UUID.
// Postcondition: Returns the stored record with CreatedAt set, or
// ErrBattleExists if the id is already stored.
func (r *BattleRecordRepository) Save(ctx context.Context, rec BattleRecord) (BattleRecord, error) {
	if rec.ID == uuid.Nil {
		return BattleRecord{}, errors.New("saving battle record: id must be set")
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return BattleRecord{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var caught *string
	if rec.Caught != "" {
		caught = &rec.Caught
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO battle_records
			(id, kind, outcome, turns, seed, player_name, opponent_name, money_delta, caught)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		rec.ID, rec.Kind, rec.Outcome, rec.Turns, int64(rec.Seed),
		rec.PlayerName, rec.OpponentName, rec.MoneyDelta, caught,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return BattleRecord{}, ErrBattleExists
		}
		return BattleRecord{}, fmt.Errorf("inserting battle record: %w", err)
	}

	if len(rec.Events) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"battle_events"},
			[]string{"battle_id", "seq", "kind", "side", "line"},
			pgx.CopyFromSlice(len(rec.Events), func(i int) ([]any, error) {
				e := rec.Events[i]
				return []any{rec.ID, e.Seq, e.Kind, int16(e.Side), e.Line}, nil
			}),
		)
		if err != nil {
			return BattleRecord{}, fmt.Errorf("copying battle events: %w", err)
		}
	}

	if len(rec.Diagnostics) > 0 {
		batch := &pgx.Batch{}
		for i, d := range rec.Diagnostics {
			batch.Queue(`INSERT INTO battle_diagnostics (battle_id, seq, code, message) VALUES ($1,$2,$3,$4)`,
				rec.ID, i, d.Code, d.Message)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return BattleRecord{}, fmt.Errorf("inserting battle diagnostics: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return BattleRecord{}, fmt.Errorf("committing battle record: %w", err)
	}
	return rec, nil
}

// Get loads one record with its events and diagnostics.
//
// Postcondition: Returns ErrBattleNotFound if no record has the id.
func (r *BattleRecordRepository) Get(ctx context.Context, id uuid.UUID) (BattleRecord, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, `
		SELECT id, kind, outcome, turns, seed, player_name, opponent_name, money_delta,
		       COALESCE(caught, ''), created_at
		FROM battle_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BattleRecord{}, ErrBattleNotFound
		}
		return BattleRecord{}, fmt.Errorf("querying battle record: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT seq, kind, side, line FROM battle_events WHERE battle_id = $1 ORDER BY seq`, id)
	if err != nil {
		return BattleRecord{}, fmt.Errorf("querying battle events: %w", err)
	}
	rec.Events, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (RecordedEvent, error) {
		var e RecordedEvent
		var side int16
		if err := row.Scan(&e.Seq, &e.Kind, &side, &e.Line); err != nil {
			return e, err
		}
		e.Side = int(side)
		return e, nil
	})
	if err != nil {
		return BattleRecord{}, fmt.Errorf("scanning battle events: %w", err)
	}

	rows, err = r.db.Query(ctx,
		`SELECT code, message FROM battle_diagnostics WHERE battle_id = $1 ORDER BY seq`, id)
	if err != nil {
		return BattleRecord{}, fmt.Errorf("querying battle diagnostics: %w", err)
	}
	rec.Diagnostics, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (battle.Diagnostic, error) {
		var d battle.Diagnostic
		err := row.Scan(&d.Code, &d.Message)
		return d, err
	})
	if err != nil {
		return BattleRecord{}, fmt.Errorf("scanning battle diagnostics: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit record summaries, newest first. Events and
// diagnostics are not loaded.
//
// Precondition: limit must be > 0.
func (r *BattleRecordRepository) ListRecent(ctx context.Context, limit int) ([]BattleRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("listing battle records: limit must be > 0, got %d", limit)
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, outcome, turns, seed, player_name, opponent_name, money_delta,
		       COALESCE(caught, ''), created_at
		FROM battle_records ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing battle records: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (BattleRecord, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning battle records: %w", err)
	}
	return out, nil
}

// Delete removes a record and, by cascade, its events.
//
// Postcondition: Returns ErrBattleNotFound if no record has the id.
func (r *BattleRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM battle_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting battle record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBattleNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (BattleRecord, error) {
	var rec BattleRecord
	var seed int64
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Outcome, &rec.Turns, &seed,
		&rec.PlayerName, &rec.OpponentName, &rec.MoneyDelta, &rec.Caught, &rec.CreatedAt)
	rec.Seed = uint64(seed)
	return rec, err
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
