// internal/storage/signal/sqlite.go
package signal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/swingdesk/internal/core"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists signal history in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dsn and runs migrations.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id           TEXT PRIMARY KEY,
			symbol       TEXT NOT NULL,
			action       TEXT NOT NULL,
			strength     INTEGER NOT NULL,
			price        REAL,
			reason       TEXT,
			strategy     TEXT,
			metadata     TEXT,
			generated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals(symbol, generated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(generated_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, signal core.Signal) (string, error) {
	if signal.ID == "" {
		signal.ID = uuid.NewString()
	}

	var meta []byte
	if len(signal.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(signal.Metadata); err != nil {
			return "", fmt.Errorf("encoding metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signals (id, symbol, action, strength, price, reason, strategy, metadata, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		signal.ID, signal.Symbol, string(signal.Action), signal.Strength, signal.Price,
		signal.Reason, signal.Strategy, string(meta), signal.GeneratedAt.UnixNano(),
	)
	if err != nil {
		return "", core.WrapError(core.ErrStorageFailed, err)
	}
	return signal.ID, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*core.Signal, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	sig, err := scanSignal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return sig, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	where, args := buildWhere(filter)
	query := selectColumns + where + ` ORDER BY generated_at DESC, rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	result := []core.Signal{}
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		result = append(result, *sig)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return result, nil
}

func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals`+where, args...).Scan(&n); err != nil {
		return 0, core.WrapError(core.ErrStorageFailed, err)
	}
	return n, nil
}

func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM signals WHERE generated_at < ?`, before.UnixNano())
	if err != nil {
		return 0, core.WrapError(core.ErrStorageFailed, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectColumns = `SELECT id, symbol, action, strength, price, reason, strategy, metadata, generated_at FROM signals`

func buildWhere(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		conds = append(conds, "strategy = ?")
		args = append(args, filter.Strategy)
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, string(filter.Action))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "generated_at >= ?")
		args = append(args, filter.From.UnixNano())
	}
	if !filter.To.IsZero() {
		conds = append(conds, "generated_at <= ?")
		args = append(args, filter.To.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSignal(sc scanner) (*core.Signal, error) {
	var (
		sig      core.Signal
		action   string
		reason   sql.NullString
		strategy sql.NullString
		meta     sql.NullString
		ts       int64
	)
	if err := sc.Scan(&sig.ID, &sig.Symbol, &action, &sig.Strength, &sig.Price, &reason, &strategy, &meta, &ts); err != nil {
		return nil, err
	}
	sig.Action = core.Action(action)
	sig.Reason = reason.String
	sig.Strategy = strategy.String
	sig.GeneratedAt = time.Unix(0, ts)
	if meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &sig.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
	}
	return &sig, nil
}
