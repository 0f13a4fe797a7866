package out

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"staywithme/internal/modules/notify/domain"
	notifyout "staywithme/internal/modules/notify/port/out"
	"staywithme/internal/platform/sqlitedb"
)

type SQLiteLogStore struct {
	db *sql.DB
}

func NewSQLiteLogStore(db *sql.DB) (notifyout.LogStore, error) {
	store := &SQLiteLogStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteLogStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS notification_logs (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  at TEXT NOT NULL,
  success INTEGER NOT NULL,
  contact_id TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS notification_logs_session ON notification_logs (session_id, at);
CREATE INDEX IF NOT EXISTS notification_logs_at ON notification_logs (at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create notification_logs table: %w", err)
	}
	return nil
}

func (s *SQLiteLogStore) Append(ctx context.Context, e domain.LogEntry) error {
	const stmt = `
INSERT INTO notification_logs (id, session_id, kind, at, success, contact_id, message)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	success := 0
	if e.Success {
		success = 1
	}
	_, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt,
		e.ID, e.SessionID, string(e.Kind), e.At.UTC().Format(sqlitedb.TimeLayout), success, e.ContactID, e.Message,
	)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

// List returns the newest entries first; an empty sessionID lists every session.
func (s *SQLiteLogStore) List(ctx context.Context, sessionID string, limit int) ([]domain.LogEntry, error) {
	query := `SELECT id, session_id, kind, at, success, contact_id, message FROM notification_logs`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := sqlitedb.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notification logs: %w", err)
	}
	defer rows.Close()
	out := []domain.LogEntry{}
	for rows.Next() {
		var (
			e       domain.LogEntry
			kind    string
			at      string
			success int
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &at, &success, &e.ContactID, &e.Message); err != nil {
			return nil, fmt.Errorf("scan notification log: %w", err)
		}
		e.Kind = domain.Kind(kind)
		e.Success = success == 1
		if e.At, err = time.Parse(sqlitedb.TimeLayout, at); err != nil {
			return nil, fmt.Errorf("decode notification log time: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification logs: %w", err)
	}
	return out, nil
}

func (s *SQLiteLogStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM notification_logs WHERE at < ?`, cutoff.UTC().Format(sqlitedb.TimeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune notification logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
