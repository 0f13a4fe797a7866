package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"staywithme/internal/modules/checkin/domain"
	checkinout "staywithme/internal/modules/checkin/port/out"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/sqlitedb"
)

const sessionColumns = `id, started_at, duration_seconds, active, last_confirmed_at, level, epoch, location, substances, notes, ended_at`

type SQLiteSessionStore struct {
	db *sql.DB
}

func NewSQLiteSessionStore(db *sql.DB) (checkinout.SessionStore, error) {
	store := &SQLiteSessionStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteSessionStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  duration_seconds INTEGER NOT NULL,
  active INTEGER NOT NULL,
  last_confirmed_at TEXT NULL,
  level INTEGER NOT NULL DEFAULT 0 CHECK (level BETWEEN 0 AND 4),
  epoch INTEGER NOT NULL DEFAULT 0,
  location TEXT NOT NULL DEFAULT '',
  substances TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  ended_at TEXT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS sessions_single_active ON sessions (active) WHERE active = 1;
CREATE INDEX IF NOT EXISTS sessions_started_at ON sessions (started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) GetActive(ctx context.Context) (domain.Session, error) {
	row := sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE active = 1`)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load active session: %w", err)
	}
	return session, nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	row := sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

func (s *SQLiteSessionStore) Create(ctx context.Context, session domain.Session) error {
	const stmt = `
INSERT INTO sessions (id, started_at, duration_seconds, active, last_confirmed_at, level, epoch, location, substances, notes, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt,
		session.ID,
		formatTime(session.StartedAt),
		int64(session.Duration/time.Second),
		boolInt(session.Active),
		formatNullTime(session.LastConfirmedAt),
		int(session.Level),
		session.Epoch,
		session.Location,
		session.Substances,
		session.Notes,
		formatNullTime(session.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) EndAllActive(ctx context.Context, at time.Time) (int64, error) {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE sessions SET active = 0, ended_at = ? WHERE active = 1`, formatTime(at))
	if err != nil {
		return 0, fmt.Errorf("end active sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteSessionStore) End(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE sessions SET active = 0, ended_at = ? WHERE id = ? AND active = 1`, formatTime(at), id)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("end session rows: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// AdvanceLevel is the compare-and-set every escalation goes through. The
// WHERE clause carries the level and epoch the caller observed.
func (s *SQLiteSessionStore) AdvanceLevel(ctx context.Context, id string, from, to domain.Level, epoch int64) error {
	if !to.Valid() || to <= from {
		return fmt.Errorf("%w: cannot move level from %d to %d", apperrors.ErrInvalidInput, from, to)
	}
	const stmt = `
UPDATE sessions SET level = ?
WHERE id = ? AND active = 1 AND level = ? AND epoch = ?`
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt, int(to), id, int(from), epoch)
	if err != nil {
		return fmt.Errorf("advance session level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance session level rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: session %s level %d epoch %d", apperrors.ErrStaleWrite, id, from, epoch)
	}
	return nil
}

func (s *SQLiteSessionStore) Confirm(ctx context.Context, id string, at time.Time) (domain.Session, error) {
	const stmt = `
UPDATE sessions SET level = 0, last_confirmed_at = ?, epoch = epoch + 1
WHERE id = ? AND active = 1
RETURNING ` + sessionColumns
	row := sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, stmt, formatTime(at), id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return domain.Session{}, getErr
		}
		return domain.Session{}, fmt.Errorf("%w: session %s has ended", apperrors.ErrNoActiveSession, id)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("confirm session: %w", err)
	}
	return session, nil
}

func (s *SQLiteSessionStore) UpdateLocation(ctx context.Context, id, location string) error {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE sessions SET location = ? WHERE id = ? AND active = 1`, location, id)
	if err != nil {
		return fmt.Errorf("update session location: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %s", apperrors.ErrNoActiveSession, id)
	}
	return nil
}

// List returns the most recently started sessions first.
func (s *SQLiteSessionStore) List(ctx context.Context, limit int) ([]domain.Session, error) {
	rows, err := sqlitedb.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	out := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		session         domain.Session
		startedAt       string
		durationSeconds int64
		active          int
		lastConfirmedAt sql.NullString
		level           int
		endedAt         sql.NullString
	)
	err := row.Scan(&session.ID, &startedAt, &durationSeconds, &active, &lastConfirmedAt, &level,
		&session.Epoch, &session.Location, &session.Substances, &session.Notes, &endedAt)
	if err != nil {
		return domain.Session{}, err
	}
	if session.StartedAt, err = time.Parse(sqlitedb.TimeLayout, startedAt); err != nil {
		return domain.Session{}, fmt.Errorf("decode started_at: %w", err)
	}
	if session.LastConfirmedAt, err = parseNullTime(lastConfirmedAt); err != nil {
		return domain.Session{}, fmt.Errorf("decode last_confirmed_at: %w", err)
	}
	if session.EndedAt, err = parseNullTime(endedAt); err != nil {
		return domain.Session{}, fmt.Errorf("decode ended_at: %w", err)
	}
	session.Duration = time.Duration(durationSeconds) * time.Second
	session.Active = active == 1
	session.Level = domain.Level(level)
	return session, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqlitedb.TimeLayout)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(sqlitedb.TimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
