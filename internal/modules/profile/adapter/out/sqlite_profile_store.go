package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"staywithme/internal/modules/profile/domain"
	profileout "staywithme/internal/modules/profile/port/out"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/sqlitedb"
)

type SQLiteProfileStore struct {
	db *sql.DB
}

func NewSQLiteProfileStore(db *sql.DB) (profileout.ProfileStore, error) {
	store := &SQLiteProfileStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteProfileStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS profile (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  name TEXT NOT NULL,
  medical_info TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  alert_template TEXT NOT NULL DEFAULT '',
  check_in_interval_minutes INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create profile table: %w", err)
	}
	return nil
}

func (s *SQLiteProfileStore) Load(ctx context.Context) (domain.Profile, error) {
	const query = `
SELECT name, medical_info, notes, alert_template, check_in_interval_minutes, updated_at
FROM profile WHERE id = 1`
	var (
		p         domain.Profile
		updatedAt string
	)
	err := sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, query).Scan(
		&p.Name, &p.MedicalInfo, &p.Notes, &p.AlertTemplate, &p.CheckInIntervalMinutes, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("%w: profile", apperrors.ErrNotFound)
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	p.UpdatedAt, err = time.Parse(sqlitedb.TimeLayout, updatedAt)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile updated_at: %w", err)
	}
	return p, nil
}

func (s *SQLiteProfileStore) Save(ctx context.Context, p domain.Profile) error {
	const stmt = `
INSERT INTO profile (id, name, medical_info, notes, alert_template, check_in_interval_minutes, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  medical_info=excluded.medical_info,
  notes=excluded.notes,
  alert_template=excluded.alert_template,
  check_in_interval_minutes=excluded.check_in_interval_minutes,
  updated_at=excluded.updated_at;
`
	_, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt,
		p.Name, p.MedicalInfo, p.Notes, p.AlertTemplate, p.CheckInIntervalMinutes,
		p.UpdatedAt.UTC().Format(sqlitedb.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
