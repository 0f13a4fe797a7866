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

type SQLiteContactStore struct {
	db *sql.DB
}

func NewSQLiteContactStore(db *sql.DB) (profileout.ContactStore, error) {
	store := &SQLiteContactStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteContactStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS contacts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  priority INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS contacts_priority ON contacts (active, priority);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create contacts table: %w", err)
	}
	return nil
}

func (s *SQLiteContactStore) Insert(ctx context.Context, c domain.Contact) error {
	const stmt = `INSERT INTO contacts (id, name, phone, priority, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt,
		c.ID, c.Name, c.Phone, c.Priority, boolToInt(c.Active), c.CreatedAt.UTC().Format(sqlitedb.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (s *SQLiteContactStore) Get(ctx context.Context, id string) (domain.Contact, error) {
	const query = `SELECT id, name, phone, priority, active, created_at FROM contacts WHERE id = ?`
	c, err := scanContact(sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, fmt.Errorf("%w: contact %s", apperrors.ErrNotFound, id)
	}
	return c, err
}

func (s *SQLiteContactStore) List(ctx context.Context, activeOnly bool) ([]domain.Contact, error) {
	query := `SELECT id, name, phone, priority, active, created_at FROM contacts`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY priority ASC, name ASC`
	rows, err := sqlitedb.Conn(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	out := []domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return out, nil
}

func (s *SQLiteContactStore) SetActive(ctx context.Context, id string, active bool) error {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, `UPDATE contacts SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return requireOneRow(res, id)
}

func (s *SQLiteContactStore) Delete(ctx context.Context, id string) error {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return requireOneRow(res, id)
}

func (s *SQLiteContactStore) MaxPriority(ctx context.Context) (int, error) {
	var max sql.NullInt64
	if err := sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT MAX(priority) FROM contacts`).Scan(&max); err != nil {
		return 0, fmt.Errorf("max contact priority: %w", err)
	}
	return int(max.Int64), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (domain.Contact, error) {
	var (
		c         domain.Contact
		active    int
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Priority, &active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Contact{}, err
		}
		return domain.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	c.Active = active == 1
	ts, err := time.Parse(sqlitedb.TimeLayout, createdAt)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("decode contact created_at: %w", err)
	}
	c.CreatedAt = ts
	return c, nil
}

func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: contact %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
