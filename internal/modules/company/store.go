// README: Company store backed by the embedded SQLite database.
package company

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"navette/internal/types"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, c *Company) error {
	if c.ID == "" {
		c.ID = types.ID(uuid.NewString())
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, address, phone, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(c.ID), c.Name, c.Address, c.Phone, fmtTime(c.CreatedAt),
	)
	return types.Storage("insert company", err)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Company, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, phone, created_at
		FROM companies WHERE id = ?`, string(id),
	)
	var c Company
	var createdAt string
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("company", id)
	}
	if err != nil {
		return nil, types.Storage("get company", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func (s *Store) List(ctx context.Context) ([]*Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, phone, created_at
		FROM companies ORDER BY name`)
	if err != nil {
		return nil, types.Storage("list companies", err)
	}
	defer rows.Close()

	var out []*Company
	for rows.Next() {
		var c Company
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &createdAt); err != nil {
			return nil, types.Storage("scan company", err)
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
