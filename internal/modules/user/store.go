// README: User store backed by the embedded SQLite database.
package user

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

const userColumns = `id, email, password_hash, first_name, last_name, role, company_id, created_at`

func (s *Store) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = types.ID(uuid.NewString())
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(u.ID), u.Email, u.PasswordHash, u.FirstName, u.LastName,
		string(u.Role), string(u.CompanyID), fmtTime(u.CreatedAt),
	)
	return types.Storage("insert user", err)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = ?`, string(id))
	return scanUser(row, id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row, types.ID(email))
}

// AdminIDs returns every administrator; the refusal workflow fans a
// notification out to each of them.
func (s *Store) AdminIDs(ctx context.Context) ([]types.ID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM users WHERE role = ?`, string(types.RoleAdmin))
	if err != nil {
		return nil, types.Storage("list admins", err)
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.Storage("scan admin id", err)
		}
		out = append(out, types.ID(id))
	}
	return out, rows.Err()
}

func (s *Store) ListDrivers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY last_name, first_name`,
		string(types.RoleDriver))
	if err != nil {
		return nil, types.Storage("list drivers", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row *sql.Row, id types.ID) (*User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.CompanyID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("user", id)
	}
	if err != nil {
		return nil, types.Storage("get user", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func scanUserRows(rows *sql.Rows) (*User, error) {
	var u User
	var createdAt string
	err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.CompanyID, &createdAt)
	if err != nil {
		return nil, types.Storage("scan user", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
