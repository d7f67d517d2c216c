// README: Identity/session provider: bcrypt login, session tokens in
// the embedded store, role gate for administrator-only operations.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"navette/internal/modules/user"
	"navette/internal/types"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("administrator role required")
)

type Service struct {
	db    *sql.DB
	users *user.Store
	ttl   time.Duration
}

func NewService(db *sql.DB, users *user.Store, ttl time.Duration) *Service {
	return &Service{db: db, users: users, ttl: ttl}
}

func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Login verifies the password and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		var nf *types.NotFoundError
		if errors.As(err, &nf) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		token, string(u.ID), fmtTime(now), fmtTime(now.Add(s.ttl)))
	if err != nil {
		return "", nil, types.Storage("insert session", err)
	}
	return token, u, nil
}

// CurrentUser resolves a session token to its user. Expired sessions
// are deleted on sight.
func (s *Service) CurrentUser(ctx context.Context, token string) (*user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, expires_at FROM sessions WHERE token = ?`, token)
	var userID, expiresAt string
	err := row.Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("session", types.ID(token))
	}
	if err != nil {
		return nil, types.Storage("get session", err)
	}
	if exp, perr := time.Parse(time.RFC3339, expiresAt); perr != nil || time.Now().After(exp) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return nil, types.NotFound("session", types.ID(token))
	}
	return s.users.Get(ctx, types.ID(userID))
}

func (s *Service) Logout(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return types.Storage("delete session", err)
}

// RequireAdmin gates administrator-only operations: mission creation,
// proposing, status overrides, fleet management.
func RequireAdmin(u *user.User) error {
	if u == nil || u.Role != types.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }
