// README: Notification store backed by the embedded SQLite database.
package notification

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

const notificationColumns = `id, user_id, type, title, message,
	mission_id, mission_title, is_read, requires_action, created_at`

func (s *Store) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = types.ID(uuid.NewString())
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(n.ID), string(n.UserID), string(n.Type), n.Title, n.Message,
		string(n.MissionID), n.MissionTitle,
		boolToInt(n.IsRead), boolToInt(n.RequiresAction), fmtTime(n.CreatedAt),
	)
	return types.Storage("insert notification", err)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, string(id))
	n, err := scanNotification(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("notification", id)
	}
	if err != nil {
		return nil, types.Storage("get notification", err)
	}
	return n, nil
}

// MarkRead flips the read flag and resolves any pending action. The
// update is idempotent; marking a read notification is a no-op.
func (s *Store) MarkRead(ctx context.Context, id types.ID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1, requires_action = 0 WHERE id = ?`,
		string(id))
	if err != nil {
		return types.Storage("mark notification read", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return types.NotFound("notification", id)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID) ([]*Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, string(userID))
	if err != nil {
		return nil, types.Storage("list notifications", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, types.Storage("scan notification", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, userID types.ID) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`,
		string(userID))
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, types.Storage("count unread", err)
	}
	return n, nil
}

// UsersWithPendingAction lists recipients holding unanswered
// pending-confirmation notices; the reminder ticker re-pushes to them.
func (s *Store) UsersWithPendingAction(ctx context.Context) ([]types.ID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM notifications WHERE requires_action = 1`)
	if err != nil {
		return nil, types.Storage("list pending-action users", err)
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.Storage("scan pending-action user", err)
		}
		out = append(out, types.ID(id))
	}
	return out, rows.Err()
}

func scanNotification(scan func(...any) error) (*Notification, error) {
	var n Notification
	var typ string
	var isRead, requiresAction int
	var createdAt string
	err := scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message,
		&n.MissionID, &n.MissionTitle, &isRead, &requiresAction, &createdAt)
	if err != nil {
		return nil, err
	}
	n.Type = Type(typ)
	n.IsRead = isRead != 0
	n.RequiresAction = requiresAction != 0
	n.CreatedAt = parseTime(createdAt)
	return &n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Fixed-width fraction keeps the text ordering equal to the time
// ordering, so newest-first works within the same second.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
