// README: Confirmation workflow: propose/accept/refuse handshake plus
// read-state queries and the live re-push ticker.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"navette/internal/modules/mission"
	"navette/internal/types"
)

type MissionWorkflow interface {
	Get(ctx context.Context, id types.ID) (*mission.Mission, error)
	Unassign(ctx context.Context, cmd mission.UnassignCommand) error
}

type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]types.ID, error)
}

type Service struct {
	store    *Store
	missions MissionWorkflow
	admins   AdminDirectory
	bus      *Bus
	tick     time.Duration
}

func NewService(store *Store, missions MissionWorkflow, admins AdminDirectory, bus *Bus, tick time.Duration) *Service {
	return &Service{store: store, missions: missions, admins: admins, bus: bus, tick: tick}
}

// MissionProposed creates the pending-confirmation notice the driver
// must answer. Satisfies mission.Notifier.
func (s *Service) MissionProposed(ctx context.Context, driverID types.ID, m *mission.Mission) error {
	return s.create(ctx, &Notification{
		UserID:         driverID,
		Type:           TypeMissionPendingConfirmation,
		Title:          "Mission proposed",
		Message:        fmt.Sprintf("You have been proposed for mission %q. Please accept or refuse.", m.Title),
		MissionID:      m.ID,
		MissionTitle:   m.Title,
		RequiresAction: true,
	})
}

// MissionAssigned covers direct assignment that skipped the handshake.
func (s *Service) MissionAssigned(ctx context.Context, driverID types.ID, m *mission.Mission) error {
	return s.create(ctx, &Notification{
		UserID:       driverID,
		Type:         TypeMissionAssigned,
		Title:        "Mission assigned",
		Message:      fmt.Sprintf("Mission %q has been assigned to you.", m.Title),
		MissionID:    m.ID,
		MissionTitle: m.Title,
	})
}

func (s *Service) MissionUpdated(ctx context.Context, driverID types.ID, m *mission.Mission) error {
	return s.create(ctx, &Notification{
		UserID:       driverID,
		Type:         TypeMissionUpdated,
		Title:        "Mission updated",
		Message:      fmt.Sprintf("Mission %q has been updated.", m.Title),
		MissionID:    m.ID,
		MissionTitle: m.Title,
	})
}

func (s *Service) MissionRemoved(ctx context.Context, driverID types.ID, m *mission.Mission) error {
	return s.create(ctx, &Notification{
		UserID:       driverID,
		Type:         TypeMissionRemoved,
		Title:        "Mission removed",
		Message:      fmt.Sprintf("Mission %q is no longer assigned to you.", m.Title),
		MissionID:    m.ID,
		MissionTitle: m.Title,
	})
}

type AcceptCommand struct {
	NotificationID types.ID
	DriverID       types.ID
}

// Accept marks the pending-confirmation notice read and records the
// driver's acceptance. The mission stays ASSIGNED; confirmation and the
// kilometrage start are independent gates. Idempotent: accepting an
// already-read notice is a no-op, the UI may race on taps.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	n, err := s.store.Get(ctx, cmd.NotificationID)
	if err != nil {
		return err
	}
	if n.UserID != cmd.DriverID {
		return types.Preconditionf("notification %s does not belong to driver %s", n.ID, cmd.DriverID)
	}
	if n.Type != TypeMissionPendingConfirmation {
		return types.Preconditionf("notification %s is not a pending confirmation", n.ID)
	}
	if n.IsRead {
		return nil
	}
	m, err := s.missions.Get(ctx, n.MissionID)
	if err != nil {
		return err
	}
	if m.DriverID == nil || *m.DriverID != cmd.DriverID {
		return types.Preconditionf("mission %s is no longer assigned to driver %s", m.ID, cmd.DriverID)
	}

	// Record the acceptance before consuming the notice: a failure here
	// leaves the notice unread and the accept retryable.
	if err := s.create(ctx, &Notification{
		UserID:       cmd.DriverID,
		Type:         TypeMissionAccepted,
		Title:        "Mission accepted",
		Message:      fmt.Sprintf("You accepted mission %q.", m.Title),
		MissionID:    m.ID,
		MissionTitle: m.Title,
	}); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, n.ID); err != nil {
		return err
	}
	s.push(ctx, cmd.DriverID)
	return nil
}

type RefuseCommand struct {
	NotificationID types.ID
	DriverID       types.ID
}

// Refuse marks the notice read, reverts the mission to PENDING with no
// driver, and informs every administrator.
func (s *Service) Refuse(ctx context.Context, cmd RefuseCommand) error {
	n, err := s.store.Get(ctx, cmd.NotificationID)
	if err != nil {
		return err
	}
	if n.UserID != cmd.DriverID {
		return types.Preconditionf("notification %s does not belong to driver %s", n.ID, cmd.DriverID)
	}
	if n.Type != TypeMissionPendingConfirmation {
		return types.Preconditionf("notification %s is not a pending confirmation", n.ID)
	}
	if n.IsRead {
		return nil
	}
	m, err := s.missions.Get(ctx, n.MissionID)
	if err != nil {
		return err
	}

	// Revert the assignment before consuming the notice: a failed
	// unassign leaves the refusal retryable. The unassignment suppresses
	// its own removal notice since the driver initiated this transition.
	// A mission that already moved on (withdrawn, reassigned) skips the
	// revert; the notice is still settled below.
	if m.Status == mission.StatusAssigned && m.DriverID != nil && *m.DriverID == cmd.DriverID {
		if err := s.missions.Unassign(ctx, mission.UnassignCommand{
			MissionID:            m.ID,
			SuppressNotification: true,
		}); err != nil {
			return err
		}
	}

	if err := s.store.MarkRead(ctx, n.ID); err != nil {
		return err
	}
	s.push(ctx, cmd.DriverID)

	adminIDs, err := s.admins.AdminIDs(ctx)
	if err != nil {
		return err
	}
	for _, adminID := range adminIDs {
		if err := s.create(ctx, &Notification{
			UserID:       adminID,
			Type:         TypeMissionRefused,
			Title:        "Mission refused",
			Message:      fmt.Sprintf("Driver %s refused mission %q.", cmd.DriverID, m.Title),
			MissionID:    m.ID,
			MissionTitle: m.Title,
		}); err != nil {
			return err
		}
	}
	return nil
}

// MarkAsRead is an idempotent flag flip.
func (s *Service) MarkAsRead(ctx context.Context, id types.ID) error {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	if err := s.store.MarkRead(ctx, id); err != nil {
		return err
	}
	s.push(ctx, n.UserID)
	return nil
}

func (s *Service) ForUser(ctx context.Context, userID types.ID) ([]*Notification, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID types.ID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) Subscribe(userID types.ID) <-chan []*Notification {
	return s.bus.Subscribe(userID)
}

func (s *Service) Unsubscribe(userID types.ID) {
	s.bus.Unsubscribe(userID)
}

// RunReminderTicker periodically re-pushes full lists to subscribed
// users with unanswered pending-confirmation notices. Delivery is
// best-effort; unsubscribed users re-fetch on next mount.
func (s *Service) RunReminderTicker(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			userIDs, err := s.store.UsersWithPendingAction(ctx)
			if err != nil {
				logrus.WithError(err).Warn("reminder ticker query failed")
				continue
			}
			for _, userID := range userIDs {
				if s.bus.Subscribed(userID) {
					s.push(ctx, userID)
				}
			}
		}
	}
}

func (s *Service) create(ctx context.Context, n *Notification) error {
	if err := s.store.Create(ctx, n); err != nil {
		return err
	}
	s.push(ctx, n.UserID)
	return nil
}

func (s *Service) push(ctx context.Context, userID types.ID) {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("notification push refetch failed")
		return
	}
	s.bus.Publish(userID, list)
}
