// README: Mission service implements creation, assignment, and status transitions.
package mission

import (
	"context"
	"time"

	"navette/internal/modules/company"
	"navette/internal/modules/user"
	"navette/internal/modules/vehicle"
	"navette/internal/types"
)

type CompanyDirectory interface {
	Get(ctx context.Context, id types.ID) (*company.Company, error)
}

type UserDirectory interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
}

type VehicleDirectory interface {
	Get(ctx context.Context, id types.ID) (*vehicle.Vehicle, error)
}

// Notifier receives driver-relevant mission events. Implemented by the
// notification workflow; bound after construction because that workflow
// in turn drives mission transitions on accept/refuse.
type Notifier interface {
	MissionProposed(ctx context.Context, driverID types.ID, m *Mission) error
	MissionAssigned(ctx context.Context, driverID types.ID, m *Mission) error
	MissionUpdated(ctx context.Context, driverID types.ID, m *Mission) error
	MissionRemoved(ctx context.Context, driverID types.ID, m *Mission) error
}

type Service struct {
	store     *Store
	companies CompanyDirectory
	users     UserDirectory
	vehicles  VehicleDirectory
	notifier  Notifier
}

func NewService(store *Store, companies CompanyDirectory, users UserDirectory, vehicles VehicleDirectory) *Service {
	return &Service{store: store, companies: companies, users: users, vehicles: vehicles}
}

// SetNotifier binds the notification workflow once both services exist.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

type CreateCommand struct {
	Title                string
	Description          string
	DepartureName        string
	DepartureAddress     string
	Departure            types.Point
	ArrivalName          string
	ArrivalAddress       string
	Arrival              types.Point
	ScheduledDepartureAt time.Time
	EstimatedArrivalAt   *time.Time
	MaxPassengers        int
	CompanyID            types.ID
	DriverID             *types.ID
	VehicleID            *types.ID
}

// Create stores a new PENDING mission. Supplying a driver at creation is
// a propose: the mission moves to ASSIGNED awaiting the driver's answer.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Mission, error) {
	if cmd.Title == "" {
		return nil, types.Validationf("title is required")
	}
	if cmd.MaxPassengers <= 0 {
		return nil, types.Validationf("max passengers must be positive, got %d", cmd.MaxPassengers)
	}
	if cmd.ScheduledDepartureAt.IsZero() {
		return nil, types.Validationf("scheduled departure time is required")
	}
	if _, err := s.companies.Get(ctx, cmd.CompanyID); err != nil {
		return nil, err
	}
	if cmd.VehicleID != nil {
		if _, err := s.vehicles.Get(ctx, *cmd.VehicleID); err != nil {
			return nil, err
		}
	}
	if cmd.DriverID != nil {
		if err := s.checkDriver(ctx, *cmd.DriverID); err != nil {
			return nil, err
		}
	}

	m := &Mission{
		Title:                cmd.Title,
		Description:          cmd.Description,
		Status:               StatusPending,
		DepartureName:        cmd.DepartureName,
		DepartureAddress:     cmd.DepartureAddress,
		Departure:            cmd.Departure,
		ArrivalName:          cmd.ArrivalName,
		ArrivalAddress:       cmd.ArrivalAddress,
		Arrival:              cmd.Arrival,
		ScheduledDepartureAt: cmd.ScheduledDepartureAt,
		EstimatedArrivalAt:   cmd.EstimatedArrivalAt,
		MaxPassengers:        cmd.MaxPassengers,
		CompanyID:            cmd.CompanyID,
		VehicleID:            cmd.VehicleID,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	if cmd.DriverID != nil {
		if err := s.Assign(ctx, AssignCommand{MissionID: m.ID, DriverID: *cmd.DriverID}); err != nil {
			return nil, err
		}
		return s.store.Get(ctx, m.ID)
	}
	return m, nil
}

type UpdateCommand struct {
	MissionID types.ID
	Patch     Patch
}

// Update applies a partial mutation and notifies an assigned driver of
// the change. Clearing the driver field emits a removal notice instead.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Mission, error) {
	before, err := s.store.Get(ctx, cmd.MissionID)
	if err != nil {
		return nil, err
	}

	p := cmd.Patch
	if p.MaxPassengers != nil && *p.MaxPassengers <= 0 {
		return nil, types.Validationf("max passengers must be positive, got %d", *p.MaxPassengers)
	}
	if p.MaxPassengers != nil && p.CurrentPassengers == nil && before.CurrentPassengers > *p.MaxPassengers {
		return nil, types.Validationf("max passengers %d is below current passengers %d",
			*p.MaxPassengers, before.CurrentPassengers)
	}
	if p.CurrentPassengers != nil {
		maxP := before.MaxPassengers
		if p.MaxPassengers != nil {
			maxP = *p.MaxPassengers
		}
		if *p.CurrentPassengers < 0 || *p.CurrentPassengers > maxP {
			return nil, types.Validationf("current passengers %d out of range [0, %d]",
				*p.CurrentPassengers, maxP)
		}
	}
	if p.VehicleID != nil && *p.VehicleID != "" {
		if _, err := s.vehicles.Get(ctx, *p.VehicleID); err != nil {
			return nil, err
		}
	}
	if p.DriverID != nil && *p.DriverID != "" {
		if err := s.checkDriver(ctx, *p.DriverID); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, cmd.MissionID, p); err != nil {
		return nil, err
	}
	after, err := s.store.Get(ctx, cmd.MissionID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		switch {
		case p.DriverID != nil && *p.DriverID == "" && before.DriverID != nil:
			if err := s.notifier.MissionRemoved(ctx, *before.DriverID, after); err != nil {
				return nil, err
			}
		case p.DriverID != nil && *p.DriverID != "" && (before.DriverID == nil || *before.DriverID != *p.DriverID):
			// Direct assignment through the patch path skips the
			// confirmation handshake.
			if err := s.notifier.MissionAssigned(ctx, *p.DriverID, after); err != nil {
				return nil, err
			}
		case after.DriverID != nil:
			if err := s.notifier.MissionUpdated(ctx, *after.DriverID, after); err != nil {
				return nil, err
			}
		}
	}
	return after, nil
}

type AssignCommand struct {
	MissionID types.ID
	DriverID  types.ID

	// SuppressNotification avoids feedback loops when the assignment is
	// itself a consequence of a driver's accept/refuse action.
	SuppressNotification bool
}

// Assign proposes the mission to a driver: PENDING → ASSIGNED with a
// pending-confirmation notice the driver must answer.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) error {
	m, err := s.store.Get(ctx, cmd.MissionID)
	if err != nil {
		return err
	}
	if err := s.checkDriver(ctx, cmd.DriverID); err != nil {
		return err
	}
	if m.Status != StatusPending {
		return types.Preconditionf("cannot assign mission in status %s", m.Status)
	}
	ok, err := s.store.SetDriver(ctx, cmd.MissionID, cmd.DriverID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Preconditionf("mission %s is no longer pending without kilometrage data", cmd.MissionID)
	}

	// The pending-confirmation notice is what the driver answers; a
	// failed insert must fail the propose, not leave a silent ASSIGNED.
	if s.notifier != nil && !cmd.SuppressNotification {
		updated, err := s.store.Get(ctx, cmd.MissionID)
		if err != nil {
			return err
		}
		if err := s.notifier.MissionProposed(ctx, cmd.DriverID, updated); err != nil {
			return err
		}
	}
	return nil
}

type UnassignCommand struct {
	MissionID types.ID

	SuppressNotification bool
}

// Unassign reverts ASSIGNED → PENDING and clears the driver. Used by
// the refusal workflow and by administrators withdrawing a proposal.
func (s *Service) Unassign(ctx context.Context, cmd UnassignCommand) error {
	m, err := s.store.Get(ctx, cmd.MissionID)
	if err != nil {
		return err
	}
	if m.Status != StatusAssigned {
		return types.Preconditionf("cannot unassign mission in status %s", m.Status)
	}
	driverID := m.DriverID

	ok, err := s.store.ClearDriver(ctx, cmd.MissionID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Preconditionf("mission %s left ASSIGNED concurrently", cmd.MissionID)
	}

	if s.notifier != nil && !cmd.SuppressNotification && driverID != nil {
		updated, err := s.store.Get(ctx, cmd.MissionID)
		if err != nil {
			return err
		}
		if err := s.notifier.MissionRemoved(ctx, *driverID, updated); err != nil {
			return err
		}
	}
	return nil
}

type StatusOverrideCommand struct {
	MissionID types.ID
	Status    Status
	ActualAt  *time.Time
}

// OverrideStatus is the administrative escape hatch: it force-sets the
// status without kilometrage-completeness checks. ASSIGNED is excluded;
// assignment always goes through Assign so a driver is present.
func (s *Service) OverrideStatus(ctx context.Context, cmd StatusOverrideCommand) error {
	switch cmd.Status {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
	default:
		return types.Validationf("status %q cannot be set directly", cmd.Status)
	}
	if _, err := s.store.Get(ctx, cmd.MissionID); err != nil {
		return err
	}
	return s.store.SetStatus(ctx, cmd.MissionID, cmd.Status, cmd.ActualAt)
}

// Cancel is legal from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, id types.ID) error {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.Status.Terminal() {
		return types.Preconditionf("cannot cancel mission in terminal status %s", m.Status)
	}
	if err := s.store.SetStatus(ctx, id, StatusCancelled, nil); err != nil {
		return err
	}
	if s.notifier != nil && m.DriverID != nil {
		cancelled, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.notifier.MissionRemoved(ctx, *m.DriverID, cancelled); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Mission, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Mission, error) {
	return s.store.List(ctx)
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]*Mission, error) {
	return s.store.ListByDriver(ctx, driverID)
}

func (s *Service) ListActiveByDriver(ctx context.Context, driverID types.ID) ([]*Mission, error) {
	return s.store.ListActiveByDriver(ctx, driverID)
}

func (s *Service) checkDriver(ctx context.Context, id types.ID) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Role != types.RoleDriver {
		return types.Validationf("user %s is not a driver", id)
	}
	return nil
}
