// README: Mission service tests (assignment handshake + overrides).
package mission

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"navette/internal/infra"
	"navette/internal/modules/company"
	"navette/internal/modules/user"
	"navette/internal/modules/vehicle"
	"navette/internal/types"
)

type recordingNotifier struct {
	proposed, assigned, updated, removed int
	lastDriver                           types.ID
}

func (r *recordingNotifier) MissionProposed(_ context.Context, driverID types.ID, _ *Mission) error {
	r.proposed++
	r.lastDriver = driverID
	return nil
}

func (r *recordingNotifier) MissionAssigned(_ context.Context, driverID types.ID, _ *Mission) error {
	r.assigned++
	r.lastDriver = driverID
	return nil
}

func (r *recordingNotifier) MissionUpdated(_ context.Context, driverID types.ID, _ *Mission) error {
	r.updated++
	r.lastDriver = driverID
	return nil
}

func (r *recordingNotifier) MissionRemoved(_ context.Context, driverID types.ID, _ *Mission) error {
	r.removed++
	r.lastDriver = driverID
	return nil
}

type failingNotifier struct {
	err error
}

func (f *failingNotifier) MissionProposed(context.Context, types.ID, *Mission) error { return f.err }
func (f *failingNotifier) MissionAssigned(context.Context, types.ID, *Mission) error { return f.err }
func (f *failingNotifier) MissionUpdated(context.Context, types.ID, *Mission) error  { return f.err }
func (f *failingNotifier) MissionRemoved(context.Context, types.ID, *Mission) error  { return f.err }

type fixture struct {
	svc      *Service
	notifier *recordingNotifier
	company  types.ID
	driver   types.ID
	vehicle  types.ID
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := infra.OpenDB(t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	companies := company.NewStore(db)
	users := user.NewStore(db)
	vehicles := vehicle.NewStore(db)

	co := &company.Company{Name: "Test Transports"}
	if err := companies.Create(ctx, co); err != nil {
		t.Fatalf("create company: %v", err)
	}
	d := &user.User{Email: "driver@test", PasswordHash: "x", Role: types.RoleDriver, CompanyID: co.ID}
	if err := users.Create(ctx, d); err != nil {
		t.Fatalf("create driver: %v", err)
	}
	v := &vehicle.Vehicle{Brand: "Iveco", Model: "Crossway", LicensePlate: "T-1", FleetNumber: "01", Mileage: 1000, IsActive: true}
	if err := vehicles.Create(ctx, v); err != nil {
		t.Fatalf("create vehicle: %v", err)
	}

	n := &recordingNotifier{}
	svc := NewService(NewStore(db), companies, users, vehicles)
	svc.SetNotifier(n)
	return &fixture{svc: svc, notifier: n, company: co.ID, driver: d.ID, vehicle: v.ID}
}

func (f *fixture) mustCreate(t *testing.T, driverID *types.ID) *Mission {
	t.Helper()
	m, err := f.svc.Create(context.Background(), CreateCommand{
		Title:                "Airport shuttle",
		ScheduledDepartureAt: time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC),
		MaxPassengers:        30,
		CompanyID:            f.company,
		VehicleID:            &f.vehicle,
		DriverID:             driverID,
	})
	if err != nil {
		t.Fatalf("create mission: %v", err)
	}
	return m
}

func assertMissionStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	m, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if m.Status != want {
		t.Fatalf("expected status %s, got %s", want, m.Status)
	}
}

func TestCreatePendingMission(t *testing.T) {
	f := setupService(t)
	m := f.mustCreate(t, nil)

	if m.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", m.Status)
	}
	if m.DriverID != nil {
		t.Fatal("expected no driver")
	}
	if f.notifier.proposed != 0 {
		t.Fatal("no proposal expected without a driver")
	}
}

func TestCreateValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateCommand{
		Title: "x", ScheduledDepartureAt: time.Now(), MaxPassengers: 0, CompanyID: f.company,
	})
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for zero capacity, got %v", err)
	}

	_, err = f.svc.Create(ctx, CreateCommand{
		Title: "x", ScheduledDepartureAt: time.Now(), MaxPassengers: 10, CompanyID: "missing",
	})
	var nf *types.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for unknown company, got %v", err)
	}
}

func TestCreateWithDriverProposes(t *testing.T) {
	f := setupService(t)
	m := f.mustCreate(t, &f.driver)

	if m.Status != StatusAssigned {
		t.Fatalf("expected ASSIGNED, got %s", m.Status)
	}
	if m.DriverID == nil || *m.DriverID != f.driver {
		t.Fatal("expected driver set")
	}
	if f.notifier.proposed != 1 {
		t.Fatalf("expected 1 proposal notification, got %d", f.notifier.proposed)
	}
}

func TestAssignOnlyFromPending(t *testing.T) {
	f := setupService(t)
	m := f.mustCreate(t, &f.driver)

	err := f.svc.Assign(context.Background(), AssignCommand{MissionID: m.ID, DriverID: f.driver})
	var pe *types.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreconditionError for double assign, got %v", err)
	}
	if !strings.Contains(err.Error(), "status ASSIGNED") {
		t.Fatalf("expected the blocking status in the message, got %q", err.Error())
	}
}

func TestNotifierFailureSurfaces(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	pending := f.mustCreate(t, nil)
	assigned := f.mustCreate(t, &f.driver)

	boom := errors.New("notification store unavailable")
	f.svc.SetNotifier(&failingNotifier{err: boom})

	// The pending-confirmation notice is the actionable half of a
	// propose; its failure must fail the assignment call.
	err := f.svc.Assign(ctx, AssignCommand{MissionID: pending.ID, DriverID: f.driver})
	if !errors.Is(err, boom) {
		t.Fatalf("expected proposal failure surfaced from Assign, got %v", err)
	}

	if err := f.svc.Cancel(ctx, assigned.ID); !errors.Is(err, boom) {
		t.Fatalf("expected removal failure surfaced from Cancel, got %v", err)
	}
}

func TestUnassignRevertsToPending(t *testing.T) {
	f := setupService(t)
	m := f.mustCreate(t, &f.driver)

	if err := f.svc.Unassign(context.Background(), UnassignCommand{MissionID: m.ID}); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	got, err := f.svc.Get(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("expected PENDING after unassign, got %s", got.Status)
	}
	if got.DriverID != nil {
		t.Fatal("expected driver cleared")
	}
	if f.notifier.removed != 1 {
		t.Fatalf("expected removal notification, got %d", f.notifier.removed)
	}
}

func TestOverrideStatusEscapeHatch(t *testing.T) {
	f := setupService(t)
	m := f.mustCreate(t, nil)
	ctx := context.Background()

	// An administrator may force COMPLETED without any kilometrage data.
	arrival := time.Date(2026, 9, 14, 17, 30, 0, 0, time.UTC)
	if err := f.svc.OverrideStatus(ctx, StatusOverrideCommand{
		MissionID: m.ID, Status: StatusCompleted, ActualAt: &arrival,
	}); err != nil {
		t.Fatalf("override: %v", err)
	}
	got, _ := f.svc.Get(ctx, m.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if got.ActualArrivalAt == nil || !got.ActualArrivalAt.Equal(arrival) {
		t.Fatalf("expected actual arrival stamped, got %v", got.ActualArrivalAt)
	}
	if got.KmDepotEnd != nil {
		t.Fatal("override must not invent kilometrage data")
	}

	// ASSIGNED cannot be forced; it always goes through Assign.
	err := f.svc.OverrideStatus(ctx, StatusOverrideCommand{MissionID: m.ID, Status: StatusAssigned})
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for forced ASSIGNED, got %v", err)
	}
}

func TestCancelFromAnyActiveState(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	m := f.mustCreate(t, &f.driver)
	if err := f.svc.Cancel(ctx, m.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	assertMissionStatus(t, f.svc, m.ID, StatusCancelled)
	if f.notifier.removed != 1 {
		t.Fatalf("expected removal notice for assigned driver, got %d", f.notifier.removed)
	}

	err := f.svc.Cancel(ctx, m.ID)
	var pe *types.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreconditionError cancelling terminal mission, got %v", err)
	}

	active, err := f.svc.ListActiveByDriver(ctx, f.driver)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("cancelled mission still listed as active: %d", len(active))
	}
}

func TestUpdatePatch(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	m := f.mustCreate(t, &f.driver)

	title := "Airport shuttle (rescheduled)"
	cur := 12
	got, err := f.svc.Update(ctx, UpdateCommand{
		MissionID: m.ID,
		Patch:     Patch{Title: &title, CurrentPassengers: &cur},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != title || got.CurrentPassengers != 12 {
		t.Fatalf("patch not applied: %q %d", got.Title, got.CurrentPassengers)
	}
	if got.Status != StatusAssigned {
		t.Fatalf("patch must not change status, got %s", got.Status)
	}
	if f.notifier.updated != 1 {
		t.Fatalf("expected update notification for assigned driver, got %d", f.notifier.updated)
	}

	over := 99
	_, err = f.svc.Update(ctx, UpdateCommand{MissionID: m.ID, Patch: Patch{CurrentPassengers: &over}})
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for passenger overflow, got %v", err)
	}

	// Lowering the capacity below the passengers already on board is the
	// same overflow from the other side.
	lowMax := 10
	_, err = f.svc.Update(ctx, UpdateCommand{MissionID: m.ID, Patch: Patch{MaxPassengers: &lowMax}})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError lowering max below current, got %v", err)
	}
}
