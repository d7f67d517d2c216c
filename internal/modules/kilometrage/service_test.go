// README: Kilometrage engine tests: full phase flow, odometer guards,
// and vehicle mileage propagation.
package kilometrage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"navette/internal/infra"
	"navette/internal/modules/company"
	"navette/internal/modules/mission"
	"navette/internal/modules/user"
	"navette/internal/modules/vehicle"
	"navette/internal/types"
)

type fixture struct {
	svc       *Service
	missions  *mission.Store
	vehicles  *vehicle.Store
	vehicle   types.ID
	companyID types.ID
}

func setupEngine(t *testing.T) *fixture {
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
	missions := mission.NewStore(db)

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

	f := &fixture{
		svc:      NewService(NewStore(db), missions, vehicles),
		missions: missions,
		vehicles: vehicles,
		vehicle:  v.ID,
	}
	f.companyID = co.ID
	return f
}

func (f *fixture) mustCreateMission(t *testing.T, withVehicle bool) types.ID {
	t.Helper()
	m := &mission.Mission{
		Title:                "Stadium transfer",
		Status:               mission.StatusPending,
		ScheduledDepartureAt: time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC),
		MaxPassengers:        40,
		CompanyID:            f.companyID,
	}
	if withVehicle {
		m.VehicleID = &f.vehicle
	}
	if err := f.missions.Create(context.Background(), m); err != nil {
		t.Fatalf("create mission: %v", err)
	}
	return m.ID
}

func (f *fixture) mileage(t *testing.T) int64 {
	t.Helper()
	v, err := f.vehicles.Get(context.Background(), f.vehicle)
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	return v.Mileage
}

func TestFullKilometrageFlow(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	id := f.mustCreateMission(t, true)

	// Below the vehicle odometer: rejected.
	err := f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: 950})
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for odometer rollback, got %v", err)
	}

	if err := f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: 1050}); err != nil {
		t.Fatalf("start depot: %v", err)
	}
	m, _ := f.missions.Get(ctx, id)
	if m.Status != mission.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", m.Status)
	}
	if m.KmDepotStart == nil || *m.KmDepotStart != 1050 {
		t.Fatalf("depot start not recorded: %v", m.KmDepotStart)
	}
	if m.ActualDepartureAt == nil {
		t.Fatal("expected actual departure stamped")
	}
	if got := f.mileage(t); got != 1050 {
		t.Fatalf("vehicle mileage = %d, want 1050", got)
	}

	if err := f.svc.AddMissionStart(ctx, AddMissionStartCommand{MissionID: id, KmMissionStart: 1075}); err != nil {
		t.Fatalf("mission start: %v", err)
	}
	m, _ = f.missions.Get(ctx, id)
	if m.DistanceDepotToMission == nil || *m.DistanceDepotToMission != 25 {
		t.Fatalf("depot-to-mission distance = %v, want 25", m.DistanceDepotToMission)
	}
	if got := f.mileage(t); got != 1075 {
		t.Fatalf("vehicle mileage = %d, want 1075", got)
	}

	if err := f.svc.Complete(ctx, CompleteCommand{MissionID: id, KmMissionEnd: 1140, KmDepotEnd: 1160}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	m, _ = f.missions.Get(ctx, id)
	if m.Status != mission.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", m.Status)
	}
	if m.DistanceMissionOnly == nil || *m.DistanceMissionOnly != 65 {
		t.Fatalf("mission-only distance = %v, want 65", m.DistanceMissionOnly)
	}
	if m.DistanceDepotToDepot == nil || *m.DistanceDepotToDepot != 110 {
		t.Fatalf("depot-to-depot distance = %v, want 110", m.DistanceDepotToDepot)
	}
	if m.ActualArrivalAt == nil {
		t.Fatal("expected actual arrival stamped")
	}
	if got := f.mileage(t); got != 1160 {
		t.Fatalf("vehicle mileage = %d, want 1160", got)
	}
	if f.svc.Phase(m) != PhaseCompleted {
		t.Fatalf("expected phase completed, got %s", f.svc.Phase(m))
	}
}

func TestStartPreconditions(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	id := f.mustCreateMission(t, true)

	if err := f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: 1050}); err != nil {
		t.Fatalf("start depot: %v", err)
	}

	// Starting an in-progress mission is a logic error, not a retry.
	err := f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: 1060})
	var pe *types.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreconditionError for double start, got %v", err)
	}

	err = f.svc.StartDepot(ctx, StartDepotCommand{MissionID: "missing", KmDepotStart: 10})
	var nf *types.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	err = f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: -5})
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for negative reading, got %v", err)
	}
}

func TestMonotonicity(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	id := f.mustCreateMission(t, true)

	if err := f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: 1050}); err != nil {
		t.Fatalf("start depot: %v", err)
	}

	var ve *types.ValidationError
	if err := f.svc.AddMissionStart(ctx, AddMissionStartCommand{MissionID: id, KmMissionStart: 1049}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for backward mission start, got %v", err)
	}
	if err := f.svc.AddMissionStart(ctx, AddMissionStartCommand{MissionID: id, KmMissionStart: 1075}); err != nil {
		t.Fatalf("mission start: %v", err)
	}

	// Mission end below mission start.
	if err := f.svc.Complete(ctx, CompleteCommand{MissionID: id, KmMissionEnd: 1060, KmDepotEnd: 1200}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for backward mission end, got %v", err)
	}
	// Depot return below mission end.
	if err := f.svc.Complete(ctx, CompleteCommand{MissionID: id, KmMissionEnd: 1140, KmDepotEnd: 1100}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for backward depot return, got %v", err)
	}

	// Equal readings are legal; distances clamp at zero.
	if err := f.svc.Complete(ctx, CompleteCommand{MissionID: id, KmMissionEnd: 1075, KmDepotEnd: 1075}); err != nil {
		t.Fatalf("complete with equal readings: %v", err)
	}
	m, _ := f.missions.Get(ctx, id)
	if *m.DistanceMissionOnly != 0 || *m.DistanceDepotToDepot != 25 {
		t.Fatalf("distances = %v / %v, want 0 / 25", *m.DistanceMissionOnly, *m.DistanceDepotToDepot)
	}
}

func TestCompleteWithoutMissionStart(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	id := f.mustCreateMission(t, true)

	if err := f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: 1050}); err != nil {
		t.Fatalf("start depot: %v", err)
	}
	// Phase 2 skipped entirely: mission-only falls back to the depot
	// reading.
	if err := f.svc.Complete(ctx, CompleteCommand{MissionID: id, KmMissionEnd: 1140, KmDepotEnd: 1160}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	m, _ := f.missions.Get(ctx, id)
	if m.DistanceMissionOnly == nil || *m.DistanceMissionOnly != 90 {
		t.Fatalf("mission-only distance = %v, want 90", m.DistanceMissionOnly)
	}
}

func TestMissionWithoutVehicle(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	id := f.mustCreateMission(t, false)

	// No vehicle: no rollback guard, no mileage push.
	if err := f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: 10}); err != nil {
		t.Fatalf("start depot: %v", err)
	}
	if got := f.mileage(t); got != 1000 {
		t.Fatalf("vehicle mileage changed to %d without assignment", got)
	}

	_, err := f.svc.VehicleMileage(ctx, id)
	var pe *types.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreconditionError for mileage without vehicle, got %v", err)
	}
}

func TestDoubleSubmitRace(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	id := f.mustCreateMission(t, true)

	// Two concurrent start taps: exactly one may win.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.StartDepot(ctx, StartDepotCommand{MissionID: id, KmDepotStart: 1050})
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		var pe *types.PreconditionError
		if !errors.As(err, &pe) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful start, got %d", success)
	}
	if got := f.mileage(t); got != 1050 {
		t.Fatalf("vehicle mileage = %d, want 1050", got)
	}
}
