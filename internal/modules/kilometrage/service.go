// README: Kilometrage engine: validates the ordered odometer phases and
// pushes mileage into the vehicle record.
package kilometrage

import (
	"context"
	"math"
	"time"

	"navette/internal/modules/mission"
	"navette/internal/modules/vehicle"
	"navette/internal/types"
)

type MissionReader interface {
	Get(ctx context.Context, id types.ID) (*mission.Mission, error)
}

type VehicleReader interface {
	Get(ctx context.Context, id types.ID) (*vehicle.Vehicle, error)
}

type Service struct {
	store    *Store
	missions MissionReader
	vehicles VehicleReader
}

func NewService(store *Store, missions MissionReader, vehicles VehicleReader) *Service {
	return &Service{store: store, missions: missions, vehicles: vehicles}
}

type StartDepotCommand struct {
	MissionID    types.ID
	KmDepotStart float64
}

// StartDepot is phase 1: the depot-departure reading starts the mission.
func (s *Service) StartDepot(ctx context.Context, cmd StartDepotCommand) error {
	if err := checkReading("depot departure km", cmd.KmDepotStart); err != nil {
		return err
	}
	m, err := s.missions.Get(ctx, cmd.MissionID)
	if err != nil {
		return err
	}
	if m.Status != mission.StatusPending && m.Status != mission.StatusAssigned {
		return types.Preconditionf("mission must be pending to start, status is %s", m.Status)
	}
	if m.VehicleID != nil {
		v, err := s.vehicles.Get(ctx, *m.VehicleID)
		if err != nil {
			return err
		}
		if cmd.KmDepotStart < float64(v.Mileage) {
			return types.Validationf("depot departure km %.1f is below vehicle mileage %d",
				cmd.KmDepotStart, v.Mileage)
		}
	}

	ok, err := s.store.StartDepot(ctx, cmd.MissionID, m.VehicleID, cmd.KmDepotStart, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return types.Preconditionf("mission %s was started concurrently", cmd.MissionID)
	}
	return nil
}

type AddMissionStartCommand struct {
	MissionID      types.ID
	KmMissionStart float64
}

// AddMissionStart is phase 2: the reading taken on arrival at the
// mission's departure point.
func (s *Service) AddMissionStart(ctx context.Context, cmd AddMissionStartCommand) error {
	if err := checkReading("mission start km", cmd.KmMissionStart); err != nil {
		return err
	}
	m, err := s.missions.Get(ctx, cmd.MissionID)
	if err != nil {
		return err
	}
	if m.Status != mission.StatusInProgress || m.KmDepotStart == nil {
		return types.Preconditionf("mission must be in progress with a depot reading, status is %s", m.Status)
	}
	if cmd.KmMissionStart < *m.KmDepotStart {
		return types.Validationf("mission start km %.1f is below depot departure km %.1f",
			cmd.KmMissionStart, *m.KmDepotStart)
	}

	depotToMission := cmd.KmMissionStart - *m.KmDepotStart
	ok, err := s.store.AddMissionStart(ctx, cmd.MissionID, m.VehicleID, cmd.KmMissionStart, depotToMission, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return types.Preconditionf("mission start km for %s was recorded concurrently", cmd.MissionID)
	}
	return nil
}

type CompleteCommand struct {
	MissionID    types.ID
	KmMissionEnd float64
	KmDepotEnd   float64
}

// Complete is phase 3: the mission-end and depot-return readings close
// the mission.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	if err := checkReading("mission end km", cmd.KmMissionEnd); err != nil {
		return err
	}
	if err := checkReading("depot return km", cmd.KmDepotEnd); err != nil {
		return err
	}
	m, err := s.missions.Get(ctx, cmd.MissionID)
	if err != nil {
		return err
	}
	if m.Status != mission.StatusInProgress || m.KmDepotStart == nil {
		return types.Preconditionf("mission must be in progress with a depot reading, status is %s", m.Status)
	}
	if cmd.KmMissionEnd < *m.KmDepotStart {
		return types.Validationf("mission end km %.1f is below depot departure km %.1f",
			cmd.KmMissionEnd, *m.KmDepotStart)
	}
	if m.KmMissionStart != nil && cmd.KmMissionEnd < *m.KmMissionStart {
		return types.Validationf("mission end km %.1f is below mission start km %.1f",
			cmd.KmMissionEnd, *m.KmMissionStart)
	}
	if cmd.KmDepotEnd < cmd.KmMissionEnd {
		return types.Validationf("depot return km %.1f is below mission end km %.1f",
			cmd.KmDepotEnd, cmd.KmMissionEnd)
	}

	r := ReadingsOf(m)
	r.MissionEnd = &cmd.KmMissionEnd
	r.DepotEnd = &cmd.KmDepotEnd
	d := r.Distances()

	ok, err := s.store.Complete(ctx, cmd.MissionID, m.VehicleID, cmd.KmMissionEnd, cmd.KmDepotEnd, d, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return types.Preconditionf("mission %s was completed concurrently", cmd.MissionID)
	}
	return nil
}

// Phase reports the mission's kilometrage progress. Total, no side effects.
func (s *Service) Phase(m *mission.Mission) Phase {
	return ReadingsOf(m).Phase()
}

// VehicleMileage returns the current odometer value of the vehicle
// assigned to the mission.
func (s *Service) VehicleMileage(ctx context.Context, missionID types.ID) (int64, error) {
	m, err := s.missions.Get(ctx, missionID)
	if err != nil {
		return 0, err
	}
	if m.VehicleID == nil {
		return 0, types.Preconditionf("mission %s has no vehicle assigned", missionID)
	}
	v, err := s.vehicles.Get(ctx, *m.VehicleID)
	if err != nil {
		return 0, err
	}
	return v.Mileage, nil
}

func checkReading(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return types.Validationf("%s must be a finite number", name)
	}
	if v < 0 {
		return types.Validationf("%s must not be negative, got %.1f", name, v)
	}
	return nil
}
