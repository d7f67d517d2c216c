// README: Kilometrage store: each phase is one guarded SQLite transaction
// touching the mission row and, when present, the vehicle mileage.
package kilometrage

import (
	"context"
	"database/sql"
	"math"
	"time"

	"navette/internal/types"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// StartDepot records the depot-departure reading and moves the mission
// to IN_PROGRESS. The status guard makes a double-submitted start hit
// zero rows, which callers surface as a precondition failure.
func (s *Store) StartDepot(ctx context.Context, missionID types.ID, vehicleID *types.ID, km float64, now time.Time) (bool, error) {
	return s.phaseTx(ctx, vehicleID, km, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE missions
			SET km_depot_start = ?, status = 'IN_PROGRESS',
			    actual_departure_at = ?, updated_at = ?
			WHERE id = ? AND status IN ('PENDING','ASSIGNED') AND km_depot_start IS NULL`,
			km, fmtTime(now), fmtTime(now), string(missionID))
	})
}

// AddMissionStart records the mission-start reading and its derived
// depot-to-mission distance.
func (s *Store) AddMissionStart(ctx context.Context, missionID types.ID, vehicleID *types.ID, km, depotToMission float64, now time.Time) (bool, error) {
	return s.phaseTx(ctx, vehicleID, km, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE missions
			SET km_mission_start = ?, distance_depot_to_mission = ?, updated_at = ?
			WHERE id = ? AND status = 'IN_PROGRESS'
			  AND km_depot_start IS NOT NULL AND km_mission_start IS NULL`,
			km, depotToMission, fmtTime(now), string(missionID))
	})
}

// Complete records the two final readings, the cached distances, and the
// COMPLETED status in that same transaction.
func (s *Store) Complete(ctx context.Context, missionID types.ID, vehicleID *types.ID, kmMissionEnd, kmDepotEnd float64, d Distances, now time.Time) (bool, error) {
	return s.phaseTx(ctx, vehicleID, kmDepotEnd, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE missions
			SET km_mission_end = ?, km_depot_end = ?,
			    distance_mission_only = ?, distance_depot_to_depot = ?,
			    status = 'COMPLETED', actual_arrival_at = ?, updated_at = ?
			WHERE id = ? AND status = 'IN_PROGRESS'
			  AND km_depot_start IS NOT NULL AND km_mission_end IS NULL`,
			kmMissionEnd, kmDepotEnd,
			d.MissionOnly, d.DepotToDepot,
			fmtTime(now), fmtTime(now), string(missionID))
	})
}

// phaseTx runs the mission update and the vehicle mileage push as one
// unit; readers never observe one without the other.
func (s *Store) phaseTx(ctx context.Context, vehicleID *types.ID, mileageKm float64, missionUpdate func(*sql.Tx) (sql.Result, error)) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, types.Storage("begin kilometrage tx", err)
	}
	defer tx.Rollback()

	res, err := missionUpdate(tx)
	if err != nil {
		return false, types.Storage("update mission kilometrage", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	if vehicleID != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE vehicles SET mileage = ? WHERE id = ?`,
			int64(math.Round(mileageKm)), string(*vehicleID)); err != nil {
			return false, types.Storage("update vehicle mileage", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, types.Storage("commit kilometrage tx", err)
	}
	return true, nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }
