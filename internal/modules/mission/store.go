// README: Mission store backed by the embedded SQLite database.
package mission

import (
	"context"
	"database/sql"
	"errors"
	"strings"
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

const missionColumns = `id, title, description, status,
	departure_name, departure_address, departure_lat, departure_lng,
	arrival_name, arrival_address, arrival_lat, arrival_lng,
	scheduled_departure_at, estimated_arrival_at, actual_departure_at, actual_arrival_at,
	route_polyline, distance_km, estimated_duration_min,
	max_passengers, current_passengers,
	driver_id, company_id, vehicle_id,
	km_depot_start, km_mission_start, km_mission_end, km_depot_end,
	distance_depot_to_mission, distance_depot_to_depot, distance_mission_only,
	driving_time_min, rest_time_min, waiting_time_min, driving_time_comment,
	created_at, updated_at`

func (s *Store) Create(ctx context.Context, m *Mission) error {
	if m.ID == "" {
		m.ID = types.ID(uuid.NewString())
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO missions (`+missionColumns+`)
		VALUES (?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?, ?)`,
		string(m.ID), m.Title, m.Description, string(m.Status),
		m.DepartureName, m.DepartureAddress, m.Departure.Lat, m.Departure.Lng,
		m.ArrivalName, m.ArrivalAddress, m.Arrival.Lat, m.Arrival.Lng,
		fmtTime(m.ScheduledDepartureAt), fmtTimePtr(m.EstimatedArrivalAt),
		fmtTimePtr(m.ActualDepartureAt), fmtTimePtr(m.ActualArrivalAt),
		m.RoutePolyline, m.DistanceKm, m.EstimatedDurationMin,
		m.MaxPassengers, m.CurrentPassengers,
		idPtr(m.DriverID), string(m.CompanyID), idPtr(m.VehicleID),
		m.KmDepotStart, m.KmMissionStart, m.KmMissionEnd, m.KmDepotEnd,
		m.DistanceDepotToMission, m.DistanceDepotToDepot, m.DistanceMissionOnly,
		m.DrivingTimeMin, m.RestTimeMin, m.WaitingTimeMin, m.DrivingTimeComment,
		fmtTime(m.CreatedAt), fmtTime(m.UpdatedAt),
	)
	return types.Storage("insert mission", err)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Mission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+missionColumns+` FROM missions WHERE id = ?`, string(id))
	m, err := scanMission(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("mission", id)
	}
	if err != nil {
		return nil, types.Storage("get mission", err)
	}
	return m, nil
}

func (s *Store) List(ctx context.Context) ([]*Mission, error) {
	return s.query(ctx, `
		SELECT `+missionColumns+` FROM missions
		ORDER BY scheduled_departure_at`)
}

func (s *Store) ListByDriver(ctx context.Context, driverID types.ID) ([]*Mission, error) {
	return s.query(ctx, `
		SELECT `+missionColumns+` FROM missions
		WHERE driver_id = ?
		ORDER BY scheduled_departure_at`, string(driverID))
}

func (s *Store) ListActiveByDriver(ctx context.Context, driverID types.ID) ([]*Mission, error) {
	return s.query(ctx, `
		SELECT `+missionColumns+` FROM missions
		WHERE driver_id = ? AND status NOT IN ('COMPLETED','CANCELLED')
		ORDER BY scheduled_departure_at`, string(driverID))
}

// Patch holds optional field updates; nil fields are left untouched.
type Patch struct {
	Title                *string
	Description          *string
	DepartureName        *string
	DepartureAddress     *string
	DepartureLat         *float64
	DepartureLng         *float64
	ArrivalName          *string
	ArrivalAddress       *string
	ArrivalLat           *float64
	ArrivalLng           *float64
	ScheduledDepartureAt *time.Time
	EstimatedArrivalAt   *time.Time
	RoutePolyline        *string
	DistanceKm           *float64
	EstimatedDurationMin *int
	MaxPassengers        *int
	CurrentPassengers    *int
	DriverID             *types.ID // set to pointer-to-empty to clear
	VehicleID            *types.ID
}

func (s *Store) Update(ctx context.Context, id types.ID, p Patch) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.DepartureName != nil {
		add("departure_name", *p.DepartureName)
	}
	if p.DepartureAddress != nil {
		add("departure_address", *p.DepartureAddress)
	}
	if p.DepartureLat != nil {
		add("departure_lat", *p.DepartureLat)
	}
	if p.DepartureLng != nil {
		add("departure_lng", *p.DepartureLng)
	}
	if p.ArrivalName != nil {
		add("arrival_name", *p.ArrivalName)
	}
	if p.ArrivalAddress != nil {
		add("arrival_address", *p.ArrivalAddress)
	}
	if p.ArrivalLat != nil {
		add("arrival_lat", *p.ArrivalLat)
	}
	if p.ArrivalLng != nil {
		add("arrival_lng", *p.ArrivalLng)
	}
	if p.ScheduledDepartureAt != nil {
		add("scheduled_departure_at", fmtTime(*p.ScheduledDepartureAt))
	}
	if p.EstimatedArrivalAt != nil {
		add("estimated_arrival_at", fmtTime(*p.EstimatedArrivalAt))
	}
	if p.RoutePolyline != nil {
		add("route_polyline", *p.RoutePolyline)
	}
	if p.DistanceKm != nil {
		add("distance_km", *p.DistanceKm)
	}
	if p.EstimatedDurationMin != nil {
		add("estimated_duration_min", *p.EstimatedDurationMin)
	}
	if p.MaxPassengers != nil {
		add("max_passengers", *p.MaxPassengers)
	}
	if p.CurrentPassengers != nil {
		add("current_passengers", *p.CurrentPassengers)
	}
	if p.DriverID != nil {
		if *p.DriverID == "" {
			add("driver_id", nil)
		} else {
			add("driver_id", string(*p.DriverID))
		}
	}
	if p.VehicleID != nil {
		if *p.VehicleID == "" {
			add("vehicle_id", nil)
		} else {
			add("vehicle_id", string(*p.VehicleID))
		}
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", fmtTime(time.Now()))
	args = append(args, string(id))

	res, err := s.db.ExecContext(ctx,
		`UPDATE missions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return types.Storage("update mission", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return types.NotFound("mission", id)
	}
	return nil
}

// SetStatus applies an administrative status override, bypassing the
// transition table. actualAt, when non-nil, stamps the departure or
// arrival timestamp matching the target status.
func (s *Store) SetStatus(ctx context.Context, id types.ID, to Status, actualAt *time.Time) error {
	q := `UPDATE missions SET status = ?, updated_at = ?`
	args := []any{string(to), fmtTime(time.Now())}
	if actualAt != nil {
		switch to {
		case StatusInProgress:
			q += `, actual_departure_at = ?`
			args = append(args, fmtTime(*actualAt))
		case StatusCompleted:
			q += `, actual_arrival_at = ?`
			args = append(args, fmtTime(*actualAt))
		}
	}
	q += ` WHERE id = ?`
	args = append(args, string(id))

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return types.Storage("set mission status", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return types.NotFound("mission", id)
	}
	return nil
}

// SetDriver is a guarded assignment: the mission must still be PENDING
// with no kilometrage data. Returns false when the guard did not match.
func (s *Store) SetDriver(ctx context.Context, id, driverID types.ID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE missions
		SET driver_id = ?, status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND km_depot_start IS NULL`,
		string(driverID), string(StatusAssigned), fmtTime(time.Now()),
		string(id), string(StatusPending))
	if err != nil {
		return false, types.Storage("set mission driver", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ClearDriver reverts an assigned mission to PENDING with no driver.
// Returns false when the mission was not in ASSIGNED.
func (s *Store) ClearDriver(ctx context.Context, id types.ID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE missions
		SET driver_id = NULL, status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(StatusPending), fmtTime(time.Now()),
		string(id), string(StatusAssigned))
	if err != nil {
		return false, types.Storage("clear mission driver", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Mission, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, types.Storage("query missions", err)
	}
	defer rows.Close()

	var out []*Mission
	for rows.Next() {
		m, err := scanMission(rows.Scan)
		if err != nil {
			return nil, types.Storage("scan mission", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMission(scan func(...any) error) (*Mission, error) {
	var m Mission
	var status string
	var scheduledAt string
	var estimatedArrival, actualDeparture, actualArrival sql.NullString
	var polyline, comment sql.NullString
	var distanceKm sql.NullFloat64
	var durationMin, drivingMin, restMin, waitingMin sql.NullInt64
	var driverID, vehicleID sql.NullString
	var kmDepotStart, kmMissionStart, kmMissionEnd, kmDepotEnd sql.NullFloat64
	var dDepotToMission, dDepotToDepot, dMissionOnly sql.NullFloat64
	var createdAt, updatedAt string

	err := scan(
		&m.ID, &m.Title, &m.Description, &status,
		&m.DepartureName, &m.DepartureAddress, &m.Departure.Lat, &m.Departure.Lng,
		&m.ArrivalName, &m.ArrivalAddress, &m.Arrival.Lat, &m.Arrival.Lng,
		&scheduledAt, &estimatedArrival, &actualDeparture, &actualArrival,
		&polyline, &distanceKm, &durationMin,
		&m.MaxPassengers, &m.CurrentPassengers,
		&driverID, &m.CompanyID, &vehicleID,
		&kmDepotStart, &kmMissionStart, &kmMissionEnd, &kmDepotEnd,
		&dDepotToMission, &dDepotToDepot, &dMissionOnly,
		&drivingMin, &restMin, &waitingMin, &comment,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Status = Status(status)
	m.ScheduledDepartureAt = parseTime(scheduledAt)
	m.EstimatedArrivalAt = parseTimePtr(estimatedArrival)
	m.ActualDepartureAt = parseTimePtr(actualDeparture)
	m.ActualArrivalAt = parseTimePtr(actualArrival)
	m.RoutePolyline = strPtr(polyline)
	m.DistanceKm = floatPtr(distanceKm)
	m.EstimatedDurationMin = intPtr(durationMin)
	m.DriverID = toIDPtr(driverID)
	m.VehicleID = toIDPtr(vehicleID)
	m.KmDepotStart = floatPtr(kmDepotStart)
	m.KmMissionStart = floatPtr(kmMissionStart)
	m.KmMissionEnd = floatPtr(kmMissionEnd)
	m.KmDepotEnd = floatPtr(kmDepotEnd)
	m.DistanceDepotToMission = floatPtr(dDepotToMission)
	m.DistanceDepotToDepot = floatPtr(dDepotToDepot)
	m.DistanceMissionOnly = floatPtr(dMissionOnly)
	m.DrivingTimeMin = intPtr(drivingMin)
	m.RestTimeMin = intPtr(restMin)
	m.WaitingTimeMin = intPtr(waitingMin)
	m.DrivingTimeComment = strPtr(comment)
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return &m, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
