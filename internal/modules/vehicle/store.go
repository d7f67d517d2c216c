// README: Vehicle store backed by the embedded SQLite database.
package vehicle

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

const vehicleColumns = `id, brand, model, license_plate, fleet_number, mileage, is_active,
	vin, first_registration, engine_power_kw, fuel_type, seat_count, category, created_at`

func (s *Store) Create(ctx context.Context, v *Vehicle) error {
	if v.ID == "" {
		v.ID = types.ID(uuid.NewString())
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (`+vehicleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(v.ID), v.Brand, v.Model, v.LicensePlate, v.FleetNumber,
		v.Mileage, boolToInt(v.IsActive),
		v.VIN, fmtTimePtr(v.FirstRegistration), v.EnginePowerKW,
		v.FuelType, v.SeatCount, v.Category, fmtTime(v.CreatedAt),
	)
	return types.Storage("insert vehicle", err)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, string(id))

	var v Vehicle
	var isActive int
	var firstReg sql.NullString
	var createdAt string
	err := row.Scan(&v.ID, &v.Brand, &v.Model, &v.LicensePlate, &v.FleetNumber,
		&v.Mileage, &isActive,
		&v.VIN, &firstReg, &v.EnginePowerKW, &v.FuelType, &v.SeatCount,
		&v.Category, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("vehicle", id)
	}
	if err != nil {
		return nil, types.Storage("get vehicle", err)
	}
	v.IsActive = isActive != 0
	v.FirstRegistration = parseTimePtr(firstReg)
	v.CreatedAt = parseTime(createdAt)
	return &v, nil
}

func (s *Store) List(ctx context.Context, activeOnly bool) ([]*Vehicle, error) {
	q := `SELECT ` + vehicleColumns + ` FROM vehicles`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY fleet_number`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, types.Storage("list vehicles", err)
	}
	defer rows.Close()

	var out []*Vehicle
	for rows.Next() {
		var v Vehicle
		var isActive int
		var firstReg sql.NullString
		var createdAt string
		if err := rows.Scan(&v.ID, &v.Brand, &v.Model, &v.LicensePlate, &v.FleetNumber,
			&v.Mileage, &isActive,
			&v.VIN, &firstReg, &v.EnginePowerKW, &v.FuelType, &v.SeatCount,
			&v.Category, &createdAt); err != nil {
			return nil, types.Storage("scan vehicle", err)
		}
		v.IsActive = isActive != 0
		v.FirstRegistration = parseTimePtr(firstReg)
		v.CreatedAt = parseTime(createdAt)
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *Store) SetActive(ctx context.Context, id types.ID, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vehicles SET is_active = ? WHERE id = ?`,
		boolToInt(active), string(id))
	if err != nil {
		return types.Storage("set vehicle active", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return types.NotFound("vehicle", id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
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
