// README: Work-time store: time-field patches on missions plus the
// monthly aggregate queries, computed in SQL on each request.
package worktime

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"navette/internal/types"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) SetMissionTimes(ctx context.Context, missionID types.ID, t Times) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE missions
		SET driving_time_min = ?, rest_time_min = ?, waiting_time_min = ?,
		    driving_time_comment = ?, updated_at = ?
		WHERE id = ?`,
		t.DrivingMin, t.RestMin, t.WaitingMin, t.Comment,
		time.Now().UTC().Format(time.RFC3339), string(missionID))
	if err != nil {
		return types.Storage("set mission times", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return types.NotFound("mission", missionID)
	}
	return nil
}

// Timestamps are stored as RFC3339 text, so the year/month/day pieces
// can be grouped with strftime directly.

func (s *Store) MonthTotals(ctx context.Context, driverID types.ID, year, month int) (*MonthTotals, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(driving_time_min), 0),
		       COALESCE(SUM(rest_time_min), 0),
		       COALESCE(SUM(waiting_time_min), 0),
		       COUNT(*),
		       COUNT(DISTINCT substr(scheduled_departure_at, 1, 10))
		FROM missions
		WHERE driver_id = ?
		  AND strftime('%Y', scheduled_departure_at) = ?
		  AND strftime('%m', scheduled_departure_at) = ?`,
		string(driverID), fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))

	out := &MonthTotals{DriverID: driverID, Year: year, Month: month}
	err := row.Scan(&out.DrivingMin, &out.RestMin, &out.WaitingMin, &out.Missions, &out.WorkingDays)
	if err != nil {
		return nil, types.Storage("month totals", err)
	}
	return out, nil
}

func (s *Store) DayTotals(ctx context.Context, driverID types.ID, year, month int) ([]*DayTotals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CAST(strftime('%d', scheduled_departure_at) AS INTEGER),
		       COALESCE(SUM(driving_time_min), 0),
		       COALESCE(SUM(rest_time_min), 0),
		       COALESCE(SUM(waiting_time_min), 0),
		       COUNT(*)
		FROM missions
		WHERE driver_id = ?
		  AND strftime('%Y', scheduled_departure_at) = ?
		  AND strftime('%m', scheduled_departure_at) = ?
		GROUP BY strftime('%d', scheduled_departure_at)
		ORDER BY 1`,
		string(driverID), fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	if err != nil {
		return nil, types.Storage("day totals", err)
	}
	defer rows.Close()

	var out []*DayTotals
	for rows.Next() {
		d := &DayTotals{Year: year, Month: month}
		if err := rows.Scan(&d.Day, &d.DrivingMin, &d.RestMin, &d.WaitingMin, &d.Missions); err != nil {
			return nil, types.Storage("scan day totals", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
