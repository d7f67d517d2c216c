// README: Work-time service: record validation and the read-side aggregates.
package worktime

import (
	"context"

	"navette/internal/types"
)

// maxMinutes is the largest value expressible as HH:MM within one day.
const maxMinutes = 23*60 + 59

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type RecordCommand struct {
	MissionID types.ID
	Times     Times
}

// RecordMissionTimes sets the per-mission time record, independent of
// the kilometrage workflow.
func (s *Service) RecordMissionTimes(ctx context.Context, cmd RecordCommand) error {
	t := cmd.Times
	for _, v := range []struct {
		name string
		min  int
	}{
		{"driving", t.DrivingMin},
		{"rest", t.RestMin},
		{"waiting", t.WaitingMin},
	} {
		if v.min < 0 || v.min > maxMinutes {
			return types.Validationf("%s minutes %d out of range [0, %d]", v.name, v.min, maxMinutes)
		}
	}
	if t.DrivingMin == 0 && t.RestMin == 0 && t.WaitingMin == 0 {
		return types.Validationf("at least one time value must be nonzero")
	}
	return s.store.SetMissionTimes(ctx, cmd.MissionID, t)
}

// Totals sums the driver's mission times over the given month.
func (s *Service) Totals(ctx context.Context, driverID types.ID, year, month int) (*MonthTotals, error) {
	if month < 1 || month > 12 {
		return nil, types.Validationf("month %d out of range [1, 12]", month)
	}
	return s.store.MonthTotals(ctx, driverID, year, month)
}

// ByDay breaks the same month down per calendar day.
func (s *Service) ByDay(ctx context.Context, driverID types.ID, year, month int) ([]*DayTotals, error) {
	if month < 1 || month > 12 {
		return nil, types.Validationf("month %d out of range [1, 12]", month)
	}
	return s.store.DayTotals(ctx, driverID, year, month)
}
