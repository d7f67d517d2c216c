// README: Work-time records and the aggregate projections.
package worktime

import "navette/internal/types"

// Times is a per-mission record of driving, rest, and waiting minutes.
// Each value fits in a day as HH:MM, so the range is [0, 1439].
type Times struct {
	DrivingMin int
	RestMin    int
	WaitingMin int
	Comment    string
}

// MonthTotals sums a driver's mission times over one calendar month.
type MonthTotals struct {
	DriverID    types.ID
	Year        int
	Month       int
	DrivingMin  int
	RestMin     int
	WaitingMin  int
	Missions    int
	WorkingDays int
}

// DayTotals is the per-day breakdown of the same data.
type DayTotals struct {
	Year       int
	Month      int
	Day        int
	DrivingMin int
	RestMin    int
	WaitingMin int
	Missions   int
}
