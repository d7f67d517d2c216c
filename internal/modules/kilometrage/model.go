// README: Pure odometer-reading model: phases and derived distances.
package kilometrage

import "navette/internal/modules/mission"

// Phase names the furthest odometer step recorded on a mission; the UI
// uses it to decide which reading to ask for next.
type Phase string

const (
	PhaseNotStarted     Phase = "not_started"
	PhaseDepotOnly      Phase = "depot_only"
	PhaseMissionStarted Phase = "mission_started"
	PhaseCompleted      Phase = "completed"
)

// Readings holds the four sequential odometer values. A later reading
// is never present without every earlier one, except MissionStart which
// may be skipped before completion.
type Readings struct {
	DepotStart   *float64
	MissionStart *float64
	MissionEnd   *float64
	DepotEnd     *float64
}

func ReadingsOf(m *mission.Mission) Readings {
	return Readings{
		DepotStart:   m.KmDepotStart,
		MissionStart: m.KmMissionStart,
		MissionEnd:   m.KmMissionEnd,
		DepotEnd:     m.KmDepotEnd,
	}
}

func (r Readings) Phase() Phase {
	switch {
	case r.MissionEnd != nil && r.DepotEnd != nil:
		return PhaseCompleted
	case r.MissionStart != nil:
		return PhaseMissionStarted
	case r.DepotStart != nil:
		return PhaseDepotOnly
	default:
		return PhaseNotStarted
	}
}

// Distances derived from the readings, each clamped to zero to tolerate
// input noise. Pairs with a missing reading yield zero.
type Distances struct {
	DepotToMission float64
	MissionOnly    float64
	MissionToDepot float64
	DepotToDepot   float64
}

func (r Readings) Distances() Distances {
	var d Distances
	if r.DepotStart != nil && r.MissionStart != nil {
		d.DepotToMission = clamp(*r.MissionStart - *r.DepotStart)
	}
	if r.MissionEnd != nil {
		// The mission-only leg falls back to the depot reading when no
		// separate mission-start reading was taken.
		start := r.MissionStart
		if start == nil {
			start = r.DepotStart
		}
		if start != nil {
			d.MissionOnly = clamp(*r.MissionEnd - *start)
		}
	}
	if r.MissionEnd != nil && r.DepotEnd != nil {
		d.MissionToDepot = clamp(*r.DepotEnd - *r.MissionEnd)
	}
	if r.DepotStart != nil && r.DepotEnd != nil {
		d.DepotToDepot = clamp(*r.DepotEnd - *r.DepotStart)
	}
	return d
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
