package admission

import (
	"time"

	"github.com/ehr/clinic/internal/domain/clinic"
)

// freeStayDays is the length from which plans with free stays start
// charging again.
const freeStayDays = 7

// Stay is an inpatient admission. A nil Exit means the patient is still
// admitted; once set, Exit is strictly after Entry and never changes.
type Stay struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	DoctorID       string     `json:"doctor_id"`
	Room           string     `json:"room"`
	Entry          time.Time  `json:"entry"`
	Exit           *time.Time `json:"exit,omitempty"`
	BaseCostPerDay float64    `json:"base_cost_per_day"`
}

// Open reports whether the stay has not been discharged.
func (s *Stay) Open() bool { return s.Exit == nil }

// end returns the exit, or now for an open stay.
func (s *Stay) end(now time.Time) time.Time {
	if s.Exit != nil {
		return *s.Exit
	}
	return now
}

// ElapsedHours returns the whole hours between entry and now, never
// negative.
func (s *Stay) ElapsedHours(now time.Time) int64 {
	h := int64(now.Sub(s.Entry) / time.Hour)
	if h < 0 {
		return 0
	}
	return h
}

// Days returns the billed days of the stay as of now: whole hours elapsed
// until the exit (or now), rounded up to days, at least one.
func Days(s Stay, now time.Time) int64 {
	hours := int64(s.end(now).Sub(s.Entry) / time.Hour)
	if hours <= 0 {
		return 1
	}
	return (hours + 23) / 24
}

// FullCost is the cost of the stay before any plan benefit.
func FullCost(s Stay, now time.Time) float64 {
	return clinic.RoundCents(float64(Days(s, now)) * s.BaseCostPerDay)
}

// TotalCost is the billed cost of the stay as of now. Open stays are priced
// up to now, so the result is provisional until discharge.
func TotalCost(s Stay, plan clinic.Plan, now time.Time) float64 {
	if plan.FreeStayUnder7Days() && Days(s, now) < freeStayDays {
		return 0
	}
	return FullCost(s, now)
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect. A
// nil end is unbounded.
func overlaps(aStart time.Time, aEnd *time.Time, bStart time.Time, bEnd *time.Time) bool {
	return (bEnd == nil || aStart.Before(*bEnd)) && (aEnd == nil || bStart.Before(*aEnd))
}
