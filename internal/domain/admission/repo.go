package admission

import (
	"context"
	"time"

	"github.com/ehr/clinic/internal/domain/clinic"
)

// StayRepository is the durability boundary for stays. SaveAll replaces the
// whole persisted collection; asOf is the instant the recorded cost of open
// stays is computed at.
type StayRepository interface {
	Load(ctx context.Context) ([]*Stay, error)
	SaveAll(ctx context.Context, stays []*Stay, asOf time.Time) error
}

// PatientFinder resolves a patient's plan when the stores record the cost of
// a stay.
type PatientFinder interface {
	FindPatient(ctx context.Context, cpf string) (*clinic.Patient, error)
}

// planOf falls back to PlanNone when the patient cannot be resolved.
func planOf(ctx context.Context, patients PatientFinder, cpf string) clinic.Plan {
	if patients == nil {
		return clinic.PlanNone
	}
	p, err := patients.FindPatient(ctx, cpf)
	if err != nil {
		return clinic.PlanNone
	}
	return p.Plan
}
