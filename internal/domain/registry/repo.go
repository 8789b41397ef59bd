package registry

import (
	"context"

	"github.com/ehr/clinic/internal/domain/clinic"
)

// PatientRepository is the durability boundary for patients. SaveAll
// replaces the whole persisted collection.
type PatientRepository interface {
	Load(ctx context.Context) ([]*clinic.Patient, error)
	SaveAll(ctx context.Context, patients []*clinic.Patient) error
}

// DoctorRepository is the durability boundary for doctors.
type DoctorRepository interface {
	Load(ctx context.Context) ([]*clinic.Doctor, error)
	SaveAll(ctx context.Context, doctors []*clinic.Doctor) error
}
