package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/clinic"
)

// Service is the keyed record store for patients and doctors. It loads both
// collections once and rewrites the affected collection on every change.
type Service struct {
	mu       sync.RWMutex
	patients []*clinic.Patient
	doctors  []*clinic.Doctor

	patientRepo PatientRepository
	doctorRepo  DoctorRepository
	logger      zerolog.Logger
}

// NewService loads the persisted patients and doctors.
func NewService(ctx context.Context, patients PatientRepository, doctors DoctorRepository, logger zerolog.Logger) (*Service, error) {
	ps, err := patients.Load(ctx)
	if err != nil {
		return nil, clinic.Persistence("load patients", err)
	}
	ds, err := doctors.Load(ctx)
	if err != nil {
		return nil, clinic.Persistence("load doctors", err)
	}
	return &Service{
		patients:    ps,
		doctors:     ds,
		patientRepo: patients,
		doctorRepo:  doctors,
		logger:      logger.With().Str("component", "registry").Logger(),
	}, nil
}

// -- Patients --

// FindPatient returns a copy of the patient with the given CPF.
func (s *Service) FindPatient(_ context.Context, cpf string) (*clinic.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.patientIndex(cpf); i >= 0 {
		p := *s.patients[i]
		return &p, nil
	}
	return nil, clinic.NotFound("patient", cpf)
}

// RegisterPatient inserts p unless a patient with the same CPF exists. It
// reports whether the patient was inserted.
func (s *Service) RegisterPatient(ctx context.Context, p clinic.Patient) (bool, error) {
	p.NationalID = strings.TrimSpace(p.NationalID)
	p.Name = strings.TrimSpace(p.Name)
	if err := validatePerson(p.PersonInfo, "cpf"); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patientIndex(p.NationalID) >= 0 {
		return false, nil
	}
	next := append(append([]*clinic.Patient(nil), s.patients...), &p)
	if err := s.patientRepo.SaveAll(ctx, next); err != nil {
		return false, clinic.Persistence("save patients", err)
	}
	s.patients = next
	s.logger.Info().Str("cpf", p.NationalID).Str("plan", p.Plan.Code()).Msg("patient registered")
	return true, nil
}

// SetPatientPlan replaces the plan of an existing patient.
func (s *Service) SetPatientPlan(ctx context.Context, cpf string, plan clinic.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.patientIndex(cpf)
	if i < 0 {
		return clinic.NotFound("patient", cpf)
	}
	next := append([]*clinic.Patient(nil), s.patients...)
	updated := *next[i]
	updated.Plan = plan
	next[i] = &updated
	if err := s.patientRepo.SaveAll(ctx, next); err != nil {
		return clinic.Persistence("save patients", err)
	}
	s.patients = next
	s.logger.Info().Str("cpf", cpf).Str("plan", plan.Code()).Msg("patient plan changed")
	return nil
}

// ListPatients returns copies of all patients sorted by CPF.
func (s *Service) ListPatients(_ context.Context) []clinic.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]clinic.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NationalID < out[j].NationalID })
	return out
}

func (s *Service) patientIndex(cpf string) int {
	for i, p := range s.patients {
		if p.NationalID == cpf {
			return i
		}
	}
	return -1
}

// -- Doctors --

// FindDoctor returns a copy of the doctor with the given license, compared
// case-insensitively.
func (s *Service) FindDoctor(_ context.Context, crm string) (*clinic.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.doctorIndex(crm); i >= 0 {
		d := *s.doctors[i]
		return &d, nil
	}
	return nil, clinic.NotFound("doctor", crm)
}

// RegisterDoctor inserts d unless a doctor with the same license exists. A
// zero base price is replaced by the specialty default.
func (s *Service) RegisterDoctor(ctx context.Context, d clinic.Doctor) (bool, error) {
	d.License = strings.TrimSpace(d.License)
	d.Name = strings.TrimSpace(d.Name)
	if d.License == "" {
		return false, clinic.Required("crm")
	}
	if err := validatePerson(d.PersonInfo, ""); err != nil {
		return false, err
	}
	if !d.Specialty.Valid() {
		return false, clinic.Invalid("specialty", "must be one of CARDIOLOGIA, PEDIATRIA, GERAL")
	}
	if d.BasePrice < 0 {
		return false, clinic.Invalid("base_price", "must not be negative")
	}
	if d.BasePrice == 0 {
		d.BasePrice = clinic.DefaultBasePrice(d.Specialty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doctorIndex(d.License) >= 0 {
		return false, nil
	}
	next := append(append([]*clinic.Doctor(nil), s.doctors...), &d)
	if err := s.doctorRepo.SaveAll(ctx, next); err != nil {
		return false, clinic.Persistence("save doctors", err)
	}
	s.doctors = next
	s.logger.Info().Str("crm", d.License).Str("specialty", d.Specialty.Code()).Msg("doctor registered")
	return true, nil
}

// ListDoctors returns copies of all doctors sorted by license.
func (s *Service) ListDoctors(_ context.Context) []clinic.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]clinic.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].License < out[j].License })
	return out
}

func (s *Service) doctorIndex(crm string) int {
	for i, d := range s.doctors {
		if strings.EqualFold(d.License, crm) {
			return i
		}
	}
	return -1
}

// idField names the national ID in validation errors; empty means the
// national ID is optional.
func validatePerson(p clinic.PersonInfo, idField string) error {
	if idField != "" && p.NationalID == "" {
		return clinic.Required(idField)
	}
	if p.Name == "" {
		return clinic.Required("name")
	}
	if p.Age < 0 {
		return clinic.Invalid("age", "must not be negative")
	}
	return nil
}
