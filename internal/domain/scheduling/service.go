package scheduling

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/platform/metrics"
)

const engine = "scheduling"

// Directory resolves the patients and doctors an appointment refers to.
type Directory interface {
	FindPatient(ctx context.Context, cpf string) (*clinic.Patient, error)
	FindDoctor(ctx context.Context, crm string) (*clinic.Doctor, error)
}

// Service books appointments and drives their lifecycle. The conflict
// checks and the rewrite that follows run under one lock, so of two
// conflicting bookings at most one succeeds.
type Service struct {
	mu           sync.Mutex
	appointments []*Appointment

	repo    AppointmentRepository
	dir     Directory
	metrics *metrics.Metrics
	logger  zerolog.Logger
	newID   func() string
}

// NewService loads the persisted appointments. m may be nil.
func NewService(ctx context.Context, repo AppointmentRepository, dir Directory, m *metrics.Metrics, logger zerolog.Logger) (*Service, error) {
	appts, err := repo.Load(ctx)
	if err != nil {
		return nil, clinic.Persistence("load appointments", err)
	}
	return &Service{
		appointments: appts,
		repo:         repo,
		dir:          dir,
		metrics:      m,
		logger:       logger.With().Str("component", engine).Logger(),
		newID:        func() string { return uuid.New().String() },
	}, nil
}

// Book creates a Booked appointment for the patient with the doctor at the
// given instant and location. The price is the doctor's base price after
// the patient's plan discount.
func (s *Service) Book(ctx context.Context, patientID, doctorID string, at time.Time, location string) (*Appointment, error) {
	defer s.observe("book", time.Now())

	patientID = strings.TrimSpace(patientID)
	doctorID = strings.TrimSpace(doctorID)
	location = strings.TrimSpace(location)
	at = clinic.Instant(at)
	switch {
	case patientID == "":
		return nil, clinic.Required("patient_id")
	case doctorID == "":
		return nil, clinic.Required("doctor_id")
	case at.IsZero():
		return nil, clinic.Required("date_time")
	case location == "":
		return nil, clinic.Required("location")
	}

	patient, err := s.dir.FindPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.dir.FindDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkConflicts(doctor.License, location, at); err != nil {
		var ce *clinic.ConflictError
		if errors.As(err, &ce) {
			s.metrics.IncrementConflict(string(ce.Kind))
		}
		return nil, err
	}

	appt := &Appointment{
		ID:         s.newID(),
		PatientID:  patient.NationalID,
		DoctorID:   doctor.License,
		DateTime:   at,
		Location:   location,
		FinalPrice: patient.Plan.Discount(doctor.Specialty, patient.Age, doctor.BasePrice),
		Status:     StatusBooked,
	}
	next := append(append([]*Appointment(nil), s.appointments...), appt)
	if err := s.repo.SaveAll(ctx, next); err != nil {
		return nil, clinic.Persistence("save appointments", err)
	}
	s.appointments = next

	s.metrics.IncrementOperation(engine, "book")
	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("patient_id", appt.PatientID).
		Str("doctor_id", appt.DoctorID).
		Time("date_time", appt.DateTime).
		Float64("final_price", appt.FinalPrice).
		Msg("appointment booked")

	out := *appt
	return &out, nil
}

// checkConflicts rejects a booking whose instant is already taken, among
// non-cancelled appointments, by the same doctor or the same location.
func (s *Service) checkConflicts(doctorID, location string, at time.Time) error {
	for _, a := range s.appointments {
		if a.Active() && a.DateTime.Equal(at) && strings.EqualFold(a.DoctorID, doctorID) {
			return clinic.Conflict(clinic.ConflictDoctor, "doctor %s already has an appointment at %s", doctorID, at.Format(time.DateTime))
		}
	}
	for _, a := range s.appointments {
		if a.Active() && a.DateTime.Equal(at) && strings.EqualFold(a.Location, location) {
			return clinic.Conflict(clinic.ConflictLocation, "location %s is taken at %s", location, at.Format(time.DateTime))
		}
	}
	return nil
}

// Complete records the outcome of a Booked appointment.
func (s *Service) Complete(ctx context.Context, id, diagnosis, prescription string) (*Appointment, error) {
	defer s.observe("complete", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	if s.appointments[i].Status != StatusBooked {
		return nil, clinic.IllegalState("appointment", id, "only booked appointments can be completed, status is "+s.appointments[i].Status.Label())
	}

	updated := *s.appointments[i]
	updated.Status = StatusCompleted
	updated.Diagnosis = strings.TrimSpace(diagnosis)
	updated.Prescription = strings.TrimSpace(prescription)
	if err := s.replace(ctx, i, &updated); err != nil {
		return nil, err
	}

	s.metrics.IncrementOperation(engine, "complete")
	s.logger.Info().Str("appointment_id", id).Msg("appointment completed")

	out := updated
	return &out, nil
}

// Cancel frees the appointment's slot. Cancelling an already cancelled
// appointment is a no-op.
func (s *Service) Cancel(ctx context.Context, id string) (*Appointment, error) {
	defer s.observe("cancel", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	switch s.appointments[i].Status {
	case StatusCompleted:
		return nil, clinic.IllegalState("appointment", id, "a completed appointment cannot be cancelled")
	case StatusCancelled:
		out := *s.appointments[i]
		return &out, nil
	}

	updated := *s.appointments[i]
	updated.Status = StatusCancelled
	if err := s.replace(ctx, i, &updated); err != nil {
		return nil, err
	}

	s.metrics.IncrementOperation(engine, "cancel")
	s.logger.Info().Str("appointment_id", id).Msg("appointment cancelled")

	out := updated
	return &out, nil
}

// Get returns a copy of the appointment.
func (s *Service) Get(_ context.Context, id string) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	out := *s.appointments[i]
	return &out, nil
}

// List returns copies of every appointment ordered by date-time.
func (s *Service) List(_ context.Context) []Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, *a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].DateTime.Before(out[j].DateTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Service) indexOf(id string) (int, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1, clinic.Required("appointment_id")
	}
	for i, a := range s.appointments {
		if a.ID == id {
			return i, nil
		}
	}
	return -1, clinic.NotFound("appointment", id)
}

// replace persists the working set with element i swapped for a, and
// adopts it only once the rewrite succeeded.
func (s *Service) replace(ctx context.Context, i int, a *Appointment) error {
	next := append([]*Appointment(nil), s.appointments...)
	next[i] = a
	if err := s.repo.SaveAll(ctx, next); err != nil {
		return clinic.Persistence("save appointments", err)
	}
	s.appointments = next
	return nil
}

func (s *Service) observe(op string, start time.Time) {
	s.metrics.ObserveLatency(engine, op, time.Since(start))
}
