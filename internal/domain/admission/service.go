package admission

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

const engine = "admission"

// Directory resolves the patients and doctors a stay refers to.
type Directory interface {
	PatientFinder
	FindDoctor(ctx context.Context, crm string) (*clinic.Doctor, error)
}

// Service admits, discharges and cancels inpatient stays. Room and patient
// checks and the rewrite that follows run under one lock.
type Service struct {
	mu    sync.Mutex
	stays []*Stay

	repo    StayRepository
	dir     Directory
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService loads the persisted stays. m may be nil.
func NewService(ctx context.Context, repo StayRepository, dir Directory, m *metrics.Metrics, logger zerolog.Logger) (*Service, error) {
	stays, err := repo.Load(ctx)
	if err != nil {
		return nil, clinic.Persistence("load stays", err)
	}
	s := &Service{
		stays:   stays,
		repo:    repo,
		dir:     dir,
		metrics: m,
		logger:  logger.With().Str("component", engine).Logger(),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	s.metrics.SetOpenStays(s.openCount())
	return s, nil
}

// Admit opens a stay for the patient in room from entry on. The room must be
// free from entry onwards and the patient must not be admitted elsewhere.
func (s *Service) Admit(ctx context.Context, patientID, doctorID, room string, entry time.Time, baseCostPerDay float64) (*Stay, error) {
	defer s.observe("admit", time.Now())

	patientID = strings.TrimSpace(patientID)
	doctorID = strings.TrimSpace(doctorID)
	room = strings.TrimSpace(room)
	entry = clinic.Instant(entry)
	switch {
	case patientID == "":
		return nil, clinic.Required("patient_id")
	case doctorID == "":
		return nil, clinic.Required("doctor_id")
	case room == "":
		return nil, clinic.Required("room")
	case entry.IsZero():
		return nil, clinic.Required("entry")
	case baseCostPerDay < 0:
		return nil, clinic.Invalid("base_cost_per_day", "must not be negative")
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

	if err := s.checkAdmission(patient.NationalID, room, entry); err != nil {
		var ce *clinic.ConflictError
		if errors.As(err, &ce) {
			s.metrics.IncrementConflict(string(ce.Kind))
		}
		return nil, err
	}

	stay := &Stay{
		ID:             s.newID(),
		PatientID:      patient.NationalID,
		DoctorID:       doctor.License,
		Room:           room,
		Entry:          entry,
		BaseCostPerDay: baseCostPerDay,
	}
	if err := s.commit(ctx, append(append([]*Stay(nil), s.stays...), stay)); err != nil {
		return nil, err
	}

	s.metrics.IncrementOperation(engine, "admit")
	s.logger.Info().
		Str("stay_id", stay.ID).
		Str("patient_id", stay.PatientID).
		Str("room", stay.Room).
		Time("entry", stay.Entry).
		Msg("patient admitted")

	out := *stay
	return &out, nil
}

// checkAdmission applies the room rule before the single-open-stay rule.
// The new stay is open ended, so it collides with every stay in the room
// that is still open or ends after entry.
func (s *Service) checkAdmission(patientID, room string, entry time.Time) error {
	for _, st := range s.stays {
		if strings.EqualFold(st.Room, room) && overlaps(st.Entry, st.Exit, entry, nil) {
			return clinic.Conflict(clinic.ConflictRoom, "room %s is occupied by stay %s", room, st.ID)
		}
	}
	for _, st := range s.stays {
		if st.PatientID == patientID && st.Open() {
			return clinic.Conflict(clinic.ConflictPatientAdmitted, "patient %s is already admitted in room %s", patientID, st.Room)
		}
	}
	return nil
}

// Discharge closes an open stay at exit, which must be after its entry.
func (s *Service) Discharge(ctx context.Context, id string, exit time.Time) (*Stay, error) {
	defer s.observe("discharge", time.Now())

	exit = clinic.Instant(exit)

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	current := s.stays[i]
	if !current.Open() {
		return nil, clinic.IllegalState("stay", id, "already discharged")
	}
	if exit.IsZero() {
		return nil, clinic.Required("exit")
	}
	if !exit.After(current.Entry) {
		return nil, clinic.Invalid("exit", "must be after entry "+current.Entry.Format(time.DateTime))
	}

	updated := *current
	updated.Exit = &exit
	next := append([]*Stay(nil), s.stays...)
	next[i] = &updated
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	s.metrics.IncrementOperation(engine, "discharge")
	s.logger.Info().Str("stay_id", id).Time("exit", exit).Msg("patient discharged")

	out := updated
	return &out, nil
}

// Cancel removes an open stay entirely.
func (s *Service) Cancel(ctx context.Context, id string) error {
	defer s.observe("cancel", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return err
	}
	if !s.stays[i].Open() {
		return clinic.IllegalState("stay", id, "cannot cancel after discharge")
	}

	next := make([]*Stay, 0, len(s.stays)-1)
	next = append(next, s.stays[:i]...)
	next = append(next, s.stays[i+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.metrics.IncrementOperation(engine, "cancel")
	s.logger.Info().Str("stay_id", id).Msg("stay cancelled")
	return nil
}

// Cost prices the stay with the patient's current plan as of now.
func (s *Service) Cost(ctx context.Context, id string) (float64, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	plan := clinic.PlanNone
	p, err := s.dir.FindPatient(ctx, st.PatientID)
	switch {
	case err == nil:
		plan = p.Plan
	case !errors.Is(err, clinic.ErrNotFound):
		return 0, err
	}
	return TotalCost(*st, plan, s.now()), nil
}

// Get returns a copy of the stay.
func (s *Service) Get(_ context.Context, id string) (*Stay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	out := *s.stays[i]
	return &out, nil
}

// List returns copies of every stay ordered by entry.
func (s *Service) List(_ context.Context) []Stay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(func(*Stay) bool { return true })
}

// Active returns copies of the open stays ordered by entry.
func (s *Service) Active(_ context.Context) []Stay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot((*Stay).Open)
}

// Now returns the instant the service prices open stays at.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) snapshot(keep func(*Stay) bool) []Stay {
	out := make([]Stay, 0, len(s.stays))
	for _, st := range s.stays {
		if keep(st) {
			out = append(out, *st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Entry.Equal(out[j].Entry) {
			return out[i].Entry.Before(out[j].Entry)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Service) indexOf(id string) (int, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1, clinic.Required("stay_id")
	}
	for i, st := range s.stays {
		if st.ID == id {
			return i, nil
		}
	}
	return -1, clinic.NotFound("stay", id)
}

// commit persists next and adopts it as the working set only once the
// rewrite succeeded.
func (s *Service) commit(ctx context.Context, next []*Stay) error {
	if err := s.repo.SaveAll(ctx, next, s.now()); err != nil {
		return clinic.Persistence("save stays", err)
	}
	s.stays = next
	s.metrics.SetOpenStays(s.openCount())
	return nil
}

func (s *Service) openCount() int {
	n := 0
	for _, st := range s.stays {
		if st.Open() {
			n++
		}
	}
	return n
}

func (s *Service) observe(op string, start time.Time) {
	s.metrics.ObserveLatency(engine, op, time.Since(start))
}
