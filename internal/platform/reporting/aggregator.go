package reporting

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ehr/clinic/internal/domain/admission"
	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/domain/registry"
	"github.com/ehr/clinic/internal/domain/scheduling"
)

// Sources are the stores the aggregator reads from. Every report loads them
// again, so reports show what was last persisted and never an engine's
// working set.
type Sources struct {
	Patients     registry.PatientRepository
	Doctors      registry.DoctorRepository
	Appointments scheduling.AppointmentRepository
	Stays        admission.StayRepository
}

// Aggregator derives reports from persisted appointments, stays, patients
// and doctors.
type Aggregator struct {
	src Sources
	now func() time.Time
}

func NewAggregator(src Sources) *Aggregator {
	return &Aggregator{src: src, now: time.Now}
}

// Filter narrows the appointment listings. Zero fields are ignored.
type Filter struct {
	PatientID string           `json:"patient_id,omitempty"`
	DoctorID  string           `json:"doctor_id,omitempty"`
	Specialty clinic.Specialty `json:"specialty,omitempty"`
}

type TopDoctor struct {
	License   string `json:"license"`
	Name      string `json:"name"`
	Completed int    `json:"completed"`
}

type TopSpecialty struct {
	Specialty clinic.Specialty `json:"specialty"`
	Completed int              `json:"completed"`
}

type AdmittedPatient struct {
	StayID    string    `json:"stay_id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Room      string    `json:"room"`
	Entry     time.Time `json:"entry"`
	Hours     int64     `json:"hours"`
}

type PlanStats struct {
	None    int     `json:"none"`
	Basic   int     `json:"basic"`
	Plus    int     `json:"plus"`
	Special int     `json:"special"`
	Savings float64 `json:"savings"`
}

// snapshot is one consistent read of the stores.
type snapshot struct {
	patients     []*clinic.Patient
	doctors      []*clinic.Doctor
	appointments []*scheduling.Appointment
	stays        []*admission.Stay
}

func (s *snapshot) patient(cpf string) *clinic.Patient {
	for _, p := range s.patients {
		if p.NationalID == cpf {
			return p
		}
	}
	return nil
}

func (s *snapshot) doctor(crm string) *clinic.Doctor {
	for _, d := range s.doctors {
		if strings.EqualFold(d.License, crm) {
			return d
		}
	}
	return nil
}

type want struct{ patients, doctors, appointments, stays bool }

func (a *Aggregator) load(ctx context.Context, w want) (*snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	if w.patients {
		g.Go(func() (err error) {
			if snap.patients, err = a.src.Patients.Load(ctx); err != nil {
				return clinic.Persistence("load patients", err)
			}
			return nil
		})
	}
	if w.doctors {
		g.Go(func() (err error) {
			if snap.doctors, err = a.src.Doctors.Load(ctx); err != nil {
				return clinic.Persistence("load doctors", err)
			}
			return nil
		})
	}
	if w.appointments {
		g.Go(func() (err error) {
			if snap.appointments, err = a.src.Appointments.Load(ctx); err != nil {
				return clinic.Persistence("load appointments", err)
			}
			return nil
		})
	}
	if w.stays {
		g.Go(func() (err error) {
			if snap.stays, err = a.src.Stays.Load(ctx); err != nil {
				return clinic.Persistence("load stays", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// -- Appointment listings --

// Upcoming returns the non-cancelled appointments after now that match f,
// nearest first.
func (a *Aggregator) Upcoming(ctx context.Context, f Filter) ([]scheduling.Appointment, error) {
	now := a.now()
	return a.listAppointments(ctx, f, func(ap *scheduling.Appointment) bool { return ap.DateTime.After(now) }, false)
}

// Past returns the non-cancelled appointments before now that match f,
// most recent first.
func (a *Aggregator) Past(ctx context.Context, f Filter) ([]scheduling.Appointment, error) {
	now := a.now()
	return a.listAppointments(ctx, f, func(ap *scheduling.Appointment) bool { return ap.DateTime.Before(now) }, true)
}

func (a *Aggregator) listAppointments(ctx context.Context, f Filter, when func(*scheduling.Appointment) bool, desc bool) ([]scheduling.Appointment, error) {
	snap, err := a.load(ctx, want{appointments: true, doctors: f.Specialty.Valid()})
	if err != nil {
		return nil, err
	}
	patientID := strings.TrimSpace(f.PatientID)
	doctorID := strings.TrimSpace(f.DoctorID)

	out := []scheduling.Appointment{}
	for _, ap := range snap.appointments {
		if !ap.Active() || !when(ap) {
			continue
		}
		if patientID != "" && ap.PatientID != patientID {
			continue
		}
		if doctorID != "" && !strings.EqualFold(ap.DoctorID, doctorID) {
			continue
		}
		if f.Specialty.Valid() {
			d := snap.doctor(ap.DoctorID)
			if d == nil || d.Specialty != f.Specialty {
				continue
			}
		}
		out = append(out, *ap)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].DateTime.After(out[j].DateTime)
		}
		return out[i].DateTime.Before(out[j].DateTime)
	})
	return out, nil
}

// -- Patient history --

// PatientAppointmentHistory returns every appointment of the patient,
// whatever its status, oldest first.
func (a *Aggregator) PatientAppointmentHistory(ctx context.Context, patientID string) ([]scheduling.Appointment, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, clinic.Required("patient_id")
	}
	snap, err := a.load(ctx, want{appointments: true})
	if err != nil {
		return nil, err
	}
	out := []scheduling.Appointment{}
	for _, ap := range snap.appointments {
		if ap.PatientID == patientID {
			out = append(out, *ap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

// PatientStayHistory returns every stay of the patient, oldest entry first.
func (a *Aggregator) PatientStayHistory(ctx context.Context, patientID string) ([]admission.Stay, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, clinic.Required("patient_id")
	}
	snap, err := a.load(ctx, want{stays: true})
	if err != nil {
		return nil, err
	}
	out := []admission.Stay{}
	for _, st := range snap.stays {
		if st.PatientID == patientID {
			out = append(out, *st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Entry.Before(out[j].Entry) })
	return out, nil
}

// -- Rankings --

// TopDoctorByCompleted returns the doctor with the most completed
// appointments. Ties go to the lexicographically smallest license. ok is
// false when nothing was completed.
func (a *Aggregator) TopDoctorByCompleted(ctx context.Context) (top TopDoctor, ok bool, err error) {
	snap, err := a.load(ctx, want{appointments: true, doctors: true})
	if err != nil {
		return TopDoctor{}, false, err
	}

	counts := map[string]int{}
	for _, ap := range snap.appointments {
		if ap.Status != scheduling.StatusCompleted {
			continue
		}
		license := ap.DoctorID
		if d := snap.doctor(license); d != nil {
			license = d.License
		}
		counts[license]++
	}

	for license, n := range counts {
		if !ok || n > top.Completed || (n == top.Completed && license < top.License) {
			top, ok = TopDoctor{License: license, Completed: n}, true
		}
	}
	if !ok {
		return TopDoctor{}, false, nil
	}
	top.Name = top.License
	if d := snap.doctor(top.License); d != nil {
		top.Name = d.Name
	}
	return top, true, nil
}

// TopSpecialtyByCompleted returns the specialty with the most completed
// appointments. Ties go to the specialty declared first. Appointments
// whose doctor is unknown are not counted.
func (a *Aggregator) TopSpecialtyByCompleted(ctx context.Context) (TopSpecialty, bool, error) {
	snap, err := a.load(ctx, want{appointments: true, doctors: true})
	if err != nil {
		return TopSpecialty{}, false, err
	}

	counts := map[clinic.Specialty]int{}
	for _, ap := range snap.appointments {
		if ap.Status != scheduling.StatusCompleted {
			continue
		}
		if d := snap.doctor(ap.DoctorID); d != nil {
			counts[d.Specialty]++
		}
	}

	var top TopSpecialty
	for _, s := range clinic.Specialties {
		if counts[s] > top.Completed {
			top = TopSpecialty{Specialty: s, Completed: counts[s]}
		}
	}
	return top, top.Completed > 0, nil
}

// -- Admissions --

// CurrentlyAdmitted lists the open stays with the whole hours elapsed since
// entry, longest first.
func (a *Aggregator) CurrentlyAdmitted(ctx context.Context) ([]AdmittedPatient, error) {
	snap, err := a.load(ctx, want{stays: true, patients: true})
	if err != nil {
		return nil, err
	}
	now := a.now()

	out := []AdmittedPatient{}
	for _, st := range snap.stays {
		if !st.Open() {
			continue
		}
		name := st.PatientID
		if p := snap.patient(st.PatientID); p != nil {
			name = p.Name
		}
		out = append(out, AdmittedPatient{
			StayID:    st.ID,
			PatientID: st.PatientID,
			Name:      name,
			Room:      st.Room,
			Entry:     st.Entry,
			Hours:     st.ElapsedHours(now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		if !out[i].Entry.Equal(out[j].Entry) {
			return out[i].Entry.Before(out[j].Entry)
		}
		return out[i].StayID < out[j].StayID
	})
	return out, nil
}

// -- Plans --

// PlanStatistics counts patients per plan and sums what plans saved:
// base price minus charged price over completed appointments, and full
// cost minus billed cost over discharged stays.
func (a *Aggregator) PlanStatistics(ctx context.Context) (PlanStats, error) {
	snap, err := a.load(ctx, want{patients: true, doctors: true, appointments: true, stays: true})
	if err != nil {
		return PlanStats{}, err
	}
	now := a.now()

	var stats PlanStats
	for _, p := range snap.patients {
		switch p.Plan {
		case clinic.PlanBasic:
			stats.Basic++
		case clinic.PlanPlus:
			stats.Plus++
		case clinic.PlanSpecial:
			stats.Special++
		default:
			stats.None++
		}
	}

	var savings float64
	for _, ap := range snap.appointments {
		if ap.Status != scheduling.StatusCompleted {
			continue
		}
		if d := snap.doctor(ap.DoctorID); d != nil {
			savings += max(0, d.BasePrice-ap.FinalPrice)
		}
	}
	for _, st := range snap.stays {
		if st.Open() {
			continue
		}
		plan := clinic.PlanNone
		if p := snap.patient(st.PatientID); p != nil {
			plan = p.Plan
		}
		savings += max(0, admission.FullCost(*st, now)-admission.TotalCost(*st, plan, now))
	}
	stats.Savings = clinic.RoundCents(savings)
	return stats, nil
}
