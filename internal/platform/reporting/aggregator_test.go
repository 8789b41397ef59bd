package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ehr/clinic/internal/domain/admission"
	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/domain/scheduling"
)

// -- Stub repositories --

type stubPatients struct{ items []*clinic.Patient }

func (s *stubPatients) Load(context.Context) ([]*clinic.Patient, error) { return s.items, nil }
func (s *stubPatients) SaveAll(_ context.Context, p []*clinic.Patient) error {
	s.items = p
	return nil
}

type stubDoctors struct{ items []*clinic.Doctor }

func (s *stubDoctors) Load(context.Context) ([]*clinic.Doctor, error) { return s.items, nil }
func (s *stubDoctors) SaveAll(_ context.Context, d []*clinic.Doctor) error {
	s.items = d
	return nil
}

type stubAppointments struct {
	items   []*scheduling.Appointment
	loadErr error
}

func (s *stubAppointments) Load(context.Context) ([]*scheduling.Appointment, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.items, nil
}

func (s *stubAppointments) SaveAll(_ context.Context, a []*scheduling.Appointment) error {
	s.items = a
	return nil
}

type stubStays struct {
	items   []*admission.Stay
	loadErr error
}

func (s *stubStays) Load(context.Context) ([]*admission.Stay, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.items, nil
}

func (s *stubStays) SaveAll(_ context.Context, st []*admission.Stay, _ time.Time) error {
	s.items = st
	return nil
}

// -- Fixture --

var now = time.Date(2025, 10, 10, 12, 0, 0, 0, time.Local)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 10, day, hour, minute, 0, 0, time.Local)
}

func ptr(t time.Time) *time.Time { return &t }

func person(cpf, name string, age int, plan clinic.Plan) *clinic.Patient {
	return &clinic.Patient{PersonInfo: clinic.PersonInfo{NationalID: cpf, Name: name, Age: age}, Plan: plan}
}

func doctor(crm, name string, s clinic.Specialty, price float64) *clinic.Doctor {
	return &clinic.Doctor{PersonInfo: clinic.PersonInfo{Name: name}, License: crm, Specialty: s, BasePrice: price}
}

func appt(id, patient, doc string, when time.Time, status scheduling.Status, price float64) *scheduling.Appointment {
	return &scheduling.Appointment{ID: id, PatientID: patient, DoctorID: doc, DateTime: when, Location: "Sala " + id, Status: status, FinalPrice: price}
}

type fixture struct {
	agg          *Aggregator
	appointments *stubAppointments
	stays        *stubStays
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	patients := &stubPatients{items: []*clinic.Patient{
		person("111", "Ana", 30, clinic.PlanNone),
		person("222", "Bia", 30, clinic.PlanPlus),
		person("333", "Caio", 65, clinic.PlanSpecial),
		person("444", "Duda", 40, clinic.PlanBasic),
	}}
	doctors := &stubDoctors{items: []*clinic.Doctor{
		doctor("CRM-A", "Dra. A", clinic.Cardiology, 300),
		doctor("CRM-B", "Dr. B", clinic.Pediatrics, 200),
		doctor("CRM-C", "Dr. C", clinic.General, 250),
	}}
	appointments := &stubAppointments{items: []*scheduling.Appointment{
		appt("a1", "111", "CRM-A", at(1, 10, 0), scheduling.StatusCompleted, 300),
		appt("a2", "222", "CRM-A", at(2, 10, 0), scheduling.StatusCompleted, 240),
		appt("a3", "222", "CRM-B", at(3, 10, 0), scheduling.StatusCompleted, 170),
		appt("a4", "333", "CRM-B", at(4, 10, 0), scheduling.StatusCancelled, 200),
		appt("a5", "111", "CRM-C", at(15, 9, 0), scheduling.StatusBooked, 250),
		appt("a6", "222", "CRM-A", at(12, 9, 0), scheduling.StatusBooked, 240),
		appt("a7", "333", "CRM-X", at(5, 10, 0), scheduling.StatusCompleted, 100),
		appt("a8", "111", "CRM-B", at(20, 9, 0), scheduling.StatusCancelled, 200),
	}}
	stays := &stubStays{items: []*admission.Stay{
		{ID: "s1", PatientID: "222", DoctorID: "CRM-A", Room: "101", Entry: at(1, 8, 0), Exit: ptr(at(4, 8, 0)), BaseCostPerDay: 500},
		{ID: "s2", PatientID: "111", DoctorID: "CRM-A", Room: "102", Entry: at(2, 8, 0), Exit: ptr(at(3, 8, 0)), BaseCostPerDay: 400},
		{ID: "s3", PatientID: "333", DoctorID: "CRM-C", Room: "103", Entry: at(8, 12, 0), BaseCostPerDay: 300},
		{ID: "s5", PatientID: "999", DoctorID: "CRM-C", Room: "105", Entry: at(10, 2, 30), BaseCostPerDay: 300},
		{ID: "s4", PatientID: "444", DoctorID: "CRM-C", Room: "104", Entry: at(10, 2, 30), BaseCostPerDay: 300},
	}}

	agg := NewAggregator(Sources{Patients: patients, Doctors: doctors, Appointments: appointments, Stays: stays})
	agg.now = func() time.Time { return now }
	return &fixture{agg: agg, appointments: appointments, stays: stays}
}

func ids(appts []scheduling.Appointment) []string {
	out := make([]string, len(appts))
	for i, a := range appts {
		out[i] = a.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// -- Appointment listings --

func TestUpcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"a6", "a5"}},
		{"doctor ignores case", Filter{DoctorID: "crm-a"}, []string{"a6"}},
		{"specialty", Filter{Specialty: clinic.General}, []string{"a5"}},
		{"patient", Filter{PatientID: "333"}, []string{}},
	}
	for _, tt := range tests {
		got, err := f.agg.Upcoming(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !equal(ids(got), tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, ids(got), tt.want)
		}
	}
}

func TestPast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter, cancelled excluded", Filter{}, []string{"a7", "a3", "a2", "a1"}},
		{"patient", Filter{PatientID: " 222 "}, []string{"a3", "a2"}},
		{"specialty skips unknown doctors", Filter{Specialty: clinic.Pediatrics}, []string{"a3"}},
		{"combined", Filter{PatientID: "222", Specialty: clinic.Cardiology}, []string{"a2"}},
	}
	for _, tt := range tests {
		got, err := f.agg.Past(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !equal(ids(got), tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, ids(got), tt.want)
		}
	}
}

func TestListings_ReReadStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appointments.items = append(f.appointments.items, appt("a9", "444", "CRM-B", at(11, 8, 0), scheduling.StatusBooked, 200))
	got, err := f.agg.Upcoming(ctx, Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(ids(got), []string{"a9", "a6", "a5"}) {
		t.Errorf("expected new appointment to show up, got %v", ids(got))
	}
}

func TestListings_LoadFailure(t *testing.T) {
	f := newFixture(t)
	f.appointments.loadErr = errors.New("disk gone")
	_, err := f.agg.Past(context.Background(), Filter{})
	if !errors.Is(err, clinic.ErrPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
}

// -- Patient history --

func TestPatientAppointmentHistory(t *testing.T) {
	f := newFixture(t)
	got, err := f.agg.PatientAppointmentHistory(context.Background(), "111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(ids(got), []string{"a1", "a5", "a8"}) {
		t.Errorf("got %v, want every status in ascending order", ids(got))
	}
}

func TestPatientStayHistory(t *testing.T) {
	f := newFixture(t)
	got, err := f.agg.PatientStayHistory(context.Background(), "222")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "s1" {
		t.Errorf("unexpected stays: %+v", got)
	}

	none, err := f.agg.PatientStayHistory(context.Background(), "nobody")
	if err != nil || len(none) != 0 {
		t.Errorf("expected empty history, got %v, %v", none, err)
	}
}

func TestPatientHistory_BlankID(t *testing.T) {
	f := newFixture(t)
	if _, err := f.agg.PatientAppointmentHistory(context.Background(), " "); !errors.Is(err, clinic.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := f.agg.PatientStayHistory(context.Background(), ""); !errors.Is(err, clinic.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

// -- Rankings --

func TestTopDoctorByCompleted(t *testing.T) {
	f := newFixture(t)
	top, ok, err := f.agg.TopDoctorByCompleted(context.Background())
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}
	if top != (TopDoctor{License: "CRM-A", Name: "Dra. A", Completed: 2}) {
		t.Errorf("unexpected top doctor: %+v", top)
	}
}

func TestTopDoctorByCompleted_TieGoesToSmallestLicense(t *testing.T) {
	f := newFixture(t)
	f.appointments.items = []*scheduling.Appointment{
		appt("x1", "111", "CRM-C", at(1, 9, 0), scheduling.StatusCompleted, 250),
		appt("x2", "111", "CRM-B", at(1, 10, 0), scheduling.StatusCompleted, 200),
	}
	top, ok, err := f.agg.TopDoctorByCompleted(context.Background())
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}
	if top.License != "CRM-B" {
		t.Errorf("expected CRM-B on tie, got %s", top.License)
	}
}

func TestTopDoctorByCompleted_NameFallsBackToLicense(t *testing.T) {
	f := newFixture(t)
	f.appointments.items = []*scheduling.Appointment{
		appt("x1", "111", "CRM-X", at(1, 9, 0), scheduling.StatusCompleted, 100),
	}
	top, ok, err := f.agg.TopDoctorByCompleted(context.Background())
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}
	if top.Name != "CRM-X" {
		t.Errorf("expected license as name, got %q", top.Name)
	}
}

func TestTopDoctorByCompleted_NoneCompleted(t *testing.T) {
	f := newFixture(t)
	f.appointments.items = []*scheduling.Appointment{
		appt("x1", "111", "CRM-A", at(20, 9, 0), scheduling.StatusBooked, 300),
	}
	if _, ok, err := f.agg.TopDoctorByCompleted(context.Background()); ok || err != nil {
		t.Errorf("expected no top doctor, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := f.agg.TopSpecialtyByCompleted(context.Background()); ok || err != nil {
		t.Errorf("expected no top specialty, got ok=%v err=%v", ok, err)
	}
}

func TestTopSpecialtyByCompleted(t *testing.T) {
	f := newFixture(t)
	top, ok, err := f.agg.TopSpecialtyByCompleted(context.Background())
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}
	if top.Specialty != clinic.Cardiology || top.Completed != 2 {
		t.Errorf("unexpected top specialty: %+v", top)
	}
}

func TestTopSpecialtyByCompleted_TieFollowsDeclarationOrder(t *testing.T) {
	f := newFixture(t)
	f.appointments.items = []*scheduling.Appointment{
		appt("x1", "111", "CRM-C", at(1, 9, 0), scheduling.StatusCompleted, 250),
		appt("x2", "111", "CRM-B", at(1, 10, 0), scheduling.StatusCompleted, 200),
		appt("x3", "111", "CRM-X", at(1, 11, 0), scheduling.StatusCompleted, 100),
		appt("x4", "111", "CRM-X", at(1, 12, 0), scheduling.StatusCompleted, 100),
	}
	top, ok, err := f.agg.TopSpecialtyByCompleted(context.Background())
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}
	if top.Specialty != clinic.Pediatrics || top.Completed != 1 {
		t.Errorf("expected Pediatrics with 1, got %+v", top)
	}
}

// -- Admissions --

func TestCurrentlyAdmitted(t *testing.T) {
	f := newFixture(t)
	got, err := f.agg.CurrentlyAdmitted(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []AdmittedPatient{
		{StayID: "s3", PatientID: "333", Name: "Caio", Room: "103", Entry: at(8, 12, 0), Hours: 48},
		{StayID: "s4", PatientID: "444", Name: "Duda", Room: "104", Entry: at(10, 2, 30), Hours: 9},
		{StayID: "s5", PatientID: "999", Name: "999", Room: "105", Entry: at(10, 2, 30), Hours: 9},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d admitted, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("admitted[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCurrentlyAdmitted_FutureEntryIsZeroHours(t *testing.T) {
	f := newFixture(t)
	f.stays.items = []*admission.Stay{
		{ID: "s9", PatientID: "111", Room: "109", Entry: at(11, 8, 0), BaseCostPerDay: 100},
	}
	got, err := f.agg.CurrentlyAdmitted(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Hours != 0 {
		t.Errorf("expected zero hours, got %+v", got)
	}
}

func TestCurrentlyAdmitted_LoadFailure(t *testing.T) {
	f := newFixture(t)
	f.stays.loadErr = errors.New("unreadable")
	if _, err := f.agg.CurrentlyAdmitted(context.Background()); !errors.Is(err, clinic.ErrPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
}

// -- Plans --

func TestPlanStatistics(t *testing.T) {
	f := newFixture(t)
	got, err := f.agg.PlanStatistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// appointments: a2 saves 60, a3 saves 30; a7 has no doctor record.
	// stays: s1 is three free days at 500.
	want := PlanStats{None: 1, Basic: 1, Plus: 1, Special: 1, Savings: 1590}
	if got != want {
		t.Errorf("PlanStatistics() = %+v, want %+v", got, want)
	}
}

func TestPlanStatistics_SavingsNeverNegative(t *testing.T) {
	f := newFixture(t)
	f.appointments.items = []*scheduling.Appointment{
		appt("x1", "111", "CRM-A", at(1, 9, 0), scheduling.StatusCompleted, 350),
	}
	f.stays.items = nil
	got, err := f.agg.PlanStatistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Savings != 0 {
		t.Errorf("expected zero savings, got %.2f", got.Savings)
	}
}
