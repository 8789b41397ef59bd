package scheduling

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/clinic"
)

func TestAppointmentRepoCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := []*Appointment{
		{ID: "a1", PatientID: "111", DoctorID: "CRM-1", DateTime: time.Date(2025, 10, 5, 10, 0, 0, 0, time.Local),
			Location: "Sala 1", Status: StatusBooked, FinalPrice: 240},
		{ID: "a2", PatientID: "222", DoctorID: "CRM-2", DateTime: time.Date(2025, 1, 2, 8, 30, 0, 0, time.Local),
			Location: "Sala; 2", Status: StatusCompleted, Diagnosis: "gripe\nleve", Prescription: "chá", FinalPrice: 217.5},
	}
	if err := NewAppointmentRepoCSV(dir, zerolog.Nop()).SaveAll(context.Background(), want); err != nil {
		t.Fatalf("SaveAll() error: %v", err)
	}

	got, err := NewAppointmentRepoCSV(dir, zerolog.Nop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d appointments, got %d", len(want), len(got))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.PatientID != w.PatientID || g.DoctorID != w.DoctorID || !g.DateTime.Equal(w.DateTime) ||
			g.Location != w.Location || g.Status != w.Status || g.Diagnosis != w.Diagnosis ||
			g.Prescription != w.Prescription || g.FinalPrice != w.FinalPrice {
			t.Errorf("appointment %d = %+v, want %+v", i, *g, *w)
		}
	}
}

func TestAppointmentRepoCSV_Lenient(t *testing.T) {
	dir := t.TempDir()
	content := "id;cpfPaciente;crmMedico;dataHoraISO;local;status;diagnostico;prescricao;precoFinal\n" +
		"a1;111;CRM-1;2025-10-05T10:00;Sala 1;Agendada;;;300.0\n" +
		"a2;111;CRM-1;not-a-date;Sala 1;AGENDADA;;;300\n" +
		"a3;111;CRM-1;2025-10-05T11:00;Sala 1;AGENDADA;;\n" +
		"a4;111;CRM-1;2025-10-05T12:00;Sala 1;PERDIDA;;;270,5\n"
	if err := os.WriteFile(filepath.Join(dir, AppointmentsFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewAppointmentRepoCSV(dir, zerolog.Nop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 valid rows, got %d", len(got))
	}
	if got[0].Status != StatusBooked || got[1].Status != StatusBooked || got[1].FinalPrice != 270.5 {
		t.Errorf("unexpected appointments: %+v %+v", *got[0], *got[1])
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"AGENDADA":   StatusBooked,
		"concluída":  StatusCompleted,
		"CONCLUIDA":  StatusCompleted,
		" Cancelada": StatusCancelled,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseStatus("DONE"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestService_WithCSVRepo_SubSecondInstantsShareSlot(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	svc, err := NewService(ctx, NewAppointmentRepoCSV(dir, zerolog.Nop()), newDirectory(), nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.Book(ctx, "111", "CRM-D", tenAM.Add(300*time.Millisecond), "Room 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.DateTime.Equal(tenAM) {
		t.Errorf("expected instant normalised to %v, got %v", tenAM, first.DateTime)
	}
	_, err = svc.Book(ctx, "222", "CRM-D", tenAM.Add(700*time.Millisecond), "Room 2")
	if !clinic.IsConflict(err, clinic.ConflictDoctor) {
		t.Fatalf("expected doctor conflict within the same second, got %v", err)
	}

	got, err := NewAppointmentRepoCSV(dir, zerolog.Nop()).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 1 || !got[0].DateTime.Equal(first.DateTime) {
		t.Errorf("expected one stored booking at %v, got %d", first.DateTime, len(got))
	}
}
