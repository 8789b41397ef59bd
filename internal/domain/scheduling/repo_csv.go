package scheduling

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/platform/tabular"
)

const AppointmentsFile = "appointments.csv"

var appointmentHeader = []string{
	"id", "cpfPaciente", "crmMedico", "dataHoraISO", "local",
	"status", "diagnostico", "prescricao", "precoFinal",
}

type appointmentRepoCSV struct {
	file   *tabular.File
	logger zerolog.Logger
}

func NewAppointmentRepoCSV(dataDir string, logger zerolog.Logger) AppointmentRepository {
	return &appointmentRepoCSV{
		file:   tabular.New(filepath.Join(dataDir, AppointmentsFile), appointmentHeader...),
		logger: logger.With().Str("file", AppointmentsFile).Logger(),
	}
}

func (r *appointmentRepoCSV) Load(_ context.Context) ([]*Appointment, error) {
	records, err := r.file.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []*Appointment
	for i, rec := range records {
		a, err := decodeAppointment(rec)
		if err != nil {
			r.logger.Warn().Err(err).Int("row", i+1).Msg("skipping malformed appointment row")
			continue
		}
		if a.Status == "" {
			r.logger.Warn().Int("row", i+1).Str("id", a.ID).Msg("unknown appointment status, assuming booked")
			a.Status = StatusBooked
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *appointmentRepoCSV) SaveAll(_ context.Context, appointments []*Appointment) error {
	records := make([][]string, 0, len(appointments))
	for _, a := range appointments {
		records = append(records, []string{
			a.ID, a.PatientID, a.DoctorID, tabular.FormatTime(a.DateTime), a.Location,
			string(a.Status), a.Diagnosis, a.Prescription, tabular.FormatFloat(a.FinalPrice),
		})
	}
	return r.file.WriteAll(records)
}

// decodeAppointment leaves Status empty when the status column is not
// recognised.
func decodeAppointment(rec []string) (*Appointment, error) {
	if len(rec) < len(appointmentHeader) || strings.TrimSpace(rec[0]) == "" {
		return nil, clinic.Invalid("appointment", "expected "+strings.Join(appointmentHeader, ";"))
	}
	at, err := tabular.ParseTime(rec[3])
	if err != nil {
		return nil, clinic.Invalid("dataHoraISO", err.Error())
	}
	price, err := tabular.ParseFloat(rec[8])
	if err != nil {
		return nil, clinic.Invalid("precoFinal", err.Error())
	}
	status, _ := ParseStatus(rec[5])
	return &Appointment{
		ID:           rec[0],
		PatientID:    rec[1],
		DoctorID:     rec[2],
		DateTime:     at,
		Location:     rec[4],
		Status:       status,
		Diagnosis:    rec[6],
		Prescription: rec[7],
		FinalPrice:   price,
	}, nil
}
