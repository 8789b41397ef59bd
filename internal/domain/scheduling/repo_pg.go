package scheduling

import (
	"context"

	"github.com/ehr/clinic/internal/platform/db"
)

type appointmentRepoPG struct{ conn db.Conn }

func NewAppointmentRepoPG(conn db.Conn) AppointmentRepository {
	return &appointmentRepoPG{conn: conn}
}

var appointmentCols = []string{
	"seq", "id", "patient_cpf", "doctor_crm", "date_time", "location",
	"status", "diagnosis", "prescription", "final_price",
}

func (r *appointmentRepoPG) Load(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, patient_cpf, doctor_crm, date_time, location,
		       status, diagnosis, prescription, final_price
		FROM appointment ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var a Appointment
		var status string
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.DateTime, &a.Location,
			&status, &a.Diagnosis, &a.Prescription, &a.FinalPrice); err != nil {
			return nil, err
		}
		if a.Status, err = ParseStatus(status); err != nil {
			return nil, err
		}
		a.DateTime = a.DateTime.Local()
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *appointmentRepoPG) SaveAll(ctx context.Context, appointments []*Appointment) error {
	rows := make([][]any, 0, len(appointments))
	for i, a := range appointments {
		rows = append(rows, []any{
			i, a.ID, a.PatientID, a.DoctorID, a.DateTime, a.Location,
			string(a.Status), a.Diagnosis, a.Prescription, a.FinalPrice,
		})
	}
	return db.ReplaceAll(ctx, r.conn, "appointment", appointmentCols, rows)
}
