package admission

import (
	"context"
	"time"

	"github.com/ehr/clinic/internal/platform/db"
)

type stayRepoPG struct {
	conn     db.Conn
	patients PatientFinder
}

func NewStayRepoPG(conn db.Conn, patients PatientFinder) StayRepository {
	return &stayRepoPG{conn: conn, patients: patients}
}

var stayCols = []string{
	"seq", "id", "patient_cpf", "doctor_crm", "room",
	"entry_at", "exit_at", "base_cost_per_day", "total_cost",
}

func (r *stayRepoPG) Load(ctx context.Context) ([]*Stay, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, patient_cpf, doctor_crm, room, entry_at, exit_at, base_cost_per_day
		FROM stay ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Stay
	for rows.Next() {
		var s Stay
		if err := rows.Scan(&s.ID, &s.PatientID, &s.DoctorID, &s.Room, &s.Entry, &s.Exit, &s.BaseCostPerDay); err != nil {
			return nil, err
		}
		s.Entry = s.Entry.Local()
		if s.Exit != nil {
			exit := s.Exit.Local()
			s.Exit = &exit
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *stayRepoPG) SaveAll(ctx context.Context, stays []*Stay, asOf time.Time) error {
	rows := make([][]any, 0, len(stays))
	for i, s := range stays {
		rows = append(rows, []any{
			i, s.ID, s.PatientID, s.DoctorID, s.Room, s.Entry, s.Exit, s.BaseCostPerDay,
			TotalCost(*s, planOf(ctx, r.patients, s.PatientID), asOf),
		})
	}
	return db.ReplaceAll(ctx, r.conn, "stay", stayCols, rows)
}
