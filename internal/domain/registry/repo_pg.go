package registry

import (
	"context"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/platform/db"
)

// =========== Patient Repository ===========

type patientRepoPG struct{ conn db.Conn }

func NewPatientRepoPG(conn db.Conn) PatientRepository { return &patientRepoPG{conn: conn} }

var patientCols = []string{"seq", "cpf", "name", "age", "plan"}

func (r *patientRepoPG) Load(ctx context.Context) ([]*clinic.Patient, error) {
	rows, err := r.conn.Query(ctx, `SELECT cpf, name, age, plan FROM patient ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*clinic.Patient
	for rows.Next() {
		var p clinic.Patient
		var plan string
		if err := rows.Scan(&p.NationalID, &p.Name, &p.Age, &plan); err != nil {
			return nil, err
		}
		if p.Plan, err = clinic.ParsePlan(plan); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *patientRepoPG) SaveAll(ctx context.Context, patients []*clinic.Patient) error {
	rows := make([][]any, 0, len(patients))
	for i, p := range patients {
		rows = append(rows, []any{i, p.NationalID, p.Name, p.Age, p.Plan.Code()})
	}
	return db.ReplaceAll(ctx, r.conn, "patient", patientCols, rows)
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ conn db.Conn }

func NewDoctorRepoPG(conn db.Conn) DoctorRepository { return &doctorRepoPG{conn: conn} }

var doctorCols = []string{"seq", "crm", "name", "cpf", "age", "specialty", "base_price"}

func (r *doctorRepoPG) Load(ctx context.Context) ([]*clinic.Doctor, error) {
	rows, err := r.conn.Query(ctx, `SELECT crm, name, cpf, age, specialty, base_price FROM doctor ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*clinic.Doctor
	for rows.Next() {
		var d clinic.Doctor
		var spec string
		if err := rows.Scan(&d.License, &d.Name, &d.NationalID, &d.Age, &spec, &d.BasePrice); err != nil {
			return nil, err
		}
		if d.Specialty, err = clinic.ParseSpecialty(spec); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *doctorRepoPG) SaveAll(ctx context.Context, doctors []*clinic.Doctor) error {
	rows := make([][]any, 0, len(doctors))
	for i, d := range doctors {
		rows = append(rows, []any{i, d.License, d.Name, d.NationalID, d.Age, d.Specialty.Code(), d.BasePrice})
	}
	return db.ReplaceAll(ctx, r.conn, "doctor", doctorCols, rows)
}
