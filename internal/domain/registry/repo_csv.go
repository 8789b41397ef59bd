package registry

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/platform/tabular"
)

const (
	PatientsFile = "patients.csv"
	DoctorsFile  = "doctors.csv"
)

var (
	patientHeader = []string{"cpf", "nome", "idade", "plano"}
	doctorHeader  = []string{"crm", "nome", "cpf", "idade", "especialidade", "custoBase"}
)

// =========== Patient Repository ===========

type patientRepoCSV struct {
	file   *tabular.File
	logger zerolog.Logger
}

func NewPatientRepoCSV(dataDir string, logger zerolog.Logger) PatientRepository {
	return &patientRepoCSV{
		file:   tabular.New(filepath.Join(dataDir, PatientsFile), patientHeader...),
		logger: logger.With().Str("file", PatientsFile).Logger(),
	}
}

func (r *patientRepoCSV) Load(_ context.Context) ([]*clinic.Patient, error) {
	records, err := r.file.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []*clinic.Patient
	for i, rec := range records {
		p, err := decodePatient(rec)
		if err != nil {
			r.logger.Warn().Err(err).Int("row", i+1).Msg("skipping malformed patient row")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *patientRepoCSV) SaveAll(_ context.Context, patients []*clinic.Patient) error {
	records := make([][]string, 0, len(patients))
	for _, p := range patients {
		records = append(records, []string{p.NationalID, p.Name, strconv.Itoa(p.Age), p.Plan.Code()})
	}
	return r.file.WriteAll(records)
}

func decodePatient(rec []string) (*clinic.Patient, error) {
	if len(rec) < 3 || strings.TrimSpace(rec[0]) == "" {
		return nil, clinic.Invalid("patient", "expected cpf;nome;idade[;plano]")
	}
	age, err := tabular.ParseInt(rec[2])
	if err != nil {
		return nil, clinic.Invalid("idade", err.Error())
	}
	plan, err := clinic.ParsePlan(tabular.Field(rec, 3))
	if err != nil {
		return nil, clinic.Invalid("plano", err.Error())
	}
	return &clinic.Patient{
		PersonInfo: clinic.PersonInfo{NationalID: rec[0], Name: rec[1], Age: age},
		Plan:       plan,
	}, nil
}

// =========== Doctor Repository ===========

type doctorRepoCSV struct {
	file   *tabular.File
	logger zerolog.Logger
}

func NewDoctorRepoCSV(dataDir string, logger zerolog.Logger) DoctorRepository {
	return &doctorRepoCSV{
		file:   tabular.New(filepath.Join(dataDir, DoctorsFile), doctorHeader...),
		logger: logger.With().Str("file", DoctorsFile).Logger(),
	}
}

func (r *doctorRepoCSV) Load(_ context.Context) ([]*clinic.Doctor, error) {
	records, err := r.file.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []*clinic.Doctor
	for i, rec := range records {
		d, err := decodeDoctor(rec)
		if err != nil {
			r.logger.Warn().Err(err).Int("row", i+1).Msg("skipping malformed doctor row")
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *doctorRepoCSV) SaveAll(_ context.Context, doctors []*clinic.Doctor) error {
	records := make([][]string, 0, len(doctors))
	for _, d := range doctors {
		records = append(records, []string{
			d.License, d.Name, d.NationalID, strconv.Itoa(d.Age),
			d.Specialty.Code(), tabular.FormatFloat(d.BasePrice),
		})
	}
	return r.file.WriteAll(records)
}

func decodeDoctor(rec []string) (*clinic.Doctor, error) {
	if len(rec) < 6 || strings.TrimSpace(rec[0]) == "" {
		return nil, clinic.Invalid("doctor", "expected crm;nome;cpf;idade;especialidade;custoBase")
	}
	age, err := tabular.ParseInt(rec[3])
	if err != nil {
		return nil, clinic.Invalid("idade", err.Error())
	}
	spec, err := clinic.ParseSpecialty(rec[4])
	if err != nil {
		return nil, clinic.Invalid("especialidade", err.Error())
	}
	price, err := tabular.ParseFloat(rec[5])
	if err != nil {
		return nil, clinic.Invalid("custoBase", err.Error())
	}
	return &clinic.Doctor{
		PersonInfo: clinic.PersonInfo{Name: rec[1], NationalID: rec[2], Age: age},
		License:    rec[0],
		Specialty:  spec,
		BasePrice:  price,
	}, nil
}
