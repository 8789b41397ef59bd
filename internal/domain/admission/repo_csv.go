package admission

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/platform/tabular"
)

const StaysFile = "stays.csv"

var stayHeader = []string{
	"id", "cpfPaciente", "crmMedico", "quarto", "entradaISO",
	"saidaISO", "custoBaseDia", "custoTotal",
}

type stayRepoCSV struct {
	file     *tabular.File
	patients PatientFinder
	logger   zerolog.Logger
}

// NewStayRepoCSV stores stays in DATA_DIR/stays.csv. The custoTotal column
// is informational: it is computed on write with patients (which may be
// nil) and ignored on read.
func NewStayRepoCSV(dataDir string, patients PatientFinder, logger zerolog.Logger) StayRepository {
	return &stayRepoCSV{
		file:     tabular.New(filepath.Join(dataDir, StaysFile), stayHeader...),
		patients: patients,
		logger:   logger.With().Str("file", StaysFile).Logger(),
	}
}

func (r *stayRepoCSV) Load(_ context.Context) ([]*Stay, error) {
	records, err := r.file.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []*Stay
	for i, rec := range records {
		s, err := decodeStay(rec)
		if err != nil {
			r.logger.Warn().Err(err).Int("row", i+1).Msg("skipping malformed stay row")
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *stayRepoCSV) SaveAll(ctx context.Context, stays []*Stay, asOf time.Time) error {
	records := make([][]string, 0, len(stays))
	for _, s := range stays {
		records = append(records, []string{
			s.ID, s.PatientID, s.DoctorID, s.Room,
			tabular.FormatTime(s.Entry), tabular.FormatOptionalTime(s.Exit),
			tabular.FormatFloat(s.BaseCostPerDay),
			tabular.FormatFloat(TotalCost(*s, planOf(ctx, r.patients, s.PatientID), asOf)),
		})
	}
	return r.file.WriteAll(records)
}

func decodeStay(rec []string) (*Stay, error) {
	if len(rec) < 7 || strings.TrimSpace(rec[0]) == "" {
		return nil, clinic.Invalid("stay", "expected "+strings.Join(stayHeader, ";"))
	}
	entry, err := tabular.ParseTime(rec[4])
	if err != nil {
		return nil, clinic.Invalid("entradaISO", err.Error())
	}
	exit, err := tabular.ParseOptionalTime(rec[5])
	if err != nil {
		return nil, clinic.Invalid("saidaISO", err.Error())
	}
	if exit != nil && !exit.After(entry) {
		return nil, clinic.Invalid("saidaISO", "must be after entradaISO")
	}
	base, err := tabular.ParseFloat(rec[6])
	if err != nil {
		return nil, clinic.Invalid("custoBaseDia", err.Error())
	}
	if base < 0 {
		return nil, clinic.Invalid("custoBaseDia", "must not be negative")
	}
	return &Stay{
		ID:             rec[0],
		PatientID:      rec[1],
		DoctorID:       rec[2],
		Room:           rec[3],
		Entry:          entry,
		Exit:           exit,
		BaseCostPerDay: base,
	}, nil
}
