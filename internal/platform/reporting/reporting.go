package reporting

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/clinic/internal/domain/clinic"
)

// ReportDefinition describes a named report and the parameters it reads.
type ReportDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

// Report holds the result of evaluating a report definition.
type Report struct {
	ReportID    string            `json:"report_id"`
	ReportName  string            `json:"report_name"`
	GeneratedAt time.Time         `json:"generated_at"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Result      any               `json:"result"`
}

var filterParams = []string{"patient_id", "doctor_id", "specialty"}

// Reports is the list of available reports.
var Reports = []ReportDefinition{
	{
		ID:          "upcoming",
		Name:        "Upcoming Appointments",
		Description: "Non-cancelled appointments scheduled after now, nearest first",
		Parameters:  filterParams,
	},
	{
		ID:          "past",
		Name:        "Past Appointments",
		Description: "Non-cancelled appointments scheduled before now, most recent first",
		Parameters:  filterParams,
	},
	{
		ID:          "patient-appointments",
		Name:        "Patient Appointment History",
		Description: "Every appointment of a patient in any status, oldest first",
		Parameters:  []string{"patient_id"},
	},
	{
		ID:          "patient-stays",
		Name:        "Patient Stay History",
		Description: "Every stay of a patient, oldest first",
		Parameters:  []string{"patient_id"},
	},
	{
		ID:          "top-doctor",
		Name:        "Top Doctor",
		Description: "Doctor with the most completed appointments",
		Parameters:  []string{},
	},
	{
		ID:          "top-specialty",
		Name:        "Top Specialty",
		Description: "Specialty with the most completed appointments",
		Parameters:  []string{},
	},
	{
		ID:          "admitted",
		Name:        "Currently Admitted",
		Description: "Open stays with the hours elapsed since entry, longest first",
		Parameters:  []string{},
	},
	{
		ID:          "plans",
		Name:        "Plan Statistics",
		Description: "Patients per plan and the total saved through plans",
		Parameters:  []string{},
	},
}

// FindReport looks up a report by ID.
func FindReport(id string) *ReportDefinition {
	for i := range Reports {
		if Reports[i].ID == id {
			return &Reports[i]
		}
	}
	return nil
}

// Evaluate runs the report named id. Parameters the report does not read
// are ignored.
func (a *Aggregator) Evaluate(ctx context.Context, id string, params map[string]string) (*Report, error) {
	def := FindReport(strings.TrimSpace(id))
	if def == nil {
		return nil, clinic.NotFound("report", id)
	}

	used := map[string]string{}
	for _, p := range def.Parameters {
		if v := strings.TrimSpace(params[p]); v != "" {
			used[p] = v
		}
	}

	var (
		result any
		err    error
	)
	switch def.ID {
	case "upcoming", "past":
		var f Filter
		if f, err = filterFrom(used); err != nil {
			return nil, err
		}
		if def.ID == "upcoming" {
			result, err = a.Upcoming(ctx, f)
		} else {
			result, err = a.Past(ctx, f)
		}
	case "patient-appointments":
		result, err = a.PatientAppointmentHistory(ctx, used["patient_id"])
	case "patient-stays":
		result, err = a.PatientStayHistory(ctx, used["patient_id"])
	case "top-doctor":
		top, ok, e := a.TopDoctorByCompleted(ctx)
		if ok {
			result = top
		}
		err = e
	case "top-specialty":
		top, ok, e := a.TopSpecialtyByCompleted(ctx)
		if ok {
			result = top
		}
		err = e
	case "admitted":
		result, err = a.CurrentlyAdmitted(ctx)
	case "plans":
		result, err = a.PlanStatistics(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &Report{
		ReportID:    def.ID,
		ReportName:  def.Name,
		GeneratedAt: a.now(),
		Parameters:  used,
		Result:      result,
	}, nil
}

func filterFrom(params map[string]string) (Filter, error) {
	f := Filter{PatientID: params["patient_id"], DoctorID: params["doctor_id"]}
	if raw := params["specialty"]; raw != "" {
		s, err := clinic.ParseSpecialty(raw)
		if err != nil {
			return Filter{}, clinic.Invalid("specialty", err.Error())
		}
		f.Specialty = s
	}
	return f, nil
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	agg *Aggregator
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reports", h.ListReports)
	api.GET("/reports/:id", h.EvaluateReport)
}

// ListReports returns all report definitions.
func (h *Handler) ListReports(c echo.Context) error {
	return c.JSON(http.StatusOK, Reports)
}

// EvaluateReport runs a report with its parameters taken from the query
// string.
func (h *Handler) EvaluateReport(c echo.Context) error {
	params := map[string]string{}
	for _, p := range filterParams {
		if v := c.QueryParam(p); v != "" {
			params[p] = v
		}
	}
	report, err := h.agg.Evaluate(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
