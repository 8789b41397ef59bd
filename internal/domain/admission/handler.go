package admission

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/platform/tabular"
	"github.com/ehr/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/stays", h.Admit)
	api.GET("/stays", h.List)
	api.GET("/stays/:id", h.Get)
	api.GET("/stays/:id/cost", h.Cost)
	api.POST("/stays/:id/discharge", h.Discharge)
	api.DELETE("/stays/:id", h.Cancel)
}

type admitRequest struct {
	PatientID      string  `json:"patient_id"`
	DoctorID       string  `json:"doctor_id"`
	Room           string  `json:"room"`
	Entry          string  `json:"entry"`
	BaseCostPerDay float64 `json:"base_cost_per_day"`
}

type dischargeRequest struct {
	Exit string `json:"exit"`
}

type costResponse struct {
	StayID string    `json:"stay_id"`
	Cost   float64   `json:"cost"`
	Days   int64     `json:"days"`
	AsOf   time.Time `json:"as_of"`
	Final  bool      `json:"final"`
}

func (h *Handler) Admit(c echo.Context) error {
	var req admitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := parseRequiredTime("entry", req.Entry)
	if err != nil {
		return err
	}
	stay, err := h.svc.Admit(c.Request().Context(), req.PatientID, req.DoctorID, req.Room, entry, req.BaseCostPerDay)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, stay)
}

func (h *Handler) Get(c echo.Context) error {
	stay, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stay)
}

// List accepts optional patient_id and active=true|false filters.
func (h *Handler) List(c echo.Context) error {
	var active *bool
	if raw := c.QueryParam("active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return clinic.Invalid("active", "must be true or false")
		}
		active = &b
	}
	patientID := c.QueryParam("patient_id")

	var items []Stay
	for _, st := range h.svc.List(c.Request().Context()) {
		if patientID != "" && st.PatientID != patientID {
			continue
		}
		if active != nil && st.Open() != *active {
			continue
		}
		items = append(items, st)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) Cost(c echo.Context) error {
	ctx := c.Request().Context()
	stay, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	now := h.svc.Now()
	cost, err := h.svc.Cost(ctx, stay.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, costResponse{
		StayID: stay.ID,
		Cost:   cost,
		Days:   Days(*stay, now),
		AsOf:   now,
		Final:  !stay.Open(),
	})
}

func (h *Handler) Discharge(c echo.Context) error {
	var req dischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	exit, err := parseRequiredTime("exit", req.Exit)
	if err != nil {
		return err
	}
	stay, err := h.svc.Discharge(c.Request().Context(), c.Param("id"), exit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stay)
}

func (h *Handler) Cancel(c echo.Context) error {
	if err := h.svc.Cancel(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func parseRequiredTime(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, clinic.Required(field)
	}
	t, err := tabular.ParseTime(raw)
	if err != nil {
		return time.Time{}, clinic.Invalid(field, err.Error())
	}
	return t, nil
}
