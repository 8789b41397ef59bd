package scheduling

import (
	"net/http"
	"strings"

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
	api.POST("/appointments", h.Book)
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.POST("/appointments/:id/complete", h.Complete)
	api.POST("/appointments/:id/cancel", h.Cancel)
}

type bookRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	DateTime  string `json:"date_time"`
	Location  string `json:"location"`
}

type completeRequest struct {
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.DateTime) == "" {
		return clinic.Required("date_time")
	}
	at, err := tabular.ParseTime(req.DateTime)
	if err != nil {
		return clinic.Invalid("date_time", err.Error())
	}
	appt, err := h.svc.Book(c.Request().Context(), req.PatientID, req.DoctorID, at, req.Location)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) Get(c echo.Context) error {
	appt, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

// List accepts optional patient_id, doctor_id and status filters.
func (h *Handler) List(c echo.Context) error {
	var status Status
	if raw := c.QueryParam("status"); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			return clinic.Invalid("status", err.Error())
		}
		status = st
	}
	patientID, doctorID := c.QueryParam("patient_id"), c.QueryParam("doctor_id")

	var items []Appointment
	for _, a := range h.svc.List(c.Request().Context()) {
		if patientID != "" && a.PatientID != patientID {
			continue
		}
		if doctorID != "" && !strings.EqualFold(a.DoctorID, doctorID) {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		items = append(items, a)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) Complete(c echo.Context) error {
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := h.svc.Complete(c.Request().Context(), c.Param("id"), req.Diagnosis, req.Prescription)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Cancel(c echo.Context) error {
	appt, err := h.svc.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}
