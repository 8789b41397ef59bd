package registry

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.RegisterPatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id/plan", h.SetPlan)

	api.POST("/doctors", h.RegisterDoctor)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
}

type patientRequest struct {
	CPF  string      `json:"cpf"`
	Name string      `json:"name"`
	Age  int         `json:"age"`
	Plan clinic.Plan `json:"plan"`
}

type doctorRequest struct {
	CRM       string           `json:"crm"`
	Name      string           `json:"name"`
	CPF       string           `json:"cpf"`
	Age       int              `json:"age"`
	Specialty clinic.Specialty `json:"specialty"`
	BasePrice float64          `json:"base_price"`
}

type planRequest struct {
	Plan clinic.Plan `json:"plan"`
}

// -- Patient Handlers --

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p := clinic.Patient{
		PersonInfo: clinic.PersonInfo{NationalID: req.CPF, Name: req.Name, Age: req.Age},
		Plan:       req.Plan,
	}
	inserted, err := h.svc.RegisterPatient(c.Request().Context(), p)
	if err != nil {
		return err
	}
	if !inserted {
		return echo.NewHTTPError(http.StatusConflict, "patient already registered: "+req.CPF)
	}
	created, err := h.svc.FindPatient(c.Request().Context(), p.NationalID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.FindPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	items := h.svc.ListPatients(c.Request().Context())
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) SetPlan(c echo.Context) error {
	var req planRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.SetPatientPlan(ctx, c.Param("id"), req.Plan); err != nil {
		return err
	}
	p, err := h.svc.FindPatient(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// -- Doctor Handlers --

func (h *Handler) RegisterDoctor(c echo.Context) error {
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d := clinic.Doctor{
		PersonInfo: clinic.PersonInfo{NationalID: req.CPF, Name: req.Name, Age: req.Age},
		License:    req.CRM,
		Specialty:  req.Specialty,
		BasePrice:  req.BasePrice,
	}
	inserted, err := h.svc.RegisterDoctor(c.Request().Context(), d)
	if err != nil {
		return err
	}
	if !inserted {
		return echo.NewHTTPError(http.StatusConflict, "doctor already registered: "+req.CRM)
	}
	created, err := h.svc.FindDoctor(c.Request().Context(), d.License)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	d, err := h.svc.FindDoctor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	items := h.svc.ListDoctors(c.Request().Context())
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}
