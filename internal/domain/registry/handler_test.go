package registry

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/pkg/pagination"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	svc, _, _ := newTestService(t)
	return NewHandler(svc), echo.New()
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_RegisterPatient(t *testing.T) {
	h, e := newTestHandler(t)
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"cpf":"111","name":"Ana","age":65,"plan":"PLUS"}`), rec)

	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got clinic.Patient
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.NationalID != "111" || got.Plan != clinic.PlanPlus {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_RegisterPatient_Duplicate(t *testing.T) {
	h, e := newTestHandler(t)
	body := `{"cpf":"111","name":"Ana","age":30}`
	h.RegisterPatient(e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder()))

	err := h.RegisterPatient(e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusConflict {
		t.Errorf("expected 409 HTTPError, got %v", err)
	}
}

func TestHandler_RegisterPatient_BadPlan(t *testing.T) {
	h, e := newTestHandler(t)
	c := e.NewContext(jsonRequest(http.MethodPost, `{"cpf":"111","name":"Ana","age":30,"plan":"GOLD"}`), httptest.NewRecorder())
	err := h.RegisterPatient(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_RegisterPatient_Validation(t *testing.T) {
	h, e := newTestHandler(t)
	c := e.NewContext(jsonRequest(http.MethodPost, `{"name":"Ana"}`), httptest.NewRecorder())
	if err := h.RegisterPatient(c); !errors.Is(err, clinic.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler(t)
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("999")
	if err := h.GetPatient(c); !errors.Is(err, clinic.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandler_SetPlan(t *testing.T) {
	h, e := newTestHandler(t)
	h.RegisterPatient(e.NewContext(jsonRequest(http.MethodPost, `{"cpf":"111","name":"Ana","age":30}`), httptest.NewRecorder()))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, `{"plan":"ESPECIAL"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("111")
	if err := h.SetPlan(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"plan":"ESPECIAL"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_RegisterDoctor_DefaultPrice(t *testing.T) {
	h, e := newTestHandler(t)
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"crm":"CRM-1","name":"Dr. Caio","age":50,"specialty":"Pediatria"}`), rec)
	if err := h.RegisterDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got clinic.Doctor
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Specialty != clinic.Pediatrics || got.BasePrice != 200 {
		t.Errorf("unexpected doctor: %+v", got)
	}
}

func TestHandler_ListDoctors_Paged(t *testing.T) {
	h, e := newTestHandler(t)
	for _, crm := range []string{"C", "A", "B"} {
		body := `{"crm":"` + crm + `","name":"Dr","age":40,"specialty":"GERAL","base_price":100}`
		h.RegisterDoctor(e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder()))
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=2", nil), rec)
	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var page struct {
		pagination.Response
		Data []clinic.Doctor `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 3 || len(page.Data) != 2 || !page.HasMore || page.Data[0].License != "A" {
		t.Errorf("unexpected page: %s", rec.Body.String())
	}
}
