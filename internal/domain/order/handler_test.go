package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo, *mockPatientSource) {
	svc, _, _, patients, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e, patients
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func finalizeRequest(e *echo.Echo, patientID uuid.UUID, date string) (echo.Context, *httptest.ResponseRecorder) {
	body := `{"patient_id":"` + patientID.String() + `","date":"` + date + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finalized", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Finalize(t *testing.T) {
	h, e, patients := newTestHandler()
	p := admitTestPatient(patients)

	c, rec := finalizeRequest(e, p.ID, "2026-03-14")
	err := h.Finalize(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if _, parseErr := uuid.Parse(resp["id"]); parseErr != nil {
		t.Errorf("expected finalized order id in response, got %q", resp["id"])
	}
}

func TestHandler_Finalize_DuplicateBedDate(t *testing.T) {
	h, e, patients := newTestHandler()
	p := admitTestPatient(patients)

	c, _ := finalizeRequest(e, p.ID, "2026-03-14")
	if err := h.Finalize(c); err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}

	c, _ = finalizeRequest(e, p.ID, "2026-03-14")
	err := h.Finalize(c)
	if httpStatus(err) != http.StatusConflict {
		t.Errorf("expected 409 for already finalized bed, got %v", err)
	}
}

func TestHandler_Finalize_UnknownPatient(t *testing.T) {
	h, e, _ := newTestHandler()

	c, _ := finalizeRequest(e, uuid.New(), "2026-03-14")
	err := h.Finalize(c)
	if httpStatus(err) != http.StatusNotFound {
		t.Errorf("expected 404 for unknown patient, got %v", err)
	}
}

func TestHandler_Finalize_MissingPatientID(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/finalized", strings.NewReader(`{"date":"2026-03-14"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Finalize(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for missing patient_id, got %v", err)
	}
}

func TestHandler_Aggregate_EmptyDay(t *testing.T) {
	h, e, patients := newTestHandler()
	p := admitTestPatient(patients)

	req := httptest.NewRequest(http.MethodGet, "/?date=2026-03-14", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId")
	c.SetParamValues(p.ID.String())

	err := h.Aggregate(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var agg DayAggregate
	json.Unmarshal(rec.Body.Bytes(), &agg)
	if agg.Breakfast.Items != "" || agg.Lunch.Items != "" || agg.Dinner.Items != "" {
		t.Errorf("expected empty consolidations for untouched day, got %+v", agg)
	}
}

func TestHandler_Aggregate_BadSource(t *testing.T) {
	h, e, patients := newTestHandler()
	p := admitTestPatient(patients)

	req := httptest.NewRequest(http.MethodGet, "/?source=kitchen", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId")
	c.SetParamValues(p.ID.String())

	err := h.Aggregate(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown source, got %v", err)
	}
}

func TestHandler_CreateOrder_UnknownPatient(t *testing.T) {
	h, e, _ := newTestHandler()

	body := `{"patient_id":"` + uuid.New().String() + `","meal":"lunch","order_date":"2026-03-14T00:00:00Z","items":[{"item_id":"` + uuid.New().String() + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateOrder(c)
	if httpStatus(err) != http.StatusNotFound {
		t.Errorf("expected 404 for unknown patient, got %v", err)
	}
}

func TestHandler_GetOrder_NotFound(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetOrder(c)
	if httpStatus(err) != http.StatusNotFound {
		t.Errorf("expected 404 for unknown order, got %v", err)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e, _ := newTestHandler()
	api := e.Group("/api/v1")

	h.RegisterRoutes(api)

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Method+":"+r.Path] = true
	}

	expected := []string{
		"GET:/api/v1/orders",
		"GET:/api/v1/orders/:id",
		"GET:/api/v1/aggregates/:patientId",
		"GET:/api/v1/finalized",
		"GET:/api/v1/finalized/:id",
		"POST:/api/v1/orders",
		"POST:/api/v1/finalized",
		"DELETE:/api/v1/finalized/:id",
	}
	for _, path := range expected {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
