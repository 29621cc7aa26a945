package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func TestHandler_CreateItem(t *testing.T) {
	h, e := newTestHandler()

	body := `{"name":"Grilled Chicken","category":"entree","ada_friendly":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateItem(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var item Item
	json.Unmarshal(rec.Body.Bytes(), &item)
	if item.Name != "Grilled Chicken" {
		t.Errorf("expected 'Grilled Chicken', got %s", item.Name)
	}
}

func TestHandler_CreateItem_MissingName(t *testing.T) {
	h, e := newTestHandler()

	body := `{"category":"entree"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateItem(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %v", err)
	}
}

func TestHandler_GetItem_NotFound(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetItem(c)
	if httpStatus(err) != http.StatusNotFound {
		t.Errorf("expected 404 for unknown item, got %v", err)
	}
}

func TestHandler_GetItem_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetItem(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid id, got %v", err)
	}
}

func TestHandler_DeactivateItem(t *testing.T) {
	h, e := newTestHandler()

	item := &Item{Name: "Jello", Category: "dessert"}
	h.svc.CreateItem(context.Background(), item)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID.String())

	err := h.DeactivateItem(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_ListItems(t *testing.T) {
	h, e := newTestHandler()

	h.svc.CreateItem(context.Background(), &Item{Name: "Apple Juice", Category: "juice"})
	h.svc.CreateItem(context.Background(), &Item{Name: "Mashed Potatoes", Category: "side"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListItems(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler()
	api := e.Group("/api/v1")

	h.RegisterRoutes(api)

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Method+":"+r.Path] = true
	}

	expected := []string{
		"GET:/api/v1/items",
		"GET:/api/v1/items/:id",
		"POST:/api/v1/items",
		"PUT:/api/v1/items/:id",
		"DELETE:/api/v1/items/:id",
	}
	for _, path := range expected {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
