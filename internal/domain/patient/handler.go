package patient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dietary/dietary/internal/platform/auth"
	"github.com/dietary/dietary/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Admission, discharge and diet orders – dietary office only
	adminGroup := api.Group("", auth.RequireRole("admin", "dietary"))
	adminGroup.POST("/patients", h.CreatePatient)
	adminGroup.PUT("/patients/:id", h.UpdatePatient)
	adminGroup.DELETE("/patients/:id", h.DischargePatient)
	adminGroup.PUT("/patients/:id/diet", h.UpdateDietProfile)

	// Daily selection workflow – ward clerks included
	wardGroup := api.Group("", auth.RequireRole("admin", "dietary", "nurse"))
	wardGroup.GET("/patients", h.ListPatients)
	wardGroup.GET("/patients/pending", h.ListPending)
	wardGroup.GET("/patients/completed", h.ListCompleted)
	wardGroup.GET("/patients/counts", h.WorklistCounts)
	wardGroup.GET("/patients/:id", h.GetPatient)
	wardGroup.GET("/patients/:id/selectable-items", h.SelectableItems)
	wardGroup.GET("/patients/:id/selections", h.DaySelections)
	wardGroup.PUT("/patients/:id/selections/:meal", h.RecordSelection)
	wardGroup.POST("/patients/:id/selections/:meal/complete", h.MarkComplete)
	wardGroup.POST("/patients/:id/selections/:meal/npo", h.MarkNPO)
	wardGroup.POST("/patients/:id/selections/reset", h.ResetMealStatus)
}

// dateParam reads the service date from the "date" query parameter,
// defaulting to today.
func dateParam(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func patientID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrLocationTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePatient(c.Request().Context(), &p); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		case errors.Is(err, ErrLocationTaken):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateDietProfile(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var diet DietProfile
	if err := c.Bind(&diet); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateDietProfile(c.Request().Context(), id, &diet); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, diet)
}

func (h *Handler) DischargePatient(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DischargePatient(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	var (
		patients []*Patient
		total    int
		err      error
	)
	if wing := c.QueryParam("wing"); wing != "" {
		patients, total, err = h.svc.ListPatientsByWing(ctx, wing, pg.Limit, pg.Offset)
	} else {
		patients, total, err = h.svc.ListPatients(ctx, pg.Limit, pg.Offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPending(c echo.Context) error {
	return h.listWorklist(c, h.svc.PendingPatients)
}

func (h *Handler) ListCompleted(c echo.Context) error {
	return h.listWorklist(c, h.svc.CompletedPatients)
}

func (h *Handler) listWorklist(c echo.Context, list func(ctx context.Context, date time.Time, limit, offset int) ([]*Patient, int, error)) error {
	date, err := dateParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	pg := pagination.FromContext(c)
	patients, total, err := list(c.Request().Context(), date, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) WorklistCounts(c echo.Context) error {
	date, err := dateParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	ctx := c.Request().Context()
	pending, err := h.svc.PendingCount(ctx, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	completed, err := h.svc.CompletedCount(ctx, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{
		"pending":   pending,
		"completed": completed,
	})
}

func (h *Handler) SelectableItems(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	meal, err := ParseMeal(c.QueryParam("meal"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.SelectableItems(c.Request().Context(), id, meal)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DaySelections(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	date, err := dateParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	state, err := h.svc.DaySelections(c.Request().Context(), id, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) RecordSelection(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var sel MealSelection
	if err := c.Bind(&sel); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sel.PatientID = id
	sel.Meal = Meal(c.Param("meal"))
	if sel.ServiceDate.IsZero() {
		date, err := dateParam(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		sel.ServiceDate = date
	}
	if err := h.svc.RecordSelection(c.Request().Context(), &sel); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sel)
}

func (h *Handler) MarkComplete(c echo.Context) error {
	return h.setMealFlag(c, func(c echo.Context, id uuid.UUID, date time.Time, meal Meal) error {
		return h.svc.MarkComplete(c.Request().Context(), id, date, meal)
	})
}

func (h *Handler) MarkNPO(c echo.Context) error {
	return h.setMealFlag(c, func(c echo.Context, id uuid.UUID, date time.Time, meal Meal) error {
		var body struct {
			NPO bool `json:"npo"`
		}
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return h.svc.MarkNPO(c.Request().Context(), id, date, meal, body.NPO)
	})
}

func (h *Handler) setMealFlag(c echo.Context, apply func(c echo.Context, id uuid.UUID, date time.Time, meal Meal) error) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	meal, err := ParseMeal(c.Param("meal"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := dateParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	if err := apply(c, id, date, meal); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ResetMealStatus(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Date      string `json:"date"`
		Breakfast bool   `json:"breakfast"`
		Lunch     bool   `json:"lunch"`
		Dinner    bool   `json:"dinner"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date := time.Now()
	if body.Date != "" {
		date, err = time.Parse("2006-01-02", body.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
	}
	if err := h.svc.ResetMealStatus(c.Request().Context(), id, date, body.Breakfast, body.Lunch, body.Dinner); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
