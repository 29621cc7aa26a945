package order

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dietary/dietary/internal/domain/patient"
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
	readGroup := api.Group("", auth.RequireRole("admin", "dietary", "kitchen"))
	readGroup.GET("/orders", h.ListOrders)
	readGroup.GET("/orders/:id", h.GetOrder)
	readGroup.GET("/aggregates/:patientId", h.Aggregate)
	readGroup.GET("/finalized", h.ListFinalized)
	readGroup.GET("/finalized/:id", h.GetFinalized)

	writeGroup := api.Group("", auth.RequireRole("admin", "dietary"))
	writeGroup.POST("/orders", h.CreateOrder)
	writeGroup.POST("/orders/:id/complete", h.CompleteOrder)
	writeGroup.DELETE("/orders/:id", h.DeleteOrder)
	writeGroup.POST("/finalized", h.Finalize)
	writeGroup.DELETE("/finalized/:id", h.DeleteFinalized)
}

func dateParam(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var o MealOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if o.CreatedBy == "" {
		o.CreatedBy = auth.UserIDFromContext(c.Request().Context())
	}
	if err := h.svc.CreateOrder(c.Request().Context(), &o); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.GetOrder(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteOrder(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CompleteOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.CompleteOrder(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListOrders(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	date, err := dateParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	orders, err := h.svc.ListOrdersByPatientDate(c.Request().Context(), patientID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, orders)
}

// Aggregate consolidates a patient's day. The source query parameter
// picks the strategy: "selections" (default, tray line) or "orders"
// (normalized, reporting).
func (h *Handler) Aggregate(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	date, err := dateParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	ctx := c.Request().Context()

	var agg *DayAggregate
	switch c.QueryParam("source") {
	case "", "selections":
		agg, err = h.svc.AggregateSelections(ctx, patientID, date)
	case "orders":
		agg, err = h.svc.AggregateOrders(ctx, patientID, date)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "source must be selections or orders")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, agg)
}

func (h *Handler) Finalize(c echo.Context) error {
	var body struct {
		PatientID uuid.UUID `json:"patient_id"`
		Date      string    `json:"date"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	date := time.Now()
	if body.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", body.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
	}
	createdBy := auth.UserIDFromContext(c.Request().Context())

	id, err := h.svc.Finalize(c.Request().Context(), body.PatientID, date, createdBy)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateOrder):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, patient.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *Handler) GetFinalized(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	f, err := h.svc.GetFinalized(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "finalized order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) ListFinalized(c echo.Context) error {
	date, err := dateParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	pg := pagination.FromContext(c)
	orders, total, err := h.svc.ListFinalizedByDate(c.Request().Context(), date, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteFinalized(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteFinalized(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "finalized order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
