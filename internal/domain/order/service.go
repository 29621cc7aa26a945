package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dietary/dietary/internal/domain/patient"
	"github.com/dietary/dietary/internal/platform/db"
)

// Service aggregates meal selections into kitchen orders and produces
// the immutable finalized tray tickets.
type Service struct {
	orders     Repository
	finalized  FinalizedRepository
	patients   PatientSource
	selections SelectionSource
	pool       *pgxpool.Pool
}

func NewService(orders Repository, finalized FinalizedRepository, patients PatientSource, selections SelectionSource, pool *pgxpool.Pool) *Service {
	return &Service{
		orders:     orders,
		finalized:  finalized,
		patients:   patients,
		selections: selections,
		pool:       pool,
	}
}

func orderDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CreateOrder records a normalized meal order with its line items in
// one transaction.
func (s *Service) CreateOrder(ctx context.Context, o *MealOrder) error {
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if _, err := patient.ParseMeal(string(o.Meal)); err != nil {
		return err
	}
	if o.OrderDate.IsZero() {
		return fmt.Errorf("order_date is required")
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i := range o.Items {
		if o.Items[i].ItemID == uuid.Nil {
			return fmt.Errorf("item_id is required on every line")
		}
		if o.Items[i].Quantity <= 0 {
			o.Items[i].Quantity = 1
		}
	}
	if _, err := s.patients.Get(ctx, o.PatientID); err != nil {
		return err
	}
	o.OrderDate = orderDay(o.OrderDate)
	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		return s.orders.Create(ctx, o)
	})
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*MealOrder, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return s.orders.Delete(ctx, id)
}

func (s *Service) CompleteOrder(ctx context.Context, id uuid.UUID) error {
	return s.orders.SetComplete(ctx, id, true)
}

func (s *Service) ListOrdersByPatientDate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*MealOrder, error) {
	return s.orders.ListByPatientDate(ctx, patientID, orderDay(date))
}

// juiceCategories and drinkCategories route aggregated catalog rows
// into the juice and drink columns of a tray ticket.
var (
	juiceCategories = map[string]bool{"juice": true}
	drinkCategories = map[string]bool{"beverage": true, "drink": true}
)

// AggregateSelections consolidates the free-text selection rows for a
// patient and date. This is the strategy the tray line uses and the
// one finalization snapshots from. Absent rows aggregate to empty.
func (s *Service) AggregateSelections(ctx context.Context, patientID uuid.UUID, date time.Time) (*DayAggregate, error) {
	day := orderDay(date)
	state, err := s.selections.DaySelections(ctx, patientID, day)
	if err != nil {
		return nil, err
	}
	agg := &DayAggregate{PatientID: patientID, OrderDate: day}
	agg.Breakfast = consolidationFromSelection(&state.Breakfast)
	agg.Lunch = consolidationFromSelection(&state.Lunch)
	agg.Dinner = consolidationFromSelection(&state.Dinner)
	return agg, nil
}

func consolidationFromSelection(sel *patient.MealSelection) MealConsolidation {
	return MealConsolidation{
		Items:  sel.Items,
		Juices: sel.Juices,
		Drinks: sel.Drinks,
	}
}

// AggregateOrders consolidates the normalized order rows for a patient
// and date: items joined to the catalog, grouped per meal, names
// comma-joined in category-then-name order. This is the strategy the
// reporting screens use.
func (s *Service) AggregateOrders(ctx context.Context, patientID uuid.UUID, date time.Time) (*DayAggregate, error) {
	day := orderDay(date)
	rows, err := s.orders.Aggregate(ctx, patientID, day)
	if err != nil {
		return nil, err
	}

	type lists struct{ items, juices, drinks []string }
	perMeal := map[patient.Meal]*lists{}
	for _, meal := range patient.Meals {
		perMeal[meal] = &lists{}
	}
	for _, row := range rows {
		l, ok := perMeal[row.Meal]
		if !ok {
			continue
		}
		switch category := strings.ToLower(row.Category); {
		case juiceCategories[category]:
			l.juices = append(l.juices, row.Name)
		case drinkCategories[category]:
			l.drinks = append(l.drinks, row.Name)
		default:
			l.items = append(l.items, row.Name)
		}
	}

	consolidate := func(meal patient.Meal) MealConsolidation {
		l := perMeal[meal]
		return MealConsolidation{
			Items:  strings.Join(l.items, ", "),
			Juices: strings.Join(l.juices, ", "),
			Drinks: strings.Join(l.drinks, ", "),
		}
	}
	return &DayAggregate{
		PatientID: patientID,
		OrderDate: day,
		Breakfast: consolidate(patient.MealBreakfast),
		Lunch:     consolidate(patient.MealLunch),
		Dinner:    consolidate(patient.MealDinner),
	}, nil
}

// Finalize snapshots a patient's diet prescription and day selections
// into an immutable finalized order. At most one finalized order can
// exist per bed per day: the pre-check catches the common case and the
// unique constraint on (wing, room, order_date) is the enforcement,
// both surfacing as ErrDuplicateOrder. The whole operation runs in one
// transaction.
func (s *Service) Finalize(ctx context.Context, patientID uuid.UUID, date time.Time, createdBy string) (uuid.UUID, error) {
	day := orderDay(date)
	var id uuid.UUID
	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		p, err := s.patients.Get(ctx, patientID)
		if err != nil {
			return err
		}
		exists, err := s.finalized.ExistsForBed(ctx, p.Wing, p.Room, day)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateOrder
		}
		agg, err := s.AggregateSelections(ctx, patientID, day)
		if err != nil {
			return err
		}
		f := &FinalizedOrder{
			PatientName:      p.FullName(),
			Wing:             p.Wing,
			Room:             p.Room,
			OrderDate:        day,
			DietType:         p.Diet.DietType,
			FluidRestriction: p.Diet.FluidRestriction,
			Textures:         p.Diet.Textures,
			ExtraGravy:       p.Diet.ExtraGravy,
			Breakfast:        agg.Breakfast,
			Lunch:            agg.Lunch,
			Dinner:           agg.Dinner,
			CreatedBy:        createdBy,
		}
		if err := s.finalized.Insert(ctx, f); err != nil {
			return err
		}
		id = f.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Service) GetFinalized(ctx context.Context, id uuid.UUID) (*FinalizedOrder, error) {
	return s.finalized.GetByID(ctx, id)
}

func (s *Service) ListFinalizedByDate(ctx context.Context, date time.Time, limit, offset int) ([]*FinalizedOrder, int, error) {
	return s.finalized.ListByDate(ctx, orderDay(date), limit, offset)
}

// DeleteFinalized is the explicit correction path. Finalize never
// overwrites; a wrong ticket is deleted and finalized again.
func (s *Service) DeleteFinalized(ctx context.Context, id uuid.UUID) error {
	return s.finalized.Delete(ctx, id)
}
