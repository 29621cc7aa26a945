package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dietary/dietary/internal/domain/patient"
)

type mockOrderRepo struct {
	orders map[uuid.UUID]*MealOrder
	agg    []AggregatedItem
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*MealOrder)}
}

func (m *mockOrderRepo) Create(ctx context.Context, o *MealOrder) error {
	o.ID = uuid.New()
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*MealOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) SetComplete(ctx context.Context, id uuid.UUID, complete bool) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Complete = complete
	return nil
}

func (m *mockOrderRepo) ListByPatientDate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*MealOrder, error) {
	var out []*MealOrder
	for _, o := range m.orders {
		if o.PatientID == patientID && o.OrderDate.Equal(date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) Aggregate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]AggregatedItem, error) {
	return m.agg, nil
}

type bedKey struct {
	wing, room, date string
}

type mockFinalizedRepo struct {
	byID  map[uuid.UUID]*FinalizedOrder
	byBed map[bedKey]uuid.UUID
}

func newMockFinalizedRepo() *mockFinalizedRepo {
	return &mockFinalizedRepo{
		byID:  make(map[uuid.UUID]*FinalizedOrder),
		byBed: make(map[bedKey]uuid.UUID),
	}
}

func (m *mockFinalizedRepo) key(wing, room string, date time.Time) bedKey {
	return bedKey{wing: wing, room: room, date: date.Format("2006-01-02")}
}

func (m *mockFinalizedRepo) Insert(ctx context.Context, f *FinalizedOrder) error {
	k := m.key(f.Wing, f.Room, f.OrderDate)
	if _, ok := m.byBed[k]; ok {
		return ErrDuplicateOrder
	}
	f.ID = uuid.New()
	copied := *f
	m.byID[f.ID] = &copied
	m.byBed[k] = f.ID
	return nil
}

func (m *mockFinalizedRepo) GetByID(ctx context.Context, id uuid.UUID) (*FinalizedOrder, error) {
	f, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

func (m *mockFinalizedRepo) ExistsForBed(ctx context.Context, wing, room string, date time.Time) (bool, error) {
	_, ok := m.byBed[m.key(wing, room, date)]
	return ok, nil
}

func (m *mockFinalizedRepo) ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]*FinalizedOrder, int, error) {
	var out []*FinalizedOrder
	for _, f := range m.byID {
		if f.OrderDate.Equal(date) {
			out = append(out, f)
		}
	}
	return out, len(out), nil
}

func (m *mockFinalizedRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byBed, m.key(f.Wing, f.Room, f.OrderDate))
	delete(m.byID, id)
	return nil
}

type mockPatientSource struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatientSource) Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

type mockSelectionSource struct {
	days map[uuid.UUID]*patient.DayState
}

func (m *mockSelectionSource) DaySelections(ctx context.Context, patientID uuid.UUID, date time.Time) (*patient.DayState, error) {
	if state, ok := m.days[patientID]; ok {
		return state, nil
	}
	return &patient.DayState{PatientID: patientID, ServiceDate: date}, nil
}

var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockOrderRepo, *mockFinalizedRepo, *mockPatientSource, *mockSelectionSource) {
	orders := newMockOrderRepo()
	finalized := newMockFinalizedRepo()
	patients := &mockPatientSource{patients: make(map[uuid.UUID]*patient.Patient)}
	selections := &mockSelectionSource{days: make(map[uuid.UUID]*patient.DayState)}
	svc := NewService(orders, finalized, patients, selections, nil)
	return svc, orders, finalized, patients, selections
}

func admitTestPatient(patients *mockPatientSource) *patient.Patient {
	p := &patient.Patient{
		ID:        uuid.New(),
		FirstName: "Jane",
		LastName:  "Doe",
		Wing:      "North",
		Room:      "101",
		Diet: patient.DietProfile{
			DietType:         "Cardiac",
			ADADiet:          true,
			FluidRestriction: patient.Fluid1500ml,
			Textures:         patient.TextureFlags{MechanicalChopped: true},
			ExtraGravy:       true,
		},
	}
	patients.patients[p.ID] = p
	return p
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _, _, patients, _ := newTestService()
	p := admitTestPatient(patients)
	ctx := context.Background()
	itemID := uuid.New()

	cases := []struct {
		name  string
		order MealOrder
	}{
		{"missing patient", MealOrder{Meal: patient.MealLunch, OrderDate: testDay, Items: []OrderItem{{ItemID: itemID}}}},
		{"invalid meal", MealOrder{PatientID: p.ID, Meal: "brunch", OrderDate: testDay, Items: []OrderItem{{ItemID: itemID}}}},
		{"missing date", MealOrder{PatientID: p.ID, Meal: patient.MealLunch, Items: []OrderItem{{ItemID: itemID}}}},
		{"no items", MealOrder{PatientID: p.ID, Meal: patient.MealLunch, OrderDate: testDay}},
	}
	for _, tc := range cases {
		o := tc.order
		if err := svc.CreateOrder(ctx, &o); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestCreateOrder_DefaultsQuantity(t *testing.T) {
	svc, _, _, patients, _ := newTestService()
	p := admitTestPatient(patients)

	o := MealOrder{
		PatientID: p.ID,
		Meal:      patient.MealDinner,
		OrderDate: testDay,
		Items:     []OrderItem{{ItemID: uuid.New()}},
	}
	if err := svc.CreateOrder(context.Background(), &o); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if o.Items[0].Quantity != 1 {
		t.Errorf("expected default quantity 1, got %d", o.Items[0].Quantity)
	}
	if o.Items[0].OrderID != o.ID {
		t.Error("expected line item to reference its order")
	}
}

func TestAggregateSelections_EmptyDayIsNotError(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	agg, err := svc.AggregateSelections(context.Background(), uuid.New(), testDay)
	if err != nil {
		t.Fatalf("empty day must aggregate, not fail: %v", err)
	}
	if agg.Breakfast.Items != "" || agg.Lunch.Items != "" || agg.Dinner.Items != "" {
		t.Error("expected empty consolidations for a day with no selections")
	}
}

func TestAggregateSelections(t *testing.T) {
	svc, _, _, _, selections := newTestService()
	patientID := uuid.New()
	selections.days[patientID] = &patient.DayState{
		PatientID:   patientID,
		ServiceDate: testDay,
		Breakfast: patient.MealSelection{
			Items: "Oatmeal, Toast", Juices: "Orange", Drinks: "Coffee",
		},
		Lunch: patient.MealSelection{Items: "Turkey Sandwich"},
	}

	agg, err := svc.AggregateSelections(context.Background(), patientID, testDay)
	if err != nil {
		t.Fatalf("AggregateSelections failed: %v", err)
	}
	if agg.Breakfast.Items != "Oatmeal, Toast" || agg.Breakfast.Juices != "Orange" {
		t.Errorf("unexpected breakfast consolidation: %+v", agg.Breakfast)
	}
	if agg.Lunch.Items != "Turkey Sandwich" {
		t.Errorf("unexpected lunch consolidation: %+v", agg.Lunch)
	}
	if agg.Dinner.Items != "" {
		t.Error("expected empty dinner")
	}
}

func TestAggregateOrders_RoutesCategories(t *testing.T) {
	svc, orders, _, _, _ := newTestService()
	patientID := uuid.New()
	// Rows arrive pre-sorted by category then name, as the join emits.
	orders.agg = []AggregatedItem{
		{Meal: patient.MealLunch, Name: "Coffee", Category: "Beverage", Quantity: 1},
		{Meal: patient.MealLunch, Name: "Grilled Chicken", Category: "entree", Quantity: 1},
		{Meal: patient.MealLunch, Name: "Apple Juice", Category: "Juice", Quantity: 1},
		{Meal: patient.MealLunch, Name: "Mashed Potatoes", Category: "side", Quantity: 1},
	}

	agg, err := svc.AggregateOrders(context.Background(), patientID, testDay)
	if err != nil {
		t.Fatalf("AggregateOrders failed: %v", err)
	}
	if agg.Lunch.Items != "Grilled Chicken, Mashed Potatoes" {
		t.Errorf("unexpected items: %q", agg.Lunch.Items)
	}
	if agg.Lunch.Juices != "Apple Juice" {
		t.Errorf("unexpected juices: %q", agg.Lunch.Juices)
	}
	if agg.Lunch.Drinks != "Coffee" {
		t.Errorf("unexpected drinks: %q", agg.Lunch.Drinks)
	}
	if agg.Breakfast.Items != "" {
		t.Error("expected empty breakfast")
	}
}

func TestFinalize_SnapshotsProfileAndSelections(t *testing.T) {
	svc, _, _, patients, selections := newTestService()
	p := admitTestPatient(patients)
	selections.days[p.ID] = &patient.DayState{
		PatientID:   p.ID,
		ServiceDate: testDay,
		Breakfast:   patient.MealSelection{NPO: true},
		Lunch:       patient.MealSelection{Items: "Baked Fish", Drinks: "Tea", Complete: true},
		Dinner:      patient.MealSelection{Items: "Soup", Complete: true},
	}
	ctx := context.Background()

	id, err := svc.Finalize(ctx, p.ID, testDay, "clerk-1")
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	f, err := svc.GetFinalized(ctx, id)
	if err != nil {
		t.Fatalf("GetFinalized failed: %v", err)
	}
	if f.PatientName != "Jane Doe" || f.Wing != "North" || f.Room != "101" {
		t.Errorf("unexpected identity snapshot: %+v", f)
	}
	if f.DietType != "Cardiac" || f.FluidRestriction != patient.Fluid1500ml {
		t.Errorf("unexpected diet snapshot: %+v", f)
	}
	if !f.Textures.MechanicalChopped || !f.ExtraGravy {
		t.Error("expected texture flags and extra gravy to be snapshotted")
	}
	if f.Lunch.Items != "Baked Fish" || f.Lunch.Drinks != "Tea" {
		t.Errorf("unexpected lunch snapshot: %+v", f.Lunch)
	}
	if f.CreatedBy != "clerk-1" {
		t.Errorf("unexpected created_by: %q", f.CreatedBy)
	}
}

func TestFinalize_ImmuneToLaterProfileEdits(t *testing.T) {
	svc, _, _, patients, _ := newTestService()
	p := admitTestPatient(patients)
	ctx := context.Background()

	id, err := svc.Finalize(ctx, p.ID, testDay, "clerk-1")
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	p.Diet.DietType = "Renal"
	p.Diet.FluidRestriction = patient.Fluid1000ml

	f, err := svc.GetFinalized(ctx, id)
	if err != nil {
		t.Fatalf("GetFinalized failed: %v", err)
	}
	if f.DietType != "Cardiac" || f.FluidRestriction != patient.Fluid1500ml {
		t.Error("finalized order must not reflect later profile edits")
	}
}

func TestFinalize_DuplicateBedDate(t *testing.T) {
	svc, _, _, patients, _ := newTestService()
	p := admitTestPatient(patients)
	ctx := context.Background()

	if _, err := svc.Finalize(ctx, p.ID, testDay, "clerk-1"); err != nil {
		t.Fatalf("first Finalize failed: %v", err)
	}
	if _, err := svc.Finalize(ctx, p.ID, testDay, "clerk-2"); !errors.Is(err, ErrDuplicateOrder) {
		t.Errorf("expected ErrDuplicateOrder, got %v", err)
	}

	// A different day for the same bed is fine.
	nextDay := testDay.AddDate(0, 0, 1)
	if _, err := svc.Finalize(ctx, p.ID, nextDay, "clerk-1"); err != nil {
		t.Errorf("next-day Finalize failed: %v", err)
	}
}

func TestFinalize_UnknownPatient(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Finalize(context.Background(), uuid.New(), testDay, "clerk-1")
	if !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected patient.ErrNotFound, got %v", err)
	}
}

func TestDeleteFinalized_AllowsRefinalize(t *testing.T) {
	svc, _, _, patients, _ := newTestService()
	p := admitTestPatient(patients)
	ctx := context.Background()

	id, err := svc.Finalize(ctx, p.ID, testDay, "clerk-1")
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := svc.DeleteFinalized(ctx, id); err != nil {
		t.Fatalf("DeleteFinalized failed: %v", err)
	}
	if _, err := svc.Finalize(ctx, p.ID, testDay, "clerk-1"); err != nil {
		t.Errorf("re-finalize after delete failed: %v", err)
	}
}

func TestCompleteOrder(t *testing.T) {
	svc, orders, _, patients, _ := newTestService()
	p := admitTestPatient(patients)
	ctx := context.Background()

	o := MealOrder{
		PatientID: p.ID,
		Meal:      patient.MealBreakfast,
		OrderDate: testDay,
		Items:     []OrderItem{{ItemID: uuid.New(), Quantity: 2}},
	}
	if err := svc.CreateOrder(ctx, &o); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if err := svc.CompleteOrder(ctx, o.ID); err != nil {
		t.Fatalf("CompleteOrder failed: %v", err)
	}
	if !orders.orders[o.ID].Complete {
		t.Error("expected order to be complete")
	}
}
