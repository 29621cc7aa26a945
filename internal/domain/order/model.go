package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/dietary/dietary/internal/domain/patient"
)

// MealOrder is a normalized kitchen order: one row per patient, meal
// and date, with line items referencing the food catalog. It feeds the
// reporting and export screens.
type MealOrder struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	PatientID uuid.UUID    `db:"patient_id" json:"patient_id"`
	Meal      patient.Meal `db:"meal" json:"meal"`
	OrderDate time.Time    `db:"order_date" json:"order_date"`
	Complete  bool         `db:"complete" json:"complete"`
	CreatedBy string       `db:"created_by" json:"created_by"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Items     []OrderItem  `json:"items,omitempty"`
}

// OrderItem is one catalog line on a meal order.
type OrderItem struct {
	ID       uuid.UUID `db:"id" json:"id"`
	OrderID  uuid.UUID `db:"order_id" json:"order_id"`
	ItemID   uuid.UUID `db:"item_id" json:"item_id"`
	Quantity int       `db:"quantity" json:"quantity"`
}

// MealConsolidation is the per-meal tray summary: comma-joined food,
// juice and drink lists.
type MealConsolidation struct {
	Items  string `json:"items"`
	Juices string `json:"juices"`
	Drinks string `json:"drinks"`
}

// DayAggregate is one patient's full day consolidated per meal. A
// patient with nothing on file for the date aggregates to empty
// consolidations, never an error.
type DayAggregate struct {
	PatientID uuid.UUID         `json:"patient_id"`
	OrderDate time.Time         `json:"order_date"`
	Breakfast MealConsolidation `json:"breakfast"`
	Lunch     MealConsolidation `json:"lunch"`
	Dinner    MealConsolidation `json:"dinner"`
}

// AggregatedItem is one row of the normalized aggregation join,
// already ordered by category then name, case-insensitive.
type AggregatedItem struct {
	Meal     patient.Meal
	Name     string
	Category string
	Quantity int
}

// FinalizedOrder is the immutable tray ticket handed to the kitchen:
// a snapshot of the patient's identity, diet prescription and per-meal
// selections at finalization time. Later chart edits never alter it;
// at most one exists per bed per day.
type FinalizedOrder struct {
	ID               uuid.UUID                `db:"id" json:"id"`
	PatientName      string                   `db:"patient_name" json:"patient_name"`
	Wing             string                   `db:"wing" json:"wing"`
	Room             string                   `db:"room" json:"room"`
	OrderDate        time.Time                `db:"order_date" json:"order_date"`
	DietType         string                   `db:"diet_type" json:"diet_type"`
	FluidRestriction patient.FluidRestriction `db:"fluid_restriction" json:"fluid_restriction"`
	Textures         patient.TextureFlags     `json:"textures"`
	ExtraGravy       bool                     `db:"extra_gravy" json:"extra_gravy"`
	Breakfast        MealConsolidation        `json:"breakfast"`
	Lunch            MealConsolidation        `json:"lunch"`
	Dinner           MealConsolidation        `json:"dinner"`
	CreatedBy        string                   `db:"created_by" json:"created_by"`
	CreatedAt        time.Time                `db:"created_at" json:"created_at"`
}
