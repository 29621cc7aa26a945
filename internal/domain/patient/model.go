package patient

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Meal identifies one of the three daily meal services.
type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
	MealDinner    Meal = "dinner"
)

// Meals lists the services of a care day in serving order.
var Meals = []Meal{MealBreakfast, MealLunch, MealDinner}

// ParseMeal validates a meal name from a route parameter or payload.
func ParseMeal(s string) (Meal, error) {
	switch Meal(s) {
	case MealBreakfast, MealLunch, MealDinner:
		return Meal(s), nil
	}
	return "", fmt.Errorf("invalid meal %q", s)
}

// FluidRestriction is the daily fluid intake cap prescribed for a patient.
type FluidRestriction string

const (
	FluidNone   FluidRestriction = "none"
	Fluid1000ml FluidRestriction = "1000ml"
	Fluid1500ml FluidRestriction = "1500ml"
	Fluid2000ml FluidRestriction = "2000ml"
)

// ParseFluidRestriction validates a fluid restriction value.
func ParseFluidRestriction(s string) (FluidRestriction, error) {
	switch FluidRestriction(s) {
	case FluidNone, Fluid1000ml, Fluid1500ml, Fluid2000ml:
		return FluidRestriction(s), nil
	}
	return "", fmt.Errorf("invalid fluid restriction %q", s)
}

// TextureFlags records food preparation instructions for the kitchen.
// They annotate the finalized order; they never filter the catalog.
type TextureFlags struct {
	MechanicalChopped bool `db:"mechanical_chopped" json:"mechanical_chopped"`
	MechanicalGround  bool `db:"mechanical_ground" json:"mechanical_ground"`
	BiteSize          bool `db:"bite_size" json:"bite_size"`
	BreadOK           bool `db:"bread_ok" json:"bread_ok"`
	NectarThick       bool `db:"nectar_thick" json:"nectar_thick"`
	HoneyThick        bool `db:"honey_thick" json:"honey_thick"`
	PuddingThick      bool `db:"pudding_thick" json:"pudding_thick"`
}

// DietProfile is the active dietary prescription for a patient.
type DietProfile struct {
	DietType         string           `db:"diet_type" json:"diet_type"`
	ADADiet          bool             `db:"ada_diet" json:"ada_diet"`
	FluidRestriction FluidRestriction `db:"fluid_restriction" json:"fluid_restriction"`
	Textures         TextureFlags     `json:"textures"`
	ExtraGravy       bool             `db:"extra_gravy" json:"extra_gravy"`
	MeatsOnly        bool             `db:"meats_only" json:"meats_only"`
	// Per-meal ADA overrides; nil inherits the patient-level flag.
	BreakfastADA *bool `db:"breakfast_ada" json:"breakfast_ada,omitempty"`
	LunchADA     *bool `db:"lunch_ada" json:"lunch_ada,omitempty"`
	DinnerADA    *bool `db:"dinner_ada" json:"dinner_ada,omitempty"`
}

// Patient is an admitted patient occupying one bed, identified by wing
// and room. A bed holds at most one patient at a time.
type Patient struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	FirstName  string      `db:"first_name" json:"first_name"`
	LastName   string      `db:"last_name" json:"last_name"`
	Wing       string      `db:"wing" json:"wing"`
	Room       string      `db:"room" json:"room"`
	Diet       DietProfile `json:"diet"`
	AdmittedAt time.Time   `db:"admitted_at" json:"admitted_at"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// FullName renders the patient's display name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// MealSelection is what a patient has chosen for one meal on one care
// day. Items, juices and drinks are the free-text lists carried between
// the tray line and the ward; NPO and Complete drive the worklist
// partition.
type MealSelection struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	ServiceDate time.Time `db:"service_date" json:"service_date"`
	Meal        Meal      `db:"meal" json:"meal"`
	Items       string    `db:"items" json:"items"`
	Juices      string    `db:"juices" json:"juices"`
	Drinks      string    `db:"drinks" json:"drinks"`
	NPO         bool      `db:"npo" json:"npo"`
	Complete    bool      `db:"complete" json:"complete"`
	// Optional per-meal diet override recorded by the ward.
	MealDiet  *string   `db:"meal_diet" json:"meal_diet,omitempty"`
	MealADA   *bool     `db:"meal_ada" json:"meal_ada,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Satisfied reports whether this meal no longer needs dietary
// attention: either a tray order was completed or the patient is NPO.
func (s *MealSelection) Satisfied() bool {
	return s.Complete || s.NPO
}

// DayState is the three meal selections of one patient for one care
// day. A meal with no recorded row is the zero value: empty and not
// satisfied.
type DayState struct {
	PatientID   uuid.UUID     `json:"patient_id"`
	ServiceDate time.Time     `json:"service_date"`
	Breakfast   MealSelection `json:"breakfast"`
	Lunch       MealSelection `json:"lunch"`
	Dinner      MealSelection `json:"dinner"`
}

// Pending reports whether any meal of the day still needs attention.
func (d *DayState) Pending() bool {
	return !(d.Breakfast.Satisfied() && d.Lunch.Satisfied() && d.Dinner.Satisfied())
}

// Selection returns the state for one meal of the day.
func (d *DayState) Selection(meal Meal) *MealSelection {
	switch meal {
	case MealBreakfast:
		return &d.Breakfast
	case MealLunch:
		return &d.Lunch
	default:
		return &d.Dinner
	}
}
