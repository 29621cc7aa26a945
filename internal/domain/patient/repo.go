package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a patient does not exist.
	ErrNotFound = errors.New("patient not found")
	// ErrLocationTaken is returned when a bed already holds a patient.
	ErrLocationTaken = errors.New("bed is already occupied")
)

// Repository persists patients and their diet profiles.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByLocation(ctx context.Context, wing, room string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	UpdateDietProfile(ctx context.Context, id uuid.UUID, diet *DietProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	ListByWing(ctx context.Context, wing string, limit, offset int) ([]*Patient, int, error)
}

// SelectionRepository persists per-meal selection rows keyed by
// (patient, service date, meal). Every write is an upsert so the first
// touch of a meal on a new care day creates its row.
type SelectionRepository interface {
	// UpsertSelection replaces the items/juices/drinks text and the
	// per-meal diet override. Completion and NPO flags are untouched.
	UpsertSelection(ctx context.Context, sel *MealSelection) error
	// SetComplete flips the completion flag without touching text.
	SetComplete(ctx context.Context, patientID uuid.UUID, date time.Time, meal Meal, complete bool) error
	// SetNPO flips the NPO flag. Recorded text survives so clearing
	// NPO restores the prior selection.
	SetNPO(ctx context.Context, patientID uuid.UUID, date time.Time, meal Meal, npo bool) error
	// SetDayComplete bulk-sets the three completion flags for a day.
	SetDayComplete(ctx context.Context, patientID uuid.UUID, date time.Time, breakfast, lunch, dinner bool) error
	Get(ctx context.Context, patientID uuid.UUID, date time.Time, meal Meal) (*MealSelection, error)
	ListDay(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*MealSelection, error)

	// Worklist queries. A patient is satisfied for a date when all
	// three meals are complete or NPO; anything less is pending.
	ListPending(ctx context.Context, date time.Time, limit, offset int) ([]*Patient, int, error)
	ListCompleted(ctx context.Context, date time.Time, limit, offset int) ([]*Patient, int, error)
	PendingCount(ctx context.Context, date time.Time) (int, error)
	CompletedCount(ctx context.Context, date time.Time) (int, error)
}
