package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dietary/dietary/internal/domain/patient"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateOrder is returned when a finalized order already
	// exists for the bed and date. Finalization is at-most-once per
	// bed per day; correcting a mistake means deleting first.
	ErrDuplicateOrder = errors.New("finalized order already exists for this bed and date")
)

// Repository persists normalized meal orders and their line items.
type Repository interface {
	// Create inserts the order and its items. Callers wanting both
	// writes atomic wrap the call in a transaction.
	Create(ctx context.Context, o *MealOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*MealOrder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetComplete(ctx context.Context, id uuid.UUID, complete bool) error
	ListByPatientDate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*MealOrder, error)
	// Aggregate joins orders, line items and the catalog for one
	// patient and date, ordered by category then name,
	// case-insensitive.
	Aggregate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]AggregatedItem, error)
}

// FinalizedRepository persists immutable finalized orders.
type FinalizedRepository interface {
	// Insert writes the snapshot. A bed/date collision surfaces as
	// ErrDuplicateOrder off the unique constraint.
	Insert(ctx context.Context, f *FinalizedOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*FinalizedOrder, error)
	ExistsForBed(ctx context.Context, wing, room string, date time.Time) (bool, error)
	ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]*FinalizedOrder, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PatientSource resolves patients without binding this package to the
// patient service. Implemented by an adapter in cmd/dietary-server.
type PatientSource interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// SelectionSource reads a patient's recorded day selections.
type SelectionSource interface {
	DaySelections(ctx context.Context, patientID uuid.UUID, date time.Time) (*patient.DayState, error)
}
