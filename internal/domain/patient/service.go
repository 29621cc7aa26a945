package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dietary/dietary/internal/domain/catalog"
	"github.com/dietary/dietary/internal/platform/db"
)

// CatalogSource provides the active food catalog. Implemented by an
// adapter over the catalog repository in cmd/dietary-server.
type CatalogSource interface {
	ActiveItems(ctx context.Context) ([]*catalog.Item, error)
}

// Service holds the business logic for patients, diet profiles and
// per-meal selections.
type Service struct {
	repo       Repository
	selections SelectionRepository
	items      CatalogSource
	rules      DietRules
	pool       *pgxpool.Pool
}

func NewService(repo Repository, selections SelectionRepository, items CatalogSource, rules DietRules, pool *pgxpool.Pool) *Service {
	return &Service{
		repo:       repo,
		selections: selections,
		items:      items,
		rules:      rules,
		pool:       pool,
	}
}

// serviceDay normalizes a timestamp to the care day it belongs to.
// Selection rows are keyed by day, never by clock time.
func serviceDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if p.Wing == "" {
		return fmt.Errorf("wing is required")
	}
	if p.Room == "" {
		return fmt.Errorf("room is required")
	}
	if p.Diet.FluidRestriction == "" {
		p.Diet.FluidRestriction = FluidNone
	}
	if _, err := ParseFluidRestriction(string(p.Diet.FluidRestriction)); err != nil {
		return err
	}
	if p.AdmittedAt.IsZero() {
		p.AdmittedAt = time.Now()
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetPatientByLocation(ctx context.Context, wing, room string) (*Patient, error) {
	if wing == "" || room == "" {
		return nil, fmt.Errorf("wing and room are required")
	}
	return s.repo.GetByLocation(ctx, wing, room)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if p.Wing == "" || p.Room == "" {
		return fmt.Errorf("wing and room are required")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) UpdateDietProfile(ctx context.Context, id uuid.UUID, diet *DietProfile) error {
	if diet.FluidRestriction == "" {
		diet.FluidRestriction = FluidNone
	}
	if _, err := ParseFluidRestriction(string(diet.FluidRestriction)); err != nil {
		return err
	}
	return s.repo.UpdateDietProfile(ctx, id, diet)
}

// DischargePatient removes the patient record, freeing the bed.
// Finalized orders referencing the bed are snapshots and survive.
func (s *Service) DischargePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListPatientsByWing(ctx context.Context, wing string, limit, offset int) ([]*Patient, int, error) {
	if wing == "" {
		return nil, 0, fmt.Errorf("wing is required")
	}
	return s.repo.ListByWing(ctx, wing, limit, offset)
}

// RecordSelection replaces the recorded tray text for one meal.
// Completion and NPO state is never touched here; a ward clerk can
// keep editing a tray until it is marked complete.
func (s *Service) RecordSelection(ctx context.Context, sel *MealSelection) error {
	if sel.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if _, err := ParseMeal(string(sel.Meal)); err != nil {
		return err
	}
	if sel.ServiceDate.IsZero() {
		return fmt.Errorf("service_date is required")
	}
	if _, err := s.repo.GetByID(ctx, sel.PatientID); err != nil {
		return err
	}
	sel.ServiceDate = serviceDay(sel.ServiceDate)
	return s.selections.UpsertSelection(ctx, sel)
}

// MarkComplete flags one meal as done. Idempotent.
func (s *Service) MarkComplete(ctx context.Context, patientID uuid.UUID, date time.Time, meal Meal) error {
	if _, err := ParseMeal(string(meal)); err != nil {
		return err
	}
	return s.selections.SetComplete(ctx, patientID, serviceDay(date), meal, true)
}

// MarkNPO sets or clears nil-per-os for one meal. Recorded tray text
// is preserved so clearing NPO restores the prior selection.
func (s *Service) MarkNPO(ctx context.Context, patientID uuid.UUID, date time.Time, meal Meal, npo bool) error {
	if _, err := ParseMeal(string(meal)); err != nil {
		return err
	}
	return s.selections.SetNPO(ctx, patientID, serviceDay(date), meal, npo)
}

// ResetMealStatus bulk-sets the day's three completion flags in one
// transaction, for the "mark all done" ward actions.
func (s *Service) ResetMealStatus(ctx context.Context, patientID uuid.UUID, date time.Time, breakfast, lunch, dinner bool) error {
	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		return s.selections.SetDayComplete(ctx, patientID, serviceDay(date), breakfast, lunch, dinner)
	})
}

// DaySelections returns the full day state for a patient. Meals with
// no recorded row come back as zero values: empty and unsatisfied.
func (s *Service) DaySelections(ctx context.Context, patientID uuid.UUID, date time.Time) (*DayState, error) {
	day := serviceDay(date)
	rows, err := s.selections.ListDay(ctx, patientID, day)
	if err != nil {
		return nil, err
	}
	state := &DayState{PatientID: patientID, ServiceDate: day}
	for _, row := range rows {
		*state.Selection(row.Meal) = *row
	}
	return state, nil
}

// SelectableItems filters the active catalog through the patient's
// diet profile for one meal. This shapes what the ordering screen
// offers; it never invalidates selections already on file.
func (s *Service) SelectableItems(ctx context.Context, patientID uuid.UUID, meal Meal) ([]*catalog.Item, error) {
	if _, err := ParseMeal(string(meal)); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ActiveItems(ctx)
	if err != nil {
		return nil, err
	}
	var out []*catalog.Item
	for _, item := range items {
		if s.rules.ItemSelectable(&p.Diet, item, meal) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Service) PendingPatients(ctx context.Context, date time.Time, limit, offset int) ([]*Patient, int, error) {
	return s.selections.ListPending(ctx, serviceDay(date), limit, offset)
}

func (s *Service) CompletedPatients(ctx context.Context, date time.Time, limit, offset int) ([]*Patient, int, error) {
	return s.selections.ListCompleted(ctx, serviceDay(date), limit, offset)
}

func (s *Service) PendingCount(ctx context.Context, date time.Time) (int, error) {
	return s.selections.PendingCount(ctx, serviceDay(date))
}

func (s *Service) CompletedCount(ctx context.Context, date time.Time) (int, error) {
	return s.selections.CompletedCount(ctx, serviceDay(date))
}

// CheckTextures applies the opt-in mechanical texture policy.
func (s *Service) CheckTextures(profile *DietProfile) error {
	return s.rules.ValidateTextures(profile)
}
