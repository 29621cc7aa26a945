package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dietary/dietary/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed patient repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, first_name, last_name, wing, room,
	diet_type, ada_diet, fluid_restriction,
	mechanical_chopped, mechanical_ground, bite_size, bread_ok,
	nectar_thick, honey_thick, pudding_thick,
	extra_gravy, meats_only, breakfast_ada, lunch_ada, dinner_ada,
	admitted_at, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Wing, &p.Room,
		&p.Diet.DietType, &p.Diet.ADADiet, &p.Diet.FluidRestriction,
		&p.Diet.Textures.MechanicalChopped, &p.Diet.Textures.MechanicalGround,
		&p.Diet.Textures.BiteSize, &p.Diet.Textures.BreadOK,
		&p.Diet.Textures.NectarThick, &p.Diet.Textures.HoneyThick,
		&p.Diet.Textures.PuddingThick,
		&p.Diet.ExtraGravy, &p.Diet.MeatsOnly,
		&p.Diet.BreakfastADA, &p.Diet.LunchADA, &p.Diet.DinnerADA,
		&p.AdmittedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, first_name, last_name, wing, room,
			diet_type, ada_diet, fluid_restriction,
			mechanical_chopped, mechanical_ground, bite_size, bread_ok,
			nectar_thick, honey_thick, pudding_thick,
			extra_gravy, meats_only, breakfast_ada, lunch_ada, dinner_ada,
			admitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		p.ID, p.FirstName, p.LastName, p.Wing, p.Room,
		p.Diet.DietType, p.Diet.ADADiet, p.Diet.FluidRestriction,
		p.Diet.Textures.MechanicalChopped, p.Diet.Textures.MechanicalGround,
		p.Diet.Textures.BiteSize, p.Diet.Textures.BreadOK,
		p.Diet.Textures.NectarThick, p.Diet.Textures.HoneyThick,
		p.Diet.Textures.PuddingThick,
		p.Diet.ExtraGravy, p.Diet.MeatsOnly,
		p.Diet.BreakfastADA, p.Diet.LunchADA, p.Diet.DinnerADA,
		p.AdmittedAt,
	)
	if isUniqueViolation(err) {
		return ErrLocationTaken
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *repoPG) GetByLocation(ctx context.Context, wing, room string) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE wing = $1 AND room = $2`,
		wing, room)
	return scanPatient(row)
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			first_name = $2, last_name = $3, wing = $4, room = $5,
			admitted_at = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Wing, p.Room, p.AdmittedAt)
	if isUniqueViolation(err) {
		return ErrLocationTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateDietProfile(ctx context.Context, id uuid.UUID, diet *DietProfile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			diet_type = $2, ada_diet = $3, fluid_restriction = $4,
			mechanical_chopped = $5, mechanical_ground = $6, bite_size = $7,
			bread_ok = $8, nectar_thick = $9, honey_thick = $10,
			pudding_thick = $11, extra_gravy = $12, meats_only = $13,
			breakfast_ada = $14, lunch_ada = $15, dinner_ada = $16,
			updated_at = now()
		WHERE id = $1`,
		id, diet.DietType, diet.ADADiet, diet.FluidRestriction,
		diet.Textures.MechanicalChopped, diet.Textures.MechanicalGround,
		diet.Textures.BiteSize, diet.Textures.BreadOK,
		diet.Textures.NectarThick, diet.Textures.HoneyThick,
		diet.Textures.PuddingThick, diet.ExtraGravy, diet.MeatsOnly,
		diet.BreakfastADA, diet.LunchADA, diet.DinnerADA)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient
		 ORDER BY wing, room LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	patients, err := collectPatients(rows)
	return patients, total, err
}

func (r *repoPG) ListByWing(ctx context.Context, wing string, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE wing = $1`, wing).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient WHERE wing = $1
		 ORDER BY room LIMIT $2 OFFSET $3`, wing, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	patients, err := collectPatients(rows)
	return patients, total, err
}

type selectionRepoPG struct {
	pool *pgxpool.Pool
}

// NewSelectionRepository returns a Postgres-backed selection repository.
func NewSelectionRepository(pool *pgxpool.Pool) SelectionRepository {
	return &selectionRepoPG{pool: pool}
}

func (r *selectionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const selectionCols = `id, patient_id, service_date, meal,
	items, juices, drinks, npo, complete, meal_diet, meal_ada, updated_at`

func scanSelection(row pgx.Row) (*MealSelection, error) {
	var s MealSelection
	err := row.Scan(
		&s.ID, &s.PatientID, &s.ServiceDate, &s.Meal,
		&s.Items, &s.Juices, &s.Drinks, &s.NPO, &s.Complete,
		&s.MealDiet, &s.MealADA, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *selectionRepoPG) UpsertSelection(ctx context.Context, sel *MealSelection) error {
	if sel.ID == uuid.Nil {
		sel.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO meal_selection
			(id, patient_id, service_date, meal, items, juices, drinks,
			 meal_diet, meal_ada)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (patient_id, service_date, meal) DO UPDATE SET
			items = EXCLUDED.items,
			juices = EXCLUDED.juices,
			drinks = EXCLUDED.drinks,
			meal_diet = EXCLUDED.meal_diet,
			meal_ada = EXCLUDED.meal_ada,
			updated_at = now()`,
		sel.ID, sel.PatientID, sel.ServiceDate, sel.Meal,
		sel.Items, sel.Juices, sel.Drinks, sel.MealDiet, sel.MealADA)
	return err
}

func (r *selectionRepoPG) SetComplete(ctx context.Context, patientID uuid.UUID, date time.Time, meal Meal, complete bool) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO meal_selection (id, patient_id, service_date, meal, complete)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id, service_date, meal) DO UPDATE SET
			complete = EXCLUDED.complete,
			updated_at = now()`,
		uuid.New(), patientID, date, meal, complete)
	return err
}

func (r *selectionRepoPG) SetNPO(ctx context.Context, patientID uuid.UUID, date time.Time, meal Meal, npo bool) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO meal_selection (id, patient_id, service_date, meal, npo)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id, service_date, meal) DO UPDATE SET
			npo = EXCLUDED.npo,
			updated_at = now()`,
		uuid.New(), patientID, date, meal, npo)
	return err
}

func (r *selectionRepoPG) SetDayComplete(ctx context.Context, patientID uuid.UUID, date time.Time, breakfast, lunch, dinner bool) error {
	flags := map[Meal]bool{
		MealBreakfast: breakfast,
		MealLunch:     lunch,
		MealDinner:    dinner,
	}
	for _, meal := range Meals {
		if err := r.SetComplete(ctx, patientID, date, meal, flags[meal]); err != nil {
			return err
		}
	}
	return nil
}

func (r *selectionRepoPG) Get(ctx context.Context, patientID uuid.UUID, date time.Time, meal Meal) (*MealSelection, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+selectionCols+` FROM meal_selection
		 WHERE patient_id = $1 AND service_date = $2 AND meal = $3`,
		patientID, date, meal)
	return scanSelection(row)
}

func (r *selectionRepoPG) ListDay(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*MealSelection, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+selectionCols+` FROM meal_selection
		 WHERE patient_id = $1 AND service_date = $2
		 ORDER BY CASE meal
			WHEN 'breakfast' THEN 1 WHEN 'lunch' THEN 2 ELSE 3 END`,
		patientID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MealSelection
	for rows.Next() {
		s, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// satisfiedMeals counts the patient's meals on the date bound to $1
// that are complete or NPO. Three means the patient is done for the
// day. Every worklist query filters through this same expression so
// the pending/completed partition cannot drift between views.
const satisfiedMeals = `(
	SELECT COUNT(*) FROM meal_selection ms
	WHERE ms.patient_id = p.id
	  AND ms.service_date = $1
	  AND (ms.complete OR ms.npo))`

func (r *selectionRepoPG) listWorklist(ctx context.Context, date time.Time, predicate string, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient p WHERE `+predicate, date).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient p WHERE `+predicate+`
		 ORDER BY p.wing, p.room LIMIT $2 OFFSET $3`,
		date, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	patients, err := collectPatients(rows)
	return patients, total, err
}

func (r *selectionRepoPG) ListPending(ctx context.Context, date time.Time, limit, offset int) ([]*Patient, int, error) {
	return r.listWorklist(ctx, date, satisfiedMeals+` < 3`, limit, offset)
}

func (r *selectionRepoPG) ListCompleted(ctx context.Context, date time.Time, limit, offset int) ([]*Patient, int, error) {
	return r.listWorklist(ctx, date, satisfiedMeals+` = 3`, limit, offset)
}

func (r *selectionRepoPG) PendingCount(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient p WHERE `+satisfiedMeals+` < 3`, date).Scan(&n)
	return n, err
}

func (r *selectionRepoPG) CompletedCount(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient p WHERE `+satisfiedMeals+` = 3`, date).Scan(&n)
	return n, err
}
