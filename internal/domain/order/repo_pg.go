package order

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

// NewRepository returns a Postgres-backed meal order repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderCols = `id, patient_id, meal, order_date, complete, created_by, created_at`

func scanOrder(row pgx.Row) (*MealOrder, error) {
	var o MealOrder
	err := row.Scan(&o.ID, &o.PatientID, &o.Meal, &o.OrderDate,
		&o.Complete, &o.CreatedBy, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) Create(ctx context.Context, o *MealOrder) error {
	o.ID = uuid.New()
	conn := r.conn(ctx)
	_, err := conn.Exec(ctx, `
		INSERT INTO meal_order (id, patient_id, meal, order_date, complete, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.PatientID, o.Meal, o.OrderDate, o.Complete, o.CreatedBy)
	if err != nil {
		return err
	}
	for i := range o.Items {
		item := &o.Items[i]
		item.ID = uuid.New()
		item.OrderID = o.ID
		_, err := conn.Exec(ctx, `
			INSERT INTO meal_order_item (id, order_id, item_id, quantity)
			VALUES ($1, $2, $3, $4)`,
			item.ID, item.OrderID, item.ItemID, item.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MealOrder, error) {
	conn := r.conn(ctx)
	o, err := scanOrder(conn.QueryRow(ctx,
		`SELECT `+orderCols+` FROM meal_order WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, `
		SELECT id, order_id, item_id, quantity FROM meal_order_item
		WHERE order_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ItemID, &item.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM meal_order WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetComplete(ctx context.Context, id uuid.UUID, complete bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE meal_order SET complete = $2 WHERE id = $1`, id, complete)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatientDate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*MealOrder, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM meal_order
		 WHERE patient_id = $1 AND order_date = $2
		 ORDER BY CASE meal
			WHEN 'breakfast' THEN 1 WHEN 'lunch' THEN 2 ELSE 3 END`,
		patientID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MealOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repoPG) Aggregate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]AggregatedItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT mo.meal, fi.name, fi.category, oi.quantity
		FROM meal_order mo
		JOIN meal_order_item oi ON oi.order_id = mo.id
		JOIN food_item fi ON fi.id = oi.item_id
		WHERE mo.patient_id = $1 AND mo.order_date = $2
		ORDER BY mo.meal, lower(fi.category), lower(fi.name)`,
		patientID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AggregatedItem
	for rows.Next() {
		var a AggregatedItem
		if err := rows.Scan(&a.Meal, &a.Name, &a.Category, &a.Quantity); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type finalizedRepoPG struct {
	pool *pgxpool.Pool
}

// NewFinalizedRepository returns a Postgres-backed finalized order
// repository.
func NewFinalizedRepository(pool *pgxpool.Pool) FinalizedRepository {
	return &finalizedRepoPG{pool: pool}
}

func (r *finalizedRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const finalizedCols = `id, patient_name, wing, room, order_date,
	diet_type, fluid_restriction,
	mechanical_chopped, mechanical_ground, bite_size, bread_ok,
	nectar_thick, honey_thick, pudding_thick, extra_gravy,
	breakfast_items, breakfast_juices, breakfast_drinks,
	lunch_items, lunch_juices, lunch_drinks,
	dinner_items, dinner_juices, dinner_drinks,
	created_by, created_at`

func scanFinalized(row pgx.Row) (*FinalizedOrder, error) {
	var f FinalizedOrder
	err := row.Scan(
		&f.ID, &f.PatientName, &f.Wing, &f.Room, &f.OrderDate,
		&f.DietType, &f.FluidRestriction,
		&f.Textures.MechanicalChopped, &f.Textures.MechanicalGround,
		&f.Textures.BiteSize, &f.Textures.BreadOK,
		&f.Textures.NectarThick, &f.Textures.HoneyThick,
		&f.Textures.PuddingThick, &f.ExtraGravy,
		&f.Breakfast.Items, &f.Breakfast.Juices, &f.Breakfast.Drinks,
		&f.Lunch.Items, &f.Lunch.Juices, &f.Lunch.Drinks,
		&f.Dinner.Items, &f.Dinner.Juices, &f.Dinner.Drinks,
		&f.CreatedBy, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *finalizedRepoPG) Insert(ctx context.Context, f *FinalizedOrder) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO finalized_order (id, patient_name, wing, room, order_date,
			diet_type, fluid_restriction,
			mechanical_chopped, mechanical_ground, bite_size, bread_ok,
			nectar_thick, honey_thick, pudding_thick, extra_gravy,
			breakfast_items, breakfast_juices, breakfast_drinks,
			lunch_items, lunch_juices, lunch_drinks,
			dinner_items, dinner_juices, dinner_drinks,
			created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		f.ID, f.PatientName, f.Wing, f.Room, f.OrderDate,
		f.DietType, f.FluidRestriction,
		f.Textures.MechanicalChopped, f.Textures.MechanicalGround,
		f.Textures.BiteSize, f.Textures.BreadOK,
		f.Textures.NectarThick, f.Textures.HoneyThick,
		f.Textures.PuddingThick, f.ExtraGravy,
		f.Breakfast.Items, f.Breakfast.Juices, f.Breakfast.Drinks,
		f.Lunch.Items, f.Lunch.Juices, f.Lunch.Drinks,
		f.Dinner.Items, f.Dinner.Juices, f.Dinner.Drinks,
		f.CreatedBy)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateOrder
	}
	return err
}

func (r *finalizedRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*FinalizedOrder, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+finalizedCols+` FROM finalized_order WHERE id = $1`, id)
	return scanFinalized(row)
}

func (r *finalizedRepoPG) ExistsForBed(ctx context.Context, wing, room string, date time.Time) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM finalized_order
			WHERE wing = $1 AND room = $2 AND order_date = $3)`,
		wing, room, date).Scan(&exists)
	return exists, err
}

func (r *finalizedRepoPG) ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]*FinalizedOrder, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM finalized_order WHERE order_date = $1`, date).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+finalizedCols+` FROM finalized_order
		 WHERE order_date = $1 ORDER BY wing, room LIMIT $2 OFFSET $3`,
		date, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*FinalizedOrder
	for rows.Next() {
		f, err := scanFinalized(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

func (r *finalizedRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM finalized_order WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
