package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sasselerator/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ PlanRepository = (*sqlitePlanRepository)(nil)

// sqliteTimeLayout фиксированной ширины: лексикографический порядок совпадает с хронологическим.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

type sqlitePlanRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLitePlanRepository создает встроенную реализацию PlanRepository поверх SQLite.
// Схема должна быть создана заранее (database.OpenSQLite).
func NewSQLitePlanRepository(db *sql.DB, logger *zap.Logger) PlanRepository {
	return &sqlitePlanRepository{
		db:     db,
		logger: logger.Named("SQLitePlanRepo"),
		now:    time.Now,
	}
}

func (r *sqlitePlanRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePlan(s rowScanner) (*models.Plan, error) {
	var (
		row                  planRow
		createdAt, updatedAt string
	)
	if err := s.Scan(&row.ID, &row.Idea, &row.BusinessCanvas, &row.MVPPlan, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if row.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("%w: parse created_at: %w", models.ErrStorage, err)
	}
	if row.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("%w: parse updated_at: %w", models.ErrStorage, err)
	}
	return row.toModel()
}

func (r *sqlitePlanRepository) Create(ctx context.Context, idea string, doc models.PlanDocument) (*models.Plan, error) {
	canvas, mvp, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := r.timestamp().Format(sqliteTimeLayout)
	logFields := []zap.Field{zap.String("planID", id)}

	row := r.db.QueryRowContext(ctx, `
        INSERT INTO plans (id, idea, business_canvas, mvp_plan, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        RETURNING `+planColumns,
		id, idea, string(canvas), string(mvp), now, now)
	plan, err := scanSQLitePlan(row)
	if err != nil {
		r.logger.Error("Failed to insert plan", append(logFields, zap.Error(err))...)
		return nil, wrapStorage("insert plan", err)
	}
	r.logger.Info("Plan created", logFields...)
	return plan, nil
}

func (r *sqlitePlanRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
	return r.getOne(row, zap.String("planID", id))
}

func (r *sqlitePlanRepository) GetLatest(ctx context.Context) (*models.Plan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	return r.getOne(row)
}

func (r *sqlitePlanRepository) getOne(row *sql.Row, logFields ...zap.Field) (*models.Plan, error) {
	plan, err := scanSQLitePlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("Plan not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to fetch plan", append(logFields, zap.Error(err))...)
		return nil, wrapStorage("fetch plan", err)
	}
	return plan, nil
}

func (r *sqlitePlanRepository) GetAll(ctx context.Context) ([]*models.Plan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+planColumns+` FROM plans ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		r.logger.Error("Failed to list plans", zap.Error(err))
		return nil, wrapStorage("list plans", err)
	}
	defer rows.Close()

	plans := make([]*models.Plan, 0)
	for rows.Next() {
		p, err := scanSQLitePlan(rows)
		if err != nil {
			return nil, wrapStorage("scan plan", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("iterate plans", err)
	}
	return plans, nil
}

func (r *sqlitePlanRepository) Update(ctx context.Context, id string, doc models.PlanDocument) (*models.Plan, error) {
	canvas, mvp, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}

	logFields := []zap.Field{zap.String("planID", id)}
	row := r.db.QueryRowContext(ctx, `
        UPDATE plans
        SET business_canvas = ?, mvp_plan = ?, updated_at = ?
        WHERE id = ?
        RETURNING `+planColumns,
		string(canvas), string(mvp), r.timestamp().Format(sqliteTimeLayout), id)
	plan, err := scanSQLitePlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("Plan not found for update", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to update plan", append(logFields, zap.Error(err))...)
		return nil, wrapStorage("update plan", err)
	}
	r.logger.Info("Plan updated", logFields...)
	return plan, nil
}

func (r *sqlitePlanRepository) Delete(ctx context.Context, id string) (bool, error) {
	logFields := []zap.Field{zap.String("planID", id)}
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete plan", append(logFields, zap.Error(err))...)
		return false, wrapStorage("delete plan", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapStorage("delete plan", err)
	}
	if affected == 0 {
		r.logger.Debug("Plan to delete not found", logFields...)
		return false, nil
	}
	r.logger.Info("Plan deleted", logFields...)
	return true, nil
}

func (r *sqlitePlanRepository) Ping(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM plans LIMIT 1`)
	if err != nil {
		return wrapStorage("ping", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return wrapStorage("ping", err)
	}
	return nil
}

// wrapStorage оборачивает err в models.ErrStorage, если он еще не обернут.
func wrapStorage(op string, err error) error {
	if errors.Is(err, models.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", models.ErrStorage, op, err)
}
