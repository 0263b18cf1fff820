package repository

import (
	"context"
	"fmt"
	"time"

	"sasselerator/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ PlanRepository = (*pgPlanRepository)(nil)

const planColumns = `id, idea, business_canvas, mvp_plan, created_at, updated_at`

type pgPlanRepository struct {
	db     DBTX
	logger *zap.Logger
}

// planRow - строка таблицы plans. JSONB колонки читаются как сырые байты.
type planRow struct {
	ID             string    `db:"id"`
	Idea           string    `db:"idea"`
	BusinessCanvas []byte    `db:"business_canvas"`
	MVPPlan        []byte    `db:"mvp_plan"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r planRow) toModel() (*models.Plan, error) {
	doc, err := unmarshalDocument(r.BusinessCanvas, r.MVPPlan)
	if err != nil {
		return nil, err
	}
	return &models.Plan{
		ID:        r.ID,
		Idea:      r.Idea,
		Document:  doc,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// NewPgPlanRepository создает PostgreSQL реализацию PlanRepository.
func NewPgPlanRepository(db DBTX, logger *zap.Logger) PlanRepository {
	return &pgPlanRepository{
		db:     db,
		logger: logger.Named("PgPlanRepo"),
	}
}

func (r *pgPlanRepository) Create(ctx context.Context, idea string, doc models.PlanDocument) (*models.Plan, error) {
	canvas, mvp, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logFields := []zap.Field{zap.String("planID", id)}
	query := `
        INSERT INTO plans (id, idea, business_canvas, mvp_plan, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING ` + planColumns

	var row planRow
	if err := pgxscan.Get(ctx, r.db, &row, query, id, idea, canvas, mvp); err != nil {
		r.logger.Error("Failed to insert plan", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: insert plan: %w", models.ErrStorage, err)
	}
	r.logger.Info("Plan created", logFields...)
	return row.toModel()
}

func (r *pgPlanRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return r.getOne(ctx, query, []zap.Field{zap.String("planID", id)}, id)
}

func (r *pgPlanRepository) GetLatest(ctx context.Context) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.getOne(ctx, query, nil)
}

func (r *pgPlanRepository) getOne(ctx context.Context, query string, logFields []zap.Field, args ...any) (*models.Plan, error) {
	var row planRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("Plan not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to fetch plan", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: fetch plan: %w", models.ErrStorage, err)
	}
	return row.toModel()
}

func (r *pgPlanRepository) GetAll(ctx context.Context) ([]*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY created_at ASC, id ASC`

	var rows []planRow
	if err := pgxscan.Select(ctx, r.db, &rows, query); err != nil {
		r.logger.Error("Failed to list plans", zap.Error(err))
		return nil, fmt.Errorf("%w: list plans: %w", models.ErrStorage, err)
	}

	plans := make([]*models.Plan, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (r *pgPlanRepository) Update(ctx context.Context, id string, doc models.PlanDocument) (*models.Plan, error) {
	canvas, mvp, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}

	logFields := []zap.Field{zap.String("planID", id)}
	query := `
        UPDATE plans
        SET business_canvas = $2, mvp_plan = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + planColumns

	var row planRow
	if err := pgxscan.Get(ctx, r.db, &row, query, id, canvas, mvp); err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Warn("Plan not found for update", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to update plan", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: update plan: %w", models.ErrStorage, err)
	}
	r.logger.Info("Plan updated", logFields...)
	return row.toModel()
}

func (r *pgPlanRepository) Delete(ctx context.Context, id string) (bool, error) {
	logFields := []zap.Field{zap.String("planID", id)}
	commandTag, err := r.db.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete plan", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("%w: delete plan: %w", models.ErrStorage, err)
	}
	if commandTag.RowsAffected() == 0 {
		r.logger.Debug("Plan to delete not found", logFields...)
		return false, nil
	}
	r.logger.Info("Plan deleted", logFields...)
	return true, nil
}

func (r *pgPlanRepository) Ping(ctx context.Context) error {
	rows, err := r.db.Query(ctx, `SELECT id FROM plans LIMIT 1`)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return nil
}
