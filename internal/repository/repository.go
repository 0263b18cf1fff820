package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sasselerator/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PlanRepository - хранилище планов.
//
// Отсутствие записи сообщается через models.ErrNotFound (GetByID, GetLatest, Update)
// или false (Delete). Любой другой сбой оборачивает models.ErrStorage.
type PlanRepository interface {
	Create(ctx context.Context, idea string, doc models.PlanDocument) (*models.Plan, error)
	GetByID(ctx context.Context, id string) (*models.Plan, error)
	// GetAll возвращает планы по возрастанию created_at.
	GetAll(ctx context.Context) ([]*models.Plan, error)
	GetLatest(ctx context.Context) (*models.Plan, error)
	// Update целиком заменяет документ и обновляет updated_at.
	Update(ctx context.Context, id string, doc models.PlanDocument) (*models.Plan, error)
	Delete(ctx context.Context, id string) (bool, error)
	// Ping выполняет минимальное чтение из хранилища.
	Ping(ctx context.Context) error
}

// DBTX - общий интерфейс pgxpool.Pool и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// marshalDocument сериализует две части документа для отдельных колонок.
func marshalDocument(doc models.PlanDocument) (canvas, mvp []byte, err error) {
	doc.NormalizeLists()
	canvas, err = json.Marshal(doc.BusinessCanvas)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: marshal business canvas: %w", models.ErrStorage, err)
	}
	mvp, err = json.Marshal(doc.MVPPlan)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: marshal mvp plan: %w", models.ErrStorage, err)
	}
	return canvas, mvp, nil
}

func unmarshalDocument(canvas, mvp []byte) (models.PlanDocument, error) {
	var doc models.PlanDocument
	if err := json.Unmarshal(canvas, &doc.BusinessCanvas); err != nil {
		return doc, fmt.Errorf("%w: decode business canvas: %w", models.ErrStorage, err)
	}
	if err := json.Unmarshal(mvp, &doc.MVPPlan); err != nil {
		return doc, fmt.Errorf("%w: decode mvp plan: %w", models.ErrStorage, err)
	}
	doc.NormalizeLists()
	return doc, nil
}
