package mocks

import (
	"context"

	"sasselerator/internal/models"
	"sasselerator/internal/repository"

	"github.com/stretchr/testify/mock"
)

var _ repository.PlanRepository = (*PlanRepository)(nil)

// PlanRepository - мок repository.PlanRepository.
type PlanRepository struct {
	mock.Mock
}

func (m *PlanRepository) Create(ctx context.Context, idea string, doc models.PlanDocument) (*models.Plan, error) {
	args := m.Called(ctx, idea, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *PlanRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *PlanRepository) GetAll(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *PlanRepository) GetLatest(ctx context.Context) (*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *PlanRepository) Update(ctx context.Context, id string, doc models.PlanDocument) (*models.Plan, error) {
	args := m.Called(ctx, id, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *PlanRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *PlanRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
