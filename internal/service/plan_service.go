package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sasselerator/internal/generation"
	"sasselerator/internal/messaging"
	"sasselerator/internal/models"
	"sasselerator/internal/repository"

	"go.uber.org/zap"
)

// ErrTaskNotFound - задача отсутствует в найденном плане.
var ErrTaskNotFound = fmt.Errorf("task %w", models.ErrNotFound)

// TaskFilter - фильтр задач; пустые поля не ограничивают выборку.
type TaskFilter struct {
	Phase    models.Phase
	Priority models.Priority
}

// PlanService - операции над планами поверх хранилища.
// Состояние плана не кэшируется: каждая операция перечитывает хранилище.
type PlanService struct {
	repo         repository.PlanRepository
	generator    generation.Generator
	publisher    messaging.PlanEventPublisher
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewPlanService создает сервис. generator может быть nil, если генерация не нужна.
func NewPlanService(
	repo repository.PlanRepository,
	generator generation.Generator,
	publisher messaging.PlanEventPublisher,
	storeTimeout time.Duration,
	logger *zap.Logger,
) *PlanService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &PlanService{
		repo:         repo,
		generator:    generator,
		publisher:    publisher,
		storeTimeout: storeTimeout,
		logger:       logger.Named("PlanService"),
	}
}

func (s *PlanService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// publish отправляет событие. Сбой публикации не влияет на результат операции.
func (s *PlanService) publish(ctx context.Context, eventType messaging.PlanEventType, planID, taskID string) {
	event := messaging.PlanEvent{
		Type:       eventType,
		PlanID:     planID,
		TaskID:     taskID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishPlanEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish plan event",
			zap.String("type", string(eventType)),
			zap.String("planID", planID),
			zap.Error(err),
		)
	}
}

// Generate запускает генерацию документа без сохранения.
func (s *PlanService) Generate(ctx context.Context, idea string) (*models.PlanDocument, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: generation backend is not configured", models.ErrGeneration)
	}
	return s.generator.Generate(ctx, idea)
}

// GenerateAndSave генерирует документ и сохраняет его как новый план.
func (s *PlanService) GenerateAndSave(ctx context.Context, idea string) (*models.Plan, error) {
	doc, err := s.Generate(ctx, idea)
	if err != nil {
		return nil, err
	}
	return s.CreatePlan(ctx, strings.TrimSpace(idea), *doc)
}

func (s *PlanService) CreatePlan(ctx context.Context, idea string, doc models.PlanDocument) (*models.Plan, error) {
	if strings.TrimSpace(idea) == "" {
		return nil, fmt.Errorf("%w: idea is required", models.ErrValidation)
	}
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	plan, err := s.repo.Create(storeCtx, idea, doc)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.PlanCreated, plan.ID, "")
	return plan, nil
}

func (s *PlanService) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.repo.GetByID(storeCtx, id)
}

func (s *PlanService) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.repo.GetAll(storeCtx)
}

func (s *PlanService) LatestPlan(ctx context.Context) (*models.Plan, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.repo.GetLatest(storeCtx)
}

// ResolvePlan возвращает план по id, а при пустом id - последний созданный.
// Отсутствие сообщается через models.ErrNotFound.
func (s *PlanService) ResolvePlan(ctx context.Context, planID string) (*models.Plan, error) {
	if planID == "" {
		return s.LatestPlan(ctx)
	}
	return s.GetPlan(ctx, planID)
}

func (s *PlanService) UpdatePlan(ctx context.Context, id string, doc models.PlanDocument) (*models.Plan, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	plan, err := s.repo.Update(storeCtx, id, doc)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.PlanUpdated, plan.ID, "")
	return plan, nil
}

// DeletePlan возвращает false, если план не существовал.
func (s *PlanService) DeletePlan(ctx context.Context, id string) (bool, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	removed, err := s.repo.Delete(storeCtx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.publish(ctx, messaging.PlanDeleted, id, "")
	}
	return removed, nil
}

// FilterTasks возвращает задачи плана, удовлетворяющие обоим условиям фильтра, в исходном порядке.
func FilterTasks(plan *models.Plan, filter TaskFilter) []models.Task {
	tasks := make([]models.Task, 0, len(plan.Document.MVPPlan.Tasks))
	for _, t := range plan.Document.MVPPlan.Tasks {
		if filter.Phase != "" && t.Phase != filter.Phase {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// CompleteTask отмечает задачу выполненной и сохраняет документ целиком.
// Повторная отметка ничего не пишет и тоже считается успехом.
// Возвращает models.ErrNotFound для отсутствующего плана и ErrTaskNotFound для задачи.
func (s *PlanService) CompleteTask(ctx context.Context, planID, taskID string) (*models.Task, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	idx := plan.Document.MVPPlan.FindTask(taskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}
	task := &plan.Document.MVPPlan.Tasks[idx]
	if task.Completed {
		return task, nil
	}
	task.Completed = true

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if _, err := s.repo.Update(storeCtx, planID, plan.Document); err != nil {
		// План мог быть удален между чтением и записью
		return nil, err
	}
	s.logger.Info("Task marked as complete", zap.String("planID", planID), zap.String("taskID", taskID))
	s.publish(ctx, messaging.PlanTaskCompleted, planID, taskID)
	return task, nil
}

// CheckStore выполняет минимальное чтение и возвращает его длительность.
func (s *PlanService) CheckStore(ctx context.Context) (time.Duration, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	start := time.Now()
	if err := s.repo.Ping(storeCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, models.ErrStorage) {
			return 0, fmt.Errorf("%w: %w", models.ErrStorage, err)
		}
		return 0, err
	}
	return time.Since(start), nil
}
