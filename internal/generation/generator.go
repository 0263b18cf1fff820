package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sasselerator/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

// Generator превращает текст идеи в валидный документ плана.
type Generator interface {
	Generate(ctx context.Context, idea string) (*models.PlanDocument, error)
}

var _ Generator = (*PlanGenerator)(nil)

// PlanGenerator - контракт структурированной генерации поверх Backend.
// Одна попытка на запрос, без повторов.
type PlanGenerator struct {
	backend Backend
	timeout time.Duration
	schema  jsonschema.Definition
	tokens  TokenCounter
	logger  *zap.Logger
}

// Option настраивает PlanGenerator.
type Option func(*PlanGenerator)

// WithTokenCounter включает оценку токенов промпта.
func WithTokenCounter(tc TokenCounter) Option {
	return func(g *PlanGenerator) { g.tokens = tc }
}

// NewPlanGenerator создает генератор. timeout <= 0 означает отсутствие ограничения.
func NewPlanGenerator(backend Backend, timeout time.Duration, logger *zap.Logger, opts ...Option) *PlanGenerator {
	g := &PlanGenerator{
		backend: backend,
		timeout: timeout,
		schema:  PlanSchema(),
		logger:  logger.Named("PlanGenerator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *PlanGenerator) Generate(ctx context.Context, idea string) (*models.PlanDocument, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, fmt.Errorf("%w: idea must be a non-empty string", models.ErrValidation)
	}

	labels := prometheus.Labels{"backend": g.backend.Name(), "model": g.backend.Model()}
	logFields := []zap.Field{
		zap.String("backend", g.backend.Name()),
		zap.String("model", g.backend.Model()),
		zap.Int("ideaLength", len(idea)),
	}

	req := CompletionRequest{
		System:     SystemPrompt(),
		User:       UserPrompt(idea),
		SchemaName: PlanSchemaName,
		Schema:     g.schema,
	}
	if g.tokens != nil {
		estimated := g.tokens(req.System) + g.tokens(req.User)
		logFields = append(logFields, zap.Int("estimatedPromptTokens", estimated))
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.Info("Generating plan", logFields...)
	start := time.Now()
	result, err := g.backend.Complete(ctx, req)
	elapsed := time.Since(start)
	generationDuration.With(labels).Observe(elapsed.Seconds())
	logFields = append(logFields, zap.Duration("duration", elapsed))

	if err != nil {
		status := statusBackendError
		if errors.Is(err, context.DeadlineExceeded) {
			status = statusTimeout
		}
		generationRequestsTotal.WithLabelValues(labels["backend"], labels["model"], status).Inc()
		g.logger.Error("Generation backend failed", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: %w", models.ErrGeneration, err)
	}

	if result.PromptTokens > 0 {
		generationPromptTokens.With(labels).Observe(float64(result.PromptTokens))
	}
	if result.CompletionTokens > 0 {
		generationCompletionTokens.With(labels).Observe(float64(result.CompletionTokens))
	}

	doc, err := DecodeDocument(g.schema, result.Content)
	if err != nil {
		generationRequestsTotal.WithLabelValues(labels["backend"], labels["model"], statusInvalidSchema).Inc()
		g.logger.Error("Generated document rejected", append(logFields, zap.Error(err))...)
		return nil, err
	}
	generationRequestsTotal.WithLabelValues(labels["backend"], labels["model"], statusSuccess).Inc()

	if diff, mismatch := CostMismatch(doc.MVPPlan); mismatch {
		g.logger.Warn("totalMonthlyCost differs from the sum of cost items",
			append(logFields, zap.Float64("totalMonthlyCost", doc.MVPPlan.TotalMonthlyCost), zap.Float64("difference", diff))...)
	}

	g.logger.Info("Plan generated",
		append(logFields,
			zap.Int("tasks", len(doc.MVPPlan.Tasks)),
			zap.Int("promptTokens", result.PromptTokens),
			zap.Int("completionTokens", result.CompletionTokens),
		)...)
	return doc, nil
}
