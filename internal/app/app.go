// Package app собирает зависимости процесса из конфигурации: хранилище,
// бэкенд генерации, публикатор событий и сервис планов.
package app

import (
	"context"
	"fmt"
	"net/http"

	"sasselerator/internal/config"
	"sasselerator/internal/database"
	"sasselerator/internal/generation"
	"sasselerator/internal/mcp"
	"sasselerator/internal/messaging"
	"sasselerator/internal/repository"
	"sasselerator/internal/service"

	"go.uber.org/zap"
)

const amqpConnectAttempts = 10

// App - собранные зависимости. Close освобождает их в обратном порядке.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Repo      repository.PlanRepository
	Plans     *service.PlanService
	Catalog   *mcp.Catalog
	Publisher messaging.PlanEventPublisher

	closers []func()
}

// Options выключает необязательные части сборки.
type Options struct {
	// WithoutGenerator - процессу не нужен бэкенд генерации (например, stdio-мост).
	WithoutGenerator bool
	// WithoutEvents - не подключаться к брокеру даже при заданном AMQP_URL.
	WithoutEvents bool
}

// Build открывает хранилище и собирает сервис планов.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	repo, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo

	var generator generation.Generator
	if !opts.WithoutGenerator {
		generator, err = NewGenerator(cfg, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Publisher = messaging.NoopPublisher{}
	if cfg.AMQPURL != "" && !opts.WithoutEvents {
		publisher, err := a.openPublisher(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Publisher = publisher
	}

	a.Plans = service.NewPlanService(repo, generator, a.Publisher, cfg.StoreTimeout, logger)
	a.Catalog = mcp.NewCatalog(a.Plans)
	return a, nil
}

// OnClose добавляет функцию освобождения ресурса. Close вызывает их в обратном порядке.
func (a *App) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close закрывает все открытые ресурсы.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context) (repository.PlanRepository, error) {
	cfg := a.Config
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := database.ConnectPostgres(ctx, cfg, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := database.ApplyPostgresMigrations(pool); err != nil {
			return nil, err
		}
		return repository.NewPgPlanRepository(pool, a.Logger), nil
	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := db.Close(); err != nil {
				a.Logger.Warn("Failed to close SQLite database", zap.Error(err))
			}
		})
		a.Logger.Info("Using SQLite plan store", zap.String("path", cfg.SQLitePath))
		return repository.NewSQLitePlanRepository(db, a.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func (a *App) openPublisher(ctx context.Context) (messaging.PlanEventPublisher, error) {
	conn, err := messaging.Connect(ctx, a.Config.AMQPURL, amqpConnectAttempts, a.Config.DBConnectDelay, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	publisher, err := messaging.NewRabbitMQPlanPublisher(conn, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = publisher.Close() })
	return publisher, nil
}

// NewGenerator выбирает бэкенд по AI_CLIENT_TYPE.
func NewGenerator(cfg *config.Config, logger *zap.Logger) (generation.Generator, error) {
	if err := cfg.ValidateGeneration(); err != nil {
		return nil, err
	}
	httpClient := &http.Client{}

	var backend generation.Backend
	switch cfg.AIClientType {
	case config.AIClientOpenAI:
		backend = generation.NewOpenAIBackend(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, cfg.AITemperature, httpClient)
	case config.AIClientOllama:
		ollama, err := generation.NewOllamaBackend(cfg.AIBaseURL, cfg.AIModel, cfg.AITemperature, httpClient)
		if err != nil {
			return nil, err
		}
		backend = ollama
	default:
		return nil, fmt.Errorf("unsupported AI client type %q", cfg.AIClientType)
	}

	var opts []generation.Option
	if cfg.AIEstimateTokens {
		counter, err := generation.NewTiktokenCounter(cfg.AIModel)
		if err != nil {
			logger.Warn("Token estimation disabled", zap.Error(err))
		} else {
			opts = append(opts, generation.WithTokenCounter(counter))
		}
	}

	logger.Info("Generation backend configured",
		zap.String("backend", backend.Name()),
		zap.String("model", backend.Model()),
		zap.Duration("timeout", cfg.AITimeout),
	)
	return generation.NewPlanGenerator(backend, cfg.AITimeout, logger, opts...), nil
}
