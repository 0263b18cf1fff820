package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sasselerator/internal/mcp"
	"sasselerator/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgPlanNotFound       = "Plan not found"
	msgInvalidIdea        = "Please provide a valid SaaS idea"
	msgGenerationFailed   = "Failed to generate plan. Please check your API key and try again."
	msgFetchFailed        = "Failed to fetch plans"
	msgSaveFailed         = "Failed to save plan"
	msgUpdateFailed       = "Failed to update plan"
	msgDeleteFailed       = "Failed to delete plan"
	msgCreateFieldsNeeded = "Idea and plan are required"
	msgUpdateFieldsNeeded = "Plan ID and plan data are required"
	msgPlanIDRequired     = "Plan ID is required"

	// maxRPCBodyBytes ограничивает размер тела JSON-RPC запроса.
	maxRPCBodyBytes = 1 << 20
)

// PlanService - операции над планами, используемые HTTP-слоем.
type PlanService interface {
	mcp.PlanService
	Generate(ctx context.Context, idea string) (*models.PlanDocument, error)
	CreatePlan(ctx context.Context, idea string, doc models.PlanDocument) (*models.Plan, error)
	UpdatePlan(ctx context.Context, id string, doc models.PlanDocument) (*models.Plan, error)
	DeletePlan(ctx context.Context, id string) (bool, error)
	CheckStore(ctx context.Context) (time.Duration, error)
}

// ErrorResponse - тело ответа об ошибке.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PlanHandler обслуживает HTTP-маршруты планов, генерации и JSON-RPC.
type PlanHandler struct {
	plans      PlanService
	dispatcher *mcp.Dispatcher
	logger     *zap.Logger
}

func NewPlanHandler(plans PlanService, dispatcher *mcp.Dispatcher, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		plans:      plans,
		dispatcher: dispatcher,
		logger:     logger.Named("PlanHandler"),
	}
}

// RegisterRoutes регистрирует маршруты. generateLimiter может быть nil.
func (h *PlanHandler) RegisterRoutes(router gin.IRouter, generateLimiter gin.HandlerFunc) {
	router.GET("/health", h.health)
	router.HEAD("/health", h.health)

	api := router.Group("/api")
	{
		api.GET("/db/test", h.testDatabase)

		generate := []gin.HandlerFunc{h.generatePlan}
		if generateLimiter != nil {
			generate = append([]gin.HandlerFunc{generateLimiter}, generate...)
		}
		api.POST("/generate", generate...)

		api.GET("/plans", h.getPlans)
		api.POST("/plans", h.createPlan)
		api.PUT("/plans", h.updatePlan)
		api.DELETE("/plans", h.deletePlan)

		api.POST("/mcp", h.handleRPC)
		api.GET("/mcp", h.discovery)
	}
}

func (h *PlanHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleServiceError переводит ошибку сервиса в HTTP-ответ.
// internalMessage возвращается клиенту вместо текста непредвиденной ошибки.
func (h *PlanHandler) handleServiceError(c *gin.Context, err error, internalMessage string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: msgPlanNotFound})
	case errors.Is(err, models.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: internalMessage})
	}
}
