package handler

import (
	"net/http"

	"sasselerator/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type generateRequest struct {
	Idea string `json:"idea" binding:"required"`
}

type createPlanRequest struct {
	Idea string               `json:"idea" binding:"required"`
	Plan *models.PlanDocument `json:"plan" binding:"required"`
}

type updatePlanRequest struct {
	ID   string               `json:"id" binding:"required"`
	Plan *models.PlanDocument `json:"plan" binding:"required"`
}

func (h *PlanHandler) generatePlan(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidIdea})
		return
	}

	doc, err := h.plans.Generate(c.Request.Context(), req.Idea)
	if err != nil {
		if isValidation(err) {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidIdea})
			return
		}
		h.logger.Error("Plan generation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: msgGenerationFailed})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// getPlans возвращает один план при заданном ?id= и список всех планов иначе.
func (h *PlanHandler) getPlans(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		plan, err := h.plans.GetPlan(ctx, id)
		if err != nil {
			h.handleServiceError(c, err, msgFetchFailed)
			return
		}
		c.JSON(http.StatusOK, plan)
		return
	}

	plans, err := h.plans.ListPlans(ctx)
	if err != nil {
		h.handleServiceError(c, err, msgFetchFailed)
		return
	}
	if plans == nil {
		plans = []*models.Plan{}
	}
	c.JSON(http.StatusOK, plans)
}

func (h *PlanHandler) createPlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msgCreateFieldsNeeded})
		return
	}

	plan, err := h.plans.CreatePlan(c.Request.Context(), req.Idea, *req.Plan)
	if err != nil {
		h.handleServiceError(c, err, msgSaveFailed)
		return
	}
	h.logger.Info("Plan created", zap.String("planID", plan.ID))
	c.JSON(http.StatusCreated, plan)
}

func (h *PlanHandler) updatePlan(c *gin.Context) {
	var req updatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msgUpdateFieldsNeeded})
		return
	}

	plan, err := h.plans.UpdatePlan(c.Request.Context(), req.ID, *req.Plan)
	if err != nil {
		h.handleServiceError(c, err, msgUpdateFailed)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) deletePlan(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msgPlanIDRequired})
		return
	}

	removed, err := h.plans.DeletePlan(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, msgDeleteFailed)
		return
	}
	if !removed {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: msgPlanNotFound})
		return
	}
	h.logger.Info("Plan deleted", zap.String("planID", id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
