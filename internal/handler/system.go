package handler

import (
	"errors"
	"io"
	"net/http"

	"sasselerator/internal/mcp"
	"sasselerator/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func isValidation(err error) bool {
	return errors.Is(err, models.ErrValidation)
}

// testDatabase выполняет минимальное чтение из хранилища и сообщает задержку.
func (h *PlanHandler) testDatabase(c *gin.Context) {
	latency, err := h.plans.CheckStore(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrStorage) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Warn("Store check failed", zap.Int("status", status), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"database":  "connected",
		"latencyMs": latency.Milliseconds(),
	})
}

func (h *PlanHandler) handleRPC(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRPCBodyBytes))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, mcp.ParseErrorResponse())
		return
	}

	payload, err := h.dispatcher.HandlePayload(c.Request.Context(), body)
	if err != nil {
		h.logger.Warn("Unparseable JSON-RPC payload", zap.Int("bytes", len(body)))
		c.AbortWithStatusJSON(http.StatusBadRequest, mcp.ParseErrorResponse())
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *PlanHandler) discovery(c *gin.Context) {
	c.JSON(http.StatusOK, h.dispatcher.Discovery())
}
