package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/location-lookup/internal/usecase/dto"
	"go.uber.org/zap"
)

// BackendPinger - проверка доступности поискового бэкенда
type BackendPinger interface {
	Ping(ctx context.Context, timeout time.Duration) error
	BackendName() string
}

type HealthHandler struct {
	backend BackendPinger
	timeout time.Duration
	logger  *zap.Logger
}

func NewHealthHandler(backend BackendPinger, timeout time.Duration, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		timeout: timeout,
		logger:  logger,
	}
}

// Health godoc
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:  "healthy",
		Backend: h.backend.BackendName(),
	})
}

// Ready godoc
// @Summary Readiness: отвечает ли поисковый бэкенд
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /readyz [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := dto.HealthResponse{Status: "ready", Backend: h.backend.BackendName()}
	if err := h.backend.Ping(c.Context(), h.timeout); err != nil {
		h.logger.Warn("Readiness check failed", zap.String("backend", resp.Backend), zap.Error(err))
		resp.Status = "unavailable"
		resp.Error = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
