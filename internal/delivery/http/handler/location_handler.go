package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/location-lookup/internal/pkg/utils"
	"github.com/location-lookup/internal/usecase"
	"github.com/location-lookup/internal/usecase/dto"
	"go.uber.org/zap"
)

// LocationHandler - эндпоинты /api/v1/locations
type LocationHandler struct {
	resolverUC *usecase.ResolverUseCase
	timeout    time.Duration
	logger     *zap.Logger
}

// NewLocationHandler - timeout ограничивает весь цикл разрешения одного запроса
func NewLocationHandler(resolverUC *usecase.ResolverUseCase, timeout time.Duration, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		resolverUC: resolverUC,
		timeout:    timeout,
		logger:     logger,
	}
}

// Resolve godoc
// @Summary Разрешение запроса в одну локацию
// @Description Ищет локацию по названию и/или координатам. Результат: unique, ambiguous (список лидеров) или not_found.
// @Tags Locations
// @Produce json
// @Param term query string false "Название (обязательно без lat/lon)"
// @Param locale query string false "Язык названий" default(en)
// @Param lat query number false "Широта, только вместе с lon"
// @Param lon query number false "Долгота, только вместе с lat"
// @Param radius query number false "Радиус в км, только с координатами"
// @Param type query string false "Типы через запятую (city, region, venue)"
// @Param limit query int false "Максимум кандидатов"
// @Param countryIso query string false "ISO 3166-1 alpha-2"
// @Success 200 {object} dto.ResolveResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/locations/resolve [get]
func (h *LocationHandler) Resolve(c *fiber.Ctx) error {
	var params dto.LocationQueryParams
	if err := bindQuery(c, &params); err != nil {
		return utils.SendError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	resp, err := h.resolverUC.Resolve(ctx, params)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendJSON(c, resp)
}

// Search godoc
// @Summary Поиск локаций
// @Description Упорядоченный список кандидатов, не больше limit
// @Tags Locations
// @Produce json
// @Param term query string false "Название (обязательно без lat/lon)"
// @Param locale query string false "Язык названий" default(en)
// @Param lat query number false "Широта"
// @Param lon query number false "Долгота"
// @Param radius query number false "Радиус в км"
// @Param type query string false "Типы через запятую"
// @Param limit query int false "Максимум результатов"
// @Param countryIso query string false "ISO 3166-1 alpha-2"
// @Success 200 {object} dto.SearchResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/locations/search [get]
func (h *LocationHandler) Search(c *fiber.Ctx) error {
	var params dto.LocationQueryParams
	if err := bindQuery(c, &params); err != nil {
		return utils.SendError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	resp, err := h.resolverUC.Search(ctx, params)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendJSON(c, resp)
}
