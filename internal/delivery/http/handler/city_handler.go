package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/pkg/errors"
	"github.com/location-lookup/internal/pkg/utils"
	"github.com/location-lookup/internal/pkg/validator"
	"github.com/location-lookup/internal/usecase"
	"github.com/location-lookup/internal/usecase/dto"
	"go.uber.org/zap"
)

// Заголовки гео-IP от CDN
const (
	HeaderEdgeLat = "Fastly-Geo-Lat"
	HeaderEdgeLon = "Fastly-Geo-Lon"
)

// CityHandler - эндпоинты /city/v1
type CityHandler struct {
	cityUC  *usecase.CityUseCase
	timeout time.Duration
	logger  *zap.Logger
}

func NewCityHandler(cityUC *usecase.CityUseCase, timeout time.Duration, logger *zap.Logger) *CityHandler {
	return &CityHandler{
		cityUC:  cityUC,
		timeout: timeout,
		logger:  logger,
	}
}

// Get godoc
// @Summary Город по id
// @Tags City
// @Produce json
// @Param id query string true "ID города"
// @Param language query string true "Язык названий"
// @Success 200 {object} dto.CityResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /city/v1/get [get]
func (h *CityHandler) Get(c *fiber.Ctx) error {
	var req dto.CityGetRequest
	if err := parse(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	resp, err := h.cityUC.Get(ctx, strings.TrimSpace(req.ID), locale(req.Language))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendJSON(c, resp)
}

// Featured godoc
// @Summary Избранные города
// @Description Города предпочтительной для языка страны идут первыми
// @Tags City
// @Produce json
// @Param language query string true "Язык названий"
// @Success 200 {object} dto.MultiCityResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /city/v1/featured [get]
func (h *CityHandler) Featured(c *fiber.Ctx) error {
	var req dto.CityLanguageRequest
	if err := parse(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	resp, err := h.cityUC.Featured(ctx, locale(req.Language))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendJSON(c, resp)
}

// Search godoc
// @Summary Поиск городов по названию
// @Tags City
// @Produce json
// @Param query query string true "Название"
// @Param language query string true "Язык названий"
// @Param countryIso query string false "ISO 3166-1 alpha-2"
// @Success 200 {object} dto.MultiCityResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /city/v1/search [get]
func (h *CityHandler) Search(c *fiber.Ctx) error {
	var req dto.CitySearchRequest
	if err := bindQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	req.CountryISO = strings.ToUpper(strings.TrimSpace(req.CountryISO))
	if err := errors.JoinValidation(h.cityUC.CheckTerm(req.Query), validator.Validate(&req)); err != nil {
		return utils.SendError(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	resp, err := h.cityUC.Search(ctx, req.Query, locale(req.Language), req.CountryISO)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendJSON(c, resp)
}

// Closest godoc
// @Summary Ближайший город
// @Description Без координат используется гео-IP из заголовков CDN, иначе город по умолчанию для языка
// @Tags City
// @Produce json
// @Param lat query number false "Широта, только вместе с lon"
// @Param lon query number false "Долгота, только вместе с lat"
// @Param language query string true "Язык названий"
// @Success 200 {object} dto.CityResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /city/v1/closest [get]
func (h *CityHandler) Closest(c *fiber.Ctx) error {
	var req dto.CityClosestRequest
	if err := parse(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	var point *domain.Point
	if req.Lat != "" && req.Lon != "" {
		lat, _ := strconv.ParseFloat(req.Lat, 64)
		lon, _ := strconv.ParseFloat(req.Lon, 64)
		point = &domain.Point{Lat: lat, Lon: lon}
	}

	ctx, cancel := h.context(c)
	defer cancel()

	resp, err := h.cityUC.Closest(ctx, point, edgePoint(c), locale(req.Language))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendJSON(c, resp)
}

// AssociatedFeatured godoc
// @Summary Избранный город для города
// @Description Сам город, если он избранный, иначе ближайший избранный
// @Tags City
// @Produce json
// @Param id query string true "ID города"
// @Param language query string true "Язык названий"
// @Success 200 {object} dto.CityResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /city/v1/associatedFeatured [get]
func (h *CityHandler) AssociatedFeatured(c *fiber.Ctx) error {
	var req dto.CityGetRequest
	if err := parse(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	resp, err := h.cityUC.AssociatedFeatured(ctx, strings.TrimSpace(req.ID), locale(req.Language))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendJSON(c, resp)
}

func (h *CityHandler) context(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), h.timeout)
}

// bindQuery - разбор query string; ошибка разбора - INVALID_REQUEST
func bindQuery(c *fiber.Ctx, req interface{}) error {
	if err := c.QueryParser(req); err != nil {
		return errors.ErrInvalidRequest.Wrap(err)
	}
	return nil
}

// parse - bindQuery и проверка тегов validate
func parse(c *fiber.Ctx, req interface{}) error {
	if err := bindQuery(c, req); err != nil {
		return err
	}
	return validator.Validate(req)
}

func locale(raw string) domain.Locale {
	return domain.Locale(strings.ToLower(strings.TrimSpace(raw)))
}

// edgePoint - координаты из заголовков CDN; нечисловые и вне диапазона игнорируются
func edgePoint(c *fiber.Ctx) *domain.Point {
	lat, err := strconv.ParseFloat(c.Get(HeaderEdgeLat), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(c.Get(HeaderEdgeLon), 64)
	if err != nil {
		return nil
	}
	if !utils.ValidateCoordinates(lat, lon) {
		return nil
	}
	return &domain.Point{Lat: lat, Lon: lon}
}
