package http

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/delivery/http/handler"
	"github.com/location-lookup/internal/delivery/http/middleware"
	"github.com/location-lookup/internal/pkg/errors"
	"github.com/location-lookup/internal/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	locationHandler *handler.LocationHandler
	cityHandler     *handler.CityHandler
	healthHandler   *handler.HealthHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	locationHandler *handler.LocationHandler,
	cityHandler *handler.CityHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Location Lookup",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
	})

	s := &Server{
		app:             app,
		config:          cfg,
		logger:          logger,
		locationHandler: locationHandler,
		cityHandler:     cityHandler,
		healthHandler:   healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.app.Get("/readyz", s.healthHandler.Ready)

	api := s.app.Group("/api/v1")
	api.Get("/health", s.healthHandler.Health)

	locations := api.Group("/locations")
	locations.Get("/resolve", s.locationHandler.Resolve)
	locations.Get("/search", s.locationHandler.Search)

	city := s.app.Group("/city/v1")
	city.Get("/get", s.cityHandler.Get)
	city.Get("/featured", s.cityHandler.Featured)
	city.Get("/search", s.cityHandler.Search)
	city.Get("/closest", s.cityHandler.Closest)
	city.Get("/associatedFeatured", s.cityHandler.AssociatedFeatured)
}

// App - для app.Test в тестах
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler сохраняет коды fiber.Error (404, 405); остальное - 500
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			code := "INTERNAL_SERVER_ERROR"
			switch fe.Code {
			case fiber.StatusNotFound:
				code = errors.ErrNotFound.Code
			case fiber.StatusMethodNotAllowed:
				code = "METHOD_NOT_ALLOWED"
			default:
				if fe.Code < fiber.StatusInternalServerError {
					code = errors.ErrInvalidRequest.Code
				}
			}
			return c.Status(fe.Code).JSON(utils.ErrorResponse{
				Error: errors.New(code, fe.Message, fe.Code),
			})
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}
