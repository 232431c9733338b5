package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS - эндпоинты только на чтение, открыты для любого origin
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,HEAD,OPTIONS",
		AllowHeaders:  "Content-Type,Accept,Accept-Language," + HeaderRequestID,
		ExposeHeaders: HeaderRequestID + ",Retry-After",
		MaxAge:        3600,
	})
}
