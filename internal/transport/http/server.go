// Package http provides the HTTP server for the assistant backend.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/stgmed/assistant/internal/service"
	v1 "github.com/stgmed/assistant/internal/transport/http/v1"
)

// NewServer creates and configures the echo server consumed by the web
// client.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	v1.NewHandler(svc).RegisterRoutes(e)

	return e
}
