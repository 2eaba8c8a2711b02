package server

import (
	"github.com/readingbooks/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	// Upload routes
	e.POST("/upload", routes.UploadHandler)
	e.POST("/upload-with-progress", routes.UploadWithProgressHandler)
}
