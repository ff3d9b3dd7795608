// Package router wires handlers onto the Echo instance. Route groups own
// their middleware: auth endpoints sit behind the rate limiter, everything
// under a session requirement goes through RequireLogin, and admin
// surfaces additionally go through RequireAdmin.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/handler"
)

// RegisterRoutes registers routes with no auth requirement that are not
// part of a domain area. Currently just the health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}
