package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the account API, health and metrics endpoints on e.
// metrics may be nil.
func RegisterRoutes(e *echo.Echo, accounts *AccountHandler, health *HealthCheckHandler, metrics http.Handler) {
	e.GET("/health", health.HealthCheck)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	g := e.Group("/accounts")
	g.POST("", accounts.CreateAccount)
	g.GET("", accounts.ListAccounts)
	g.GET("/:account_id", accounts.GetAccount)
	g.PUT("/:account_id/status", accounts.UpdateAccountStatus)
	g.PATCH("/:account_id", accounts.PatchAccount)
	g.DELETE("/:account_id", accounts.CloseAccount)
}
