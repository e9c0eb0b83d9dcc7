// Package server wires the echo HTTP server: middleware stack, route
// registration and timeouts.
package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	echoapi "github.com/miracoleplus/bridge/api/echo"
)

// NewHTTPServer creates the configured echo instance with recovery, request
// logging and all routes registered. The caller owns startup and shutdown.
func NewHTTPServer(authAPI *echoapi.AuthAPI) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 5 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.IdleTimeout = 120 * time.Second

	e.Use(middleware.Recover())
	e.Use(requestLogger())

	authAPI.RegisterRoutes(e)

	return e
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			evt := log.Info()
			if err != nil || c.Response().Status >= 500 {
				evt = log.Error().Err(err)
			}
			evt.Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Msg("http request")

			return err
		}
	}
}
