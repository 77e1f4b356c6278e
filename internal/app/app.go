// Package app contains the web front-end.
package app

import (
	"embed"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/brioso/stockroom/internal/config"
	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/sec"
	"github.com/brioso/stockroom/internal/storage"
)

//go:embed static
var staticFiles embed.FS

// New creates a web front-end server.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	store storage.Store,
	svc *inventory.Service,
) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)
	srv.Renderer = newRenderer()

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	} else {
		srv.Use(
			middleware.Recover(),
			middleware.BasicAuth(func(_, _ string, c echo.Context) (bool, error) {
				ctx := c.Request().Context()
				usr, err := sec.Authenticate(ctx, c.Request(), store)
				if err != nil {
					return false, nil
				}
				ctx = sec.SetAuthenticatedUser(ctx, usr)
				c.SetRequest(c.Request().WithContext(ctx))
				return true, nil
			}),
		)
	}

	srv.Use(
		middleware.Decompress(),
		middleware.Gzip(),
		middleware.Secure(),
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup: "form:csrf,header:" + echo.HeaderXCSRFToken,
		}),
		middleware.RequestID(),
	)

	handler{store: store, svc: svc, logger: logger}.register(srv)
	staticFS := echo.MustSubFS(staticFiles, "static")
	srv.StaticFS("/static/", staticFS)
	return srv
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return err
		}
	}
}
