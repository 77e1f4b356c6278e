// Package api contains the JSON API, served on its own listener so it can
// be exposed separately from the web front-end.
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/sec"
	"github.com/brioso/stockroom/internal/storage"
)

// New creates the API server. Unlike the web front-end, the API always
// requires credentials, dev mode or not.
func New(
	logger *slog.Logger,
	store storage.Store,
	svc *inventory.Service,
) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)

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
		middleware.Gzip(),
		middleware.RequestID(),
	)

	handler{store: store, svc: svc, logger: logger}.register(srv)
	return srv
}
