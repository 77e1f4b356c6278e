package command

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brioso/stockroom/internal/api"
	"github.com/brioso/stockroom/internal/app"
	"github.com/brioso/stockroom/internal/config"
	"github.com/brioso/stockroom/internal/devseed"
	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/securectx"
	"github.com/brioso/stockroom/internal/server"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the stockroom web app and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			svc := inventory.New(store, logger)

			if cfg.DevMode {
				seed := devseed.Seed()
				logger.InfoContext(cmd.Context(),
					"seeding development corpus",
					slog.Uint64("seed", seed),
				)
				if err := devseed.Populate(cmd.Context(), store, svc, seed); err != nil {
					return err
				}
			}

			if count, err := store.CountUsers(cmd.Context()); err != nil {
				return err
			} else if count == 0 && !cfg.DevMode {
				logger.WarnContext(cmd.Context(),
					"no users exist, every request will be rejected",
					slog.String("hint", "run `stockroom user create NAME` first"),
				)
			}

			checkWebOrigin(cfg, logger)

			grp, ctx := errgroup.WithContext(cmd.Context())
			serveApp(ctx, grp, cfg, logger, app.New(cfg, logger, store, svc))
			serveAPI(ctx, grp, cfg, logger, api.New(logger, store, svc))
			return grp.Wait()
		},
	}
}

// checkWebOrigin warns, once, when the web app is served from an origin
// where browsers will refuse camera access. The public URL wins when set,
// since that is what phones on the floor actually type in.
func checkWebOrigin(cfg *config.Config, logger *slog.Logger) {
	if cfg.WebAddress == "" {
		return
	}

	guard := securectx.NewGuard(logger, func(message string) {
		_, _ = os.Stderr.WriteString(message + "\n")
	})

	origin := securectx.FromAddr(cfg.WebAddress, cfg.TLS.Enabled())
	if cfg.PublicURL != "" {
		if u, err := url.Parse(cfg.PublicURL); err == nil {
			origin = securectx.FromURL(u)
		}
	}
	guard.Check(origin)
}

func serveApp(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	srv *echo.Echo,
) {
	addr := cfg.WebAddress
	if addr == "" {
		return
	}

	listener, err := server.Listen(ctx, addr)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}
	listener, err = server.WrapTLS(listener, cfg.TLS)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}

	logger.InfoContext(ctx,
		"starting app server...",
		slog.String("address", addr),
		slog.Bool("tls", cfg.TLS.Enabled()),
	)
	server.Serve(ctx, grp, srv.Server, listener, server.ShutdownTimeout)
}

func serveAPI(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	srv *echo.Echo,
) {
	addr := cfg.APIAddress
	if addr == "" {
		return
	}

	listener, err := server.Listen(ctx, addr)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}

	logger.InfoContext(ctx,
		"starting API server...",
		slog.String("address", addr),
	)
	server.Serve(ctx, grp, srv.Server, listener, server.ShutdownTimeout)
}
