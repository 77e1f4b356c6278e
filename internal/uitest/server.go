// Package uitest provides UI testing utilities using Rod.
package uitest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/brioso/stockroom/internal/app"
	"github.com/brioso/stockroom/internal/config"
	"github.com/brioso/stockroom/internal/devseed"
	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/server"
	"github.com/brioso/stockroom/internal/storage"
)

// TestSeed is the fixed seed used for reproducible test data.
const TestSeed uint64 = 12345

// Server is a test server that runs the app in dev mode.
type Server struct {
	baseURL string
	cancel  context.CancelFunc
	grp     *errgroup.Group
	store   storage.Store
	dataDir string
}

// newTestServer creates and starts a new test server.
// It panics on errors since it may run before any testing.TB exists.
func newTestServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	grp, ctx := errgroup.WithContext(ctx)

	logger := slog.New(slog.DiscardHandler)

	dataDir, err := os.MkdirTemp("", "stockroom-uitest-*")
	if err != nil {
		cancel()
		panic(fmt.Sprintf("failed to create data dir: %v", err))
	}

	store, err := storage.NewDB(ctx, logger, filepath.Join(dataDir, "db.sqlite"))
	if err != nil {
		cancel()
		panic(fmt.Sprintf("failed to create storage: %v", err))
	}

	svc := inventory.New(store, logger)
	if err := devseed.Populate(ctx, store, svc, TestSeed); err != nil {
		cancel()
		_ = store.Close()
		panic(fmt.Sprintf("failed to seed store: %v", err))
	}

	cfg := config.Default()
	cfg.DevMode = true

	appServer := app.New(cfg, logger, store, svc)
	listener, err := server.Listen(ctx, "127.0.0.1:0")
	if err != nil {
		cancel()
		_ = store.Close()
		panic(fmt.Sprintf("failed to start app server: %v", err))
	}
	addr := listener.Addr().String()
	server.Serve(ctx, grp, appServer.Server, listener, server.ShutdownTimeout)

	return &Server{
		baseURL: "http://" + addr,
		cancel:  cancel,
		grp:     grp,
		store:   store,
		dataDir: dataDir,
	}
}

// Close shuts down the test server.
// Errors are ignored since this runs during test cleanup where failures
// are typically unrecoverable and already logged by the errgroup.
func (s *Server) Close() {
	s.cancel()
	_ = s.grp.Wait()
	_ = s.store.Close()
	_ = os.RemoveAll(s.dataDir)
}

// URL constructs a full URL from the server base URL and a path.
func (s *Server) URL(path string) string {
	return fmt.Sprintf("%s%s", s.baseURL, path)
}
