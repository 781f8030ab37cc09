package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pbnadmin/internal/config"
	"pbnadmin/internal/console"
	"pbnadmin/internal/store"
	"pbnadmin/internal/store/objects"
	"pbnadmin/internal/store/remote"
	"pbnadmin/internal/store/sqlstore"
	"pbnadmin/internal/web"
)

func main() {
	setupLogging(os.Stdout, os.Getenv("PBN_DEBUG_LEVEL"), os.Getenv("PBN_LOG_PRETTY"))
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}
	slog.Info("startup", "store", cfg.Store, "sites", len(catalog.Sites), "layouts", len(catalog.Layouts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg, catalog)
	if err != nil {
		return err
	}
	defer backend.close()

	srv := web.NewServer(console.New(backend.gw, backend.bucket, catalog), web.Options{
		ObjectsDir:     backend.objectsDir,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	})
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr, "public_url", cfg.PublicURL)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type backend struct {
	gw         store.Gateway
	bucket     store.Bucket
	objectsDir string
	close      func()
}

func openBackend(ctx context.Context, cfg config.Config, catalog config.Catalog) (backend, error) {
	switch cfg.Store {
	case config.StoreRemote:
		client, err := remote.New(cfg.RemoteURL, cfg.RemoteKey, cfg.RemoteTimeout)
		if err != nil {
			return backend{}, err
		}
		return backend{gw: client, bucket: client, close: func() {}}, nil
	case config.StoreSQLite, "":
		dataPath, err := filepath.Abs(cfg.DataPath)
		if err != nil {
			return backend{}, fmt.Errorf("resolve data path: %w", err)
		}
		if err := os.MkdirAll(dataPath, 0o755); err != nil {
			return backend{}, fmt.Errorf("create data dir: %w", err)
		}
		db, err := sqlstore.OpenWithOptions(filepath.Join(dataPath, "pbn.sqlite"), sqlstore.Options{
			BusyTimeout: cfg.DBBusyTimeout,
			LockTimeout: cfg.DBLockTimeout,
		})
		if err != nil {
			return backend{}, fmt.Errorf("open store: %w", err)
		}
		initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := db.Init(initCtx, catalog.SiteTables()); err != nil {
			db.Close()
			return backend{}, fmt.Errorf("init store: %w", err)
		}
		bucket := objects.NewDir(filepath.Join(dataPath, "objects"), cfg.PublicURL)
		return backend{
			gw:         db,
			bucket:     bucket,
			objectsDir: bucket.Root(),
			close: func() {
				if err := db.Close(); err != nil {
					slog.Warn("close store", "err", err)
				}
			},
		}, nil
	default:
		return backend{}, fmt.Errorf("unknown store %q (want %s or %s)", cfg.Store, config.StoreSQLite, config.StoreRemote)
	}
}
