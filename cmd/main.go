// cmd/main.go is the application entry point.
// It wires together all layers and exposes the serve, migrate and seed
// commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/bto-housing/internal/config"
	"github.com/Shivanand-hulikatti/bto-housing/internal/database"
	"github.com/Shivanand-hulikatti/bto-housing/internal/handler"
	"github.com/Shivanand-hulikatti/bto-housing/internal/metrics"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository/memory"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository/postgres"
	"github.com/Shivanand-hulikatti/bto-housing/internal/seed"
	"github.com/Shivanand-hulikatti/bto-housing/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var envFile string

	root := &cobra.Command{
		Use:          "bto",
		Short:        "BTO housing application engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if a.cfg, err = config.Load(envFile); err != nil {
				return err
			}
			a.log, err = a.cfg.Logger()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
		RunE: a.serve,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	var seedFile string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and projects from a YAML file into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seedFile == "" {
				seedFile = a.cfg.SeedFile
			}
			if seedFile == "" {
				return errors.New("seed: --file or SEED_FILE is required")
			}
			return a.seed(cmd.Context(), seedFile)
		},
	}
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML seed file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE:  a.serve,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the PostgreSQL schema",
			RunE:  a.migrate,
		},
		seedCmd,
	)
	return root
}

// openStore returns the configured store and a function releasing it.
func (a *app) openStore(ctx context.Context) (repository.Store, func(), error) {
	if a.cfg.Store == config.StoreMemory {
		store, err := memory.New()
		if err != nil {
			return nil, nil, fmt.Errorf("memory store: %w", err)
		}
		a.log.Info("using in-memory store")
		return store, func() {}, nil
	}

	pool, err := database.NewPool(ctx, a.cfg.DSN(), a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	a.log.Info("connected to PostgreSQL")
	return postgres.New(pool), pool.Close, nil
}

func (a *app) migrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pool, err := database.NewPool(ctx, a.cfg.DSN(), a.log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	a.log.Info("schema applied")
	return nil
}

func (a *app) seed(ctx context.Context, path string) error {
	if a.cfg.Store == config.StoreMemory {
		a.log.Warn("seeding the in-memory store; data is discarded when the command exits")
	}
	store, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	return seed.Apply(ctx, service.New(store, service.WithLogger(a.log)), f, a.log)
}

func (a *app) serve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// ── 1. Open the store ─────────────────────────────────────────────────
	store, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	// ── 2. Wire up layers ────────────────────────────────────────────────
	collector := metrics.NewCollector()
	engine := service.New(store,
		service.WithLogger(a.log),
		service.WithMetrics(collector),
	)
	if a.cfg.SeedFile != "" {
		f, err := seed.LoadFile(a.cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, engine, f, a.log); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	// ── 3. Build the router ───────────────────────────────────────────────
	r := handler.NewRouter(handler.New(engine, a.log), handler.RouterConfig{
		Metrics:        collector,
		RateLimitRPS:   a.cfg.RateLimitRPS,
		RateLimitBurst: a.cfg.RateLimitBurst,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", a.cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", a.cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}
