package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/ecomm/internal/database"
	"github.com/yanizio/ecomm/internal/logger"
	"github.com/yanizio/ecomm/internal/server"
	"github.com/yanizio/ecomm/internal/vault"
)

func newServeCmd(baseDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *baseDir)
		},
	}
}

func serve(ctx context.Context, baseDir string) error {
	//
	// ── 1.  Settings and logger ─────────────────────────────────────────
	//
	cfg, err := loadConfig(baseDir)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Paths.Logs, cfg.Log.Level, logger.IsTTY())
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	for _, w := range cfg.Security.Warnings() {
		log.Warnw("deploy check", "warning", w)
	}

	//
	// ── 2.  Secrets ─────────────────────────────────────────────────────
	//
	if vault.IsRef(cfg.Security.SecretKey) {
		cli, err := vault.New(log)
		if err != nil {
			return err
		}
		if cfg, err = vault.ResolveSecretKey(ctx, cfg, cli); err != nil {
			return err
		}
	}

	//
	// ── 3.  Database ────────────────────────────────────────────────────
	//
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	//
	// ── 4.  Templates, forms, validators, router ────────────────────────
	//
	comps, err := buildComponents(cfg, log)
	if err != nil {
		return err
	}
	defer comps.Close()

	handler, err := server.NewRouter(server.Deps{
		Config:    cfg,
		DB:        db,
		Templates: comps.Templates,
		Requests:  comps.Requests,
		Passwords: comps.Passwords,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	//
	// ── 5.  Listeners and graceful shutdown ─────────────────────────────
	//
	servers := []*http.Server{server.New(cfg.HTTP.ListenAddr, handler)}
	if cfg.HTTP.MetricsAddr != "" {
		servers = append(servers, server.New(cfg.HTTP.MetricsAddr, server.MetricsHandler()))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Infow("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(sctx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
