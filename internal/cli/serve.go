// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/api/handlers"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/cache"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/config"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/fetcher"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/graph"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background sync worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("port", "", "listen port")
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

func graphClient(cfg config.Config) *graph.HTTPClient {
	timeout := time.Duration(cfg.Facebook.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return graph.NewHTTPClient(cfg.Facebook.GraphURL, cfg.Facebook.APIVersion, timeout)
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	appCfg := config.NewAppConfig(cfg)
	if appCfg.KeyB64Err != nil {
		log.Warn().Err(appCfg.KeyB64Err).Msg("Graph tokens will not be stored")
	}
	if !cfg.Server.PrettyLogs {
		gin.SetMode(gin.ReleaseMode)
	}

	client := graphClient(cfg)

	var (
		store  handlers.Store
		syncer handlers.Syncer
	)
	if dsn := cfg.PostgresDSN(); dsn == "" {
		log.Info().Msg("Database configuration not found, running without database")
	} else {
		db, queries, err := database.Open(ctx, dsn)
		if err != nil {
			appCfg.DBInitErr = err
			log.Warn().Err(err).Msg("Database connection failed, continuing without database")
		} else {
			defer db.Close()
			store = queries

			w := worker.NewWorker(queries, fetcher.NewCollector(client), appCfg.TokenEncryptionKey)
			syncer = w
			if cfg.Worker.Enabled && cfg.Worker.Interval > 0 {
				w.Start(cfg.Worker.Interval)
				defer w.Stop()
			}
		}
	}

	cacheStore, err := cache.New(cfg)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("Cache unavailable, continuing without cache")
		cacheStore = cache.Noop{}
	}
	defer cacheStore.Close()

	h := handlers.NewHandler(appCfg, store, client, cacheStore, syncer)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", config.AppVersion).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
