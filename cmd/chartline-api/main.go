package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chartline/internal/core/vars"
	"chartline/internal/platform/config"
	"chartline/internal/platform/logger"
	"chartline/internal/platform/metrics"
	phttp "chartline/internal/platform/net/http"
	"chartline/internal/platform/net/middleware"
	"chartline/internal/platform/store"

	"chartline/internal/services/api"

	"github.com/go-chi/chi/v5"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// backends are optional; SERVICE_PGSQL_DBURL / SERVICE_CLICKHOUSE_DBURL enable them
	st, err := store.Open(ctx, store.ConfigFromEnv("api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(apiCfg, func(m *chi.Mux) {
		m.Use(middleware.Defaults()...)
	})

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Metrics:        metrics.New(),
			Vars:           vars.Default(),
			CORSOrigins:    apiCfg.MayCSV("CORS_ORIGINS", []string{"*"}),
			SlowRequest:    time.Duration(apiCfg.MayInt("SLOW_MS", 500)) * time.Millisecond,
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
