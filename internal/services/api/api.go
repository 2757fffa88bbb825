// Package api provides the HTTP API for the application
package api

import (
	"time"

	"chartline/internal/core/vars"
	"chartline/internal/platform/config"
	"chartline/internal/platform/logger"
	"chartline/internal/platform/metrics"
	phttp "chartline/internal/platform/net/http"
	"chartline/internal/platform/net/middleware"
	"chartline/internal/platform/store"

	"chartline/internal/modkit"

	metamod "chartline/internal/services/api/meta/module"
	varsmod "chartline/internal/services/api/variables/module"
	extractmod "chartline/internal/services/extract/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	Vars           *vars.Registry
	CORSOrigins    []string
	SlowRequest    time.Duration
	EnableMetrics  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Log:     opt.Logger,
		Cfg:     opt.Config,
		Metrics: opt.Metrics,
		Vars:    opt.Vars,
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}
	deps = deps.WithDefaults()

	mods := []modkit.Module{
		metamod.New(deps),
		varsmod.New(deps),
		extractmod.New(deps), // no routes; registers the extract runner port
	}

	mw := []middleware.Middleware{
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins}),
		middleware.AccessLog(middleware.AccessLogOptions{
			Slow:    opt.SlowRequest,
			Observe: opt.Metrics.ObserveHTTP,
		}),
	}

	if opt.EnableMetrics {
		r.Handle("/metrics", opt.Metrics.Handler())
	}
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	modkit.MountAPIV1(r, mw, func(api phttp.Router) {
		modkit.MountAll(api, mods...)
	})
}
