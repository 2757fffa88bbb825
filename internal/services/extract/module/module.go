// Package module provides the extract module implementation
package module

import (
	"context"

	"chartline/internal/adapters/ingest/tdf"
	"chartline/internal/modkit"
	phttp "chartline/internal/platform/net/http"
	"chartline/internal/services/extract/domain"
	"chartline/internal/services/extract/repo"
	"chartline/internal/services/extract/service"
)

// Ports defines the extract module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the extract module
type Module struct {
	deps    modkit.Deps
	opts    Options
	sink    domain.SampleSink
	layouts domain.LayoutStore
	ports   Ports
}

// New constructs the extract module from deps.Cfg. A sink or catalog whose
// backend is not configured falls back to memory and no catalog.
// It does not mount any routes.
func New(deps modkit.Deps) *Module {
	deps = deps.WithDefaults()
	opts := FromConfig(deps.Cfg)
	log := deps.Log

	var sink domain.SampleSink = repo.NewMemory()
	if opts.Sink == SinkClickhouse {
		if deps.CH != nil {
			sink = repo.NewCH(deps.CH, opts.CHBatch)
		} else {
			log.Warn().Msg("extract: clickhouse sink requested without SERVICE_CLICKHOUSE_DBURL; using memory")
		}
	}

	var layouts domain.LayoutStore
	switch opts.Catalog {
	case CatalogPG:
		if deps.PG != nil {
			layouts = repo.NewPGCatalog(deps.PG)
		} else {
			log.Warn().Msg("extract: pg catalog requested without SERVICE_PGSQL_DBURL; layouts are not cached")
		}
	case CatalogFile:
		fc, err := tdf.NewFileCache(opts.CacheDir)
		if err != nil {
			log.Warn().Err(err).Msg("extract: layout cache disabled")
		} else {
			layouts = fc
		}
	}

	svc := service.New(deps.Vars, sink, layouts, deps.Metrics, service.Config{
		Workers:          opts.Workers,
		Chunk:            opts.Chunk,
		MinSamples:       opts.MinSamples,
		MinIntervalHours: opts.MinIntervalHours,
		ClipSubjects:     opts.ClipSubjects,
		Norm:             opts.Norm,
		Timeouts:         opts.Timeouts,
	})

	return &Module{deps: deps, opts: opts, sink: sink, layouts: layouts, ports: Ports{Runner: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "extract" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }

// Sink returns the configured sample sink
func (m *Module) Sink() domain.SampleSink { return m.sink }

type schemaer interface {
	EnsureSchema(ctx context.Context) error
}

// EnsureSchema creates the tables of the database backed sink and catalog
func (m *Module) EnsureSchema(ctx context.Context) error {
	for _, x := range []any{m.sink, m.layouts} {
		if s, ok := x.(schemaer); ok {
			if err := s.EnsureSchema(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// MountRoutes is a no-op as extract has no routes
func (m *Module) MountRoutes(phttp.Router) {}

var _ modkit.Module = (*Module)(nil)
