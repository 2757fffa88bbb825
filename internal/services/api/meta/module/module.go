// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"chartline/internal/modkit"
	phttp "chartline/internal/platform/net/http"
	str "chartline/internal/platform/strings"

	metahttp "chartline/internal/services/api/meta/http"
)

// ServiceName is reported by health and version
const ServiceName = "chartline-api"

// Module implements the modkit.Module interface
type Module struct {
	deps      modkit.Deps
	built     modkit.Built
	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)
	return &Module{deps: deps.WithDefaults(), built: b, startedAt: time.Now()}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	d := metahttp.Deps{
		ServiceName: ServiceName,
		StartedAt:   m.startedAt,
		Variables:   m.deps.Vars.Len(),
	}
	// a nil interface value inside any would read as configured
	if m.deps.PG != nil {
		d.PG = m.deps.PG
	}
	if m.deps.CH != nil {
		d.CH = m.deps.CH
	}
	m.built.Mount(r, func(rr phttp.Router) { metahttp.Register(rr, d) })
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.built.Name, "meta") }

// Prefix returns the route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.built.Prefix) }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return m.built.Ports }
