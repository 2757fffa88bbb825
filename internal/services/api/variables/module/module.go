// Package module wires the variable table into the API using modkit
package module

import (
	"chartline/internal/modkit"
	phttp "chartline/internal/platform/net/http"
	str "chartline/internal/platform/strings"
	varhttp "chartline/internal/services/api/variables/http"
	varsvc "chartline/internal/services/api/variables/service"
)

// Ports exposes the variable service to other modules
type Ports struct {
	Variables varsvc.Service
}

// Module implements the variables module
type Module struct {
	built modkit.Built
	svc   varsvc.Service
}

// New constructs the variables module over deps.Vars
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	deps = deps.WithDefaults()
	b := modkit.Build(append([]modkit.Option{modkit.WithName("variables"), modkit.WithPrefix("/variables")}, opts...)...)
	return &Module{built: b, svc: varsvc.New(deps.Vars)}
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r phttp.Router) {
	m.built.Mount(r, func(rr phttp.Router) { varhttp.Register(rr, m.svc) })
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.built.Name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.built.Prefix) }

// Ports returns the module ports
func (m *Module) Ports() any { return Ports{Variables: m.svc} }
