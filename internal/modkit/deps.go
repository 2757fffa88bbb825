package modkit

import (
	"chartline/internal/core/vars"
	"chartline/internal/platform/config"
	"chartline/internal/platform/logger"
	"chartline/internal/platform/metrics"
	"chartline/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// PG, CH and Metrics are optional and nil when their backend is off
type Deps struct {
	Log     *logger.Logger
	Cfg     config.Conf
	PG      store.TxRunner
	CH      store.Clickhouse
	Metrics *metrics.Metrics
	Vars    *vars.Registry
}

// WithDefaults fills the zero fields that have a process-wide default
func (d Deps) WithDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.Get()
	}
	if d.Vars == nil {
		d.Vars = vars.Default()
	}
	return d
}
