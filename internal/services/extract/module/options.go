package module

import (
	"time"

	"chartline/internal/adapters/ingest/tdf"
	"chartline/internal/platform/config"
	"chartline/internal/services/extract/guardrails"
)

// sink and catalog choices
const (
	SinkMemory     = "memory"
	SinkClickhouse = "clickhouse"

	CatalogNone = "none"
	CatalogFile = "file"
	CatalogPG   = "pg"
)

// Options holds configuration options for the extract service
type Options struct {
	Chunk            int64
	Workers          int
	MinSamples       int
	MinIntervalHours int
	ClipSubjects     int
	Norm             string

	Sink     string
	CHBatch  int
	Catalog  string
	CacheDir string

	Timeouts guardrails.Timeouts
}

// FromConfig reads the extract options from config with CORE_EXTRACT_ prefix
func FromConfig(cfg config.Conf) Options {
	ex := cfg.Prefix("CORE_EXTRACT_")
	return Options{
		Chunk:            ex.MayBytes("CHUNK_BYTES", tdf.DefaultChunk),
		Workers:          ex.MayInt("WORKERS", 4),
		MinSamples:       ex.MayInt("MIN_SAMPLES", 1),
		MinIntervalHours: ex.MayInt("MIN_INTERVAL_HOURS", 12),
		ClipSubjects:     ex.MayInt("CLIP_SUBJECTS", 0),
		Norm:             ex.MayEnum("NORM", "NormFraction", "NormFraction", "NormInt0-100"),
		Sink:             ex.MayEnum("SINK", SinkMemory, SinkMemory, SinkClickhouse),
		CHBatch:          ex.MayInt("CH_BATCH", 10000),
		Catalog:          ex.MayEnum("CATALOG", CatalogNone, CatalogNone, CatalogFile, CatalogPG),
		CacheDir:         ex.MayString("CACHE_DIR", ".chartline"),
		Timeouts: guardrails.Timeouts{
			Run:       ex.MayDuration("RUN_TIMEOUT", 0),
			Partition: ex.MayDuration("PARTITION_TIMEOUT", 0),
			Sink:      ex.MayDuration("SINK_TIMEOUT", 30*time.Second),
		},
	}
}
