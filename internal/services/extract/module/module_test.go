package module

import (
	"testing"
	"time"

	"chartline/internal/modkit"
	"chartline/internal/platform/config"
	"chartline/internal/services/extract/repo"
)

func TestFromConfigDefaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.Chunk != 2<<20 || o.Workers != 4 || o.MinSamples != 1 || o.MinIntervalHours != 12 {
		t.Fatalf("opts=%+v", o)
	}
	if o.Sink != SinkMemory || o.Catalog != CatalogNone || o.Norm != "NormFraction" {
		t.Fatalf("opts=%+v", o)
	}
}

func TestFromConfigEnv(t *testing.T) {
	t.Setenv("CORE_EXTRACT_CHUNK_BYTES", "64KiB")
	t.Setenv("CORE_EXTRACT_WORKERS", "8")
	t.Setenv("CORE_EXTRACT_NORM", "normint0-100")
	t.Setenv("CORE_EXTRACT_CATALOG", "FILE")
	t.Setenv("CORE_EXTRACT_PARTITION_TIMEOUT", "90s")
	o := FromConfig(config.New())
	if o.Timeouts.Partition != 90*time.Second || o.Timeouts.Run != 0 || o.Timeouts.Sink != 30*time.Second {
		t.Fatalf("timeouts=%+v", o.Timeouts)
	}
	if o.Chunk != 64<<10 || o.Workers != 8 || o.Norm != "NormInt0-100" || o.Catalog != CatalogFile {
		t.Fatalf("opts=%+v", o)
	}
}

func TestNewFallsBackWithoutBackends(t *testing.T) {
	t.Setenv("CORE_EXTRACT_SINK", "clickhouse")
	t.Setenv("CORE_EXTRACT_CATALOG", "pg")
	m := New(modkit.Deps{Cfg: config.New()})
	if _, ok := m.Sink().(*repo.MemorySink); !ok {
		t.Fatalf("sink=%T", m.Sink())
	}
	if m.Name() != "extract" {
		t.Fatalf("name=%s", m.Name())
	}
	p := modkit.MustPortsOf[Ports](m)
	if p.Runner == nil {
		t.Fatalf("runner port not wired")
	}
}
