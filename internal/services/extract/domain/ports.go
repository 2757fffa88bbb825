package domain

import (
	"context"

	"chartline/internal/adapters/ingest/tdf"
)

// RunnerPort is the public port of the extract module
type RunnerPort interface {
	Run(ctx context.Context, req Request) (Summary, error)
	Layout(ctx context.Context, file string, chunk int64) (*tdf.Layout, bool, error)
}

// SampleSink receives batches in file order
type SampleSink interface {
	// Write hands over one subject's samples; the sink owns the batch afterwards
	Write(ctx context.Context, b Batch) error

	// Flush pushes anything buffered
	Flush(ctx context.Context) error
}

// LayoutStore caches preflight layouts
type LayoutStore = tdf.LayoutStore
