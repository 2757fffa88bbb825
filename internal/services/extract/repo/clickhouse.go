package repo

import (
	"context"

	perr "chartline/internal/platform/errors"
	"chartline/internal/platform/store"
	"chartline/internal/services/extract/domain"
)

// SamplesTable is where CHSink writes
const SamplesTable = "chartline_samples"

// SamplesDDL creates SamplesTable
const SamplesDDL = `
	CREATE TABLE IF NOT EXISTS chartline_samples (
		run_id    String,
		part      UInt32,
		subject   String,
		win       UInt32,
		step      UInt32,
		day       Int32,
		hour      Int32,
		inputs    Array(Float64),
		target    Float64,
		class     Int32,
		added_at  DateTime DEFAULT now()
	)
	ENGINE = MergeTree
	ORDER BY (run_id, part, subject, win, step)
`

// DefaultCHBatch is the row count CHSink buffers before an insert
const DefaultCHBatch = 10000

// CHSink buffers samples and inserts them into clickhouse in batches
type CHSink struct {
	ch    store.Clickhouse
	batch int
	rows  [][]any
}

// NewCH returns a CHSink; batch <= 0 means DefaultCHBatch
func NewCH(ch store.Clickhouse, batch int) *CHSink {
	if batch <= 0 {
		batch = DefaultCHBatch
	}
	return &CHSink{ch: ch, batch: batch}
}

// EnsureSchema creates the samples table
func (s *CHSink) EnsureSchema(ctx context.Context) error {
	if err := s.ch.Exec(ctx, SamplesDDL); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "ch: create %s", SamplesTable)
	}
	return nil
}

// Write implements domain.SampleSink
func (s *CHSink) Write(ctx context.Context, b domain.Batch) error {
	for _, smp := range b.Samples {
		s.rows = append(s.rows, []any{
			b.RunID,
			uint32(b.Partition),
			smp.Subject,
			uint32(smp.Window),
			uint32(smp.Step),
			int32(smp.Day),
			int32(smp.Hour),
			smp.Inputs,
			smp.Target,
			int32(smp.Class),
		})
	}
	if len(s.rows) >= s.batch {
		return s.Flush(ctx)
	}
	return nil
}

// Flush implements domain.SampleSink
func (s *CHSink) Flush(ctx context.Context) error {
	if len(s.rows) == 0 {
		return nil
	}
	if err := s.ch.Insert(ctx, SamplesTable+" (run_id, part, subject, win, step, day, hour, inputs, target, class)", s.rows); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "ch: insert %d samples", len(s.rows))
	}
	s.rows = s.rows[:0]
	return nil
}
