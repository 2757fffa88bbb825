// Package service provides the extract service implementation
package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"chartline/internal/adapters/ingest/tdf"
	"chartline/internal/core/extract"
	"chartline/internal/core/vars"
	"chartline/internal/core/window"
	perr "chartline/internal/platform/errors"
	"chartline/internal/platform/logger"
	"chartline/internal/platform/metrics"
	"chartline/internal/platform/net/http/bind"
	"chartline/internal/services/extract/domain"
	"chartline/internal/services/extract/guardrails"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config holds the defaults a Request falls back to
type Config struct {
	Workers          int   // parallel partitions; <=0 -> 1
	Chunk            int64 // candidate partition size; <=0 -> tdf.DefaultChunk
	MinSamples       int   // samples a window needs to be emitted; <=0 -> 1
	MinIntervalHours int
	ClipSubjects     int // 0 = every subject
	Norm             string
	Timeouts         guardrails.Timeouts
}

// Service implements the extract service
type Service struct {
	Vars    *vars.Registry
	Sink    domain.SampleSink
	Layouts domain.LayoutStore // optional
	Metrics *metrics.Metrics   // optional
	Cfg     Config
}

// New constructs a Service; a nil registry means the built-in table
func New(reg *vars.Registry, sink domain.SampleSink, layouts domain.LayoutStore, m *metrics.Metrics, cfg Config) *Service {
	if reg == nil {
		reg = vars.Default()
	}
	return &Service{Vars: reg, Sink: sink, Layouts: layouts, Metrics: m, Cfg: cfg}
}

// plan is a validated and compiled request
type plan struct {
	req         domain.Request
	path        string
	x           *extract.Extractor
	start, stop window.Predicate
	minSamples  int
	workers     int
	chunk       int64
}

func (s *Service) compile(req domain.Request) (*plan, error) {
	if err := bind.Validate(req); err != nil {
		return nil, err
	}
	norm, err := vars.ParseNorm(str(req.Norm, s.Cfg.Norm))
	if err != nil {
		return nil, perr.WithField(err, "norm")
	}
	interval := s.Cfg.MinIntervalHours
	if req.MinIntervalHours != nil {
		interval = *req.MinIntervalHours
	}
	x, err := extract.Compile(s.Vars, extract.Spec{
		Inputs:           req.Inputs,
		Target:           req.Target,
		Filters:          req.Filters,
		Norm:             norm,
		MinIntervalHours: interval,
	})
	if err != nil {
		return nil, err
	}
	start, err := window.ParsePredicate(req.Start)
	if err != nil {
		return nil, perr.WithField(err, "start")
	}
	stop, err := window.ParsePredicate(req.Stop)
	if err != nil {
		return nil, perr.WithField(err, "stop")
	}
	path, err := filepath.Abs(req.File)
	if err != nil {
		return nil, perr.IOf(err, "extract: resolve %s", req.File)
	}
	if req.ClipSubjects == 0 {
		req.ClipSubjects = s.Cfg.ClipSubjects
	}
	return &plan{
		req:        req,
		path:       path,
		x:          x,
		start:      start,
		stop:       stop,
		minSamples: max(firstPositive(req.MinSamples, s.Cfg.MinSamples), 1),
		workers:    max(firstPositive(req.Workers, s.Cfg.Workers), 1),
		chunk:      s.chunk(req.Chunk),
	}, nil
}

// Layout returns the corrected partitioning of file, from the layout store
// when it holds a fresh copy. hit reports a cache hit.
func (s *Service) Layout(ctx context.Context, file string, chunk int64) (*tdf.Layout, bool, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, false, perr.IOf(err, "extract: resolve %s", file)
	}
	return s.layout(ctx, path, s.chunk(chunk), max(s.Cfg.Workers, 1))
}

func (s *Service) chunk(req int64) int64 {
	switch {
	case req > 0:
		return req
	case s.Cfg.Chunk > 0:
		return s.Cfg.Chunk
	}
	return tdf.DefaultChunk
}

func (s *Service) layout(ctx context.Context, path string, chunk int64, workers int) (*tdf.Layout, bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, false, perr.IOf(err, "extract: stat %s", path)
	}
	key := tdf.Key{Path: path, Size: fi.Size(), Chunk: chunk}
	if s.Layouts != nil {
		lay, ok, err := s.Layouts.Load(ctx, key)
		if err != nil {
			// a broken cache degrades to a fresh preflight
			logger.C(ctx).Warn().Err(err).Str("path", path).Msg("extract: layout load failed")
		} else if ok {
			return lay, true, nil
		}
	}

	lay, err := tdf.Planner{Workers: workers}.Preflight(ctx, path, chunk, nil)
	if err != nil {
		return nil, false, err
	}
	s.saveLayout(ctx, lay)
	return lay, false, nil
}

func (s *Service) saveLayout(ctx context.Context, lay *tdf.Layout) {
	if s.Layouts == nil {
		return
	}
	if err := s.Layouts.Save(ctx, lay); err != nil {
		logger.C(ctx).Warn().Err(err).Str("path", lay.Path).Msg("extract: layout save failed")
	}
}

// Run extracts every window of every subject in req.File into the sink.
// Partitions are processed concurrently and merged in partition order, so
// the sink sees exactly what a serial scan would produce.
func (s *Service) Run(ctx context.Context, req domain.Request) (domain.Summary, error) {
	started := time.Now()
	p, err := s.compile(req)
	if err != nil {
		return domain.Summary{}, err
	}

	ctx, cancel := guardrails.ForRun(ctx, s.Cfg.Timeouts)
	defer cancel()
	runID := uuid.NewString()
	ctx = logger.WithRun(ctx, runID)
	log := logger.C(ctx)

	lay, hit, err := s.layout(ctx, p.path, p.chunk, p.workers)
	if err != nil {
		return domain.Summary{}, err
	}

	results := make([]partResult, len(lay.Partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range lay.Partitions {
		part := lay.Partitions[i]
		if part.Empty() {
			continue
		}
		g.Go(func() error {
			pctx, done := guardrails.ForPartition(logger.WithPartition(gctx, part.Index), s.Cfg.Timeouts)
			defer done()
			res, err := s.partition(pctx, p, part)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("extract: run failed")
		return domain.Summary{}, err
	}

	sum := domain.Summary{
		RunID:          runID,
		File:           p.path,
		CacheHit:       hit,
		Partitions:     len(lay.Partitions),
		ClassHistogram: make([]int, max(p.x.NumClasses(), 1)),
	}
	if err := s.merge(ctx, p, lay, results, &sum); err != nil {
		return sum, err
	}
	s.saveLayout(ctx, lay)

	sum.Elapsed = time.Since(started)
	log.Info().
		Str("file", sum.File).
		Bool("cache_hit", sum.CacheHit).
		Int("partitions", sum.Partitions).
		Int("subjects", sum.Subjects).
		Int("windows", sum.Windows).
		Int("samples", sum.Samples).
		Int("skipped", sum.Skipped).
		Dur("elapsed", sum.Elapsed).
		Msg("extract: run done")
	return sum, nil
}

// merge walks the partition results in order, applies the subject clip,
// buckets records by class and hands batches to the sink
func (s *Service) merge(ctx context.Context, p *plan, lay *tdf.Layout, results []partResult, sum *domain.Summary) error {
	lay.Buckets = nil
	for pi, res := range results {
		sum.Records += res.records
		sum.Skipped += res.skipped
		sum.DecodeErrors += res.decodeErrors
		for _, sr := range res.subjects {
			if p.req.ClipSubjects > 0 && sum.Subjects >= p.req.ClipSubjects {
				sum.Clipped++
				s.Metrics.Skipped(metrics.ReasonClipped)
				continue
			}
			sum.Subjects++
			sum.Windows += sr.windows
			if sr.class >= 0 {
				lay.Bucket(sr.class, tdf.RecordRef{Partition: pi, Record: sr.ordinal})
			}
			if len(sr.batch.Samples) == 0 {
				continue
			}
			for _, smp := range sr.batch.Samples {
				if smp.Class >= 0 && smp.Class < len(sum.ClassHistogram) {
					sum.ClassHistogram[smp.Class]++
				}
			}
			sum.Samples += len(sr.batch.Samples)
			sr.batch.RunID = sum.RunID
			if err := s.write(ctx, sr.batch); err != nil {
				return perr.Wrapf(err, perr.CodeOf(err), "extract: sink write subject %s", sr.batch.Subject)
			}
			s.Metrics.Emitted(len(sr.batch.Samples))
		}
	}
	fctx, done := guardrails.ForSink(ctx, s.Cfg.Timeouts)
	defer done()
	if err := s.Sink.Flush(fctx); err != nil {
		return perr.Wrapf(err, perr.CodeOf(err), "extract: sink flush")
	}
	return nil
}

func (s *Service) write(ctx context.Context, b domain.Batch) error {
	wctx, done := guardrails.ForSink(ctx, s.Cfg.Timeouts)
	defer done()
	return s.Sink.Write(wctx, b)
}

func str(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func firstPositive(vs ...int) int {
	for _, v := range vs {
		if v > 0 {
			return v
		}
	}
	return 0
}
