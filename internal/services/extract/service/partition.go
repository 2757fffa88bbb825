package service

import (
	"context"
	"time"

	"chartline/internal/adapters/ingest/tdf"
	"chartline/internal/core/record"
	"chartline/internal/core/timeline"
	"chartline/internal/core/window"
	perr "chartline/internal/platform/errors"
	"chartline/internal/platform/logger"
	"chartline/internal/platform/metrics"
	"chartline/internal/services/extract/domain"
)

// partResult is everything one partition produced, in record order
type partResult struct {
	subjects     []subjectResult
	records      int
	skipped      int
	decodeErrors int
}

type subjectResult struct {
	ordinal int // record index within the partition
	windows int
	class   int // highest sample class; -1 without samples
	batch   domain.Batch
}

// partition scans only the byte range of part
func (s *Service) partition(ctx context.Context, p *plan, part tdf.Partition) (partResult, error) {
	started := time.Now()
	log := logger.C(ctx)

	sc, err := tdf.Open(p.path)
	if err != nil {
		return partResult{}, err
	}
	defer sc.Close()

	var res partResult
	ordinal := 0
	loc, err := sc.LocateFirst(part.Start, part.Stop)
	for ; err == nil && loc.Found; loc, err = sc.LocateNext(part.Stop) {
		if err := ctx.Err(); err != nil {
			return partResult{}, err
		}
		res.records++
		sr, ok, err := s.subject(ctx, p, loc)
		if err != nil {
			return partResult{}, err
		}
		if ok {
			sr.ordinal = ordinal
			sr.batch.Partition = part.Index
			res.subjects = append(res.subjects, sr)
		} else {
			res.skipped++
		}
		ordinal++
	}
	if err != nil {
		return partResult{}, err
	}

	st := sc.Stats()
	res.decodeErrors = st.DecodeErrors
	s.Metrics.Scanned(res.records)
	s.Metrics.Decode(st.DecodeErrors)
	s.Metrics.Partition(time.Since(started))
	log.Debug().
		Int("records", res.records).
		Int("subjects", len(res.subjects)).
		Int("skipped", res.skipped).
		Int64("bytes", st.Bytes).
		Dur("elapsed", time.Since(started)).
		Msg("extract: partition done")
	return res, nil
}

// subject runs one record through parse, compile, locate and extract. ok is
// false when a malformed record was skipped.
func (s *Service) subject(ctx context.Context, p *plan, loc tdf.Located) (subjectResult, bool, error) {
	sub, err := record.Parse(loc.Text)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeMalformed) {
			return subjectResult{}, false, err
		}
		logger.C(ctx).Warn().Err(err).
			Int64("offset", loc.Range.Start).
			Msg("extract: malformed record skipped")
		s.Metrics.Skipped(metrics.ReasonMalformed)
		return subjectResult{}, false, nil
	}

	tl := timeline.Compile(sub, s.Vars)
	windows := window.New(tl, p.start, p.stop).All()
	sr := subjectResult{
		windows: len(windows),
		class:   -1,
		batch:   domain.Batch{Subject: sub.ID},
	}
	if len(windows) == 0 {
		s.Metrics.Skipped(metrics.ReasonNoWindow)
		return sr, true, nil
	}

	for wi, w := range windows {
		res := p.x.Window(tl, w)
		if res.Count < p.minSamples {
			s.Metrics.Skipped(metrics.ReasonTooFew)
			continue
		}
		for k := 0; k < res.Count; k++ {
			step := tl.Steps[res.Steps[k]]
			class := p.x.ResultClass(res.Targets[k])
			sr.class = max(sr.class, class)
			sr.batch.Samples = append(sr.batch.Samples, domain.Sample{
				Subject: sub.ID,
				Window:  wi,
				Step:    res.Steps[k],
				Day:     step.Day,
				Hour:    step.Hour,
				Inputs:  res.Inputs[k],
				Target:  res.Targets[k],
				Class:   class,
			})
		}
	}
	return sr, true, nil
}
