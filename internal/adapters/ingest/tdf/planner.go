package tdf

import (
	"context"
	"os"
	"time"

	perr "chartline/internal/platform/errors"
	"chartline/internal/platform/logger"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultChunk is the candidate partition size
const DefaultChunk int64 = 2 << 20

// Partition is one byte range of the file; Stop is -1 for the open ended last one
type Partition struct {
	Index   int           `json:"index"`
	Start   int64         `json:"start"`
	Stop    int64         `json:"stop"`
	Records []RecordRange `json:"records,omitempty"`
}

// Empty reports a partition in which no record starts
func (p Partition) Empty() bool { return len(p.Records) == 0 }

// RecordRange locates one record and fingerprints its folded text
type RecordRange struct {
	Range
	Hash uint64 `json:"hash"`
}

// Plan cuts size bytes into candidate partitions [k*chunk, (k+1)*chunk),
// the last one open ended. chunk <= 0 yields a single open partition.
func Plan(size, chunk int64) []Partition {
	if chunk <= 0 || size <= chunk {
		return []Partition{{Index: 0, Start: 0, Stop: -1}}
	}
	n := int((size + chunk - 1) / chunk)
	out := make([]Partition, n)
	for k := range out {
		out[k] = Partition{Index: k, Start: int64(k) * chunk, Stop: int64(k+1) * chunk}
	}
	out[n-1].Stop = -1
	return out
}

// RecordFunc sees every located record during a preflight; it may be called
// concurrently for different partitions but never for the same one
type RecordFunc func(partition int, loc Located) error

// Planner scans candidate partitions into a Layout
type Planner struct {
	// Workers bounds concurrent partition scans; <= 0 means one
	Workers int
}

// Preflight plans path with chunk, scans every partition for the records
// that start in it and narrows each non empty partition to
// [first record start, last record end). Empty partitions keep their
// candidate bounds and no records.
func (pl Planner) Preflight(ctx context.Context, path string, chunk int64, fn RecordFunc) (*Layout, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, perr.IOf(err, "tdf: stat %s", path)
	}
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	parts := Plan(fi.Size(), chunk)
	log := logger.C(ctx)
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(pl.Workers, 1))
	for i := range parts {
		g.Go(func() error {
			return scanPartition(gctx, path, &parts[i], fn)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lay := &Layout{Path: path, Size: fi.Size(), Chunk: chunk, Partitions: parts}
	log.Info().
		Str("path", path).
		Int64("size", fi.Size()).
		Int("partitions", len(parts)).
		Int("records", lay.NumRecords()).
		Dur("elapsed", time.Since(started)).
		Msg("tdf: preflight done")
	return lay, nil
}

func scanPartition(ctx context.Context, path string, p *Partition, fn RecordFunc) error {
	sc, err := Open(path)
	if err != nil {
		return err
	}
	defer sc.Close()

	loc, err := sc.LocateFirst(p.Start, p.Stop)
	for ; err == nil && loc.Found; loc, err = sc.LocateNext(p.Stop) {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.Records = append(p.Records, RecordRange{Range: loc.Range, Hash: xxhash.Sum64(loc.Text)})
		if fn != nil {
			if err := fn(p.Index, loc); err != nil {
				return err
			}
		}
	}
	if err != nil {
		return err
	}
	if n := len(p.Records); n > 0 {
		p.Start = p.Records[0].Start
		p.Stop = p.Records[n-1].End
	}
	logger.C(logger.WithPartition(ctx, p.Index)).Debug().
		Int("records", len(p.Records)).
		Int("decode_errors", sc.Stats().DecodeErrors).
		Msg("tdf: partition scanned")
	return nil
}
