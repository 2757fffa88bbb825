package repo

import (
	"context"
	"encoding/json"

	"chartline/internal/adapters/ingest/tdf"
	perr "chartline/internal/platform/errors"
	"chartline/internal/platform/store"
)

// CatalogDDL creates the layout catalog tables
const CatalogDDL = `
	CREATE TABLE IF NOT EXISTS chartline_layouts (
		id         BIGSERIAL PRIMARY KEY,
		path       TEXT NOT NULL,
		size       BIGINT NOT NULL,
		chunk      BIGINT NOT NULL,
		bounds     JSONB NOT NULL,
		buckets    JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (path, size, chunk)
	);
	CREATE TABLE IF NOT EXISTS chartline_records (
		layout_id BIGINT NOT NULL REFERENCES chartline_layouts(id) ON DELETE CASCADE,
		part      INT NOT NULL,
		ordinal   INT NOT NULL,
		start_off BIGINT NOT NULL,
		end_off   BIGINT NOT NULL,
		hash      BIGINT NOT NULL,
		PRIMARY KEY (layout_id, part, ordinal)
	);
`

// bound is the stored form of a partition without its records
type bound struct {
	Index int   `json:"i"`
	Start int64 `json:"s"`
	Stop  int64 `json:"e"`
}

// PGCatalog persists layouts in postgres; it implements tdf.LayoutStore
type PGCatalog struct {
	db store.TxRunner
}

// NewPGCatalog binds the catalog to db
func NewPGCatalog(db store.TxRunner) *PGCatalog { return &PGCatalog{db: db} }

// EnsureSchema creates the catalog tables
func (c *PGCatalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.Exec(ctx, CatalogDDL); err != nil {
		return perr.FromPG(err, "catalog: create schema")
	}
	return nil
}

type layoutRow struct {
	id      int64
	bounds  []byte
	buckets []byte
}

// Load implements tdf.LayoutStore
func (c *PGCatalog) Load(ctx context.Context, key tdf.Key) (*tdf.Layout, bool, error) {
	row, err := store.One(ctx, c.db, func(r store.Row) (layoutRow, error) {
		var lr layoutRow
		err := r.Scan(&lr.id, &lr.bounds, &lr.buckets)
		return lr, err
	}, `
		SELECT id, bounds, buckets
		FROM chartline_layouts
		WHERE path = $1 AND size = $2 AND chunk = $3
	`, key.Path, key.Size, key.Chunk)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, perr.FromPG(err, "catalog: load layout")
	}

	var bounds []bound
	if err := json.Unmarshal(row.bounds, &bounds); err != nil {
		return nil, false, perr.Wrapf(err, perr.ErrorCodeJSON, "catalog: layout %d bounds", row.id)
	}
	lay := &tdf.Layout{Path: key.Path, Size: key.Size, Chunk: key.Chunk, Partitions: make([]tdf.Partition, len(bounds))}
	for i, b := range bounds {
		lay.Partitions[i] = tdf.Partition{Index: b.Index, Start: b.Start, Stop: b.Stop}
	}
	if len(row.buckets) > 0 {
		if err := json.Unmarshal(row.buckets, &lay.Buckets); err != nil {
			return nil, false, perr.Wrapf(err, perr.ErrorCodeJSON, "catalog: layout %d buckets", row.id)
		}
	}

	type rec struct {
		part int
		rr   tdf.RecordRange
	}
	recs, err := store.Many(ctx, c.db, func(r store.Row) (rec, error) {
		var x rec
		var hash int64
		err := r.Scan(&x.part, &x.rr.Start, &x.rr.End, &hash)
		x.rr.Hash = uint64(hash)
		return x, err
	}, `
		SELECT part, start_off, end_off, hash
		FROM chartline_records
		WHERE layout_id = $1
		ORDER BY part, ordinal
	`, row.id)
	if err != nil {
		return nil, false, perr.FromPG(err, "catalog: load records")
	}
	for _, x := range recs {
		if x.part < 0 || x.part >= len(lay.Partitions) {
			return nil, false, perr.Malformedf("catalog: layout %d has a record in partition %d of %d", row.id, x.part, len(lay.Partitions))
		}
		lay.Partitions[x.part].Records = append(lay.Partitions[x.part].Records, x.rr)
	}
	return lay, true, nil
}

// Save implements tdf.LayoutStore; a second save of the same key replaces the first
func (c *PGCatalog) Save(ctx context.Context, l *tdf.Layout) error {
	bounds := make([]bound, len(l.Partitions))
	var parts, ords []int32
	var starts, ends, hashes []int64
	for i, p := range l.Partitions {
		bounds[i] = bound{Index: p.Index, Start: p.Start, Stop: p.Stop}
		for j, r := range p.Records {
			parts = append(parts, int32(i))
			ords = append(ords, int32(j))
			starts = append(starts, r.Start)
			ends = append(ends, r.End)
			hashes = append(hashes, int64(r.Hash))
		}
	}
	bj, err := json.Marshal(bounds)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "catalog: encode bounds")
	}
	var kj []byte
	if len(l.Buckets) > 0 {
		if kj, err = json.Marshal(l.Buckets); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "catalog: encode buckets")
		}
	}

	err = c.db.Tx(ctx, func(q store.RowQuerier) error {
		id, err := store.Scalar[int64](ctx, q, `
			INSERT INTO chartline_layouts (path, size, chunk, bounds, buckets)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (path, size, chunk) DO UPDATE
			SET bounds = EXCLUDED.bounds, buckets = EXCLUDED.buckets, updated_at = now()
			RETURNING id
		`, l.Path, l.Size, l.Chunk, bj, kj)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM chartline_records WHERE layout_id = $1`, id); err != nil {
			return err
		}
		if len(parts) == 0 {
			return nil
		}
		_, err = q.Exec(ctx, `
			INSERT INTO chartline_records (layout_id, part, ordinal, start_off, end_off, hash)
			SELECT $1, t.part, t.ordinal, t.start_off, t.end_off, t.hash
			FROM UNNEST($2::int[], $3::int[], $4::bigint[], $5::bigint[], $6::bigint[])
			AS t(part, ordinal, start_off, end_off, hash)
		`, id, parts, ords, starts, ends, hashes)
		return err
	})
	if err != nil {
		return perr.FromPG(err, "catalog: save layout")
	}
	return nil
}
