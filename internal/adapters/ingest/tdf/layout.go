package tdf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	perr "chartline/internal/platform/errors"

	"github.com/cespare/xxhash/v2"
)

// RecordRef addresses one record of a Layout
type RecordRef struct {
	Partition int `json:"p"`
	Record    int `json:"r"`
}

// Layout is the corrected partitioning of one file
type Layout struct {
	Path       string      `json:"path"`
	Size       int64       `json:"size"`
	Chunk      int64       `json:"chunk"`
	Partitions []Partition `json:"partitions"`

	// Buckets groups records by the result class of a target, see Bucket
	Buckets map[int][]RecordRef `json:"buckets,omitempty"`
}

// Key identifies a layout; a layout is stale once the file size changes
type Key struct {
	Path  string
	Size  int64
	Chunk int64
}

// Key returns the cache key of l
func (l *Layout) Key() Key { return Key{Path: l.Path, Size: l.Size, Chunk: l.Chunk} }

// NumRecords counts records over every partition
func (l *Layout) NumRecords() int {
	n := 0
	for _, p := range l.Partitions {
		n += len(p.Records)
	}
	return n
}

// Bucket files ref under class
func (l *Layout) Bucket(class int, ref RecordRef) {
	if l.Buckets == nil {
		l.Buckets = map[int][]RecordRef{}
	}
	l.Buckets[class] = append(l.Buckets[class], ref)
}

// PriorityOrder interleaves the buckets rarest class first so a consumer
// that stops early has still seen every class. Records inside a bucket keep
// file order.
func (l *Layout) PriorityOrder() []RecordRef {
	classes := make([]int, 0, len(l.Buckets))
	total := 0
	for c, refs := range l.Buckets {
		classes = append(classes, c)
		total += len(refs)
	}
	sort.Slice(classes, func(i, j int) bool {
		a, b := len(l.Buckets[classes[i]]), len(l.Buckets[classes[j]])
		if a != b {
			return a < b
		}
		return classes[i] < classes[j]
	})

	out := make([]RecordRef, 0, total)
	for round := 0; len(out) < total; round++ {
		for _, c := range classes {
			if refs := l.Buckets[c]; round < len(refs) {
				out = append(out, refs[round])
			}
		}
	}
	return out
}

// LayoutStore caches layouts between runs
type LayoutStore interface {
	Load(ctx context.Context, key Key) (*Layout, bool, error)
	Save(ctx context.Context, l *Layout) error
}

// FileCache keeps each layout as a json sidecar in dir
type FileCache struct {
	dir string
}

// NewFileCache creates dir if needed
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, perr.IOf(err, "tdf: cache dir %s", dir)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) file(key Key) string {
	abs, err := filepath.Abs(key.Path)
	if err != nil {
		abs = key.Path
	}
	name := fmt.Sprintf("%016x-%d-%d.layout.json", xxhash.Sum64String(abs), key.Size, key.Chunk)
	return filepath.Join(c.dir, name)
}

// Load returns the cached layout for key; ok is false on a miss
func (c *FileCache) Load(_ context.Context, key Key) (*Layout, bool, error) {
	b, err := os.ReadFile(c.file(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, perr.IOf(err, "tdf: read cached layout")
	}
	var l Layout
	if err := json.Unmarshal(b, &l); err != nil {
		// a torn write is a miss, the next Save replaces it
		return nil, false, nil
	}
	if l.Size != key.Size || l.Chunk != key.Chunk {
		return nil, false, nil
	}
	return &l, true, nil
}

// Save writes l through a temp file and rename
func (c *FileCache) Save(_ context.Context, l *Layout) error {
	b, err := json.Marshal(l)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "tdf: encode layout")
	}
	dst := c.file(l.Key())
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return perr.IOf(err, "tdf: write layout")
	}
	if err := os.Rename(tmp, dst); err != nil {
		return perr.IOf(err, "tdf: rename layout")
	}
	return nil
}
