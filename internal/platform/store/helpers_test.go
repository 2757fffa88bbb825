package store

import (
	"context"
	"errors"
	"testing"

	perr "chartline/internal/platform/errors"
)

func scanPair(r Row) ([2]int64, error) {
	var p [2]int64
	err := r.Scan(&p[0], &p[1])
	return p, err
}

func TestMany(t *testing.T) {
	t.Parallel()
	rs := newFakeRows([]string{"start", "stop"}, []int64{0, 10}, []int64{10, 20})
	q := traced{q: &fakeQuerier{rows: rs}}

	got, err := Many(context.Background(), q, scanPair, "SELECT start, stop FROM chartline_records")
	if err != nil {
		t.Fatalf("Many: %v", err)
	}
	if len(got) != 2 || got[1] != [2]int64{10, 20} {
		t.Fatalf("Many = %v", got)
	}
	if !rs.closed {
		t.Fatalf("rows not closed")
	}
}

func TestOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	q := traced{q: &fakeQuerier{rows: newFakeRows([]string{"a", "b"})}}
	if _, err := One(ctx, q, scanPair, "x"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("empty One err = %v, want ErrNotFound", err)
	}

	q = traced{q: &fakeQuerier{rows: newFakeRows([]string{"a", "b"}, []int64{1, 2}, []int64{3, 4})}}
	if _, err := One(ctx, q, scanPair, "x"); err == nil {
		t.Fatalf("expected error for multiple rows")
	}

	q = traced{q: &fakeQuerier{rows: newFakeRows([]string{"a", "b"}, []int64{5, 6})}}
	p, err := One(ctx, q, scanPair, "x")
	if err != nil || p != [2]int64{5, 6} {
		t.Fatalf("One = %v %v", p, err)
	}
}

func TestScalar(t *testing.T) {
	t.Parallel()
	v, err := Scalar[int64](context.Background(), traced{q: &fakeQuerier{}}, "SELECT 41")
	if err != nil || v != 41 {
		t.Fatalf("Scalar = %d %v", v, err)
	}
}

func TestExecOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if err := ExecOne(ctx, traced{q: &fakeQuerier{execTag: "UPDATE 1"}}, "u"); err != nil {
		t.Fatalf("ExecOne single row: %v", err)
	}
	if err := ExecOne(ctx, traced{q: &fakeQuerier{execTag: "UPDATE 3"}}, "u"); err == nil {
		t.Fatalf("ExecOne should reject 3 rows")
	}
}
