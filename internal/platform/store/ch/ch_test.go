package ch

import (
	"context"
	"errors"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type fakeBatch struct {
	rows    [][]any
	failAt  int
	sent    bool
	aborted bool
}

func (b *fakeBatch) Append(v ...any) error {
	if b.failAt > 0 && len(b.rows)+1 == b.failAt {
		return errors.New("bad row")
	}
	b.rows = append(b.rows, v)
	return nil
}
func (b *fakeBatch) Send() error  { b.sent = true; return nil }
func (b *fakeBatch) Abort() error { b.aborted = true; return nil }

type fakeConn struct {
	batch   *fakeBatch
	queries []string
	closed  bool
}

func (f *fakeConn) Ping(context.Context) error { return nil }
func (f *fakeConn) Exec(_ context.Context, q string, _ ...any) error {
	f.queries = append(f.queries, q)
	return nil
}
func (f *fakeConn) Query(_ context.Context, q string, _ ...any) (Rows, error) {
	f.queries = append(f.queries, q)
	return nil, errors.New("no rows in fake")
}
func (f *fakeConn) PrepareBatch(_ context.Context, q string) (Batch, error) {
	f.queries = append(f.queries, q)
	return f.batch, nil
}
func (f *fakeConn) Close() error { f.closed = true; return nil }

func TestInsertSendsOneBatch(t *testing.T) {
	t.Parallel()
	fc := &fakeConn{batch: &fakeBatch{}}
	c := New(fc)

	err := c.Insert(context.Background(), "chartline_samples", [][]any{{"a", 1}, {"b", 2}})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !fc.batch.sent || len(fc.batch.rows) != 2 {
		t.Fatalf("batch = %+v", fc.batch)
	}
	if fc.queries[0] != "INSERT INTO chartline_samples" {
		t.Fatalf("query = %q", fc.queries[0])
	}
}

func TestInsertEmptyIsNoop(t *testing.T) {
	t.Parallel()
	fc := &fakeConn{batch: &fakeBatch{}}
	if err := New(fc).Insert(context.Background(), "t", nil); err != nil {
		t.Fatalf("Insert(nil): %v", err)
	}
	if len(fc.queries) != 0 {
		t.Fatalf("expected no batch for empty insert")
	}
}

func TestInsertAbortsOnAppendError(t *testing.T) {
	t.Parallel()
	fc := &fakeConn{batch: &fakeBatch{failAt: 2}}
	err := New(fc).Insert(context.Background(), "t", [][]any{{1}, {2}, {3}})
	if err == nil {
		t.Fatalf("expected append error")
	}
	if !fc.batch.aborted || fc.batch.sent {
		t.Fatalf("batch should be aborted, not sent: %+v", fc.batch)
	}
}

func TestOpenUsesDialSeam(t *testing.T) {
	fc := &fakeConn{}
	orig := dial
	t.Cleanup(func() { dial = orig })
	var seen *clickhouse.Options
	dial = func(o *clickhouse.Options) (Conn, error) { seen = o; return fc, nil }

	c, err := Open(context.Background(), Config{URL: "clickhouse://default:@localhost:9000/chartline", Role: "extract"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if seen == nil || seen.Auth.Database != "chartline" {
		t.Fatalf("options not parsed: %+v", seen)
	}
	if len(seen.ClientInfo.Products) == 0 || seen.ClientInfo.Products[0].Name != "chartline" {
		t.Fatalf("client info missing: %+v", seen.ClientInfo)
	}
	if err := c.Close(); err != nil || !fc.closed {
		t.Fatalf("Close did not reach conn")
	}
}

func TestOpenRejectsEmptyURL(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestBuildClientInfo(t *testing.T) {
	t.Parallel()
	ci := BuildClientInfo(" api ", "v1")
	if ci.Products[1].Version != "api" || ci.Products[0].Version != "v1" {
		t.Fatalf("products = %+v", ci.Products)
	}
}
