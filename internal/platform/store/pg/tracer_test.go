package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"select 1", "select 1"},
		{"  select   1  ", "select 1"},
		{"SELECT\t*\nFROM\r\tchartline_records WHERE  a =  1", "SELECT * FROM chartline_records WHERE a = 1"},
		{"", ""},
	}
	for _, c := range cases {
		if got := compact(c.in); got != c.want {
			t.Fatalf("compact(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTracerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf))

	type line struct {
		Level     string  `json:"level"`
		ElapsedMS float64 `json:"elapsed_ms"`
		SQL       string  `json:"sql"`
		Error     string  `json:"error"`
		Component string  `json:"component"`
	}

	ev := QueryEvent{SQL: "SELECT\n 1", ElapsedUS: 2500, Err: errors.New("boom")}
	tr.OnQuery(context.Background(), ev)

	var got line
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if got.Level != "info" || got.SQL != "SELECT 1" || got.ElapsedMS != 2.5 || got.Error != "boom" || got.Component != "pg" {
		t.Fatalf("info line = %+v", got)
	}

	buf.Reset()
	ev.Slow = true
	tr.OnQuery(context.Background(), ev)
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Level != "warn" {
		t.Fatalf("slow query level = %q, want warn", got.Level)
	}
}
