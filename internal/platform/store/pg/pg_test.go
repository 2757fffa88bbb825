package pg

import (
	"context"
	"errors"
	"testing"

	"chartline/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestOpenParseError(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), Config{URL: "://bad"}, nil, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpenPoolError(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("boom")
	})
	if _, err := Open(context.Background(), Config{URL: "postgres://u:p@h:5432/db"}, nil, nil); err == nil {
		t.Fatalf("expected pool error")
	}
}

func TestOpenAppliesConfig(t *testing.T) {
	testkit.Serial(t)
	var seen *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, c *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = c
		return &pgxpool.Pool{}, nil
	})

	mutated := false
	p, err := Open(context.Background(), Config{URL: "postgres://u:p@h:5432/db", MaxConns: 7, SlowMs: 50}, nil,
		func(*pgxpool.Config) { mutated = true })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !mutated || seen.MaxConns != 7 || p.SlowMs != 50 {
		t.Fatalf("config not applied: mutated=%v max=%d slow=%d", mutated, seen.MaxConns, p.SlowMs)
	}
}

func TestCloseNilSafe(t *testing.T) {
	t.Parallel()
	var p *PG
	p.Close()
	(&PG{}).Close()
}
