package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kit "chartline/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"off", zerolog.Disabled},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"   nonsense   ", zerolog.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestInitAndContextFields(t *testing.T) {
	var buf bytes.Buffer

	Init(Options{
		Level:        "info",
		Format:       "console",
		Service:      "svc-a",
		Component:    "root",
		Writer:       &buf,
		WithCaller:   true,
		SampleEvery:  2,
		StaticFields: map[string]string{"build": "test"},
	})

	// resample to N=1 so every line lands in buf
	emit := func(l *Logger, msg string) {
		s := l.Sample(&zerolog.BasicSampler{N: 1})
		s.Info().Msg(msg)
	}

	emit(Get(), "root-msg")
	emit(Named("planner"), "named-msg")

	ctx := WithRequest(context.Background(), "req-123")
	ctx = WithRun(ctx, "run-9")
	ctx = WithPartition(ctx, 3)
	emit(C(ctx), "ctx-msg")
	emit(C(context.Background()), "ctx-empty")

	out := buf.String()
	for _, want := range []string{
		"root-msg", "named-msg", "ctx-msg", "ctx-empty",
		"component=", "planner",
		"request_id=", "req-123",
		"run_id=", "run-9",
		"partition=", "3",
		"build=", "service=", "svc-a",
	} {
		kit.MustContain(t, out, want)
	}
}

func TestWithRunEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	if WithRun(ctx, "") != ctx || WithRequest(ctx, "") != ctx {
		t.Fatalf("empty ids should return ctx unchanged")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "svc-b")
	t.Setenv("LOG_COMPONENT", "comp-b")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv()
	if opt.Level != "warn" {
		t.Fatalf("FromEnv Level = %q, want warn", opt.Level)
	}
	if opt.Format != "json" || opt.Service != "svc-b" || opt.Component != "comp-b" {
		t.Fatalf("FromEnv fields mismatch: %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("FromEnv caller/sample mismatch: %+v", opt)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_SERVICE", "")
	opt := FromEnv()
	if opt.Level != "info" || !strings.EqualFold(opt.Service, "chartline") {
		t.Fatalf("defaults mismatch: %+v", opt)
	}
}

func TestNop(t *testing.T) {
	Nop().Error().Msg("dropped")
}
