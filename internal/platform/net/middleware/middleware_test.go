package middleware_test

import (
	"compress/flate"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chartline/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
)

func chain(h http.Handler, mws ...middleware.Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestRecoverJSON(t *testing.T) {
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") }),
		middleware.RequestID(), middleware.RequestLogger(), middleware.RecoverJSON)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Kind      string `json:"kind"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, rr.Body.String())
	}
	if body.Kind != "panic" || body.RequestID == "" {
		t.Fatalf("body = %+v", body)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id header missing")
	}
}

func TestAccessLogObserve(t *testing.T) {
	var gotStatus int
	var gotMethod string
	obs := func(method, _ string, status int, _ time.Duration) {
		gotMethod, gotStatus = method, status
	}
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "short and stout")
	}), middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Nanosecond, Observe: obs}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/x", nil))
	if gotStatus != http.StatusTeapot || gotMethod != http.MethodPost {
		t.Fatalf("observed %s %d", gotMethod, gotStatus)
	}
}

func TestAccessLogObservesRoutePattern(t *testing.T) {
	var route string
	r := chi.NewRouter()
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{
		Observe: func(_, rt string, _ int, _ time.Duration) { route = rt },
	}))
	r.Get("/variables/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/variables/Cr", nil))
	if route != "/variables/{name}" {
		t.Fatalf("route=%q", route)
	}
}

func TestCompress(t *testing.T) {
	h := middleware.Compress(flate.DefaultCompression)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, strings.Repeat("a", 4<<10))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, headers=%v", rr.Header())
	}
}

func TestCORSPreflight(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://ui.example"}}))
	r.Get("/v", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/v", nil)
	req.Header.Set("Origin", "https://ui.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://ui.example" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestDefaultsNonNil(t *testing.T) {
	for i, m := range middleware.Defaults() {
		if m == nil {
			t.Fatalf("Defaults()[%d] is nil", i)
		}
	}
	if middleware.Heartbeat("/ping") == nil {
		t.Fatalf("Heartbeat nil")
	}
}
