package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chartline/internal/platform/config"
	perr "chartline/internal/platform/errors"
	phttp "chartline/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type echoReq struct {
	Name string `json:"name" validate:"required,varref"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, rr.Body.String())
	}
	return env
}

func newRouter() (http.Handler, phttp.Router) {
	m := chi.NewRouter()
	return m, phttp.AdaptChi(m)
}

func TestGetJSONAndErrors(t *testing.T) {
	h, r := newRouter()
	r.Route("/api", func(sub phttp.Router) {
		phttp.GetJSON(sub, "/ok/{name}", func(req *http.Request) (any, error) {
			return map[string]string{"name": phttp.URLParam(req, "name")}, nil
		})
		phttp.GetJSON(sub, "/missing", func(*http.Request) (any, error) {
			return nil, perr.UnknownVariablef("Zinc")
		})
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ok/Cr", nil))
	env := decode(t, rr)
	if rr.Code != http.StatusOK || env.Data.(map[string]any)["name"] != "Cr" {
		t.Fatalf("ok = %d %+v", rr.Code, env)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	env = decode(t, rr)
	if rr.Code != http.StatusNotFound || env.Kind != "unknown_variable" || env.Field != "Zinc" {
		t.Fatalf("missing = %d %+v", rr.Code, env)
	}
}

func TestPostJSONValidation(t *testing.T) {
	h, r := newRouter()
	phttp.PostJSON(r, "/echo", func(_ *http.Request, in echoReq) (any, error) { return in, nil })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"Cr[-1]"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("valid post = %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"1bad"}`)))
	if env := decode(t, rr); rr.Code != http.StatusBadRequest || env.Field != "name" {
		t.Fatalf("invalid post = %d %+v", rr.Code, env)
	}
}

func TestPostJSONSkipsHandlerOnBadBody(t *testing.T) {
	h, r := newRouter()
	calls := 0
	phttp.PostJSON(r, "/vectorize", func(_ *http.Request, in echoReq) (any, error) {
		calls++
		return nil, perr.UnknownVariablef(in.Name)
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/vectorize", strings.NewReader(`{"name":`)))
	if rr.Code != http.StatusBadRequest || calls != 0 {
		t.Fatalf("malformed body = %d calls=%d", rr.Code, calls)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/vectorize", strings.NewReader(`{"name":"Zinc"}`)))
	if env := decode(t, rr); rr.Code != http.StatusNotFound || env.Field != "Zinc" || calls != 1 {
		t.Fatalf("handler error = %d %+v calls=%d", rr.Code, env, calls)
	}
}

func TestHandleNoContentAndHeaders(t *testing.T) {
	h := phttp.Handle(func(*http.Request) phttp.Response {
		resp := phttp.NoContent()
		resp.Header = http.Header{"X-Run": {"abc"}}
		return resp
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent || rr.Header().Get("X-Run") != "abc" || rr.Body.Len() != 0 {
		t.Fatalf("no content = %d %v %q", rr.Code, rr.Header(), rr.Body.String())
	}

	rr = httptest.NewRecorder()
	phttp.Handle(func(*http.Request) phttp.Response { return phttp.Created("x") }).
		ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("created = %d", rr.Code)
	}
}

func TestGroupAndHandle(t *testing.T) {
	h, r := newRouter()
	r.Group(func(g phttp.Router) {
		g.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("X-Group", "yes")
				next.ServeHTTP(w, req)
			})
		})
		g.Handle("/raw", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) }))
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/raw", nil))
	if rr.Code != http.StatusAccepted || rr.Header().Get("X-Group") != "yes" {
		t.Fatalf("group = %d %v", rr.Code, rr.Header())
	}
	if r.Mux() == nil {
		t.Fatalf("Mux nil")
	}
}

func TestProfilerMount(t *testing.T) {
	h, r := newRouter()
	phttp.MountProfiler(r, "/debug", true)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rr.Code == http.StatusNotFound {
		t.Fatalf("pprof should be mounted")
	}

	h2, r2 := newRouter()
	phttp.MountProfiler(r2, "/debug", false)
	rr = httptest.NewRecorder()
	h2.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("disabled pprof = %d", rr.Code)
	}
}

func TestServerRunStopsOnCancel(t *testing.T) {
	t.Setenv("T_PORT", "127.0.0.1:0")
	srv := phttp.NewServer(config.New().Prefix("T_"))
	if srv.Addr() != "127.0.0.1:0" {
		t.Fatalf("addr = %q", srv.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

func TestServerPortDefaulting(t *testing.T) {
	t.Setenv("P_PORT", "8088")
	if got := phttp.NewServer(config.New().Prefix("P_")).Addr(); got != ":8088" {
		t.Fatalf("addr = %q", got)
	}
}
