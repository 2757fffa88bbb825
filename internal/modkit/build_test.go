package modkit

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	phttp "chartline/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	b := Build()
	if b.Name != "" || b.Prefix != "" || b.Ports != nil || len(b.Mw) != 0 {
		t.Fatalf("unexpected defaults: %+v", b)
	}
	defer func() {
		if v := recover(); v != nil {
			t.Fatalf("default Register panicked: %v", v)
		}
	}()
	var r phttp.Router
	b.Register(r)
}

func TestBuild_CopiesMiddlewares(t *testing.T) {
	t.Parallel()

	fnPtr := func(f func(http.Handler) http.Handler) uintptr {
		return reflect.ValueOf(f).Pointer()
	}
	mwA := func(next http.Handler) http.Handler { return next }
	mwB := func(next http.Handler) http.Handler { return next }
	mid := []func(http.Handler) http.Handler{mwA, mwB}

	type ports struct{ X int }
	b := Build(
		WithName("vars"),
		WithPrefix("/variables"),
		WithMiddlewares(mid...),
		WithPorts(ports{X: 7}),
	)
	if b.Name != "vars" || b.Prefix != "/variables" {
		t.Fatalf("name/prefix = %q %q", b.Name, b.Prefix)
	}
	if got, ok := b.Ports.(ports); !ok || got.X != 7 {
		t.Fatalf("Ports mismatch after Build")
	}

	mid[0] = func(next http.Handler) http.Handler { return next }
	if fnPtr(b.Mw[0]) != fnPtr(mwA) || fnPtr(b.Mw[1]) != fnPtr(mwB) {
		t.Fatalf("Built.Mw changed after source slice mutation")
	}
}

func TestBuiltMountAndAPIV1(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "vars")
			next.ServeHTTP(w, r)
		})
	}
	b := Build(
		WithPrefix("variables"),
		WithMiddlewares(tag),
		WithRegister(func(r phttp.Router) {
			order = append(order, "external")
			r.Get("/extra", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
		}),
	)

	mux := chi.NewRouter()
	MountAPIV1(phttp.AdaptChi(mux), nil, func(api phttp.Router) {
		b.Mount(api, func(r phttp.Router) {
			order = append(order, "own")
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		})
	})

	if len(order) != 2 || order[0] != "own" || order[1] != "external" {
		t.Fatalf("register order = %v", order)
	}

	cases := []struct {
		path   string
		status int
	}{
		{"/api/v1/variables/", http.StatusOK},
		{"/api/v1/variables/extra", http.StatusAccepted},
		{"/variables/", http.StatusNotFound},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, c.path, nil))
		if rr.Code != c.status {
			t.Fatalf("%s: status=%d want %d", c.path, rr.Code, c.status)
		}
		if c.status != http.StatusNotFound && rr.Header().Get("X-Module") != "vars" {
			t.Fatalf("%s: module middleware not applied", c.path)
		}
	}
}
