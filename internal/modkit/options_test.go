package modkit

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestOptionsApplyInOrder(t *testing.T) {
	t.Parallel()

	var trail []string
	tag := func(s string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trail = append(trail, s)
				next.ServeHTTP(w, r)
			})
		}
	}

	var c buildCfg
	for _, o := range []Option{
		WithName("variables"),
		WithPrefix("/variables"),
		WithMiddlewares(tag("cors"), tag("access")),
		WithMiddlewares(tag("nocache")),
		WithName("vars"),
	} {
		o(&c)
	}
	if c.name != "vars" || c.prefix != "/variables" || len(c.mw) != 3 {
		t.Fatalf("cfg=%+v", c)
	}

	var h http.Handler = http.HandlerFunc(func(http.ResponseWriter, *http.Request) { trail = append(trail, "handler") })
	for i := len(c.mw) - 1; i >= 0; i-- {
		h = c.mw[i](h)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if want := []string{"cors", "access", "nocache", "handler"}; !reflect.DeepEqual(trail, want) {
		t.Fatalf("trail=%v want %v", trail, want)
	}
}

func TestWithPortsKeepsConcreteType(t *testing.T) {
	t.Parallel()

	type runnerPorts struct {
		Workers int
		Sink    string
	}
	var c buildCfg
	WithPorts(runnerPorts{Workers: 4, Sink: "memory"})(&c)
	if got, ok := c.ports.(runnerPorts); !ok || got.Workers != 4 || got.Sink != "memory" {
		t.Fatalf("ports=%#v", c.ports)
	}

	// a later WithPorts replaces the earlier set
	WithPorts(&runnerPorts{Workers: 1})(&c)
	if _, ok := c.ports.(*runnerPorts); !ok {
		t.Fatalf("ports=%T", c.ports)
	}
}
