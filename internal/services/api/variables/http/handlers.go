// Package http provides http transport for the variable table
package http

import (
	stdhttp "net/http"
	"strconv"

	perr "chartline/internal/platform/errors"
	phttp "chartline/internal/platform/net/http"
	"chartline/internal/services/api/variables/domain"
	svc "chartline/internal/services/api/variables/service"
)

// Register mounts variable endpoints on the given router
func Register(r phttp.Router, s svc.Service) {
	h := &handlers{svc: s}

	// ?type=bool&derived=true
	phttp.GetJSON(r, "/", h.list)

	// normalized row from name=value pairs
	phttp.PostJSON[domain.VectorizeInput](r, "/vectorize", h.vectorize)

	phttp.GetJSON(r, "/{name}", h.get)
}

type handlers struct{ svc svc.Service }

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	in := domain.ListInput{Type: q.Get("type")}
	if raw := q.Get("derived"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, perr.WithField(perr.Validationf("derived must be true or false"), "derived")
		}
		in.Derived = &b
	}
	return h.svc.List(in)
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(phttp.URLParam(r, "name"))
}

func (h *handlers) vectorize(_ *stdhttp.Request, in domain.VectorizeInput) (any, error) {
	return h.svc.Vectorize(in)
}
