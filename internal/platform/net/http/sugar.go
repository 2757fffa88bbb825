package http

import (
	"net/http"

	"chartline/internal/platform/net/http/bind"
)

// GetJSON mounts a read-only route whose result lands in the envelope as-is
func GetJSON(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Handle(func(req *http.Request) Response {
		return result(h(req))
	}))
}

// PostJSON mounts a route whose body must decode and validate as T before h
// sees it; bind failures surface as 400 with per-field details
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, Handle(func(req *http.Request) Response {
		in, err := bind.ParseJSON[T](req)
		if err != nil {
			return Error(err)
		}
		return result(h(req, in))
	}))
}

func result(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	return OK(out)
}
