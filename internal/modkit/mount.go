package modkit

import (
	"net/http"
	"strings"

	phttp "chartline/internal/platform/net/http"
)

// MountAPI mounts a subrouter under /api/{version}, applies mw, then calls mount
//
//	modkit.MountAPI(r, "v1", mw, func(api phttp.Router) {
//	  vars.MountRoutes(api)
//	})
func MountAPI(r phttp.Router, version string, mw []func(http.Handler) http.Handler, mount func(phttp.Router)) {
	prefix := "/api/" + strings.Trim(version, "/")
	r.Route(prefix, func(api phttp.Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}

// MountAPIV1 is MountAPI with version v1
func MountAPIV1(r phttp.Router, mw []func(http.Handler) http.Handler, mount func(phttp.Router)) {
	MountAPI(r, "v1", mw, mount)
}

// MountAll mounts every module and registers its ports under its name
func MountAll(r phttp.Router, mods ...Module) {
	for _, m := range mods {
		Register(m.Name(), m.Ports())
		m.MountRoutes(r)
	}
}
