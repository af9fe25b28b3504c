package apirouter

import (
	"strings"
)

// Router groups routes under a URL prefix with shared defaults. It records
// routes but serves nothing on its own; mounting happens when the router is
// registered on an [App] (directly or through a parent Router).
type Router struct {
	prefix   string
	defaults []RouteOption
	routes   []*routeInfo
}

// NewRouter creates a router. Every route registered on it is prefixed with
// prefix, and defaults apply before the route's own options — so
// [WithTags] and [WithSecurity] accumulate and [WithResponses] entries can
// be overridden per route.
func NewRouter(prefix string, defaults ...RouteOption) *Router {
	return &Router{prefix: strings.TrimSuffix(prefix, "/"), defaults: defaults}
}

func (rt *Router) addRoute(ri *routeInfo) {
	rt.routes = append(rt.routes, ri)
}

func (rt *Router) routeDefaults() []RouteOption { return rt.defaults }

// RegisterAPI adopts all of child's routes, prefixing their paths with
// child's prefix. The child's own defaults were already applied when its
// routes were registered; the parent's defaults are not, matching
// route-ownership semantics: a router's defaults cover only routes
// registered on it directly.
func (rt *Router) RegisterAPI(child *Router) {
	for _, ri := range child.adoptedRoutes() {
		rt.routes = append(rt.routes, ri)
	}
}

// adoptedRoutes clones the router's routes with its prefix applied.
func (rt *Router) adoptedRoutes() []*routeInfo {
	out := make([]*routeInfo, 0, len(rt.routes))
	for _, ri := range rt.routes {
		clone := ri.clone()
		clone.path = joinPath(rt.prefix, ri.path)
		out = append(out, clone)
	}
	return out
}

func joinPath(prefix, path string) string {
	if path == "" || path == "/" {
		if prefix != "" {
			return prefix
		}
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return prefix + path
}
