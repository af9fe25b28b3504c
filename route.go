package apirouter

import (
	"net/http"
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

// routeInfo is everything known about a registered route: dispatch handler,
// request classification, and OpenAPI metadata.
type routeInfo struct {
	method string
	path   string

	summary      string
	description  string
	tags         []*openapi3.Tag
	operationID  string
	deprecated   bool
	security     openapi3.SecurityRequirements
	servers      openapi3.Servers
	externalDocs *openapi3.ExternalDocs
	extensions   map[string]any
	requestBody  *openapi3.RequestBody
	responses    map[string]any
	status       int
	hidden       bool

	reqType  reflect.Type
	respType reflect.Type
	fields   *fieldSet

	// validateBody is set when the Body field is not covered by the request
	// type's own Rules() and must be validated on its own.
	validateBody bool
	bodyKey      string
	reqIsRuler   bool

	handler http.Handler

	// logRef is shared between a route and its adopted clones, so the App's
	// logger reaches the handler closure even though it captured the
	// original routeInfo.
	logRef *loggerRef
}

// loggerRef is a settable logger slot shared across route clones.
type loggerRef struct {
	l *zap.Logger
}

func (ri *routeInfo) logger() *zap.Logger {
	if ri.logRef != nil && ri.logRef.l != nil {
		return ri.logRef.l
	}
	return zap.NewNop()
}

// clone copies the route for adoption by a parent router. Maps and slices
// are copied so the parent cannot mutate the original.
func (ri *routeInfo) clone() *routeInfo {
	out := *ri
	out.tags = append([]*openapi3.Tag(nil), ri.tags...)
	out.security = append(openapi3.SecurityRequirements(nil), ri.security...)
	out.servers = append(openapi3.Servers(nil), ri.servers...)
	if ri.extensions != nil {
		out.extensions = make(map[string]any, len(ri.extensions))
		for k, v := range ri.extensions {
			out.extensions[k] = v
		}
	}
	if ri.responses != nil {
		out.responses = make(map[string]any, len(ri.responses))
		for k, v := range ri.responses {
			out.responses[k] = v
		}
	}
	return &out
}

// RouteOption configures a route at registration time. Options passed to
// [NewRouter] become defaults for every route registered on that router.
type RouteOption func(*routeInfo)

// WithSummary sets the operation summary.
func WithSummary(s string) RouteOption {
	return func(ri *routeInfo) { ri.summary = s }
}

// WithDescription sets the operation description.
func WithDescription(d string) RouteOption {
	return func(ri *routeInfo) { ri.description = d }
}

// WithTags adds plain tag names to the operation.
func WithTags(names ...string) RouteOption {
	return func(ri *routeInfo) {
		for _, n := range names {
			ri.tags = append(ri.tags, &openapi3.Tag{Name: n})
		}
	}
}

// WithTag adds a described tag to the operation. The description lands in
// the document's top-level tag list, deduplicated by name.
func WithTag(tag *openapi3.Tag) RouteOption {
	return func(ri *routeInfo) { ri.tags = append(ri.tags, tag) }
}

// WithOperationID overrides the generated operationId.
func WithOperationID(id string) RouteOption {
	return func(ri *routeInfo) { ri.operationID = id }
}

// WithDeprecated marks the operation deprecated.
func WithDeprecated() RouteOption {
	return func(ri *routeInfo) { ri.deprecated = true }
}

// WithSecurity adds security requirements to the operation, on top of any
// router-level and app-level requirements.
func WithSecurity(reqs ...openapi3.SecurityRequirement) RouteOption {
	return func(ri *routeInfo) { ri.security = append(ri.security, reqs...) }
}

// WithOperationServers sets an alternative server list for the operation.
func WithOperationServers(servers ...*openapi3.Server) RouteOption {
	return func(ri *routeInfo) { ri.servers = append(ri.servers, servers...) }
}

// WithExternalDocs attaches external documentation to the operation.
func WithExternalDocs(docs *openapi3.ExternalDocs) RouteOption {
	return func(ri *routeInfo) { ri.externalDocs = docs }
}

// WithExtension adds an OpenAPI extension ("x-...") to the operation.
func WithExtension(key string, value any) RouteOption {
	return func(ri *routeInfo) {
		if ri.extensions == nil {
			ri.extensions = make(map[string]any)
		}
		ri.extensions[key] = value
	}
}

// WithRequestBody replaces the generated request body with a hand-built
// one, e.g. for custom content types.
func WithRequestBody(body *openapi3.RequestBody) RouteOption {
	return func(ri *routeInfo) { ri.requestBody = body }
}

// WithResponses declares responses by status code ("200", "422", ...). A
// value may be a model instance (its schema is generated) or a
// *openapi3.Response for full control. Later declarations win per status:
// route-level options override router defaults.
func WithResponses(responses map[string]any) RouteOption {
	return func(ri *routeInfo) {
		if ri.responses == nil {
			ri.responses = make(map[string]any, len(responses))
		}
		for k, v := range responses {
			ri.responses[k] = v
		}
	}
}

// WithStatus sets the success status code (default 200, or 204 for Void
// responses).
func WithStatus(status int) RouteOption {
	return func(ri *routeInfo) { ri.status = status }
}

// WithoutDocs keeps the route dispatchable but out of the document.
func WithoutDocs() RouteOption {
	return func(ri *routeInfo) { ri.hidden = true }
}
