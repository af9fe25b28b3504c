package apirouter

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// App is the top-level application: a gorilla/mux router plus the OpenAPI
// document assembled from everything registered on it. It implements
// http.Handler.
type App struct {
	mux *mux.Router

	title       string
	description string
	version     string

	servers         openapi3.Servers
	externalDocs    *openapi3.ExternalDocs
	securitySchemes openapi3.SecuritySchemes
	security        openapi3.SecurityRequirements
	tagDescs        map[string]string

	defaults []RouteOption
	opIDFn   func(method, path string) string
	errModel any

	docPrefix string
	docUI     bool

	log *zap.Logger

	mu     sync.Mutex
	routes []*routeInfo
	seen   map[string]struct{}

	docOnce sync.Once
	doc     *openapi3.T
	docErr  error
}

// AppOption configures an App.
type AppOption func(*App)

// WithServers sets the document's server list.
func WithServers(servers ...*openapi3.Server) AppOption {
	return func(a *App) { a.servers = append(a.servers, servers...) }
}

// WithAPIExternalDocs sets the document-level external documentation.
func WithAPIExternalDocs(docs *openapi3.ExternalDocs) AppOption {
	return func(a *App) { a.externalDocs = docs }
}

// WithSecurityScheme registers a named security scheme in the document
// components.
func WithSecurityScheme(name string, scheme *openapi3.SecurityScheme) AppOption {
	return func(a *App) {
		if a.securitySchemes == nil {
			a.securitySchemes = openapi3.SecuritySchemes{}
		}
		a.securitySchemes[name] = &openapi3.SecuritySchemeRef{Value: scheme}
	}
}

// WithGlobalSecurity adds security requirements applied to every operation.
func WithGlobalSecurity(reqs ...openapi3.SecurityRequirement) AppOption {
	return func(a *App) { a.security = append(a.security, reqs...) }
}

// WithTagDescriptions sets descriptions for tag names used by routes.
func WithTagDescriptions(descs map[string]string) AppOption {
	return func(a *App) {
		if a.tagDescs == nil {
			a.tagDescs = map[string]string{}
		}
		for k, v := range descs {
			a.tagDescs[k] = v
		}
	}
}

// WithRouteDefaults sets route options applied to every route registered
// directly on the App.
func WithRouteDefaults(opts ...RouteOption) AppOption {
	return func(a *App) { a.defaults = append(a.defaults, opts...) }
}

// WithOperationIDFunc overrides the default operationId generator.
func WithOperationIDFunc(fn func(method, path string) string) AppOption {
	return func(a *App) { a.opIDFn = fn }
}

// WithValidationErrorSchema replaces the model documented for 422
// responses. The default is [HTTPValidationError].
func WithValidationErrorSchema(model any) AppOption {
	return func(a *App) { a.errModel = model }
}

// WithDocPrefix moves the documentation endpoints (default "/openapi").
func WithDocPrefix(prefix string) AppOption {
	return func(a *App) { a.docPrefix = prefix }
}

// WithoutDocUI disables the documentation endpoints entirely.
func WithoutDocUI() AppOption {
	return func(a *App) { a.docUI = false }
}

// WithLogger sets the logger. The default logs nothing.
func WithLogger(log *zap.Logger) AppOption {
	return func(a *App) { a.log = log }
}

// New creates an App, mirroring the shape of an OpenAPI info block: title,
// description, version.
func New(title, description, version string, opts ...AppOption) *App {
	a := &App{
		mux:         mux.NewRouter(),
		title:       title,
		description: description,
		version:     version,
		opIDFn:      defaultOperationID,
		errModel:    HTTPValidationError{},
		docPrefix:   "/openapi",
		docUI:       true,
		log:         zap.NewNop(),
		seen:        map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.docUI {
		a.mountDocs()
	}
	return a
}

func (a *App) routeDefaults() []RouteOption { return a.defaults }

// addRoute mounts a route on the mux and records it for the document.
// Registering the same (method, path) twice panics.
func (a *App) addRoute(ri *routeInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := ri.method + " " + ri.path
	if _, dup := a.seen[key]; dup {
		panic("apirouter: duplicate route " + key)
	}
	a.seen[key] = struct{}{}

	if ri.logRef != nil {
		ri.logRef.l = a.log
	}
	a.mux.Handle(ri.path, ri.handler).Methods(ri.method)
	a.routes = append(a.routes, ri)

	a.log.Debug("route registered",
		zap.String("method", ri.method),
		zap.String("path", ri.path),
		zap.Bool("documented", !ri.hidden))
}

// RegisterAPI adopts all routes of a router, with its prefix applied.
func (a *App) RegisterAPI(child *Router) {
	for _, ri := range child.adoptedRoutes() {
		a.addRoute(ri)
	}
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// ListenAndServe starts an HTTP server on addr and blocks until the
// context is cancelled, then shuts down gracefully.
func (a *App) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Document assembles the OpenAPI document. The result is built once and
// cached: register all routes before the first call.
func (a *App) Document() (*openapi3.T, error) {
	a.docOnce.Do(func() {
		a.doc, a.docErr = a.buildDocument()
		if a.docErr != nil {
			a.log.Error("document assembly failed", zap.Error(a.docErr))
		}
	})
	return a.doc, a.docErr
}

// DocumentMust is like Document but panics on error.
func (a *App) DocumentMust() *openapi3.T {
	doc, err := a.Document()
	if err != nil {
		panic(fmt.Sprintf("apirouter: %v", err))
	}
	return doc
}
