package apirouter

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	"github.com/Gobd/apirouter/validate"
)

// Handler is a typed route handler. Req fields are bound from the request
// per their tags; the returned Resp is encoded as JSON.
type Handler[Req, Resp any] func(ctx context.Context, req *Req) (Resp, error)

// Void marks a handler that takes no input or returns no body. Void
// responses answer 204.
type Void struct{}

var voidType = reflect.TypeOf(Void{})

// Registrar is the registration target accepted by [Get], [Post], and
// friends. Both *App and *Router implement it.
type Registrar interface {
	addRoute(ri *routeInfo)
	routeDefaults() []RouteOption
}

// Get registers a GET route.
func Get[Req, Resp any](reg Registrar, path string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodGet, path, h, opts...)
}

// Post registers a POST route.
func Post[Req, Resp any](reg Registrar, path string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPost, path, h, opts...)
}

// Put registers a PUT route.
func Put[Req, Resp any](reg Registrar, path string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPut, path, h, opts...)
}

// Patch registers a PATCH route.
func Patch[Req, Resp any](reg Registrar, path string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPatch, path, h, opts...)
}

// Delete registers a DELETE route.
func Delete[Req, Resp any](reg Registrar, path string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodDelete, path, h, opts...)
}

// Route registers a raw http.Handler. The operation carries only the
// metadata given in opts; no parameters or schemas are generated.
func Route(reg Registrar, method, path string, h http.Handler, opts ...RouteOption) {
	ri := &routeInfo{method: method, path: path, handler: h, logRef: &loggerRef{}}
	applyOptions(reg, ri, opts)
	if ri.status == 0 {
		ri.status = http.StatusOK
	}
	reg.addRoute(ri)
}

// Websocket registers a WebSocket route. The handler is responsible for the
// upgrade and the protocol; the route never appears in the document.
func Websocket(reg Registrar, path string, h http.Handler) {
	reg.addRoute(&routeInfo{method: http.MethodGet, path: path, handler: h, hidden: true, logRef: &loggerRef{}})
}

// register classifies the request type, builds the binding handler, and
// hands the route to the registrar. Declaration mistakes (e.g. form fields
// mixed with a JSON body) panic: they are programming errors, caught at
// startup.
func register[Req, Resp any](reg Registrar, method, path string, h Handler[Req, Resp], opts ...RouteOption) {
	reqType := reflect.TypeOf((*Req)(nil)).Elem()
	fs, err := classifyFields(reqType)
	if err != nil {
		panic(fmt.Sprintf("apirouter: %s %s: %v", method, path, err))
	}

	ri := &routeInfo{
		method:   method,
		path:     path,
		reqType:  reqType,
		respType: reflect.TypeOf((*Resp)(nil)).Elem(),
		fields:   fs,
		logRef:   &loggerRef{},
	}
	analyzeRules(ri, reqType, fs)
	applyOptions(reg, ri, opts)

	if ri.status == 0 {
		if ri.respType == voidType {
			ri.status = http.StatusNoContent
		} else {
			ri.status = http.StatusOK
		}
	}

	ri.handler = buildHandler(h, ri, fs)
	reg.addRoute(ri)
}

func applyOptions(reg Registrar, ri *routeInfo, opts []RouteOption) {
	for _, opt := range reg.routeDefaults() {
		opt(ri)
	}
	for _, opt := range opts {
		opt(ri)
	}
}

// analyzeRules records whether the request type declares its own rules and
// whether those rules already cover the Body field. An uncovered body is
// validated on its own after binding.
func analyzeRules(ri *routeInfo, reqType reflect.Type, fs *fieldSet) {
	inst := reflect.New(reqType).Interface()
	byKey := validate.RulesByKey(context.Background(), inst)
	ri.reqIsRuler = byKey != nil

	if !fs.hasBody() {
		return
	}
	ri.bodyKey = fieldKey(reqType.Field(fs.bodyIndex))
	_, covered := byKey[ri.bodyKey]
	ri.validateBody = !covered
}

// buildHandler wraps a typed handler into an http.Handler: bind, validate,
// invoke, encode.
func buildHandler[Req, Resp any](h Handler[Req, Resp], ri *routeInfo, fs *fieldSet) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := new(Req)

		if fs.bindsInput() {
			if err := bindRequest(req, r, fs); err != nil {
				ri.rejectRequest(w, err)
				return
			}
			if err := validateRequest(r.Context(), req, ri, fs); err != nil {
				ri.rejectRequest(w, err)
				return
			}
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			ri.logger().Debug("handler error",
				zap.String("method", ri.method), zap.String("path", ri.path), zap.Error(err))
			writeError(w, err)
			return
		}

		if ri.respType == voidType {
			w.WriteHeader(ri.status)
			return
		}
		writeJSON(w, ri.status, resp)
	})
}

// rejectRequest writes the 422 envelope for a binding or validation error.
func (ri *routeInfo) rejectRequest(w http.ResponseWriter, err error) {
	ri.logger().Debug("request rejected",
		zap.String("method", ri.method), zap.String("path", ri.path), zap.Error(err))
	var keyToIn map[string]string
	if ri.fields != nil {
		keyToIn = ri.fields.keyToIn
	}
	writeJSON(w, http.StatusUnprocessableEntity, validationEnvelope(err, keyToIn))
}

// validateRequest runs the declared rules over the bound request: the
// request type's own Rules() when present, per-field value rules otherwise,
// plus standalone body validation when the body is not covered.
func validateRequest(ctx context.Context, reqPtr any, ri *routeInfo, fs *fieldSet) error {
	errs := validate.Errors{}

	if ri.reqIsRuler {
		collectErrors(errs, "", validate.ValidateCtx(ctx, reqPtr))
	} else {
		v := reflect.ValueOf(reqPtr).Elem()
		for _, pf := range fs.params {
			if pf.isFile {
				continue
			}
			field := v.Field(pf.index)
			if err := validate.ValidateCtx(ctx, field.Interface()); err != nil {
				errs[pf.key] = err
			}
		}
	}

	if ri.validateBody {
		body := reflect.ValueOf(reqPtr).Elem().Field(fs.bodyIndex).Addr().Interface()
		collectErrors(errs, ri.bodyKey, validate.ValidateCtx(ctx, body))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// collectErrors merges err into errs, unwrapping validate.Errors maps so
// keys stay flat. A non-empty key nests the error under that key.
func collectErrors(errs validate.Errors, key string, err error) {
	if err == nil {
		return
	}
	if key != "" {
		errs[key] = err
		return
	}
	if m, ok := err.(validate.Errors); ok {
		for k, v := range m {
			errs[k] = v
		}
		return
	}
	errs["request"] = err
}
