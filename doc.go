// Package apirouter layers OpenAPI document generation and request
// validation on top of a gorilla/mux router. Handlers are plain typed
// functions; their request types declare where each value comes from via
// struct tags, and the same declaration drives both runtime binding and the
// generated document.
//
//	type GetBookRequest struct {
//	    ID     int    `path:"id"`
//	    Expand string `query:"expand" default:"none"`
//	    Token  string `header:"X-Token"`
//	}
//
//	app := apirouter.New("Books", "library catalogue", "1.0.0")
//	apirouter.Get(app, "/books/{id}", getBook)
//
// Fields tagged path, query, header, cookie, or form become OpenAPI
// parameters or form bodies; a field named Body is decoded as the JSON
// request body. Validation rules from the validate sub-package run after
// binding, and failures produce a 422 response with a structured envelope.
//
// Sub-routers created with [NewRouter] carry a URL prefix plus default
// tags, security, and responses for every route they register, and nest via
// [App.RegisterAPI] and [Router.RegisterAPI].
//
// The assembled document is served as JSON and YAML under the doc prefix
// (default /openapi), together with a small Swagger UI shell.
package apirouter
