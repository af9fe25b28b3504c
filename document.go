package apirouter

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Gobd/apirouter/validate"
)

// buildDocument assembles the OpenAPI 3.0.3 document from every visible
// route.
func (a *App) buildDocument() (*openapi3.T, error) {
	sr := newSchemaRegistry()
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       a.title,
			Description: a.description,
			Version:     a.version,
		},
		Paths: &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas:         sr.components,
			SecuritySchemes: a.securitySchemes,
		},
	}
	doc.Servers = a.servers
	doc.ExternalDocs = a.externalDocs
	doc.Security = a.security

	tags := newTagSet(a.tagDescs)

	a.mu.Lock()
	routes := append([]*routeInfo(nil), a.routes...)
	a.mu.Unlock()

	for _, ri := range routes {
		if ri.hidden {
			continue
		}
		op, err := a.buildOperation(ri, sr, tags)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", ri.method, ri.path, err)
		}
		addPath(doc, openapiPath(ri.path), ri.method, op)
	}

	doc.Tags = tags.list()
	return doc, nil
}

func (a *App) buildOperation(ri *routeInfo, sr *schemaRegistry, tags *tagSet) (*openapi3.Operation, error) {
	op := &openapi3.Operation{
		Summary:      ri.summary,
		Description:  ri.description,
		OperationID:  ri.operationID,
		Deprecated:   ri.deprecated,
		ExternalDocs: ri.externalDocs,
		Extensions:   ri.extensions,
	}
	if op.OperationID == "" {
		op.OperationID = a.opIDFn(ri.method, ri.path)
	}
	for _, t := range ri.tags {
		op.Tags = append(op.Tags, t.Name)
		tags.add(t)
	}
	if len(ri.security) > 0 {
		merged := append(append(openapi3.SecurityRequirements{}, a.security...), ri.security...)
		op.Security = &merged
	}
	if len(ri.servers) > 0 {
		servers := ri.servers
		op.Servers = &servers
	}

	if ri.fields != nil {
		params, err := buildParameters(ri.reqType, ri.fields, sr)
		if err != nil {
			return nil, err
		}
		op.Parameters = params

		body, err := buildRequestBody(ri, sr)
		if err != nil {
			return nil, err
		}
		op.RequestBody = body
	} else if ri.requestBody != nil {
		op.RequestBody = &openapi3.RequestBodyRef{Value: ri.requestBody}
	}

	responses, err := a.buildResponses(ri, sr)
	if err != nil {
		return nil, err
	}
	op.Responses = responses
	return op, nil
}

// buildRequestBody documents the route's request body: the explicit
// [WithRequestBody] override first, otherwise the Body field as JSON,
// otherwise the form fields as a form body.
func buildRequestBody(ri *routeInfo, sr *schemaRegistry) (*openapi3.RequestBodyRef, error) {
	if ri.requestBody != nil {
		return &openapi3.RequestBodyRef{Value: ri.requestBody}, nil
	}
	fs := ri.fields
	switch {
	case fs.hasBody():
		ref, err := sr.refFor(fs.bodyType)
		if err != nil {
			return nil, err
		}
		return &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithContent(openapi3.NewContentWithJSONSchemaRef(ref)),
		}, nil
	case fs.hasForm():
		return buildFormBody(ri, sr)
	default:
		return nil, nil
	}
}

// buildFormBody documents form fields as a single object schema. Any file
// field forces multipart/form-data, plain fields alone use urlencoded.
func buildFormBody(ri *routeInfo, sr *schemaRegistry) (*openapi3.RequestBodyRef, error) {
	rules := validate.RulesByKey(context.Background(), reflect.New(ri.reqType).Interface())

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{},
	}
	contentType := "application/x-www-form-urlencoded"

	for _, pf := range ri.fields.params {
		if pf.in != inForm {
			continue
		}
		var ref *openapi3.SchemaRef
		var required bool
		if pf.isFile {
			contentType = "multipart/form-data"
			ref = fileSchema(pf.typ)
			required = hasRequiredRule(rules[pf.key])
		} else {
			var err error
			ref, required, err = paramSchema(pf, rules[pf.key], sr)
			if err != nil {
				return nil, err
			}
		}
		schema.Properties[pf.name] = ref
		if required {
			schema.Required = append(schema.Required, pf.name)
		}
	}

	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(len(schema.Required) > 0).
			WithContent(openapi3.Content{
				contentType: openapi3.NewMediaType().WithSchemaRef(&openapi3.SchemaRef{Value: schema}),
			}),
	}, nil
}

func fileSchema(t reflect.Type) *openapi3.SchemaRef {
	binary := &openapi3.Schema{
		Type:   &openapi3.Types{openapi3.TypeString},
		Format: "binary",
	}
	if t == fileHeadersType {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:  &openapi3.Types{openapi3.TypeArray},
			Items: &openapi3.SchemaRef{Value: binary},
		}}
	}
	return &openapi3.SchemaRef{Value: binary}
}

func hasRequiredRule(rules []validate.Rule) bool {
	probe := &openapi3.Schema{}
	ref := &openapi3.SchemaRef{Value: &openapi3.Schema{}}
	for _, r := range rules {
		_ = r.Describe("f", probe, ref)
	}
	return len(probe.Required) > 0
}

// buildResponses assembles the response map: the success response, the
// automatic 422 for routes that bind input, then [WithResponses] overrides.
func (a *App) buildResponses(ri *routeInfo, sr *schemaRegistry) (*openapi3.Responses, error) {
	byStatus := map[string]*openapi3.Response{}

	success := strconv.Itoa(ri.status)
	if ri.respType != nil && ri.respType != voidType {
		ref, err := sr.refFor(ri.respType)
		if err != nil {
			return nil, err
		}
		byStatus[success] = openapi3.NewResponse().
			WithDescription("Successful Response").
			WithContent(openapi3.NewContentWithJSONSchemaRef(ref))
	} else {
		byStatus[success] = openapi3.NewResponse().WithDescription("Successful Response")
	}

	if ri.fields.bindsInput() {
		ref, err := sr.refFor(reflect.TypeOf(a.errModel))
		if err != nil {
			return nil, err
		}
		byStatus["422"] = openapi3.NewResponse().
			WithDescription("Validation Error").
			WithContent(openapi3.NewContentWithJSONSchemaRef(ref))
	}

	for status, v := range ri.responses {
		resp, err := responseFor(v, status, sr)
		if err != nil {
			return nil, err
		}
		byStatus[status] = resp
	}

	opts := make([]openapi3.NewResponsesOption, 0, len(byStatus))
	for status, resp := range byStatus {
		opts = append(opts, openapi3.WithName(status, resp))
	}
	return openapi3.NewResponses(opts...), nil
}

// responseFor turns a [WithResponses] value into a response: a ready
// *openapi3.Response passes through, anything else is treated as a body
// model and its schema generated.
func responseFor(v any, status string, sr *schemaRegistry) (*openapi3.Response, error) {
	if resp, ok := v.(*openapi3.Response); ok {
		return resp, nil
	}
	desc := "Response"
	if code, err := strconv.Atoi(status); err == nil {
		if text := http.StatusText(code); text != "" {
			desc = text
		}
	}
	if v == nil {
		return openapi3.NewResponse().WithDescription(desc), nil
	}
	ref, err := sr.refFor(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	return openapi3.NewResponse().
		WithDescription(desc).
		WithContent(openapi3.NewContentWithJSONSchemaRef(ref)), nil
}

// addPath merges an operation into the document's path item for path.
func addPath(doc *openapi3.T, path, method string, op *openapi3.Operation) {
	p := doc.Paths.Value(path)
	if p == nil {
		p = &openapi3.PathItem{}
	}
	p.SetOperation(method, op)
	doc.Paths.Set(path, p)
}

// muxVarPattern matches a gorilla path variable, with or without a custom
// regexp part.
var muxVarPattern = regexp.MustCompile(`\{([^}:]+)(?::[^}]*)?\}`)

// openapiPath strips gorilla regexp constraints: "{id:[0-9]+}" documents as
// "{id}".
func openapiPath(path string) string {
	return muxVarPattern.ReplaceAllString(path, "{$1}")
}

var nonIDChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// defaultOperationID builds "get_books_id" from GET /books/{id}.
func defaultOperationID(method, path string) string {
	slug := nonIDChars.ReplaceAllString(openapiPath(path), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "root"
	}
	return strings.ToLower(method) + "_" + slug
}

// tagSet collects described tags in first-seen order, deduplicated by name.
type tagSet struct {
	order []string
	descs map[string]string
	extra map[string]*openapi3.Tag
}

func newTagSet(appDescs map[string]string) *tagSet {
	descs := map[string]string{}
	for k, v := range appDescs {
		descs[k] = v
	}
	return &tagSet{descs: descs, extra: map[string]*openapi3.Tag{}}
}

func (ts *tagSet) add(t *openapi3.Tag) {
	if _, seen := ts.extra[t.Name]; !seen {
		ts.order = append(ts.order, t.Name)
		ts.extra[t.Name] = t
	}
	if t.Description != "" {
		ts.descs[t.Name] = t.Description
	}
}

// list returns tags that carry a description or external docs. Bare names
// already appear on their operations.
func (ts *tagSet) list() openapi3.Tags {
	var out openapi3.Tags
	for _, name := range ts.order {
		t := ts.extra[name]
		desc := ts.descs[name]
		if desc == "" && t.ExternalDocs == nil {
			continue
		}
		out = append(out, &openapi3.Tag{
			Name:         name,
			Description:  desc,
			ExternalDocs: t.ExternalDocs,
		})
	}
	return out
}
