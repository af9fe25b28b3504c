package apirouter

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Gobd/apirouter/validate"
)

// buildParameters documents the path, query, header, and cookie fields of a
// request type. Form fields are not parameters, they become the form request
// body.
func buildParameters(reqType reflect.Type, fs *fieldSet, sr *schemaRegistry) (openapi3.Parameters, error) {
	if len(fs.params) == 0 {
		return nil, nil
	}
	rules := validate.RulesByKey(context.Background(), reflect.New(reqType).Interface())

	var params openapi3.Parameters
	for _, pf := range fs.params {
		if pf.in == inForm {
			continue
		}
		ref, required, err := paramSchema(pf, rules[pf.key], sr)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", pf.name, err)
		}
		p := &openapi3.Parameter{
			Name:     pf.name,
			In:       pf.in,
			Required: required || pf.in == inPath,
			Schema:   ref,
		}
		if ref.Value != nil && ref.Ref == "" {
			p.Description = ref.Value.Description
		}
		params = append(params, &openapi3.ParameterRef{Value: p})
	}
	return params, nil
}

// paramSchema generates the schema of a single parameter and applies the
// field's validation rules to it. Named enum types come back as component
// references.
func paramSchema(pf paramField, rules []validate.Rule, sr *schemaRegistry) (*openapi3.SchemaRef, bool, error) {
	ft := derefType(pf.typ)
	elem := ft
	isSlice := ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array
	if isSlice {
		elem = derefType(ft.Elem())
	}

	var ref *openapi3.SchemaRef
	var err error
	if isEnumType(elem) {
		ref, err = sr.enumRef(elem)
		if err == nil && isSlice {
			ref = &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type:  &openapi3.Types{openapi3.TypeArray},
				Items: ref,
			}}
		}
	} else {
		ref, err = validate.NewSchemaRefForType(pf.typ, nil)
	}
	if err != nil {
		return nil, false, err
	}
	if pf.defValue != "" {
		def := defaultValue(pf.typ, pf.defValue)
		if ref.Ref != "" {
			// Component references cannot carry a sibling default; wrap so
			// the shared component stays untouched.
			ref = &openapi3.SchemaRef{Value: &openapi3.Schema{
				AllOf:   openapi3.SchemaRefs{ref},
				Default: def,
			}}
		} else if ref.Value != nil {
			ref.Value.Default = def
		}
	}

	// Rules write into the schema they describe. A component reference is
	// shared, so those get a throwaway target and only the required flag
	// is kept.
	target := ref
	if ref.Ref != "" {
		target = &openapi3.SchemaRef{Value: &openapi3.Schema{}}
	}
	parent := &openapi3.Schema{Properties: openapi3.Schemas{pf.key: target}}
	for _, rule := range rules {
		if err := rule.Describe(pf.key, parent, target); err != nil {
			return nil, false, err
		}
	}
	return ref, slices.Contains(parent.Required, pf.key), nil
}

// defaultValue coerces a default tag onto the field's type, so the document
// shows a typed default rather than its raw string form. Unparseable values
// fall back to the raw string.
func defaultValue(t reflect.Type, raw string) any {
	elem := derefType(t)
	if elem.Kind() == reflect.Slice || elem.Kind() == reflect.Array {
		elem = derefType(elem.Elem())
	}
	v := reflect.New(elem).Elem()
	if err := setScalar(v, raw); err != nil {
		return raw
	}
	return v.Interface()
}

// enumRef exports a named scalar type as a component and returns a reference
// to it.
func (sr *schemaRegistry) enumRef(t reflect.Type) (*openapi3.SchemaRef, error) {
	scratch := openapi3.Schemas{}
	name, err := sr.enumComponent(t, scratch)
	if err != nil {
		return nil, err
	}
	renames := sr.merge(scratch)
	if renamed, ok := renames[name]; ok {
		name = renamed
	}
	return &openapi3.SchemaRef{Ref: componentPrefix + name, Value: sr.components[name].Value}, nil
}
