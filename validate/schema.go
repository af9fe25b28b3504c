package validate

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

// NewSchemaRef generates an OpenAPI schema for value, applying the rules of
// any [Ruler], [ContextRuler], or [ValueRuler] types it contains. When
// schemas is non-nil, named types are exported into it as component schemas
// and the returned ref points at "#/components/schemas/<name>".
func NewSchemaRef(value any, schemas openapi3.Schemas) (*openapi3.SchemaRef, error) {
	opts := []openapi3gen.Option{openapi3gen.SchemaCustomizer(applyRules)}
	if schemas != nil {
		opts = append(opts, openapi3gen.CreateComponentSchemas(openapi3gen.ExportComponentSchemasOptions{
			ExportComponentSchemas: true,
			ExportTopLevelSchema:   true,
		}))
	}
	g := openapi3gen.NewGenerator(opts...)
	return g.NewSchemaRefForValue(value, schemas)
}

// NewSchemaRefForType is like [NewSchemaRef] for a reflect.Type.
func NewSchemaRefForType(t reflect.Type, schemas openapi3.Schemas) (*openapi3.SchemaRef, error) {
	return NewSchemaRef(reflect.New(t).Elem().Interface(), schemas)
}

// applyRules is the openapi3gen customizer that folds validation rules into
// generated schemas.
func applyRules(name string, t reflect.Type, tag reflect.StructTag, schema *openapi3.Schema) error {
	if def := tag.Get("default"); def != "" {
		schema.Default = coerceDefault(def, t)
	}

	inst, fields := rulesForType(t)
	if inst == nil {
		return applyValueRules(t, name, schema)
	}
	structVal := reflect.Indirect(reflect.ValueOf(inst))

	fields = expandFields(context.Background(), inst, fields)
	removeSkippedFields(structVal, schema)
	resolveKeys(fields, structVal)

	for key, propRef := range schema.Properties {
		for _, f := range fields {
			if f.key != key {
				continue
			}
			for _, rule := range f.rules {
				if err := rule.Describe(key, schema, propRef); err != nil {
					return fmt.Errorf("describe %s.%s: %w", t, key, err)
				}
			}
		}
	}
	return nil
}

// coerceDefault parses a default tag into the field's kind, so numeric and
// boolean defaults document as their own JSON type. Unparseable values fall
// back to the raw string.
func coerceDefault(raw string, t reflect.Type) any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return n
		}
	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

// applyValueRules applies [ValueRuler] rules to the schema of a non-struct
// named type (e.g. a string enum).
func applyValueRules(t reflect.Type, name string, schema *openapi3.Schema) error {
	vr, ok := reflect.New(t).Interface().(ValueRuler)
	if !ok {
		return nil
	}
	ref := &openapi3.SchemaRef{Value: schema}
	for _, rule := range vr.ValueRules() {
		if err := rule.Describe(name, schema, ref); err != nil {
			return err
		}
	}
	return nil
}

// rulesForType returns a new instance of t and its rules if *t implements
// Ruler or ContextRuler.
func rulesForType(t reflect.Type) (any, []*FieldRules) {
	inst := reflect.New(t)
	if r, ok := inst.Interface().(Ruler); ok {
		return inst.Interface(), r.Rules()
	}
	if r, ok := inst.Interface().(ContextRuler); ok {
		return inst.Interface(), r.Rules(context.Background())
	}
	return nil, nil
}

// removeSkippedFields deletes schema properties for fields tagged docs:"skip",
// recursing into embedded structs.
func removeSkippedFields(structVal reflect.Value, schema *openapi3.Schema) {
	for i := 0; i < structVal.NumField(); i++ {
		sf := structVal.Type().Field(i)
		if sf.Anonymous {
			fi := structVal.Field(i)
			if sf.Type.Kind() == reflect.Ptr {
				if fi.IsNil() {
					continue
				}
				fi = fi.Elem()
			}
			if fi.Kind() == reflect.Struct {
				removeSkippedFields(fi, schema)
			}
			continue
		}
		if strings.Split(sf.Tag.Get("docs"), ",")[0] != "skip" {
			continue
		}
		delete(schema.Properties, fieldKey(sf))
	}
}
