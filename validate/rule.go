package validate

import (
	"context"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type (
	// RuleFunc validates a value and returns an error when it is invalid.
	RuleFunc func(value any) error

	// Rule is implemented by every validation rule. Validate checks a value
	// at request time; Describe writes the same constraint into the OpenAPI
	// schema so the document never drifts from the runtime checks.
	Rule interface {
		Validate(value any) error
		Describe(name string, schema *openapi3.Schema, ref *openapi3.SchemaRef) error
	}

	// FieldRules binds a struct field pointer to its rules.
	FieldRules struct {
		fieldPtr any
		key      string
		rules    []Rule
	}

	// Ruler is implemented by struct types that declare their own field rules.
	Ruler interface {
		Rules() []*FieldRules
	}

	// ContextRuler is like Ruler for rules that depend on a request context.
	ContextRuler interface {
		Rules(ctx context.Context) []*FieldRules
	}

	// ValueRuler is implemented by non-struct types (e.g. type Language
	// string) that carry their own rules. The rules apply wherever the type
	// appears, during both validation and schema generation.
	ValueRuler interface {
		ValueRules() []Rule
	}
)

// Errors maps field keys to their validation errors. It aliases ozzo's
// validation.Errors, which marshals to JSON as an object.
type Errors = validation.Errors

// Field binds a struct field pointer to validation rules.
func Field[T any](fieldPtr *T, rules ...Rule) *FieldRules {
	return &FieldRules{fieldPtr: fieldPtr, rules: rules}
}

// Rules returns the rules bound by Field.
func (f *FieldRules) Rules() []Rule { return f.rules }

// By wraps a RuleFunc into a Rule, with desc appended to the schema description.
func By(f RuleFunc, desc string) Rule {
	return &inlineRule{validation.By(validation.RuleFunc(f)), desc}
}

type inlineRule struct {
	validation.Rule
	desc string
}

func (r *inlineRule) Describe(_ string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	appendDescription(ref.Value, r.desc)
	return nil
}

// appendDescription appends desc to the schema description with a separating space.
func appendDescription(s *openapi3.Schema, desc string) {
	if desc == "" {
		return
	}
	if s.Description != "" && !strings.HasSuffix(s.Description, " ") {
		s.Description += " "
	}
	s.Description += desc
}

// findStructField locates the struct field addressed by fieldPtr, searching
// embedded structs recursively. Returns nil if fieldPtr does not point into
// structVal.
func findStructField(structVal reflect.Value, fieldPtr reflect.Value) *reflect.StructField {
	ptr := fieldPtr.Pointer()
	for i := structVal.NumField() - 1; i >= 0; i-- {
		sf := structVal.Type().Field(i)
		if ptr == structVal.Field(i).UnsafeAddr() {
			// Embedded structs share the address of their first field.
			if sf.Type == fieldPtr.Elem().Type() {
				return &sf
			}
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
				if f := findStructField(structVal.Field(i), fieldPtr); f != nil {
					return f
				}
			}
		} else if sf.Anonymous {
			inner := structVal.Field(i)
			if sf.Type.Kind() == reflect.Ptr {
				if inner.IsNil() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct && inner.CanAddr() {
				if f := findStructField(inner, fieldPtr); f != nil {
					return f
				}
			}
		}
	}
	return nil
}

// fieldKey returns the json tag name of sf, falling back to the Go field
// name. Parameter fields often carry no json tag, so the fallback keeps
// schema property keys and error keys stable for them.
func fieldKey(sf reflect.StructField) string {
	if tag := strings.Split(sf.Tag.Get("json"), ",")[0]; tag != "" && tag != "-" {
		return tag
	}
	return sf.Name
}

// expandFields inlines the rules of embedded Ruler/ContextRuler fields so
// error keys and schema properties stay flat.
func expandFields(ctx context.Context, structPtr any, fields []*FieldRules) []*FieldRules {
	structVal := reflect.Indirect(reflect.ValueOf(structPtr))
	if !structVal.IsValid() || structVal.Kind() != reflect.Struct {
		return fields
	}

	out := make([]*FieldRules, 0, len(fields))
	for _, fr := range fields {
		fv := reflect.ValueOf(fr.fieldPtr)
		if fv.Kind() == reflect.Ptr {
			if sf := findStructField(structVal, fv); sf != nil && sf.Anonymous {
				embedded := fv.Interface()
				if r, ok := embedded.(Ruler); ok {
					out = append(out, expandFields(ctx, embedded, r.Rules())...)
					continue
				}
				if r, ok := embedded.(ContextRuler); ok {
					out = append(out, expandFields(ctx, embedded, r.Rules(ctx))...)
					continue
				}
			}
		}
		out = append(out, fr)
	}
	return out
}

// RulesByKey returns the rules declared by structPtr keyed by field key
// (json tag name or Go field name). Returns nil when structPtr implements
// neither [Ruler] nor [ContextRuler]. The router uses this to fold field
// rules into parameter schemas.
func RulesByKey(ctx context.Context, structPtr any) map[string][]Rule {
	var fields []*FieldRules
	switch r := structPtr.(type) {
	case Ruler:
		fields = r.Rules()
	case ContextRuler:
		fields = r.Rules(ctx)
	default:
		return nil
	}

	structVal := reflect.Indirect(reflect.ValueOf(structPtr))
	fields = expandFields(ctx, structPtr, fields)
	resolveKeys(fields, structVal)

	out := make(map[string][]Rule, len(fields))
	for _, fr := range fields {
		if fr.key != "" {
			out[fr.key] = append(out[fr.key], fr.rules...)
		}
	}
	return out
}

// resolveKeys fills each FieldRules key from its field pointer.
func resolveKeys(fields []*FieldRules, structVal reflect.Value) {
	for _, fr := range fields {
		fv := reflect.ValueOf(fr.fieldPtr)
		if fv.Kind() != reflect.Ptr {
			continue
		}
		if sf := findStructField(structVal, fv); sf != nil && !sf.Anonymous {
			fr.key = fieldKey(*sf)
		}
	}
}
