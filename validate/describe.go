package validate

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Documentation-only rules. Validate is a no-op; Describe mutates the schema.

type docRule struct {
	apply func(ref *openapi3.SchemaRef)
}

func (r docRule) Validate(any) error { return nil }

func (r docRule) Describe(_ string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	r.apply(ref)
	return nil
}

// Describe appends desc to the field's schema description.
func Describe(desc string) Rule {
	return docRule{func(ref *openapi3.SchemaRef) { appendDescription(ref.Value, desc) }}
}

// Default records the schema default value. The router applies runtime
// defaults from the `default` struct tag; this rule is for document-only
// defaults on body fields.
func Default(v any) Rule {
	return docRule{func(ref *openapi3.SchemaRef) { ref.Value.Default = v }}
}

// Example records the schema example value.
func Example(v any) Rule {
	return docRule{func(ref *openapi3.SchemaRef) { ref.Value.Example = v }}
}

// Deprecated marks the field as deprecated in the schema.
func Deprecated() Rule {
	return docRule{func(ref *openapi3.SchemaRef) { ref.Value.Deprecated = true }}
}

// Format sets the schema format string.
func Format(format string) Rule {
	return docRule{func(ref *openapi3.SchemaRef) { ref.Value.Format = format }}
}

type custom struct {
	f    func(any) error
	desc string
}

// Custom builds a rule from f; desc documents it in the schema description.
func Custom(f func(any) error, desc string) Rule {
	return custom{f: f, desc: desc}
}

func (r custom) Validate(value any) error { return r.f(value) }

func (r custom) Describe(_ string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	appendDescription(ref.Value, r.desc)
	return nil
}

// SkipRule disables the rules that follow it for a field. Created by [Skip].
type SkipRule struct {
	active bool
	desc   string
}

// Skip drops all subsequent rules for the field and adds desc to the schema
// description. Combine with [SkipRule.When] for conditional skipping.
func Skip(desc string) *SkipRule {
	return &SkipRule{active: true, desc: desc}
}

// When arms or disarms the skip.
func (r *SkipRule) When(condition bool) *SkipRule {
	r.active = condition
	return r
}

func (r *SkipRule) Validate(any) error { return nil }

func (r *SkipRule) Describe(_ string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	appendDescription(ref.Value, r.desc)
	return nil
}
