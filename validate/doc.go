// Package validate is the rule layer shared by route registration and
// document generation. Every [Rule] both validates a value (delegating to
// ozzo-validation) and describes itself into an OpenAPI schema, so a single
// rule declaration keeps runtime checks and documentation in sync.
//
// Attach rules by implementing [Ruler] on request or body types:
//
//	func (b *Book) Rules() []*validate.FieldRules {
//	    return []*validate.FieldRules{
//	        validate.Field(&b.Name, validate.Required, validate.Length(1, 128)),
//	        validate.Field(&b.Copies, validate.Min(1)),
//	    }
//	}
//
// [Validate] runs the rules; [NewSchemaRef] generates the schema with the
// same rules applied.
package validate
