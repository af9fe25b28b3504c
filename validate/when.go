package validate

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// WhenRule applies rules only while its condition holds, with an optional
// alternative set via [WhenRule.Else]. Created by [When].
type WhenRule struct {
	validation.WhenRule
	desc      string
	whenRules []Rule
	elseRules []Rule
}

// When applies rules only when condition is true. desc names the condition
// in the generated schema description ("when <desc>: ...").
func When(condition bool, desc string, rules ...Rule) *WhenRule {
	return &WhenRule{
		WhenRule:  validation.When(condition, ozzoRules(rules)...),
		desc:      desc,
		whenRules: rules,
	}
}

// Else sets the rules applied when the condition is false.
func (r *WhenRule) Else(rules ...Rule) *WhenRule {
	r.elseRules = rules
	r.WhenRule = r.WhenRule.Else(ozzoRules(rules)...)
	return r
}

// Describe summarizes both branches into the schema description. The
// constraints themselves are not written into the schema because they only
// hold conditionally.
func (r *WhenRule) Describe(name string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	if len(r.whenRules) > 0 {
		summary, err := summarizeRules(name, r.whenRules)
		if err != nil {
			return err
		}
		if summary != "" {
			if r.desc != "" {
				summary = fmt.Sprintf("when %s: %s", r.desc, summary)
			}
			appendDescription(ref.Value, summary)
		}
	}
	if len(r.elseRules) > 0 {
		summary, err := summarizeRules(name, r.elseRules)
		if err != nil {
			return err
		}
		if summary != "" {
			appendDescription(ref.Value, "else: "+summary)
		}
	}
	return nil
}

// summarizeRules runs Describe against throwaway schemas and renders the
// mutations as a short human-readable list.
func summarizeRules(name string, rules []Rule) (string, error) {
	schema := openapi3.NewSchema()
	ref := &openapi3.SchemaRef{Value: openapi3.NewSchema()}

	for _, r := range rules {
		if err := r.Describe(name, schema, ref); err != nil {
			return "", err
		}
	}

	var parts []string
	if ref.Value.Description != "" {
		parts = append(parts, ref.Value.Description)
	}
	if len(schema.Required) > 0 {
		parts = append(parts, "required")
	}
	if ref.Value.Min != nil {
		parts = append(parts, fmt.Sprintf("min %g", *ref.Value.Min))
	}
	if ref.Value.Max != nil {
		parts = append(parts, fmt.Sprintf("max %g", *ref.Value.Max))
	}
	if len(ref.Value.Enum) > 0 {
		vals := make([]string, len(ref.Value.Enum))
		for i, v := range ref.Value.Enum {
			vals[i] = fmt.Sprint(v)
		}
		parts = append(parts, "one of ["+strings.Join(vals, ", ")+"]")
	}
	return strings.Join(parts, ", "), nil
}
