package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type requiredRule struct {
	validation.RequiredRule
}

// Required checks that a value is present and not empty. It also marks the
// field as required in the schema.
var Required Rule = requiredRule{validation.Required}

func (r requiredRule) Describe(name string, schema *openapi3.Schema, _ *openapi3.SchemaRef) error {
	schema.Required = append(schema.Required, name)
	return nil
}

type thresholdRule struct {
	validation.ThresholdRule
	threshold any
	isMin     bool
}

// Min checks that a value is greater than or equal to threshold. String
// values are parsed numerically first, so query and form parameters can use
// numeric bounds without a custom rule.
func Min(threshold any) Rule {
	return thresholdRule{validation.Min(threshold), threshold, true}
}

// Max checks that a value is less than or equal to threshold. Strings parse
// like in [Min].
func Max(threshold any) Rule {
	return thresholdRule{validation.Max(threshold), threshold, false}
}

func (r thresholdRule) Describe(_ string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	f, err := toFloat(r.threshold)
	if err != nil {
		return err
	}
	if r.isMin {
		ref.Value.Min = &f
	} else {
		ref.Value.Max = &f
	}
	return nil
}

func (r thresholdRule) Validate(value any) error {
	value, isNil := validation.Indirect(value)
	if isNil || validation.IsEmpty(value) {
		return nil
	}

	if s, ok := stringValue(value); ok {
		parsed, err := parseAs(s, reflect.ValueOf(r.threshold).Kind())
		if err != nil {
			return err
		}
		value = parsed
	}
	return r.ThresholdRule.Validate(value)
}

func stringValue(value any) (string, bool) {
	if v, ok := value.(fmt.Stringer); ok {
		return v.String(), true
	}
	if reflect.ValueOf(value).Kind() == reflect.String {
		return reflect.ValueOf(value).String(), true
	}
	return "", false
}

func parseAs(s string, kind reflect.Kind) (any, error) {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.New("must be an integer")
		}
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errors.New("must be a non-negative integer")
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.New("must be a number")
		}
		return v, nil
	}
	return s, nil
}

var floatType = reflect.TypeOf(float64(0))

func toFloat(v any) (float64, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.Type().ConvertibleTo(floatType) {
		return 0, fmt.Errorf("cannot convert %v to float64", rv.Type())
	}
	return rv.Convert(floatType).Float(), nil
}

type lengthRule struct {
	validation.LengthRule
	lo, hi int
}

// Length checks that a string's rune length is within [lo, hi]. The bounds
// become minLength/maxLength in the schema.
func Length(lo, hi int) Rule {
	return &lengthRule{validation.RuneLength(lo, hi), lo, hi}
}

func (r *lengthRule) Describe(_ string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	ref.Value.MinLength = uint64(r.lo)
	if r.hi > 0 {
		hi := uint64(r.hi)
		ref.Value.MaxLength = &hi
	}
	return nil
}

type inRule struct {
	validation.InRule
	values []any
}

// In checks that a value is one of the given values. The values become the
// schema enum.
func In(values ...any) Rule {
	want := make([]string, len(values))
	for i := range values {
		want[i] = fmt.Sprintf("'%v'", values[i])
	}
	return &inRule{
		validation.In(values...).Error("must be one of " + strings.Join(want, ", ")),
		values,
	}
}

func (r *inRule) Validate(value any) error {
	// In is mostly used on named string types; compare by string form so a
	// coerced header or query value matches its enum constant.
	value, isNil := validation.Indirect(value)
	if isNil || validation.IsEmpty(value) {
		return nil
	}
	s := fmt.Sprintf("%v", value)
	for _, v := range r.values {
		if fmt.Sprintf("%v", v) == s {
			return nil
		}
	}
	if err := r.InRule.Validate(value); err != nil {
		return fmt.Errorf("%s, got '%v'", err, value)
	}
	return nil
}

func (r *inRule) Describe(_ string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	ref.Value.Enum = r.values
	return nil
}

type eachRule struct {
	validation.EachRule
	rules []Rule
}

// Each applies the given rules to every element of a slice, array, or map.
func Each(rules ...Rule) Rule {
	return &eachRule{validation.Each(ozzoRules(rules)...), rules}
}

func (r *eachRule) Describe(name string, schema *openapi3.Schema, ref *openapi3.SchemaRef) error {
	target := ref
	if ref.Value.Items != nil {
		target = ref.Value.Items
	}
	for _, rule := range r.rules {
		if err := rule.Describe(name, schema, target); err != nil {
			return err
		}
	}
	return nil
}

type stringRule struct {
	validation.StringRule
	desc string
}

// NewStringRule builds a rule from a string predicate; desc doubles as the
// error message and the schema description.
func NewStringRule(validator func(string) bool, desc string) Rule {
	return stringRule{validation.NewStringRule(validator, desc), desc}
}

// NewStringRuleWithError is like NewStringRule with a distinct ozzo error.
func NewStringRuleWithError(validator func(string) bool, err validation.Error, desc string) Rule {
	return stringRule{validation.NewStringRuleWithError(validator, err), desc}
}

func (r stringRule) Describe(_ string, _ *openapi3.Schema, ref *openapi3.SchemaRef) error {
	appendDescription(ref.Value, r.desc)
	return nil
}
