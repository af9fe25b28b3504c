package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate runs the rules attached to value. Types implementing [Ruler] or
// [ContextRuler] have their field rules applied; [ValueRuler] types have
// their value rules applied; slice and map elements implementing Ruler are
// validated individually.
func Validate(value any) error {
	return ValidateCtx(context.Background(), value)
}

// ValidateCtx is like Validate but passes ctx to [ContextRuler] rules.
func ValidateCtx(ctx context.Context, value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}

	if r, ok := value.(Ruler); ok {
		return validation.ValidateStruct(value, ozzoFieldRules(ctx, value, r.Rules())...)
	}
	if r, ok := value.(ContextRuler); ok {
		return validation.ValidateStruct(value, ozzoFieldRules(ctx, value, r.Rules(ctx))...)
	}

	// Struct values whose pointer type implements Ruler. Happens when ozzo
	// hands a field value (not a pointer) to the bridge rule.
	if rv.Kind() == reflect.Struct {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		pi := ptr.Interface()
		if r, ok := pi.(Ruler); ok {
			return validation.ValidateStruct(pi, ozzoFieldRules(ctx, pi, r.Rules())...)
		}
		if r, ok := pi.(ContextRuler); ok {
			return validation.ValidateStruct(pi, ozzoFieldRules(ctx, pi, r.Rules(ctx))...)
		}
	}

	if vr, ok := value.(ValueRuler); ok {
		for _, rule := range vr.ValueRules() {
			if err := rule.Validate(value); err != nil {
				return err
			}
		}
		return nil
	}

	if (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil
	}
	rv = reflect.Indirect(rv)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if elemNeedsValidation(rv.Type().Elem()) {
			return validateSlice(ctx, rv)
		}
	case reflect.Map:
		if elemNeedsValidation(rv.Type().Elem()) {
			return validateMap(ctx, rv)
		}
	case reflect.Ptr, reflect.Interface:
		return ValidateCtx(ctx, rv.Elem().Interface())
	}

	return nil
}

// ValidateStruct validates a struct with explicit field rules. Prefer
// Validate for types implementing [Ruler].
func ValidateStruct(structPtr any, fields []*FieldRules) error {
	return validation.ValidateStruct(structPtr, ozzoFieldRules(context.Background(), structPtr, fields)...)
}

// UnmarshalAndValidate decodes JSON into dst, then validates it.
func UnmarshalAndValidate(b []byte, dst any) error {
	if err := json.Unmarshal(b, dst); err != nil {
		return err
	}
	return Validate(dst)
}

// DecodeAndValidate reads JSON from r into dst with a streaming decoder,
// then validates. Use it when reading straight from an HTTP request body.
func DecodeAndValidate(r io.Reader, dst any) error {
	return DecodeAndValidateCtx(context.Background(), r, dst)
}

// DecodeAndValidateCtx is like DecodeAndValidate but passes ctx to
// [ContextRuler] rules.
func DecodeAndValidateCtx(ctx context.Context, r io.Reader, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return err
	}
	return ValidateCtx(ctx, dst)
}

// elemNeedsValidation reports whether collection elements of type t carry
// rules of their own. Recurses into nested collections.
func elemNeedsValidation(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct:
		pi := reflect.New(t).Interface()
		if _, ok := pi.(Ruler); ok {
			return true
		}
		if _, ok := pi.(ContextRuler); ok {
			return true
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		return elemNeedsValidation(t.Elem())
	case reflect.Ptr:
		return elemNeedsValidation(t.Elem())
	}
	return false
}

func validateSlice(ctx context.Context, rv reflect.Value) error {
	errs := Errors{}
	for i := 0; i < rv.Len(); i++ {
		if err := validateElement(ctx, rv.Index(i)); err != nil {
			errs[strconv.Itoa(i)] = err
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateMap(ctx context.Context, rv reflect.Value) error {
	errs := Errors{}
	for _, key := range rv.MapKeys() {
		if err := validateElement(ctx, rv.MapIndex(key)); err != nil {
			errs[fmt.Sprintf("%v", key.Interface())] = err
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateElement(ctx context.Context, v reflect.Value) error {
	if (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil
	}

	var ptr reflect.Value
	switch {
	case v.CanAddr():
		ptr = v.Addr()
	case v.Kind() == reflect.Struct:
		ptr = reflect.New(v.Type())
		ptr.Elem().Set(v)
	case v.Kind() == reflect.Ptr:
		ptr = v
	}

	if ptr.IsValid() {
		pi := ptr.Interface()
		if _, ok := pi.(Ruler); ok {
			return ValidateCtx(ctx, pi)
		}
		if _, ok := pi.(ContextRuler); ok {
			return ValidateCtx(ctx, pi)
		}
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return ValidateCtx(ctx, v.Interface())
	}
	return nil
}

// rulerBridge is appended to every field's rule list so ozzo recurses into
// children that declare their own rules (Ruler structs, slices, maps).
type rulerBridge struct {
	ctx context.Context
}

func (b *rulerBridge) Validate(value any) error {
	if value == nil {
		return nil
	}
	return ValidateCtx(b.ctx, value)
}

// ozzoFieldRules translates FieldRules into ozzo's field rules, expanding
// embedded Ruler fields so error keys stay flat.
func ozzoFieldRules(ctx context.Context, structPtr any, fields []*FieldRules) []*validation.FieldRules {
	flat := expandFields(ctx, structPtr, fields)

	out := make([]*validation.FieldRules, len(flat))
	for i, fr := range flat {
		rules := make([]validation.Rule, 0, len(fr.rules)+1)
		for _, r := range fr.rules {
			if s, ok := r.(*SkipRule); ok && s.active {
				break
			}
			rules = append(rules, validation.Rule(r))
		}
		rules = append(rules, &rulerBridge{ctx: ctx})
		out[i] = validation.Field(fr.fieldPtr, rules...)
	}
	return out
}

func ozzoRules(rules []Rule) []validation.Rule {
	out := make([]validation.Rule, len(rules))
	for i := range rules {
		out[i] = validation.Rule(rules[i])
	}
	return out
}
