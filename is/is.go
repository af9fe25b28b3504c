// Package is provides string-format validation rules backed by govalidator.
// Each rule implements [validate.Rule], so the format both validates the
// value and appears in the generated schema.
package is

import (
	"github.com/asaskevich/govalidator"
	"github.com/getkin/kin-openapi/openapi3"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Gobd/apirouter/validate"
)

// formatRule validates with a govalidator predicate and writes the OpenAPI
// format string into the schema.
type formatRule struct {
	inner  validate.Rule
	format string
}

func (r formatRule) Validate(value any) error { return r.inner.Validate(value) }

func (r formatRule) Describe(name string, schema *openapi3.Schema, ref *openapi3.SchemaRef) error {
	ref.Value.Format = r.format
	return r.inner.Describe(name, schema, ref)
}

func format(f func(string) bool, name, msg string) validate.Rule {
	return formatRule{
		inner:  validate.NewStringRuleWithError(f, validation.NewError("validation_is_"+name, msg), msg),
		format: name,
	}
}

var (
	// Email checks that the value is a valid email address.
	Email = format(govalidator.IsEmail, "email", "must be a valid email address")

	// URL checks that the value is a valid URL.
	URL = format(govalidator.IsURL, "uri", "must be a valid URL")

	// UUID checks that the value is a valid UUID (any version).
	UUID = format(govalidator.IsUUID, "uuid", "must be a valid UUID")

	// IPv4 checks that the value is a valid IPv4 address.
	IPv4 = format(govalidator.IsIPv4, "ipv4", "must be a valid IPv4 address")

	// IPv6 checks that the value is a valid IPv6 address.
	IPv6 = format(govalidator.IsIPv6, "ipv6", "must be a valid IPv6 address")

	// Host checks that the value is a valid DNS name or IP address.
	Host = format(govalidator.IsHost, "hostname", "must be a valid host")

	// Base64 checks that the value is valid base64.
	Base64 = format(govalidator.IsBase64, "byte", "must be valid base64")

	// JSON checks that the value is a valid JSON document.
	JSON = format(govalidator.IsJSON, "json", "must be valid JSON")

	// Alphanumeric checks that the value contains only letters and digits.
	Alphanumeric = validate.NewStringRule(govalidator.IsAlphanumeric, "must contain only letters and digits")

	// Alpha checks that the value contains only letters.
	Alpha = validate.NewStringRule(govalidator.IsAlpha, "must contain only letters")

	// Numeric checks that the value contains only digits.
	Numeric = validate.NewStringRule(govalidator.IsNumeric, "must contain only digits")

	// LowerCase checks that the value contains no upper-case letters.
	LowerCase = validate.NewStringRule(govalidator.IsLowerCase, "must be lower case")

	// UpperCase checks that the value contains no lower-case letters.
	UpperCase = validate.NewStringRule(govalidator.IsUpperCase, "must be upper case")
)
