package validate_test

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v "github.com/Gobd/apirouter/validate"
)

func TestMinMax(t *testing.T) {
	tests := []struct {
		name  string
		rule  v.Rule
		value any
		ok    bool
	}{
		{"min ok", v.Min(5), 7, true},
		{"min equal", v.Min(5), 5, true},
		{"min fail", v.Min(5), 3, false},
		{"max ok", v.Max(10), 9, true},
		{"max fail", v.Max(10), 11, false},
		{"min float ok", v.Min(1.5), 1.6, true},
		{"min float fail", v.Min(1.5), 1.4, false},
		{"empty skipped", v.Min(5), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMinMaxStringValues(t *testing.T) {
	// Query and form parameters arrive as strings; numeric bounds still apply.
	assert.NoError(t, v.Min(5).Validate("7"))
	assert.Error(t, v.Min(5).Validate("3"))
	assert.Error(t, v.Min(5).Validate("not a number"))
	assert.NoError(t, v.Max(10.5).Validate("10.4"))
}

func TestMinMaxDescribe(t *testing.T) {
	schema := openapi3.NewSchema()
	ref := &openapi3.SchemaRef{Value: schema}

	require.NoError(t, v.Min(5).Describe("n", openapi3.NewSchema(), ref))
	require.NoError(t, v.Max(10).Describe("n", openapi3.NewSchema(), ref))

	require.NotNil(t, schema.Min)
	require.NotNil(t, schema.Max)
	assert.Equal(t, 5.0, *schema.Min)
	assert.Equal(t, 10.0, *schema.Max)
}

func TestLength(t *testing.T) {
	rule := v.Length(2, 5)

	assert.NoError(t, rule.Validate("ab"))
	assert.NoError(t, rule.Validate("abcde"))
	assert.Error(t, rule.Validate("a"))
	assert.Error(t, rule.Validate("abcdef"))
	assert.NoError(t, rule.Validate(""), "empty values are skipped")
}

func TestLengthDescribe(t *testing.T) {
	schema := openapi3.NewSchema()
	ref := &openapi3.SchemaRef{Value: schema}

	require.NoError(t, v.Length(2, 5).Describe("s", openapi3.NewSchema(), ref))

	assert.Equal(t, uint64(2), schema.MinLength)
	require.NotNil(t, schema.MaxLength)
	assert.Equal(t, uint64(5), *schema.MaxLength)
}

func TestIn(t *testing.T) {
	rule := v.In("a", "b")

	assert.NoError(t, rule.Validate("a"))
	assert.NoError(t, rule.Validate(""))
	err := rule.Validate("c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of 'a', 'b'")
	assert.Contains(t, err.Error(), "got 'c'")
}

func TestInNamedType(t *testing.T) {
	// A coerced named string still matches its enum constants.
	rule := v.In(color("red"), color("green"))
	assert.NoError(t, rule.Validate(color("red")))
	assert.NoError(t, rule.Validate("red"))
	assert.Error(t, rule.Validate("black"))
}

func TestInDescribe(t *testing.T) {
	schema := openapi3.NewSchema()
	ref := &openapi3.SchemaRef{Value: schema}

	require.NoError(t, v.In("a", "b").Describe("s", openapi3.NewSchema(), ref))
	assert.Equal(t, []any{"a", "b"}, schema.Enum)
}

func TestRequiredDescribe(t *testing.T) {
	parent := openapi3.NewSchema()
	ref := &openapi3.SchemaRef{Value: openapi3.NewSchema()}

	require.NoError(t, v.Required.Describe("name", parent, ref))
	assert.Equal(t, []string{"name"}, parent.Required)
}

func TestEach(t *testing.T) {
	rule := v.Each(v.Length(1, 3))

	assert.NoError(t, rule.Validate([]string{"a", "bb"}))
	assert.Error(t, rule.Validate([]string{"a", "toolong"}))
}

func TestEachDescribeTargetsItems(t *testing.T) {
	items := &openapi3.SchemaRef{Value: openapi3.NewSchema()}
	array := &openapi3.SchemaRef{Value: &openapi3.Schema{Items: items}}

	require.NoError(t, v.Each(v.Length(1, 3)).Describe("tags", openapi3.NewSchema(), array))

	assert.Equal(t, uint64(1), items.Value.MinLength)
	require.NotNil(t, items.Value.MaxLength)
	assert.Equal(t, uint64(3), *items.Value.MaxLength)
}

func TestDocRules(t *testing.T) {
	schema := openapi3.NewSchema()
	ref := &openapi3.SchemaRef{Value: schema}
	parent := openapi3.NewSchema()

	require.NoError(t, v.Describe("a person's name").Describe("s", parent, ref))
	require.NoError(t, v.Default("anon").Describe("s", parent, ref))
	require.NoError(t, v.Example("ada").Describe("s", parent, ref))
	require.NoError(t, v.Deprecated().Describe("s", parent, ref))
	require.NoError(t, v.Format("name").Describe("s", parent, ref))

	assert.Equal(t, "a person's name", schema.Description)
	assert.Equal(t, "anon", schema.Default)
	assert.Equal(t, "ada", schema.Example)
	assert.True(t, schema.Deprecated)
	assert.Equal(t, "name", schema.Format)
}

func TestWhenDescribe(t *testing.T) {
	schema := openapi3.NewSchema()
	ref := &openapi3.SchemaRef{Value: schema}

	rule := v.When(true, "kind is external", v.Required, v.Min(1)).Else(v.Max(10))
	require.NoError(t, rule.Describe("ref", openapi3.NewSchema(), ref))

	assert.Contains(t, schema.Description, "when kind is external")
	assert.Contains(t, schema.Description, "required")
	assert.Contains(t, schema.Description, "min 1")
	assert.Contains(t, schema.Description, "else: max 10")

	// Conditional constraints never land in the schema itself.
	assert.Nil(t, schema.Min)
	assert.Nil(t, schema.Max)
}
