package apirouter_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gobd/apirouter"
)

func TestDocumentInfo(t *testing.T) {
	app := apirouter.New("Test API", "a service", "1.2.3")

	doc, err := app.Document()
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "Test API", doc.Info.Title)
	assert.Equal(t, "a service", doc.Info.Description)
	assert.Equal(t, "1.2.3", doc.Info.Version)
}

func TestDocumentParameters(t *testing.T) {
	app := newTestApp()

	doc, err := app.Document()
	require.NoError(t, err)

	op := doc.Paths.Value("/echo/{id}").Get
	require.NotNil(t, op)

	byName := map[string]*openapi3.Parameter{}
	for _, p := range op.Parameters {
		byName[p.Value.Name] = p.Value
	}

	require.Contains(t, byName, "id")
	assert.Equal(t, "path", byName["id"].In)
	assert.True(t, byName["id"].Required, "path parameters are always required")

	require.Contains(t, byName, "q")
	assert.Equal(t, "query", byName["q"].In)
	assert.False(t, byName["q"].Required)

	require.Contains(t, byName, "x-trace-id")
	assert.Equal(t, "header", byName["x-trace-id"].In)

	require.Contains(t, byName, "session")
	assert.Equal(t, "cookie", byName["session"].In)

	require.Contains(t, byName, "lang")
	lang := byName["lang"].Schema
	require.NotNil(t, lang.Value)
	require.Len(t, lang.Value.AllOf, 1, "defaulted enum wraps the component ref")
	assert.Equal(t, "#/components/schemas/language", lang.Value.AllOf[0].Ref)
	assert.Equal(t, language("en"), lang.Value.Default)

	require.Contains(t, byName, "limit")
	assert.Equal(t, 20, byName["limit"].Schema.Value.Default)
}

func TestDocumentEnumComponent(t *testing.T) {
	app := newTestApp()

	doc, err := app.Document()
	require.NoError(t, err)

	require.Contains(t, doc.Components.Schemas, "language")
	enum := doc.Components.Schemas["language"].Value.Enum
	assert.Equal(t, []any{language("en"), language("de")}, enum)
}

func TestDocumentRequestBody(t *testing.T) {
	app := newTestApp()

	doc, err := app.Document()
	require.NoError(t, err)

	op := doc.Paths.Value("/books").Post
	require.NotNil(t, op)
	require.NotNil(t, op.RequestBody)
	assert.True(t, op.RequestBody.Value.Required)

	media := op.RequestBody.Value.Content["application/json"]
	require.NotNil(t, media)
	assert.Equal(t, "#/components/schemas/book", media.Schema.Ref)

	bookSchema := doc.Components.Schemas["book"].Value
	assert.ElementsMatch(t, []string{"title", "author"}, bookSchema.Required)
}

func TestDocumentResponses(t *testing.T) {
	app := newTestApp()

	doc, err := app.Document()
	require.NoError(t, err)

	op := doc.Paths.Value("/books").Post

	created := op.Responses.Value("201")
	require.NotNil(t, created, "success response uses the route's status")
	assert.Contains(t, created.Value.Content, "application/json")

	unprocessable := op.Responses.Value("422")
	require.NotNil(t, unprocessable, "input-binding routes document the 422")
	schema := unprocessable.Value.Content["application/json"].Schema
	assert.Equal(t, "#/components/schemas/HTTPValidationError", schema.Ref)
	assert.Contains(t, doc.Components.Schemas, "ValidationError")
}

func TestDocumentNoAutoResponsesWithoutInput(t *testing.T) {
	app := apirouter.New("t", "", "1")
	apirouter.Get(app, "/ping", echoOK)

	doc, err := app.Document()
	require.NoError(t, err)

	op := doc.Paths.Value("/ping").Get
	require.NotNil(t, op.Responses.Value("204"))
	assert.Nil(t, op.Responses.Value("422"), "no input, no validation response")
}

func TestDocumentOperationID(t *testing.T) {
	app := newTestApp()

	doc, err := app.Document()
	require.NoError(t, err)

	assert.Equal(t, "get_echo_id", doc.Paths.Value("/echo/{id}").Get.OperationID)
	assert.Equal(t, "post_books", doc.Paths.Value("/books").Post.OperationID)
}

func TestDocumentOperationIDOverrides(t *testing.T) {
	app := apirouter.New("t", "", "1",
		apirouter.WithOperationIDFunc(func(method, path string) string {
			return "custom"
		}))
	apirouter.Get(app, "/a", echoOK)
	apirouter.Get(app, "/b", echoOK, apirouter.WithOperationID("explicit"))

	doc, err := app.Document()
	require.NoError(t, err)

	assert.Equal(t, "custom", doc.Paths.Value("/a").Get.OperationID)
	assert.Equal(t, "explicit", doc.Paths.Value("/b").Get.OperationID)
}

func TestDocumentHiddenRoutes(t *testing.T) {
	app := apirouter.New("t", "", "1")
	apirouter.Get(app, "/visible", echoOK)
	apirouter.Get(app, "/internal", echoOK, apirouter.WithoutDocs())
	apirouter.Websocket(app, "/ws", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	doc, err := app.Document()
	require.NoError(t, err)

	assert.NotNil(t, doc.Paths.Value("/visible"))
	assert.Nil(t, doc.Paths.Value("/internal"))
	assert.Nil(t, doc.Paths.Value("/ws"))
}

func TestDocumentFormBody(t *testing.T) {
	app := apirouter.New("t", "", "1")
	apirouter.Post(app, "/upload", func(ctx context.Context, req *uploadRequest) (apirouter.Void, error) {
		return apirouter.Void{}, nil
	})

	doc, err := app.Document()
	require.NoError(t, err)

	op := doc.Paths.Value("/upload").Post
	require.NotNil(t, op.RequestBody)

	media := op.RequestBody.Value.Content["multipart/form-data"]
	require.NotNil(t, media, "file fields force multipart")

	props := media.Schema.Value.Properties
	require.Contains(t, props, "cover")
	assert.Equal(t, "binary", props["cover"].Value.Format)
	require.Contains(t, props, "note")
}

func TestDocumentRequestBodyOverride(t *testing.T) {
	app := apirouter.New("t", "", "1")
	custom := openapi3.NewRequestBody().WithContent(openapi3.Content{
		"text/csv": openapi3.NewMediaType(),
	})
	apirouter.Post(app, "/import", func(ctx context.Context, req *createBookRequest) (apirouter.Void, error) {
		return apirouter.Void{}, nil
	}, apirouter.WithRequestBody(custom))

	doc, err := app.Document()
	require.NoError(t, err)

	op := doc.Paths.Value("/import").Post
	require.NotNil(t, op.RequestBody)
	assert.Contains(t, op.RequestBody.Value.Content, "text/csv")
	assert.NotContains(t, op.RequestBody.Value.Content, "application/json")
}

func TestDocumentSecurityAndServers(t *testing.T) {
	app := apirouter.New("t", "", "1",
		apirouter.WithServers(&openapi3.Server{URL: "https://api.example.com"}),
		apirouter.WithSecurityScheme("bearer", &openapi3.SecurityScheme{Type: "http", Scheme: "bearer"}),
		apirouter.WithGlobalSecurity(openapi3.SecurityRequirement{"bearer": {}}),
	)
	apirouter.Get(app, "/a", echoOK)
	apirouter.Get(app, "/b", echoOK,
		apirouter.WithSecurity(openapi3.SecurityRequirement{"extra": {}}))

	doc, err := app.Document()
	require.NoError(t, err)

	require.Len(t, doc.Servers, 1)
	assert.Contains(t, doc.Components.SecuritySchemes, "bearer")
	require.Len(t, doc.Security, 1)

	assert.Nil(t, doc.Paths.Value("/a").Get.Security, "inherits the global requirements")
	b := doc.Paths.Value("/b").Get.Security
	require.NotNil(t, b)
	assert.Len(t, *b, 2, "route security stacks on the global requirements")
}

func TestDocumentTagDescriptions(t *testing.T) {
	app := apirouter.New("t", "", "1",
		apirouter.WithTagDescriptions(map[string]string{"books": "Library catalogue"}))
	apirouter.Get(app, "/a", echoOK, apirouter.WithTags("books"))
	apirouter.Get(app, "/b", echoOK, apirouter.WithTag(&openapi3.Tag{
		Name: "admin", Description: "Admin operations",
	}))
	apirouter.Get(app, "/c", echoOK, apirouter.WithTags("plain"))

	doc, err := app.Document()
	require.NoError(t, err)

	byName := map[string]string{}
	for _, tag := range doc.Tags {
		byName[tag.Name] = tag.Description
	}
	assert.Equal(t, "Library catalogue", byName["books"])
	assert.Equal(t, "Admin operations", byName["admin"])
	assert.NotContains(t, byName, "plain", "undescribed tags stay on their operations")
}

func TestDocumentCached(t *testing.T) {
	app := newTestApp()

	doc1, err := app.Document()
	require.NoError(t, err)
	doc2, err := app.Document()
	require.NoError(t, err)
	assert.Same(t, doc1, doc2)
}
