package apirouter

import (
	"mime/multipart"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFields(t *testing.T) {
	type req struct {
		ID     int    `path:"id" json:"id"`
		Filter string `query:"filter" json:"filter"`
		Trace  string `header:"x-trace" json:"trace"`
		Sess   string `cookie:"sess" json:"sess"`
		Note   string `form:"note" json:"note"`
		Plain  string `json:"plain"`
	}

	fs, err := classifyFields(reflect.TypeOf((*req)(nil)).Elem())
	require.NoError(t, err)

	require.Len(t, fs.params, 5, "untagged fields are not bound")
	assert.Equal(t, -1, fs.bodyIndex)

	byKey := map[string]paramField{}
	for _, p := range fs.params {
		byKey[p.key] = p
	}
	assert.Equal(t, inPath, byKey["id"].in)
	assert.Equal(t, inQuery, byKey["filter"].in)
	assert.Equal(t, inHeader, byKey["trace"].in)
	assert.Equal(t, "x-trace", byKey["trace"].name)
	assert.Equal(t, inCookie, byKey["sess"].in)
	assert.Equal(t, inForm, byKey["note"].in)
}

func TestClassifyFieldsBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	type req struct {
		ID   int     `path:"id" json:"id"`
		Body payload `json:"body"`
	}

	fs, err := classifyFields(reflect.TypeOf((*req)(nil)).Elem())
	require.NoError(t, err)

	assert.True(t, fs.hasBody())
	assert.Equal(t, reflect.TypeOf((*payload)(nil)).Elem(), fs.bodyType)
	assert.Equal(t, "body", fs.keyToIn["body"])
}

func TestClassifyFieldsRejectsFormWithBody(t *testing.T) {
	type req struct {
		Note string   `form:"note" json:"note"`
		Body struct{} `json:"body"`
	}
	_, err := classifyFields(reflect.TypeOf((*req)(nil)).Elem())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixes form fields")
}

func TestClassifyFieldsRejectsNonFormFile(t *testing.T) {
	type req struct {
		F *multipart.FileHeader `query:"f" json:"f"`
	}
	_, err := classifyFields(reflect.TypeOf((*req)(nil)).Elem())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "form tag")
}

func TestClassifyFieldsRejectsNonStruct(t *testing.T) {
	_, err := classifyFields(reflect.TypeOf(""))
	require.Error(t, err)
}

func TestClassifyFieldsVoid(t *testing.T) {
	fs, err := classifyFields(voidType)
	require.NoError(t, err)
	assert.False(t, fs.bindsInput())
}

func TestDefaultOperationID(t *testing.T) {
	assert.Equal(t, "get_books_id", defaultOperationID("GET", "/books/{id}"))
	assert.Equal(t, "post_books", defaultOperationID("POST", "/books"))
	assert.Equal(t, "get_root", defaultOperationID("GET", "/"))
	assert.Equal(t, "get_items_id", defaultOperationID("GET", "/items/{id:[0-9]+}"))
}
