package apirouter_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Gobd/apirouter"
)

func TestDocEndpointJSON(t *testing.T) {
	app := newTestApp()

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"openapi":"3.0.3"`)
	assert.Contains(t, rec.Body.String(), "/echo/{id}")
}

func TestDocEndpointYAML(t *testing.T) {
	app := newTestApp()

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi/openapi.yaml", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	var tree map[string]any
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &tree))
	assert.Equal(t, "3.0.3", tree["openapi"])
}

func TestDocEndpointUI(t *testing.T) {
	app := apirouter.New("My Service", "", "1")

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "swagger-ui")
	assert.Contains(t, rec.Body.String(), "My Service")
	assert.Contains(t, rec.Body.String(), "/openapi/openapi.json")
}

func TestDocPrefixMoved(t *testing.T) {
	app := apirouter.New("t", "", "1", apirouter.WithDocPrefix("/docs"))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi/openapi.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocUIDisabled(t *testing.T) {
	app := apirouter.New("t", "", "1", apirouter.WithoutDocUI())

	for _, path := range []string{"/openapi", "/openapi/openapi.json", "/openapi/openapi.yaml"} {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
