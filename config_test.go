package apirouter_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gobd/apirouter"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := apirouter.ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "API", cfg.Title)
	assert.Equal(t, "0.1.0", cfg.Version)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/openapi", cfg.DocPrefix)
	assert.True(t, cfg.DocUI)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("API_TITLE", "Inventory")
	t.Setenv("API_VERSION", "2.0.0")
	t.Setenv("API_ADDR", ":9999")
	t.Setenv("API_DOC_UI", "false")

	cfg, err := apirouter.ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "Inventory", cfg.Title)
	assert.Equal(t, "2.0.0", cfg.Version)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.False(t, cfg.DocUI)
}

func TestNewFromConfig(t *testing.T) {
	app := apirouter.NewFromConfig(apirouter.Config{
		Title:     "Inventory",
		Version:   "2.0.0",
		DocPrefix: "/docs",
		DocUI:     true,
	})

	doc, err := app.Document()
	require.NoError(t, err)
	assert.Equal(t, "Inventory", doc.Info.Title)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
