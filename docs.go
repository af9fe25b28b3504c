package apirouter

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed swagger/index.html
var swaggerFS embed.FS

var swaggerPage = template.Must(template.ParseFS(swaggerFS, "swagger/index.html"))

// mountDocs registers the documentation endpoints under the doc prefix:
// the Swagger UI page, openapi.json, and openapi.yaml.
func (a *App) mountDocs() {
	a.mux.HandleFunc(a.docPrefix, a.serveDocUI).Methods(http.MethodGet)
	a.mux.HandleFunc(a.docPrefix+"/", a.serveDocUI).Methods(http.MethodGet)
	a.mux.HandleFunc(a.docPrefix+"/openapi.json", a.serveJSON).Methods(http.MethodGet)
	a.mux.HandleFunc(a.docPrefix+"/openapi.yaml", a.serveYAML).Methods(http.MethodGet)
}

func (a *App) serveJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := a.Document()
	if err != nil {
		http.Error(w, "document assembly failed", http.StatusInternalServerError)
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		a.log.Error("document encode failed", zap.Error(err))
		http.Error(w, "document encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (a *App) serveYAML(w http.ResponseWriter, r *http.Request) {
	doc, err := a.Document()
	if err != nil {
		http.Error(w, "document assembly failed", http.StatusInternalServerError)
		return
	}
	// Round-trip through JSON so the yaml encoder sees plain maps and the
	// document's custom marshalling is preserved.
	data, err := json.Marshal(doc)
	if err != nil {
		http.Error(w, "document encode failed", http.StatusInternalServerError)
		return
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		http.Error(w, "document encode failed", http.StatusInternalServerError)
		return
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		a.log.Error("document encode failed", zap.Error(err))
		http.Error(w, "document encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(out)
}

func (a *App) serveDocUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// The template interpolates SpecURL as a JS value, not inside quotes.
	// Quoted interpolation would run the JS string escaper, which rewrites
	// "/" as "\/" and breaks the document URL.
	err := swaggerPage.Execute(w, struct {
		Title   string
		SpecURL string
	}{
		Title:   a.title,
		SpecURL: a.docPrefix + "/openapi.json",
	})
	if err != nil {
		a.log.Error("doc page render failed", zap.Error(err))
	}
}
