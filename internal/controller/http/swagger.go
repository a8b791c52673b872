package http

import (
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

// docsPage loads Swagger UI from the CDN. persistAuthorization keeps the pasted session JWT across reloads.
var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="docs"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: "{{.SpecURL}}", dom_id: "#docs", persistAuthorization: true, tryItOutEnabled: true, docExpansion: "list"});
</script>
</body>
</html>`))

// SwaggerHandler serves the API reference and the OpenAPI document it renders
type SwaggerHandler struct {
	title    string
	spec     []byte
	yamlSpec []byte // nil when the document could not be converted
	etag     string
}

// NewSwaggerHandler creates a docs handler for a JSON OpenAPI document
func NewSwaggerHandler(title string, spec []byte) *SwaggerHandler {
	sum := sha256.Sum256(spec)
	yamlSpec, _ := toYAML(spec)
	return &SwaggerHandler{
		title:    title,
		spec:     spec,
		yamlSpec: yamlSpec,
		etag:     `"` + hex.EncodeToString(sum[:8]) + `"`,
	}
}

// toYAML re-encodes a JSON document as block-style YAML, keeping key order
func toYAML(spec []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return nil, err
	}
	resetStyle(&doc)
	return yaml.Marshal(&doc)
}

func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}

// RegisterRoutes registers the docs routes
func (h *SwaggerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/docs", h.UI())
	r.Get("/docs/openapi.json", h.Spec())
	r.Get("/docs/openapi.yaml", h.SpecYAML())
}

// UI serves the Swagger UI page
func (h *SwaggerHandler) UI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := docsPage.Execute(w, struct{ Title, SpecURL string }{h.title, "/docs/openapi.json"})
		if err != nil {
			http.Error(w, "failed to render docs", http.StatusInternalServerError)
		}
	}
}

// Spec serves the OpenAPI document, answering 304 when the client already has this revision
func (h *SwaggerHandler) Spec() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", h.etag)
		if r.Header.Get("If-None-Match") == h.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(h.spec)
	}
}

// SpecYAML serves the same document as YAML
func (h *SwaggerHandler) SpecYAML() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.yamlSpec == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(h.yamlSpec)
	}
}
