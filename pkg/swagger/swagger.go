// Package swagger отдаёт Swagger UI и OpenAPI документ HTTP API.
package swagger

import (
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"net/http"
	"strings"

	"pagesim/pkg/logger"
)

// Config конфигурация Swagger UI
type Config struct {
	Title        string
	BasePath     string // без завершающего '/'
	DeepLinking  bool
	DocExpansion string // list, full, none
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Title:        "pagesim API",
		BasePath:     "/docs",
		DeepLinking:  true,
		DocExpansion: "list",
	}
}

// Handler отдаёт UI на BasePath/ и документ на BasePath/openapi.json
type Handler struct {
	config   *Config
	spec     []byte
	specETag string
	page     *template.Template
}

// NewHandler создаёт handler. ETag документа считается по содержимому.
func NewHandler(cfg *Config, spec []byte) *Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.BasePath = strings.TrimSuffix(cfg.BasePath, "/")

	sum := sha256.Sum256(spec)
	return &Handler{
		config:   cfg,
		spec:     spec,
		specETag: `"` + hex.EncodeToString(sum[:8]) + `"`,
		page:     template.Must(template.New("swagger-ui").Parse(swaggerUITemplate)),
	}
}

// SpecURL путь к OpenAPI документу
func (h *Handler) SpecURL() string {
	return h.config.BasePath + "/openapi.json"
}

// ServeHTTP обрабатывает HTTP запросы
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, h.config.BasePath)
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "", "index.html":
		h.serveUI(w)
	case "openapi.json":
		h.serveSpec(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) serveUI(w http.ResponseWriter) {
	data := struct {
		Title        string
		SpecURL      string
		DeepLinking  bool
		DocExpansion string
	}{
		Title:        h.config.Title,
		SpecURL:      h.SpecURL(),
		DeepLinking:  h.config.DeepLinking,
		DocExpansion: h.config.DocExpansion,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	if err := h.page.Execute(w, data); err != nil {
		logger.Log.Error("Failed to render swagger page", "error", err)
	}
}

func (h *Handler) serveSpec(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("If-None-Match") == h.specETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", h.specETag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(h.spec); err != nil {
		logger.Log.Debug("Failed to write OpenAPI document", "error", err)
	}
}

// Register вешает UI и документ на mux под GET BasePath/
func Register(mux *http.ServeMux, cfg *Config, spec []byte) *Handler {
	h := NewHandler(cfg, spec)
	mux.Handle("GET "+h.config.BasePath+"/", h)
	mux.Handle("GET "+h.config.BasePath, http.RedirectHandler(h.config.BasePath+"/", http.StatusMovedPermanently))
	return h
}

const swaggerUITemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>
        body { margin: 0; background: #fafafa; }
        .swagger-ui .topbar { display: none; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" charset="UTF-8"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: '#swagger-ui',
                deepLinking: {{.DeepLinking}},
                docExpansion: "{{.DocExpansion}}",
                presets: [SwaggerUIBundle.presets.apis],
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`
