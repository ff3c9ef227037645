package handlers

import (
	_ "embed"
	"net/http"

	"pagesim/pkg/swagger"
)

// openAPISpec описание HTTP API в формате OpenAPI 3
//
//go:embed openapi.json
var openAPISpec []byte

// registerDocs подключает Swagger UI и openapi.json
func (h *Handler) registerDocs(mux *http.ServeMux) {
	if !h.config.HTTP.Docs.Enabled {
		return
	}
	swagger.Register(mux, &swagger.Config{
		Title:        "pagesim API",
		BasePath:     h.config.HTTP.Docs.Path,
		DeepLinking:  true,
		DocExpansion: "list",
	}, openAPISpec)
}
