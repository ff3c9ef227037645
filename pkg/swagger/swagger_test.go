package swagger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testSpec = []byte(`{"openapi":"3.0.3","info":{"title":"test","version":"1"}}`)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Title == "" {
		t.Error("Title should not be empty")
	}
	if cfg.BasePath != "/docs" {
		t.Errorf("BasePath = %q, want /docs", cfg.BasePath)
	}
}

func TestHandler_ServeUI(t *testing.T) {
	handler := NewHandler(nil, testSpec)

	for _, path := range []string{"/docs/", "/docs/index.html"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %s", ct)
			}
			if !strings.Contains(w.Body.String(), "openapi.json") {
				t.Error("page should point at the OpenAPI document")
			}
		})
	}
}

func TestHandler_ServeSpec(t *testing.T) {
	handler := NewHandler(nil, testSpec)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(w.Body)
	if string(body) != string(testSpec) {
		t.Errorf("body = %s", body)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("ETag should be set")
	}
}

func TestHandler_ETag(t *testing.T) {
	handler := NewHandler(nil, testSpec)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))
	etag := w.Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotModified)
	}

	// одинаковое содержимое даёт одинаковый ETag
	if other := NewHandler(nil, testSpec); other.specETag != etag {
		t.Errorf("ETag should depend only on content: %s != %s", other.specETag, etag)
	}
	if other := NewHandler(nil, []byte(`{}`)); other.specETag == etag {
		t.Error("different documents should have different ETags")
	}
}

func TestHandler_NotFound(t *testing.T) {
	handler := NewHandler(nil, testSpec)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/swagger.yaml", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandler_CustomConfig(t *testing.T) {
	handler := NewHandler(&Config{Title: "Custom", BasePath: "/api/docs/", DocExpansion: "none"}, testSpec)

	if got := handler.SpecURL(); got != "/api/docs/openapi.json" {
		t.Errorf("SpecURL() = %s", got)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/", nil))
	body := w.Body.String()
	if !strings.Contains(body, "<title>Custom</title>") {
		t.Error("title should be rendered")
	}
	if !strings.Contains(body, `docExpansion: "none"`) {
		t.Error("doc expansion should be rendered")
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, nil, testSpec)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Errorf("spec status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if w.Code != http.StatusMovedPermanently || w.Header().Get("Location") != "/docs/" {
		t.Errorf("expected redirect to /docs/, got %d %s", w.Code, w.Header().Get("Location"))
	}
}
