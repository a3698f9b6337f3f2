package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":           "<h1>home</h1>",
		"blog/post/index.html": "<h1>post</h1>",
		"assets/site.css":      "body{}",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestSiteHandler(t *testing.T) {
	handler := NewSiteHandler(newTestSite(t), nil)

	tests := []struct {
		name         string
		method       string
		path         string
		wantStatus   int
		wantBody     string
		wantType     string
		wantLocation string
	}{
		{name: "root index", path: "/", wantStatus: http.StatusOK, wantBody: "<h1>home</h1>", wantType: "text/html; charset=utf-8"},
		{name: "page url", path: "/blog/post/", wantStatus: http.StatusOK, wantBody: "<h1>post</h1>"},
		{name: "page without slash", path: "/blog/post", wantStatus: http.StatusMovedPermanently, wantLocation: "/blog/post/"},
		{name: "asset", path: "/assets/site.css", wantStatus: http.StatusOK, wantBody: "body{}", wantType: "text/css; charset=utf-8"},
		{name: "directory without index", path: "/blog/", wantStatus: http.StatusNotFound},
		{name: "missing", path: "/nope/", wantStatus: http.StatusNotFound},
		{name: "traversal", path: "/../../etc/passwd", wantStatus: http.StatusNotFound},
		{name: "post", method: http.MethodPost, path: "/", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("Expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
			if tt.wantType != "" && rec.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("Expected content type %q, got %q", tt.wantType, rec.Header().Get("Content-Type"))
			}
			if tt.wantLocation != "" && rec.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Expected redirect to %q, got %q", tt.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}
