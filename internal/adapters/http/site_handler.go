// Package http serves a built site directory for local preview.
package http

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/3-lines-studio/mdx/internal/core"
)

type SiteHandler struct {
	root   string
	logger *slog.Logger
}

func NewSiteHandler(root string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteHandler{root: root, logger: logger}
}

func (h *SiteHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	urlPath := path.Clean("/" + req.URL.Path)
	fullPath := filepath.Join(h.root, filepath.FromSlash(urlPath))

	info, err := os.Stat(fullPath)
	if err == nil && info.IsDir() {
		// Page URLs end in a slash; redirect so relative links resolve.
		if !strings.HasSuffix(req.URL.Path, "/") {
			http.Redirect(w, req, urlPath+"/", http.StatusMovedPermanently)
			return
		}
		fullPath = filepath.Join(fullPath, "index.html")
		info, err = os.Stat(fullPath)
	}
	if err != nil || info.IsDir() {
		h.logger.Debug("preview not found", "path", req.URL.Path)
		http.NotFound(w, req)
		return
	}

	file, err := os.Open(fullPath)
	if err != nil {
		http.NotFound(w, req)
		return
	}
	defer func() { _ = file.Close() }()

	w.Header().Set("Content-Type", core.ContentType(fullPath))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, req, info.Name(), info.ModTime(), file)
}
