package core

import (
	"path"
	"path/filepath"
	"strings"
)

func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// PageSlug turns an input path relative to the input dir into its slug:
// "blog/post.mdx" -> "blog/post", "blog/index.mdx" -> "blog", "index.mdx" -> "".
func PageSlug(relPath string) string {
	slug := filepath.ToSlash(relPath)
	slug = strings.TrimPrefix(slug, "./")
	slug = strings.TrimPrefix(slug, "/")
	slug = strings.TrimSuffix(slug, path.Ext(slug))
	if slug == "index" {
		return ""
	}
	return strings.TrimSuffix(slug, "/index")
}

// FileSlug is the last segment of the slug. Index files take the name of
// their directory; the root index stays "index".
func FileSlug(relPath string) string {
	base := filepath.Base(relPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Dir(relPath)
	if name == "index" && dir != "." && dir != "/" {
		return filepath.Base(dir)
	}
	return name
}

func PageURL(relPath string) string {
	slug := PageSlug(relPath)
	if slug == "" {
		return "/"
	}
	return NormalizePath(slug) + "/"
}

func OutputPath(outputDir string, relPath string) string {
	slug := PageSlug(relPath)
	if slug == "" {
		return filepath.Join(outputDir, "index.html")
	}
	return filepath.Join(outputDir, filepath.FromSlash(slug), "index.html")
}
