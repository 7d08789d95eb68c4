// Package staticsite serves the mirrored storefront clone. Routes
// follow the original storefront's URL space, so extensionless paths
// resolve to per-directory index pages with the site root as the final
// fallback.
package staticsite

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Handler serves files from an afero filesystem rooted at the clone.
type Handler struct {
	fs     afero.Fs
	logger *slog.Logger
}

// New creates a static site handler.
func New(fs afero.Fs, logger *slog.Logger) *Handler {
	return &Handler{fs: fs, logger: logger}
}

// Resolve maps a request path to a file inside the clone:
// a path with an extension is served directly when present; otherwise
// {path}/index.html, then the parent directory's index.html, then the
// root index.html. The root index always resolves ("" when even that
// is missing).
func (h *Handler) Resolve(requestPath string) string {
	clean := path.Clean("/" + strings.SplitN(requestPath, "?", 2)[0])

	if strings.Contains(path.Base(clean), ".") && !strings.HasSuffix(clean, "/") {
		if h.exists(clean) {
			return clean
		}
	}

	dir := strings.TrimSuffix(clean, "/")
	if p := path.Join(dir, "index.html"); h.exists(p) {
		return p
	}
	if parent := path.Dir(dir); parent != "/" && parent != "." {
		if p := path.Join(parent, "index.html"); h.exists(p) {
			return p
		}
	}
	if h.exists("/index.html") {
		return "/index.html"
	}
	return ""
}

// Open returns the resolved file for a request path.
func (h *Handler) Open(requestPath string) (afero.File, string, error) {
	resolved := h.Resolve(requestPath)
	if resolved == "" {
		return nil, "", afero.ErrFileNotFound
	}
	f, err := h.fs.Open(strings.TrimPrefix(resolved, "/"))
	return f, resolved, err
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, resolved, err := h.Open(r.URL.Path)
	if err != nil {
		h.logger.Warn("no page for path", slog.String("path", r.URL.Path))
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(path.Ext(resolved)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Error("serving file", slog.String("path", resolved), slog.String("error", err.Error()))
	}
}

func (h *Handler) exists(p string) bool {
	info, err := h.fs.Stat(strings.TrimPrefix(p, "/"))
	return err == nil && !info.IsDir()
}
