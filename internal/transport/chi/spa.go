package chi

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// spaHandler serves files from dir and falls back to dir/index.html for
// unknown paths so client-side routes resolve.
type spaHandler struct {
	dir string
}

func newSPAHandler(dir string) http.Handler {
	return &spaHandler{dir: dir}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	target := filepath.Join(h.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		http.ServeFile(w, r, target)
		return
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
		return
	}
	http.ServeFile(w, r, index)
}
