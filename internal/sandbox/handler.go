package sandbox

import (
	"net/http"
	"strings"
)

// Isolation headers. The CSP sandbox directive gives the document an opaque
// origin even when it is opened outside the iframe.
const (
	SandboxPolicy = "sandbox allow-scripts allow-modals"
	IframeSandbox = "allow-scripts allow-modals"
)

// Handler serves stored documents under PathPrefix. Released or unknown
// handles are 404.
func Handler(store ResourceStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := r.PathValue("id")
		if id == "" {
			id = strings.TrimPrefix(r.URL.Path, PathPrefix)
		}

		res, ok := store.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}

		h := w.Header()
		h.Set("Content-Type", res.ContentType)
		h.Set("Content-Security-Policy", SandboxPolicy)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Cache-Control", "no-store")
		h.Set("Referrer-Policy", "no-referrer")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(res.Body)
		}
	})
}
