package server

import (
	"net/http"
	"os"
	"strings"
)

// SPAMiddleware wraps an http.Handler to serve a Single Page Application.
// API routes, healthz, and metrics pass through; everything else is served
// from the static directory, falling back to index.html for client routes.
func SPAMiddleware(next http.Handler, staticPath, indexPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") ||
			r.URL.Path == "/healthz" ||
			r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		if r.URL.Path == "/" {
			http.ServeFile(w, r, indexPath)
			return
		}

		path := staticPath + r.URL.Path
		if _, err := os.Stat(path); os.IsNotExist(err) {
			// Unknown path, let the client router handle it
			http.ServeFile(w, r, indexPath)
			return
		}

		http.FileServer(http.Dir(staticPath)).ServeHTTP(w, r)
	})
}
