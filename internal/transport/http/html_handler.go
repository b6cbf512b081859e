package http

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"

	"evinsights/pkg/contracts"
)

// ServeMainApp serves the dashboard page from the embedded web assets.
// The template is parsed once; every request renders the same page with
// the build version stamped into the footer.
func ServeMainApp(webFS fs.FS) http.HandlerFunc {
	tmpl, parseErr := template.ParseFS(webFS, "index.html")
	page := struct {
		Version string
	}{
		Version: contracts.Version,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if parseErr != nil {
			http.Error(w, "Error loading page", http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, page); err != nil {
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

// StaticFiles serves the embedded static assets (scripts, styles)
func StaticFiles(webFS fs.FS) http.Handler {
	return http.FileServer(http.FS(webFS))
}
