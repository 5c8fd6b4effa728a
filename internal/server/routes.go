package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/joelrodriguezguzman/markdown/internal/editor"
	"github.com/joelrodriguezguzman/markdown/internal/lister"
	"github.com/joelrodriguezguzman/markdown/internal/theme"
)

// filesResponse is the JSON body of GET /api/files.
type filesResponse struct {
	Root     string                `json:"root"`
	Folders  []string              `json:"folders"`
	Files    []lister.MarkdownFile `json:"files"`
	Warnings []string              `json:"warnings"`
}

// themeRequest is the JSON body of PUT /api/theme.
type themeRequest struct {
	Theme string `json:"theme"`
}

// themeResponse is the JSON body returned by the theme endpoints.
type themeResponse struct {
	Theme   string `json:"theme"`
	Changed bool   `json:"changed,omitempty"`
}

func handleFiles(host *editor.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := host.Listing()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		logWarnings(listing)

		files := listing.Files
		if files == nil {
			files = []lister.MarkdownFile{}
		}
		writeJSON(w, http.StatusOK, filesResponse{
			Root:     listing.Root,
			Folders:  listing.Folders,
			Files:    files,
			Warnings: listing.WarningMessages(),
		})
	}
}

var treePage = template.Must(template.New("tree").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>MarkDown View</title>
<link rel="stylesheet" href="{{.StylesheetURL}}">
</head>
<body data-theme="{{.Theme}}">
<main class="file-tree">
<h1>{{.Root}}</h1>
{{range .Warnings}}<p class="warning">{{.}}</p>
{{end}}{{if .Empty}}<p>No markdown files found.</p>
{{else}}{{.Tree}}{{end}}
</main>
</body>
</html>
`))

func handleTree(host *editor.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := host.Listing()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		logWarnings(listing)

		kind := host.Themes().Current()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = treePage.Execute(w, map[string]any{
			"StylesheetURL": editor.StylesheetURL(kind),
			"Theme":         kind.String(),
			"Root":          listing.Root,
			"Warnings":      listing.WarningMessages(),
			"Empty":         len(listing.Files) == 0,
			"Tree":          template.HTML(BuildTree(listing.Files).ToHTML()),
		})
		if err != nil {
			log.Printf("server: rendering tree: %v", err)
		}
	}
}

func handleEdit(host *editor.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			http.Error(w, "path is required", http.StatusBadRequest)
			return
		}

		session, err := host.Open(path)
		if err != nil {
			http.Error(w, err.Error(), openStatus(err))
			return
		}
		doc, err := host.Document(session)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte(doc))
	}
}

func openStatus(err error) int {
	switch {
	case errors.Is(err, editor.ErrNotMarkdown):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrOutsideWorkspace), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func handleStylesheet(host *editor.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := host.Themes().Current()
		if v := r.URL.Query().Get("theme"); v != "" {
			parsed, err := theme.ParseKind(v)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			kind = parsed
		}
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Write([]byte(theme.Stylesheet(kind)))
	}
}

func handleGetTheme(host *editor.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, themeResponse{Theme: host.Themes().Current().String()})
	}
}

func handleSetTheme(host *editor.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req themeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		kind, err := theme.ParseKind(req.Theme)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		changed := host.Themes().Set(kind)
		if changed {
			log.Printf("server: host theme set to %s", kind)
		}
		writeJSON(w, http.StatusOK, themeResponse{Theme: kind.String(), Changed: changed})
	}
}

func logWarnings(listing *lister.Listing) {
	for _, msg := range listing.WarningMessages() {
		log.Printf("server: %s", msg)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
