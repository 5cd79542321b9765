package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"genderLabel": func(g users.Gender) string { return g.Label() },
	"photoAt": func(photos []users.Photo, i int) *users.Photo {
		if i < 0 || i >= len(photos) {
			return nil
		}
		return &photos[i]
	},
	"inc": func(i int) int { return i + 1 },
}

// ParseTemplates parses every page from the embedded filesystem. Pages share
// the "header", "footer" and "photo" definitions from layout.html.
func ParseTemplates() (*template.Template, error) {
	return template.New("pages").Funcs(templateFuncs).ParseFS(TemplateFilesFS(), "*.html")
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Err(err).Str("template", name).Msg("rendering page failed")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
