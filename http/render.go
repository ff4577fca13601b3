package http

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

type pageData struct {
	Flash string
	Email string
}

func parseTemplates() (map[string]*template.Template, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template)
	for _, name := range names {
		if name == layoutTemplate {
			continue
		}

		t, err := template.ParseFS(templateFS, layoutTemplate, name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", name)
		}
		templates[path.Base(name)] = t
	}

	return templates, nil
}

// render writes the named page. A flash message left by the previous request
// is shown unless data already carries one.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) error {
	t, ok := s.templates[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}

	if flash := s.popFlash(w, r); data.Flash == "" {
		data.Flash = flash
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "failed to execute %s", name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// page serves a template that needs nothing but the flash message
func (s *Server) page(name string) appHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		return s.render(w, r, name, pageData{})
	}
}
