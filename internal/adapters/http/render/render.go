// Package render renders HTML pages from embedded pongo2 templates.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates
var templatesFS embed.FS

// Template names.
const (
	Webform = "surveys/webform"
	Error   = "error"
)

const ext = ".html"

// Context is the data passed to a template.
type Context = pongo2.Context

// Engine renders named templates. Parsed templates are cached.
type Engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// New creates an Engine over the embedded templates.
func New() (*Engine, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("render: templates dir: %w", err)
	}
	return NewFromFS(sub), nil
}

// NewFromFS creates an Engine loading templates from files.
func NewFromFS(files fs.FS) *Engine {
	return &Engine{
		set:       pongo2.NewSet("enketo", pongo2.NewFSLoader(files)),
		templates: make(map[string]*pongo2.Template),
	}
}

// Preload parses the given templates so syntax errors surface at startup.
func (e *Engine) Preload(names ...string) error {
	for _, name := range names {
		if _, err := e.template(name); err != nil {
			return err
		}
	}
	return nil
}

// Render executes template name and writes it with the given status.
// Nothing is written when execution fails.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data Context) error {
	tmpl, err := e.template(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(data, &buf); err != nil {
		return fmt.Errorf("render: execute %q: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func (e *Engine) template(name string) (*pongo2.Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("render: empty template name")
	}
	path := name
	if !strings.HasSuffix(path, ext) {
		path += ext
	}

	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: load %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}
