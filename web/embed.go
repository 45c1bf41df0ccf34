package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

// Content holds the page templates that host the interaction layer.
//
//go:embed account.html account_table.html login.html
var Content embed.FS

var templates = template.Must(template.ParseFS(Content, "*.html"))

// Item is a tracked entry rendered into the initial page.
type Item struct {
	ID   string
	Name string
}

// AccountData feeds account.html and account_table.html.
type AccountData struct {
	Username   string
	Satellites []Item
	Countries  []Item
}

// Render executes the named page template into w.
func Render(w io.Writer, name string, data any) error {
	if templates.Lookup(name) == nil {
		return fmt.Errorf("unknown page %q", name)
	}
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return nil
}
