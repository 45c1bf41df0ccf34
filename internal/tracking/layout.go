package tracking

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/star/satrack/internal/trackerapi"
)

const (
	LayoutGrid  = "grid"
	LayoutTable = "table"
)

var entryTemplates = template.Must(template.New("entries").Parse(`
{{- define "grid" -}}
{{range .}}<div class="tracked-item">
<a href="{{.Href}}" class="tracked-link"><h3 class="tracked-name">{{.Name}}</h3>{{with .ID}}<p class="tracked-id">ID: {{.}}</p>{{end}}</a>
<button type="button" class="delete-button" data-name="{{.Name}}" data-id="{{.ID}}" aria-label="Delete {{.Name}}">Delete</button>
</div>
{{end}}
{{- end -}}
{{- define "table" -}}
{{range .}}<tr>
<td class="tracked-name"><a href="{{.Href}}">{{.Name}}</a></td>
<td><button type="button" class="delete-button" data-name="{{.Name}}" data-id="{{.ID}}" aria-label="Delete {{.Name}}">Delete</button></td>
</tr>
{{end}}
{{- end -}}
`))

// Layout is one page variant's rendering of a tracked list.
type Layout struct {
	Name      string
	Container string // CSS selector of the list container
	link      func(trackerapi.TrackedItem) string
}

type entry struct {
	ID   string
	Name string
	Href string
}

// Render produces the container markup for items, one entry per item.
func (l Layout) Render(items []trackerapi.TrackedItem) (string, error) {
	entries := make([]entry, len(items))
	for i, it := range items {
		entries[i] = entry{ID: it.IDString(), Name: it.Name, Href: l.link(it)}
	}

	var buf bytes.Buffer
	if err := entryTemplates.ExecuteTemplate(&buf, l.Name, entries); err != nil {
		return "", fmt.Errorf("rendering %s layout: %w", l.Name, err)
	}
	return buf.String(), nil
}

// NewLayout returns the named layout for kind.
func NewLayout(name string, kind trackerapi.Kind) (Layout, error) {
	switch {
	case name == LayoutGrid && kind == trackerapi.Satellite:
		return Layout{Name: name, Container: ".satellites-grid", link: func(it trackerapi.TrackedItem) string {
			return "/satellites/" + url.PathEscape(it.Name)
		}}, nil
	case name == LayoutGrid && kind == trackerapi.Country:
		return Layout{Name: name, Container: ".countries-grid", link: countryLink}, nil
	case name == LayoutTable && kind == trackerapi.Satellite:
		return Layout{Name: name, Container: "#satellite-table tbody", link: func(it trackerapi.TrackedItem) string {
			return "/satellite/" + url.PathEscape(it.IDString())
		}}, nil
	case name == LayoutTable && kind == trackerapi.Country:
		return Layout{Name: name, Container: "#country-table tbody", link: countryLink}, nil
	}
	return Layout{}, fmt.Errorf("unknown layout %q for kind %q", name, kind)
}

func countryLink(it trackerapi.TrackedItem) string {
	return "/country/?" + url.Values{"country": {it.Name}}.Encode()
}
