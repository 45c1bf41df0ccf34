// Package autocomplete implements search-as-you-type suggestion panels.
package autocomplete

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/star/satrack/internal/metrics"
	"github.com/star/satrack/internal/page"
	"github.com/star/satrack/internal/trackerapi"
)

// MinQueryLength is the shortest trimmed query that triggers a search.
const MinQueryLength = 2

// Searcher queries a search endpoint.
type Searcher interface {
	Search(ctx context.Context, kind trackerapi.Kind, query string) ([]trackerapi.SearchRecord, error)
}

// Config binds a widget to its DOM elements.
type Config struct {
	Kind       trackerapi.Kind
	InputID    string
	DropdownID string
	FormID     string
	// SubmitOnSelect submits FormID after a suggestion is picked.
	SubmitOnSelect bool
}

// SatelliteConfig is the satellite search box of the account page.
func SatelliteConfig() Config {
	return Config{
		Kind:           trackerapi.Satellite,
		InputID:        "search-bar",
		DropdownID:     "dropdown",
		FormID:         "satellite-form",
		SubmitOnSelect: true,
	}
}

// CountryConfig is the country search box of the account page.
func CountryConfig() Config {
	return Config{
		Kind:           trackerapi.Country,
		InputID:        "country-search-bar",
		DropdownID:     "country-dropdown",
		FormID:         "country-form",
		SubmitOnSelect: true,
	}
}

// Autocomplete drives one search box and its suggestion panel.
//
// Each keystroke issues its own request. Responses are tagged with a
// sequence number and one older than the last rendered response is dropped,
// so a slow early response cannot overwrite a later one.
type Autocomplete struct {
	cfg      Config
	spec     trackerapi.KindSpec
	page     *page.Page
	searcher Searcher
	host     page.Host
	logger   *slog.Logger

	seq     atomic.Uint64
	applied uint64 // guarded by the page lock
}

// New creates an Autocomplete. It does not bind any events; call Bind.
func New(p *page.Page, searcher Searcher, host page.Host, cfg Config, logger *slog.Logger) (*Autocomplete, error) {
	spec, err := trackerapi.Spec(cfg.Kind)
	if err != nil {
		return nil, err
	}
	return &Autocomplete{
		cfg:      cfg,
		spec:     spec,
		page:     p,
		searcher: searcher,
		host:     host,
		logger:   logger.With("component", "autocomplete", "kind", string(cfg.Kind)),
	}, nil
}

// Config returns the widget's DOM binding.
func (a *Autocomplete) Config() Config {
	return a.cfg
}

// Bind attaches OnInput to the search box's input events.
func (a *Autocomplete) Bind() error {
	return a.page.On(a.cfg.InputID, page.Input, func(ctx context.Context, _ page.Event) {
		a.OnInput(ctx)
	})
}

// OnInput handles one keystroke. Short queries clear the panel at once;
// longer ones start a search whose result renders asynchronously.
func (a *Autocomplete) OnInput(ctx context.Context) {
	query := strings.TrimSpace(a.page.Value(a.cfg.InputID))
	seq := a.seq.Add(1)

	if utf8.RuneCountInString(query) < MinQueryLength {
		a.page.Update(func(d *page.Doc) {
			if seq > a.applied {
				a.applied = seq
			}
			a.closePanel(d)
		})
		return
	}

	a.page.Go(func() {
		records, err := a.searcher.Search(ctx, a.cfg.Kind, query)
		if err != nil {
			a.logger.Error("error fetching suggestions", "query", query, "error", err)
			return
		}
		a.render(ctx, seq, records)
	})
}

func (a *Autocomplete) render(ctx context.Context, seq uint64, records []trackerapi.SearchRecord) {
	a.page.Update(func(d *page.Doc) {
		if seq < a.applied {
			metrics.IncStaleResponse(a.cfg.DropdownID)
			a.logger.Debug("discarding stale suggestions", "seq", seq, "applied", a.applied)
			return
		}
		a.applied = seq

		a.closePanel(d)
		if len(records) == 0 {
			return
		}

		panel := d.ByID(a.cfg.DropdownID)
		for _, r := range records {
			name := r.Field(a.spec.NameIndex)
			panel.AppendHtml(`<div class="dropdown-item"></div>`)
			item := panel.Children().Last().SetText(name)
			d.Bind(item, page.Click, func(ctx context.Context, _ page.Event) {
				a.Select(ctx, name)
			})
		}
		d.SetVisible(a.cfg.DropdownID, true)
	})
}

// Select copies name into the search box, closes the panel and, when
// configured, submits the owning form.
func (a *Autocomplete) Select(_ context.Context, name string) {
	var (
		form page.Form
		err  error
	)
	a.page.Update(func(d *page.Doc) {
		d.SetValue(a.cfg.InputID, name)
		a.closePanel(d)
		if a.cfg.SubmitOnSelect {
			form, err = d.Form(a.cfg.FormID)
		}
	})

	if !a.cfg.SubmitOnSelect {
		return
	}
	if err != nil {
		a.logger.Error("cannot submit search form", "error", err)
		return
	}
	a.host.Submit(form)
}

// Close clears and hides the suggestion panel.
func (a *Autocomplete) Close() {
	a.page.Update(a.closePanel)
}

func (a *Autocomplete) closePanel(d *page.Doc) {
	d.Clear(a.cfg.DropdownID)
	d.SetVisible(a.cfg.DropdownID, false)
}
