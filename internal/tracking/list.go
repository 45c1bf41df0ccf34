// Package tracking renders and mutates a user's tracked satellites and countries.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"

	"github.com/star/satrack/internal/metrics"
	"github.com/star/satrack/internal/page"
	"github.com/star/satrack/internal/trackerapi"
)

// Mutator adds and removes tracked items on the server.
type Mutator interface {
	Add(ctx context.Context, kind trackerapi.Kind, username, name string) ([]trackerapi.TrackedItem, error)
	Delete(ctx context.Context, kind trackerapi.Kind, username, name string) ([]trackerapi.TrackedItem, error)
}

// Config binds a list to its search box and layout.
type Config struct {
	Kind        trackerapi.Kind
	SearchBoxID string
	Layout      Layout
}

// NewConfig returns the account-page binding for kind in the named layout.
func NewConfig(kind trackerapi.Kind, layout string) (Config, error) {
	l, err := NewLayout(layout, kind)
	if err != nil {
		return Config{}, err
	}
	box := "search-bar"
	if kind == trackerapi.Country {
		box = "country-search-bar"
	}
	return Config{Kind: kind, SearchBoxID: box, Layout: l}, nil
}

// List is the view model of one tracked list. The rendered list is always
// the most recent server response applied wholesale; responses that arrive
// after a newer one has been rendered are dropped.
type List struct {
	cfg     Config
	page    *page.Page
	mutator Mutator
	host    page.Host
	logger  *slog.Logger

	seq     atomic.Uint64
	applied uint64                   // guarded by the page lock
	items   []trackerapi.TrackedItem // guarded by the page lock
}

// New creates a List. Call Bind to hook up server-rendered delete buttons.
func New(p *page.Page, mutator Mutator, host page.Host, cfg Config, logger *slog.Logger) (*List, error) {
	if _, err := trackerapi.Spec(cfg.Kind); err != nil {
		return nil, err
	}
	return &List{
		cfg:     cfg,
		page:    p,
		mutator: mutator,
		host:    host,
		logger:  logger.With("component", "tracking", "kind", string(cfg.Kind)),
	}, nil
}

// Bind reads the items already present in the container and binds their
// delete buttons.
func (l *List) Bind() error {
	var err error
	l.page.Update(func(d *page.Doc) {
		container := d.Find(l.cfg.Layout.Container)
		if container.Length() == 0 {
			err = fmt.Errorf("%s: %w", l.cfg.Layout.Container, page.ErrNoElement)
			return
		}
		l.items = l.items[:0]
		container.Find(".delete-button").Each(func(_ int, b *goquery.Selection) {
			name, _ := b.Attr("data-name")
			id, _ := b.Attr("data-id")
			l.items = append(l.items, trackerapi.TrackedItem{ID: rawID(id), Name: name})
		})
		l.bindDeletes(d, container)
	})
	return err
}

// Items returns the currently rendered items.
func (l *List) Items() []trackerapi.TrackedItem {
	var out []trackerapi.TrackedItem
	l.page.Update(func(*page.Doc) {
		out = append([]trackerapi.TrackedItem(nil), l.items...)
	})
	return out
}

// Add tracks the name in the search box. An empty box alerts the user and
// sends nothing.
func (l *List) Add(ctx context.Context) {
	name := strings.TrimSpace(l.page.Value(l.cfg.SearchBoxID))
	if name == "" {
		metrics.IncValidationAlert(string(l.cfg.Kind))
		l.host.Alert(fmt.Sprintf("Please select a %s.", l.cfg.Kind))
		return
	}

	username := l.page.Username()
	seq := l.seq.Add(1)
	l.logger.Debug("adding", "name", name, "username", username)

	l.page.Go(func() {
		items, err := l.mutator.Add(ctx, l.cfg.Kind, username, name)
		if err != nil {
			l.logger.Error(fmt.Sprintf("error adding %s", l.cfg.Kind), "name", name, "error", err)
			return
		}
		l.apply(seq, items, true)
	})
}

// Delete stops tracking name. The server resolves the name; two items
// sharing it cannot be told apart here.
func (l *List) Delete(ctx context.Context, name string) {
	username := l.page.Username()
	seq := l.seq.Add(1)
	l.logger.Debug("deleting", "name", name, "username", username)

	l.page.Go(func() {
		items, err := l.mutator.Delete(ctx, l.cfg.Kind, username, name)
		if err != nil {
			l.logger.Error(fmt.Sprintf("error deleting %s", l.cfg.Kind), "name", name, "error", err)
			return
		}
		l.apply(seq, items, false)
	})
}

// Render replaces the container content with items and rebinds delete buttons.
func (l *List) Render(items []trackerapi.TrackedItem) error {
	var err error
	l.page.Update(func(d *page.Doc) {
		err = l.render(d, items)
	})
	return err
}

func (l *List) apply(seq uint64, items []trackerapi.TrackedItem, clearBox bool) {
	l.page.Update(func(d *page.Doc) {
		if seq < l.applied {
			metrics.IncStaleResponse(l.cfg.Layout.Container)
			l.logger.Debug("discarding stale list", "seq", seq, "applied", l.applied)
			return
		}
		if err := l.render(d, items); err != nil {
			l.logger.Error("error rendering list", "error", err)
			return
		}
		l.applied = seq
		if clearBox {
			d.SetValue(l.cfg.SearchBoxID, "")
		}
	})
}

func (l *List) render(d *page.Doc, items []trackerapi.TrackedItem) error {
	markup, err := l.cfg.Layout.Render(items)
	if err != nil {
		return err
	}
	container := d.SetHTML(l.cfg.Layout.Container, markup)
	if container.Length() == 0 {
		return fmt.Errorf("%s: %w", l.cfg.Layout.Container, page.ErrNoElement)
	}
	l.items = append([]trackerapi.TrackedItem(nil), items...)
	l.bindDeletes(d, container)
	return nil
}

func (l *List) bindDeletes(d *page.Doc, container *goquery.Selection) {
	container.Find(".delete-button").Each(func(_ int, b *goquery.Selection) {
		name, _ := b.Attr("data-name")
		d.Bind(b, page.Click, func(ctx context.Context, _ page.Event) {
			l.Delete(ctx, name)
		})
	})
}

// rawID turns a data-id attribute back into the opaque JSON id.
func rawID(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal([]byte(s), &n); err == nil {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}
