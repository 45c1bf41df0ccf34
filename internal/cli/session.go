package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/star/satrack/internal/app"
	"github.com/star/satrack/internal/page"
	"github.com/star/satrack/internal/trackerapi"
	"github.com/star/satrack/internal/tracking"
	"github.com/star/satrack/web"
)

// recordingAPI remembers the last transport or server error. The page
// handlers only log failures; commands use it to pick an exit status.
type recordingAPI struct {
	app.API

	mu  sync.Mutex
	err error
}

func (r *recordingAPI) record(err error) error {
	if err != nil {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}
	return err
}

// Err returns the most recent failure, if any.
func (r *recordingAPI) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *recordingAPI) Search(ctx context.Context, kind trackerapi.Kind, query string) ([]trackerapi.SearchRecord, error) {
	records, err := r.API.Search(ctx, kind, query)
	return records, r.record(err)
}

func (r *recordingAPI) Add(ctx context.Context, kind trackerapi.Kind, username, name string) ([]trackerapi.TrackedItem, error) {
	items, err := r.API.Add(ctx, kind, username, name)
	return items, r.record(err)
}

func (r *recordingAPI) Delete(ctx context.Context, kind trackerapi.Kind, username, name string) ([]trackerapi.TrackedItem, error) {
	items, err := r.API.Delete(ctx, kind, username, name)
	return items, r.record(err)
}

func (r *recordingAPI) CreateAccount(ctx context.Context, username string) error {
	return r.record(r.API.CreateAccount(ctx, username))
}

func (r *recordingAPI) Login(ctx context.Context, username string) error {
	return r.record(r.API.Login(ctx, username))
}

// accountPage names the embedded account template for layout.
func accountPage(layout string) string {
	if layout == tracking.LayoutTable {
		return "account_table.html"
	}
	return "account.html"
}

// mount renders the named page and binds the interaction handlers to it.
func (e *env) mount(name string, data any, host page.Host) (*app.Session, error) {
	var buf bytes.Buffer
	if err := web.Render(&buf, name, data); err != nil {
		return nil, err
	}
	p, err := page.Parse(&buf)
	if err != nil {
		return nil, err
	}
	return app.Mount(p, e.api, host, app.Options{
		Layout:         e.cfg.Layout,
		SubmitOnSelect: e.cfg.SubmitOnSelect,
	}, e.logger)
}

// finish waits for every pending request and folds alerts and request
// failures into the command result.
func (e *env) finish(s *app.Session, host *terminalHost) error {
	s.Page.Wait()
	if err := host.Err(); err != nil {
		return err
	}
	if err := e.api.Err(); err != nil {
		return err
	}
	return nil
}

func listFor(s *app.Session, kind trackerapi.Kind) (*tracking.List, error) {
	list := s.Satellites
	if kind == trackerapi.Country {
		list = s.Countries
	}
	if list == nil {
		return nil, fmt.Errorf("%s list: %w", kind, page.ErrNoElement)
	}
	return list, nil
}

func printItems(w io.Writer, items []trackerapi.TrackedItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, it := range items {
		id := it.IDString()
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", id, it.Name)
	}
	return tw.Flush()
}
