// Package page models the tracker's web page as a live HTML document.
//
// Handlers read input values, replace fragments and toggle dropdowns on a
// goquery document. The document is the only shared state: every access goes
// through the page mutex, which stands in for the browser's single event loop.
// Handlers that talk to the network run their continuation on a goroutine
// started with Go; Wait blocks until all of them have finished.
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrNoElement is returned when a selector matches nothing.
var ErrNoElement = errors.New("no such element")

// EventType names a DOM event.
type EventType string

const (
	Click EventType = "click"
	Input EventType = "input"
)

// Event is delivered to handlers. Target is the node the event was fired on.
type Event struct {
	Type   EventType
	Target *html.Node
}

// Handler reacts to an event. Handlers run without the page lock held.
type Handler func(ctx context.Context, ev Event)

type binding struct {
	node *html.Node
	typ  EventType
}

// Page is a parsed document plus its event bindings.
type Page struct {
	mu        sync.Mutex
	doc       *goquery.Document
	bindings  map[binding][]Handler
	listeners map[EventType][]Handler

	wg sync.WaitGroup
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return &Page{
		doc:       doc,
		bindings:  make(map[binding][]Handler),
		listeners: make(map[EventType][]Handler),
	}, nil
}

// Update runs fn with exclusive access to the document.
func (p *Page) Update(fn func(d *Doc)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&Doc{p: p})
}

// Value returns the current value of the input with the given id.
func (p *Page) Value(id string) string {
	var v string
	p.Update(func(d *Doc) { v = d.Value(id) })
	return v
}

// SetValue sets the value of the input with the given id.
func (p *Page) SetValue(id, value string) {
	p.Update(func(d *Doc) { d.SetValue(id, value) })
}

// Username returns the value of the hidden username field.
func (p *Page) Username() string {
	var v string
	p.Update(func(d *Doc) {
		v, _ = d.Find("input[name='username']").First().Attr("value")
	})
	return v
}

// Exists reports whether an element with the given id is present.
func (p *Page) Exists(id string) bool {
	var ok bool
	p.Update(func(d *Doc) { ok = d.ByID(id).Length() > 0 })
	return ok
}

// DropdownState is the observable state of a suggestion panel.
type DropdownState struct {
	Visible bool
	Items   []string
}

// Dropdown reports the visibility and entry texts of the panel with the given id.
func (p *Page) Dropdown(id string) DropdownState {
	var st DropdownState
	p.Update(func(d *Doc) {
		st.Visible = d.Visible(id)
		d.ByID(id).Children().Each(func(_ int, s *goquery.Selection) {
			st.Items = append(st.Items, strings.TrimSpace(s.Text()))
		})
	})
	return st
}

// Texts returns the trimmed text of every node matching selector.
func (p *Page) Texts(selector string) []string {
	var out []string
	p.Update(func(d *Doc) {
		d.Find(selector).Each(func(_ int, s *goquery.Selection) {
			out = append(out, strings.TrimSpace(s.Text()))
		})
	})
	return out
}

// InnerHTML returns the inner markup of the first node matching selector.
func (p *Page) InnerHTML(selector string) (string, error) {
	var (
		out string
		err error
	)
	p.Update(func(d *Doc) {
		s := d.Find(selector).First()
		if s.Length() == 0 {
			err = fmt.Errorf("%s: %w", selector, ErrNoElement)
			return
		}
		out, err = s.Html()
	})
	return out, err
}

// HTML serializes the whole document.
func (p *Page) HTML() (string, error) {
	var sb strings.Builder
	var err error
	p.Update(func(d *Doc) {
		err = html.Render(&sb, p.doc.Nodes[0])
	})
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return sb.String(), nil
}

// On binds h to events of type typ on the element with the given id.
func (p *Page) On(id string, typ EventType, h Handler) error {
	var err error
	p.Update(func(d *Doc) {
		s := d.ByID(id)
		if s.Length() == 0 {
			err = fmt.Errorf("#%s: %w", id, ErrNoElement)
			return
		}
		d.Bind(s, typ, h)
	})
	return err
}

// OnDocument registers a document-wide listener for the page lifetime.
func (p *Page) OnDocument(typ EventType, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[typ] = append(p.listeners[typ], h)
}

// Dispatch fires an event of type typ on the first node matching selector.
// Handlers bound to the target run first, then those of its ancestors, then
// document listeners.
func (p *Page) Dispatch(ctx context.Context, selector string, typ EventType) error {
	p.mu.Lock()
	target := p.doc.Find(selector).First()
	if target.Length() == 0 {
		p.mu.Unlock()
		return fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	node := target.Nodes[0]

	var handlers []Handler
	for n := node; n != nil; n = n.Parent {
		handlers = append(handlers, p.bindings[binding{node: n, typ: typ}]...)
	}
	handlers = append(handlers, p.listeners[typ]...)
	p.mu.Unlock()

	ev := Event{Type: typ, Target: node}
	for _, h := range handlers {
		h(ctx, ev)
	}
	return nil
}

// Click fires a click on the first node matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	return p.Dispatch(ctx, selector, Click)
}

// Type replaces the value of the input with the given id and fires an input event.
func (p *Page) Type(ctx context.Context, id, value string) error {
	p.SetValue(id, value)
	return p.Dispatch(ctx, "#"+id, Input)
}

// Go runs fn asynchronously and tracks it for Wait.
func (p *Page) Go(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

// Wait blocks until every continuation started with Go has returned.
func (p *Page) Wait() {
	p.wg.Wait()
}
