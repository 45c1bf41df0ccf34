package page

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Doc is the document as seen from inside Page.Update. Its methods must not
// be used after Update returns.
type Doc struct {
	p *Page
}

// Find returns the nodes matching a CSS selector.
func (d *Doc) Find(selector string) *goquery.Selection {
	return d.p.doc.Find(selector)
}

// ByID returns the element with the given id.
func (d *Doc) ByID(id string) *goquery.Selection {
	return d.p.doc.Find("#" + id).First()
}

// Value returns the value attribute of the element with the given id.
func (d *Doc) Value(id string) string {
	v, _ := d.ByID(id).Attr("value")
	return v
}

// SetValue sets the value attribute of the element with the given id.
func (d *Doc) SetValue(id, value string) {
	d.ByID(id).SetAttr("value", value)
}

// SetHTML replaces the inner markup of every node matching selector.
// Bindings on the replaced nodes are dropped.
func (d *Doc) SetHTML(selector, fragment string) *goquery.Selection {
	s := d.Find(selector)
	s.Each(func(_ int, c *goquery.Selection) {
		d.unbindWithin(c.Nodes[0])
	})
	return s.SetHtml(fragment)
}

// Clear removes every child of the element with the given id.
func (d *Doc) Clear(id string) {
	s := d.ByID(id)
	if s.Length() == 0 {
		return
	}
	d.unbindWithin(s.Nodes[0])
	s.Empty()
}

// Visible reports whether the element's inline display is anything but none.
func (d *Doc) Visible(id string) bool {
	s := d.ByID(id)
	if s.Length() == 0 {
		return false
	}
	style, _ := s.Attr("style")
	return styleProperty(style, "display") != "none"
}

// SetVisible sets the inline display of the element to block or none.
func (d *Doc) SetVisible(id string, visible bool) {
	s := d.ByID(id)
	if s.Length() == 0 {
		return
	}
	display := "none"
	if visible {
		display = "block"
	}
	style, _ := s.Attr("style")
	s.SetAttr("style", setStyleProperty(style, "display", display))
}

// Bind attaches h to every node in s for events of type typ.
func (d *Doc) Bind(s *goquery.Selection, typ EventType, h Handler) {
	for _, n := range s.Nodes {
		k := binding{node: n, typ: typ}
		d.p.bindings[k] = append(d.p.bindings[k], h)
	}
}

// Contains reports whether n is the element with the given id or one of its
// descendants.
func (d *Doc) Contains(id string, n *html.Node) bool {
	s := d.ByID(id)
	if s.Length() == 0 {
		return false
	}
	root := s.Nodes[0]
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// Form describes a form submission.
type Form struct {
	ID     string
	Method string
	Action string
	Values url.Values
}

// URL returns the action with the form values appended as a query string.
func (f Form) URL() string {
	q := f.Values.Encode()
	if q == "" {
		return f.Action
	}
	if strings.Contains(f.Action, "?") {
		return f.Action + "&" + q
	}
	return f.Action + "?" + q
}

// Form collects the named inputs of the form with the given id.
func (d *Doc) Form(id string) (Form, error) {
	s := d.ByID(id)
	if s.Length() == 0 {
		return Form{}, fmt.Errorf("form #%s: %w", id, ErrNoElement)
	}

	f := Form{ID: id, Method: "GET", Values: url.Values{}}
	if m, ok := s.Attr("method"); ok && m != "" {
		f.Method = strings.ToUpper(m)
	}
	f.Action, _ = s.Attr("action")

	s.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
		name, _ := in.Attr("name")
		value, _ := in.Attr("value")
		f.Values.Add(name, value)
	})
	return f, nil
}

func (d *Doc) unbindWithin(root *html.Node) {
	for k := range d.p.bindings {
		for n := k.node.Parent; n != nil; n = n.Parent {
			if n == root {
				delete(d.p.bindings, k)
				break
			}
		}
	}
}

func styleProperty(style, prop string) string {
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(name) == prop {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func setStyleProperty(style, prop, value string) string {
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		name, _, _ := strings.Cut(decl, ":")
		if strings.TrimSpace(decl) == "" || strings.TrimSpace(name) == prop {
			continue
		}
		decls = append(decls, strings.TrimSpace(decl))
	}
	decls = append(decls, prop+": "+value)
	return strings.Join(decls, "; ")
}
