// Package dismiss closes suggestion panels when the user clicks elsewhere.
package dismiss

import (
	"context"

	"github.com/star/satrack/internal/page"
)

// Widget pairs a search input with its suggestion panel.
type Widget struct {
	InputID    string
	DropdownID string
}

// Install registers one document-wide click listener. For each widget, a
// click outside both the input and the panel clears and hides the panel.
// The listener lives as long as the page.
func Install(p *page.Page, widgets ...Widget) {
	ws := append([]Widget(nil), widgets...)
	p.OnDocument(page.Click, func(_ context.Context, ev page.Event) {
		p.Update(func(d *page.Doc) {
			for _, w := range ws {
				if d.Contains(w.InputID, ev.Target) || d.Contains(w.DropdownID, ev.Target) {
					continue
				}
				d.Clear(w.DropdownID)
				d.SetVisible(w.DropdownID, false)
			}
		})
	})
}
