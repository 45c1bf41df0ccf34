package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/star/satrack/internal/page"
)

// ErrAlerted is returned by a command whose page raised an alert.
var ErrAlerted = errors.New("request rejected")

// terminalHost plays the browser: alerts go to stderr, navigations and form
// submissions are printed as absolute URLs on stdout.
type terminalHost struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	baseURL string
	alerts  int
}

func newTerminalHost(out, errOut io.Writer, baseURL string) *terminalHost {
	return &terminalHost{out: out, errOut: errOut, baseURL: strings.TrimRight(baseURL, "/")}
}

func (h *terminalHost) Alert(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alerts++
	fmt.Fprintf(h.errOut, "alert: %s\n", msg)
}

func (h *terminalHost) Navigate(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, "navigate %s%s\n", h.baseURL, path)
}

func (h *terminalHost) Submit(form page.Form) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, "%s %s%s\n", form.Method, h.baseURL, form.URL())
}

// Err reports ErrAlerted once any alert has been shown.
func (h *terminalHost) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.alerts > 0 {
		return ErrAlerted
	}
	return nil
}
