package page

import "sync"

// Host is the browser around the page: blocking alerts, navigation and
// native form submission.
type Host interface {
	Alert(msg string)
	Navigate(path string)
	Submit(form Form)
}

// Recorder is a Host that remembers every call.
type Recorder struct {
	mu          sync.Mutex
	alerts      []string
	navigations []string
	submits     []Form
}

func (r *Recorder) Alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, msg)
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, path)
}

func (r *Recorder) Submit(form Form) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submits = append(r.submits, form)
}

// Alerts returns the alert messages shown so far.
func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

// Navigations returns the paths navigated to so far.
func (r *Recorder) Navigations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.navigations...)
}

// Submits returns the forms submitted so far.
func (r *Recorder) Submits() []Form {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Form(nil), r.submits...)
}
