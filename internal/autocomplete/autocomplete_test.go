package autocomplete

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/satrack/internal/page"
	"github.com/star/satrack/internal/trackerapi"
)

const fixture = `<!DOCTYPE html>
<html><body>
<form id="satellite-form" action="/satellites/" method="get">
  <input id="search-bar" name="name" value="">
  <div id="dropdown" style="display:none"></div>
</form>
<form id="country-form" action="/country/" method="get">
  <input id="country-search-bar" name="country" value="">
  <div id="country-dropdown" style="display:none"></div>
</form>
</body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testPage(t *testing.T) *page.Page {
	t.Helper()
	p, err := page.Parse(strings.NewReader(fixture))
	require.NoError(t, err)
	return p
}

// fakeSearcher answers from a map and records every query.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]trackerapi.SearchRecord
	err     error
	gate    map[string]chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, kind trackerapi.Kind, query string) ([]trackerapi.SearchRecord, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	gate := f.gate[query]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func record(t *testing.T, fields ...any) trackerapi.SearchRecord {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	var r trackerapi.SearchRecord
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func TestShortQueryIssuesNoRequest(t *testing.T) {
	tests := []string{"", "f", "  f  ", "é"}

	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			p := testPage(t)
			p.Update(func(d *page.Doc) {
				d.SetHTML("#dropdown", `<div class="dropdown-item">old</div>`)
				d.SetVisible("dropdown", true)
			})

			s := &fakeSearcher{}
			a, err := New(p, s, &page.Recorder{}, SatelliteConfig(), testLogger())
			require.NoError(t, err)
			require.NoError(t, a.Bind())

			require.NoError(t, p.Type(context.Background(), "search-bar", q))
			p.Wait()

			assert.Empty(t, s.Queries())
			st := p.Dropdown("dropdown")
			assert.False(t, st.Visible)
			assert.Empty(t, st.Items)
		})
	}
}

func TestQueryIsTrimmed(t *testing.T) {
	p := testPage(t)
	s := &fakeSearcher{}
	a, err := New(p, s, &page.Recorder{}, SatelliteConfig(), testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Bind())

	require.NoError(t, p.Type(context.Background(), "search-bar", "  iss "))
	p.Wait()
	assert.Equal(t, []string{"iss"}, s.Queries())
}

// TestCountryScenario runs the "fr" example end to end against an HTTP server.
func TestCountryScenario(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /country_search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`[[1, 46.2, 2.2, "France"], [2, 0, 0, "Franken-Sat"]]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := trackerapi.NewClient(server.URL, 0, testLogger())
	require.NoError(t, err)

	p := testPage(t)
	host := &page.Recorder{}
	a, err := New(p, client, host, CountryConfig(), testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Bind())

	require.NoError(t, p.Type(context.Background(), "country-search-bar", "fr"))
	p.Wait()

	assert.Equal(t, "fr", gotQuery)
	st := p.Dropdown("country-dropdown")
	assert.True(t, st.Visible)
	assert.Equal(t, []string{"France", "Franken-Sat"}, st.Items)

	require.NoError(t, p.Click(context.Background(), "#country-dropdown .dropdown-item"))

	assert.Equal(t, "France", p.Value("country-search-bar"))
	st = p.Dropdown("country-dropdown")
	assert.False(t, st.Visible)
	assert.Empty(t, st.Items)

	submits := host.Submits()
	require.Len(t, submits, 1)
	assert.Equal(t, "country-form", submits[0].ID)
	assert.Equal(t, "/country/?country=France", submits[0].URL())
}

func TestSatelliteUsesIndexOne(t *testing.T) {
	p := testPage(t)
	s := &fakeSearcher{results: map[string][]trackerapi.SearchRecord{
		"is": {record(t, 25544, "ISS (ZARYA)", "extra")},
	}}
	a, err := New(p, s, &page.Recorder{}, SatelliteConfig(), testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Bind())

	require.NoError(t, p.Type(context.Background(), "search-bar", "is"))
	p.Wait()

	assert.Equal(t, []string{"ISS (ZARYA)"}, p.Dropdown("dropdown").Items)
}

func TestEmptyResultHidesPanel(t *testing.T) {
	p := testPage(t)
	p.Update(func(d *page.Doc) {
		d.SetHTML("#dropdown", `<div class="dropdown-item">old</div>`)
		d.SetVisible("dropdown", true)
	})
	s := &fakeSearcher{results: map[string][]trackerapi.SearchRecord{}}
	a, err := New(p, s, &page.Recorder{}, SatelliteConfig(), testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Bind())

	require.NoError(t, p.Type(context.Background(), "search-bar", "zzz"))
	p.Wait()

	st := p.Dropdown("dropdown")
	assert.False(t, st.Visible)
	assert.Empty(t, st.Items)
}

func TestSearchErrorLeavesPanelUntouched(t *testing.T) {
	p := testPage(t)
	s := &fakeSearcher{err: errors.New("connection refused")}
	host := &page.Recorder{}
	a, err := New(p, s, host, SatelliteConfig(), testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Bind())

	require.NoError(t, p.Type(context.Background(), "search-bar", "iss"))
	p.Wait()

	st := p.Dropdown("dropdown")
	assert.False(t, st.Visible)
	assert.Empty(t, st.Items)
	assert.Empty(t, host.Alerts())
}

// TestStaleResponseDiscarded holds the first search until the second has
// rendered, then verifies the late answer does not replace it.
func TestStaleResponseDiscarded(t *testing.T) {
	p := testPage(t)
	gate := make(chan struct{})
	s := &fakeSearcher{
		results: map[string][]trackerapi.SearchRecord{
			"hu":  {record(t, 1, "HUMMINGBIRD")},
			"hub": {record(t, 2, "HUBBLE")},
		},
		gate: map[string]chan struct{}{"hu": gate},
	}
	a, err := New(p, s, &page.Recorder{}, SatelliteConfig(), testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Bind())

	require.NoError(t, p.Type(context.Background(), "search-bar", "hu"))
	require.NoError(t, p.Type(context.Background(), "search-bar", "hub"))

	require.Eventually(t, func() bool {
		return len(p.Dropdown("dropdown").Items) == 1
	}, time.Second, 5*time.Millisecond)

	close(gate)
	p.Wait()

	assert.Equal(t, []string{"HUBBLE"}, p.Dropdown("dropdown").Items)
}

// TestShortQueryBeatsPendingSearch verifies that clearing the box while a
// search is in flight keeps the panel closed when the search answers.
func TestShortQueryBeatsPendingSearch(t *testing.T) {
	p := testPage(t)
	gate := make(chan struct{})
	s := &fakeSearcher{
		results: map[string][]trackerapi.SearchRecord{"hu": {record(t, 1, "HUBBLE")}},
		gate:    map[string]chan struct{}{"hu": gate},
	}
	a, err := New(p, s, &page.Recorder{}, SatelliteConfig(), testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Bind())

	require.NoError(t, p.Type(context.Background(), "search-bar", "hu"))
	require.NoError(t, p.Type(context.Background(), "search-bar", "h"))
	close(gate)
	p.Wait()

	st := p.Dropdown("dropdown")
	assert.False(t, st.Visible)
	assert.Empty(t, st.Items)
}

func TestSelectWithoutSubmit(t *testing.T) {
	p := testPage(t)
	host := &page.Recorder{}
	cfg := SatelliteConfig()
	cfg.SubmitOnSelect = false
	a, err := New(p, &fakeSearcher{}, host, cfg, testLogger())
	require.NoError(t, err)

	a.Select(context.Background(), "HUBBLE")

	assert.Equal(t, "HUBBLE", p.Value("search-bar"))
	assert.Empty(t, host.Submits())
}

func TestSuggestionTextIsEscaped(t *testing.T) {
	p := testPage(t)
	s := &fakeSearcher{results: map[string][]trackerapi.SearchRecord{
		"<b": {record(t, 1, "<b>bold</b>")},
	}}
	a, err := New(p, s, &page.Recorder{}, SatelliteConfig(), testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Bind())

	require.NoError(t, p.Type(context.Background(), "search-bar", "<b"))
	p.Wait()

	assert.Equal(t, []string{"<b>bold</b>"}, p.Dropdown("dropdown").Items)
	assert.Empty(t, p.Texts("#dropdown b"))
}

func TestUnknownKind(t *testing.T) {
	_, err := New(testPage(t), &fakeSearcher{}, &page.Recorder{}, Config{Kind: "planet"}, testLogger())
	assert.Error(t, err)
}
