package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/satrack/internal/page"
	"github.com/star/satrack/internal/trackerapi"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]any{{25544, "ISS (ZARYA)"}, {49044, "ISS OBJECT XK"}})
	})
	mux.HandleFunc("GET /country_search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]any{{1, 46.2, 2.2, "France"}})
	})
	mux.HandleFunc("POST /add_satellite", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["satellite_name"] != "ISS (ZARYA)" {
			http.Error(w, "Satellite not found", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{{"id": 20580, "name": "HUBBLE"}, {"id": 25544, "name": "ISS (ZARYA)"}})
	})
	mux.HandleFunc("POST /delete_country", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"name": "Chile"}})
	})
	mux.HandleFunc("POST /login/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" {
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", "", "--env-file", "", "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSearchListsSuggestions(t *testing.T) {
	server := newTestServer(t)
	out, _, err := run(t, "search", "satellite", "iss", "--base-url", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "1\tISS (ZARYA)\n2\tISS OBJECT XK\n", out)
}

func TestSearchShortQueryShowsNothing(t *testing.T) {
	server := newTestServer(t)
	out, errOut, err := run(t, "search", "satellite", "i", "--base-url", server.URL)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotContains(t, errOut, "no suggestions")
}

func TestSearchSelectSubmitsForm(t *testing.T) {
	server := newTestServer(t)
	out, _, err := run(t, "search", "country", "fr", "--select", "1", "--base-url", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "GET "+server.URL+"/country/?country=France\n", out)
}

func TestSearchSelectOutOfRange(t *testing.T) {
	server := newTestServer(t)
	_, _, err := run(t, "search", "country", "fr", "--select", "3", "--base-url", server.URL)
	assert.ErrorContains(t, err, "out of range")
}

func TestSearchUnknownKind(t *testing.T) {
	server := newTestServer(t)
	_, _, err := run(t, "search", "planet", "mars", "--base-url", server.URL)
	assert.Error(t, err)
}

func TestAddPrintsList(t *testing.T) {
	server := newTestServer(t)
	for _, layout := range []string{"grid", "table"} {
		t.Run(layout, func(t *testing.T) {
			out, _, err := run(t, "add", "satellite", "ISS (ZARYA)", "-u", "alice", "--layout", layout, "--base-url", server.URL)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			require.Len(t, lines, 3)
			assert.Equal(t, []string{"ID", "NAME"}, strings.Fields(lines[0]))
			assert.Equal(t, []string{"20580", "HUBBLE"}, strings.Fields(lines[1]))
			assert.Equal(t, []string{"25544", "ISS", "(ZARYA)"}, strings.Fields(lines[2]))
		})
	}
}

func TestAddRejected(t *testing.T) {
	server := newTestServer(t)
	out, _, err := run(t, "add", "satellite", "SPUTNIK", "-u", "alice", "--base-url", server.URL)
	var se *trackerapi.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Empty(t, out)
}

func TestAddEmptyNameAlerts(t *testing.T) {
	server := newTestServer(t)
	_, errOut, err := run(t, "add", "country", "  ", "-u", "alice", "--base-url", server.URL)
	require.ErrorIs(t, err, ErrAlerted)
	assert.Contains(t, errOut, "alert: Please select a country.")
}

func TestAddRequiresUser(t *testing.T) {
	server := newTestServer(t)
	_, _, err := run(t, "add", "satellite", "ISS (ZARYA)", "--base-url", server.URL)
	assert.ErrorContains(t, err, "user")
}

func TestDeletePrintsRemaining(t *testing.T) {
	server := newTestServer(t)
	out, _, err := run(t, "delete", "country", "France", "-u", "alice", "--base-url", server.URL)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"-", "Chile"}, strings.Fields(lines[1]))
}

func TestLogin(t *testing.T) {
	server := newTestServer(t)

	out, _, err := run(t, "login", "alice", "--base-url", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "navigate "+server.URL+"/account/alice\n", out)

	out, errOut, err := run(t, "login", "mallory", "--base-url", server.URL)
	require.ErrorIs(t, err, ErrAlerted)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "alert: Invalid username")
}

func TestInvalidConfigFlag(t *testing.T) {
	_, _, err := run(t, "search", "satellite", "iss", "--base-url", "ftp://example.com")
	assert.ErrorContains(t, err, "base_url")

	_, _, err = run(t, "search", "satellite", "iss", "--layout", "cards")
	assert.ErrorContains(t, err, "layout")
}

func TestTerminalHost(t *testing.T) {
	var out, errOut bytes.Buffer
	h := newTerminalHost(&out, &errOut, "http://tracker.test/")
	require.NoError(t, h.Err())

	h.Navigate("/account/bob")
	h.Submit(page.Form{Method: "GET", Action: "/satellites/", Values: map[string][]string{"name": {"HUBBLE"}}})
	assert.Equal(t, "navigate http://tracker.test/account/bob\nGET http://tracker.test/satellites/?name=HUBBLE\n", out.String())

	h.Alert("Invalid username")
	assert.Equal(t, "alert: Invalid username\n", errOut.String())
	assert.ErrorIs(t, h.Err(), ErrAlerted)
}

func TestAccountPage(t *testing.T) {
	assert.Equal(t, "account.html", accountPage("grid"))
	assert.Equal(t, "account_table.html", accountPage("table"))
}
