package trackerapi

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies a trackable entity.
type Kind string

const (
	Satellite Kind = "satellite"
	Country   Kind = "country"
)

// KindSpec holds the per-kind endpoint names and wire mapping.
type KindSpec struct {
	Kind       Kind
	SearchPath string
	AddPath    string
	DeletePath string
	NameField  string // JSON field carrying the item name in add/delete bodies.
	NameIndex  int    // Position of the display name inside a search record.
}

var kinds = map[Kind]KindSpec{
	Satellite: {
		Kind:       Satellite,
		SearchPath: "/search",
		AddPath:    "/add_satellite",
		DeletePath: "/delete_satellite",
		NameField:  "satellite_name",
		NameIndex:  1,
	},
	Country: {
		Kind:       Country,
		SearchPath: "/country_search",
		AddPath:    "/add_country",
		DeletePath: "/delete_country",
		NameField:  "country_name",
		NameIndex:  3,
	},
}

// Spec returns the KindSpec for k.
func Spec(k Kind) (KindSpec, error) {
	s, ok := kinds[k]
	if !ok {
		return KindSpec{}, fmt.Errorf("unknown kind %q", k)
	}
	return s, nil
}

// ParseKind converts a user-supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, err := Spec(k); err != nil {
		return "", err
	}
	return k, nil
}

// TrackedItem is a satellite or country currently tracked by a user.
// Countries carry no id.
type TrackedItem struct {
	ID   json.RawMessage `json:"id,omitempty"`
	Name string          `json:"name"`
}

// IDString renders the opaque id for display. Empty when absent.
func (t TrackedItem) IDString() string {
	return rawString(t.ID)
}

// SearchRecord is one positional row returned by a search endpoint.
type SearchRecord []json.RawMessage

// Field returns the value at position i as display text.
// Out-of-range positions and nulls yield "".
func (r SearchRecord) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return rawString(r[i])
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return string(raw)
}
