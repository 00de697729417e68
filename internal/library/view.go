package library

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/JohnDeved/playshelf/internal/textnorm"
)

// SortKey selects the ordering of the derived view.
type SortKey string

const (
	SortRecent       SortKey = "recent"
	SortAlpha        SortKey = "alpha"
	SortPlaytimeAsc  SortKey = "playtime-asc"
	SortPlaytimeDesc SortKey = "playtime-desc"
)

// SortKeys lists every key in display order.
var SortKeys = []SortKey{SortRecent, SortAlpha, SortPlaytimeAsc, SortPlaytimeDesc}

// ParseSortKey maps s to a known key, falling back to SortRecent.
func ParseSortKey(s string) SortKey {
	for _, k := range SortKeys {
		if string(k) == s {
			return k
		}
	}
	return SortRecent
}

// Label is the human name shown in the sort selector.
func (k SortKey) Label() string {
	switch k {
	case SortAlpha:
		return "A-Z"
	case SortPlaytimeAsc:
		return "Least played"
	case SortPlaytimeDesc:
		return "Most played"
	default:
		return "Recently played"
	}
}

// Next returns the key after k, wrapping around. Negative steps go back.
func (k SortKey) Next(step int) SortKey {
	idx := 0
	for i, sk := range SortKeys {
		if sk == k {
			idx = i
			break
		}
	}
	n := len(SortKeys)
	return SortKeys[((idx+step)%n+n)%n]
}

// ViewState is the user's current query and sort key. It round-trips
// through a location string such as "?q=zelda&sort=alpha".
type ViewState struct {
	Query string  `json:"q"`
	Sort  SortKey `json:"sort"`
}

// ParseLocation reads a ViewState from "?q=..&sort=..", "q=..&sort=.." or a
// full URL. Missing or unknown values take their defaults.
func ParseLocation(raw string) ViewState {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	} else if strings.Contains(raw, "://") {
		raw = ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return ViewState{Sort: SortRecent}
	}
	return FromValues(vals)
}

// FromValues reads a ViewState from decoded query values.
func FromValues(vals url.Values) ViewState {
	return ViewState{
		Query: vals.Get("q"),
		Sort:  ParseSortKey(vals.Get("sort")),
	}
}

// Values encodes the state, omitting defaults.
func (v ViewState) Values() url.Values {
	vals := url.Values{}
	if v.Query != "" {
		vals.Set("q", v.Query)
	}
	if v.Sort != "" && v.Sort != SortRecent {
		vals.Set("sort", string(v.Sort))
	}
	return vals
}

// Encode returns the query string form ("q=..&sort=..") without a leading
// "?". The default state encodes to "".
func (v ViewState) Encode() string {
	return v.Values().Encode()
}

// Location returns Encode prefixed with "?", or "" for the default state.
func (v ViewState) Location() string {
	if enc := v.Encode(); enc != "" {
		return "?" + enc
	}
	return ""
}

// Filter keeps rows whose normalized title contains the normalized,
// trimmed query. The input slice is not modified.
func Filter(rows []Row, query string) []Row {
	q := textnorm.Normalize(strings.TrimSpace(query))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if q == "" || strings.Contains(textnorm.Normalize(r.Title), q) {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders rows in place by key. Ties keep their prior order.
func Sort(rows []Row, key SortKey) {
	switch key {
	case SortAlpha:
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].Title) < strings.ToLower(rows[j].Title)
		})
	case SortPlaytimeAsc:
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].PlayMins < rows[j].PlayMins
		})
	case SortPlaytimeDesc:
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].PlayMins > rows[j].PlayMins
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].LastPlayed > rows[j].LastPlayed
		})
	}
}

// View is everything a renderer needs for one frame.
type View struct {
	State        ViewState `json:"state"`
	Rows         []Row     `json:"rows"`
	Stats        Stats     `json:"stats"`
	EmptyMessage string    `json:"empty_message"`
}

// Derive filters and sorts a copy of rows for state and computes the stats
// over the result.
func Derive(rows []Row, state ViewState) View {
	out := Filter(rows, state.Query)
	Sort(out, state.Sort)
	return View{
		State:        state,
		Rows:         out,
		Stats:        ComputeStats(out),
		EmptyMessage: EmptyMessage(state.Query),
	}
}

// EmptyMessage is shown when a view has no rows.
func EmptyMessage(query string) string {
	if textnorm.Normalize(strings.TrimSpace(query)) != "" {
		return fmt.Sprintf("No results for \"%s\".", query)
	}
	return "No results."
}
