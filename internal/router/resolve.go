package router

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Location is a path plus query, the unit of navigation.
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation parses "/path?query". Fragments are dropped.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("router: parse location %q: %w", raw, err)
	}
	return Location{Path: normalizePath(u.Path), Query: u.Query()}, nil
}

// FullPath renders path and query. Slashes and commas in query values stay
// literal, so a return path reads /login?redirect=/checkin.
func (l Location) FullPath() string {
	q := encodeQuery(l.Query)
	if q == "" {
		return l.Path
	}
	return l.Path + "?" + q
}

func encodeQuery(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		for _, val := range v[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(queryEscape(k))
			b.WriteByte('=')
			b.WriteString(queryEscape(val))
		}
	}
	return b.String()
}

var literalQuery = strings.NewReplacer("%2F", "/", "%2C", ",")

func queryEscape(s string) string {
	return literalQuery.Replace(url.QueryEscape(s))
}

// Match is the outcome of resolving a location against the table.
type Match struct {
	Name     string
	Location Location
	// Matched lists the route records from the top-level route to the leaf.
	Matched []Route
	// RedirectedFrom is the full path originally asked for when a declared
	// redirect was followed.
	RedirectedFrom string
}

// Meta is the leaf route's meta.
func (m *Match) Meta() Meta {
	if len(m.Matched) == 0 {
		return Meta{}
	}
	return m.Matched[len(m.Matched)-1].Meta
}

// RequiresAuth reports whether any matched record requires authentication.
func (m *Match) RequiresAuth() bool {
	for _, r := range m.Matched {
		if r.Meta.RequiresAuth {
			return true
		}
	}
	return false
}

// GuestOnly reports whether any matched record is guest only.
func (m *Match) GuestOnly() bool {
	for _, r := range m.Matched {
		if r.Meta.GuestOnly {
			return true
		}
	}
	return false
}

// FullPath is the resolved location rendered as path and query.
func (m *Match) FullPath() string { return m.Location.FullPath() }

// Resolve matches loc against the table, following declared redirects.
// Matching is case-insensitive; unknown paths fall to the catch-all.
func (t *Table) Resolve(loc Location) (*Match, error) {
	loc.Path = normalizePath(loc.Path)
	origin := loc.FullPath()
	e := t.lookup(loc.Path)
	if e == nil {
		return nil, fmt.Errorf("router: no route matches %q", loc.Path)
	}
	redirected := false
	// chains are acyclic, checked by NewTable
	for e.leaf().Redirect != "" {
		e = t.byName[e.leaf().Redirect]
		loc.Path = e.path
		redirected = true
	}
	m := &Match{Name: e.leaf().Name, Location: loc, Matched: append([]Route(nil), e.chain...)}
	if redirected {
		m.RedirectedFrom = origin
	}
	return m, nil
}

// ResolvePath parses raw and resolves it.
func (t *Table) ResolvePath(raw string) (*Match, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	return t.Resolve(loc)
}

func (t *Table) lookup(path string) *entry {
	for _, e := range t.entries {
		if strings.EqualFold(e.path, path) {
			return e
		}
	}
	return t.catchAll
}
