// Package router holds the client's route table, path resolution, the
// navigation guard and a navigator that applies it to every transition.
package router

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRoutes is returned when a route table fails validation.
var ErrInvalidRoutes = errors.New("router: invalid route table")

// CatchAll is the path that matches anything no other route matches.
const CatchAll = "*"

// Well-known route names the guard redirects to.
const (
	LoginRoute     = "login"
	DashboardRoute = "dashboard"
)

type Meta struct {
	RequiresAuth bool
	GuestOnly    bool
	Title        string
}

// Route describes one path segment. Redirect names the target route; a
// redirecting route renders nothing itself.
type Route struct {
	Name     string
	Path     string
	Meta     Meta
	Redirect string
	Children []Route
}

// DefaultRoutes is the application's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Redirect: DashboardRoute},
		{Name: "home", Path: "/home", Meta: Meta{Title: "MindCare+ · Home"}},
		{Name: LoginRoute, Path: "/login", Meta: Meta{Title: "Sign in · MindCare+", GuestOnly: true}},
		{Name: "register", Path: "/register", Meta: Meta{Title: "Create account · MindCare+", GuestOnly: true}},
		{Name: DashboardRoute, Path: "/dashboard", Meta: Meta{Title: "Dashboard · MindCare+", RequiresAuth: true}},
		{Name: "chat", Path: "/chat", Meta: Meta{Title: "AI Chat · MindCare+", RequiresAuth: true}},
		// premium gating is enforced by the API (402)
		{Name: "consult", Path: "/consult", Meta: Meta{Title: "Consultation · MindCare+", RequiresAuth: true}},
		{Name: "resources", Path: "/resources", Meta: Meta{Title: "Resources · MindCare+"}},
		{Name: "checkin", Path: "/checkin", Meta: Meta{Title: "Daily Check-In · MindCare+", RequiresAuth: true}},
		{Name: "analytics", Path: "/analytics", Meta: Meta{Title: "Analytics · MindCare+", RequiresAuth: true}},
		{Path: CatchAll, Redirect: DashboardRoute},
	}
}

// entry is a flattened route: its absolute path and the chain of
// descriptors from the top-level route down to the leaf.
type entry struct {
	path  string
	chain []Route
}

func (e *entry) leaf() Route { return e.chain[len(e.chain)-1] }

// Table is a validated, immutable route table.
type Table struct {
	entries  []*entry
	byName   map[string]*entry
	catchAll *entry
}

// NewTable validates routes and flattens nested children.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{byName: map[string]*entry{}}
	seenPath := map[string]bool{}
	if err := t.add(routes, nil, "", seenPath); err != nil {
		return nil, err
	}
	all := t.entries
	if t.catchAll != nil {
		all = append(append([]*entry(nil), t.entries...), t.catchAll)
	}
	for _, e := range all {
		if target := e.leaf().Redirect; target != "" {
			dst, ok := t.byName[target]
			if !ok {
				return nil, fmt.Errorf("%w: %q redirects to unknown route %q", ErrInvalidRoutes, e.path, target)
			}
			if dst == t.catchAll {
				return nil, fmt.Errorf("%w: %q redirects to the catch-all", ErrInvalidRoutes, e.path)
			}
		}
	}
	for _, e := range all {
		if err := t.checkRedirectChain(e); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) add(routes []Route, parent []Route, prefix string, seenPath map[string]bool) error {
	for _, r := range routes {
		if r.Path == "" {
			return fmt.Errorf("%w: route %q has no path", ErrInvalidRoutes, r.Name)
		}
		if r.Meta.RequiresAuth && r.Meta.GuestOnly {
			return fmt.Errorf("%w: route %q is both requiresAuth and guestOnly", ErrInvalidRoutes, r.Path)
		}
		chain := append(append([]Route(nil), parent...), r)
		e := &entry{chain: chain}

		if r.Path == CatchAll {
			if parent != nil {
				return fmt.Errorf("%w: catch-all must be top level", ErrInvalidRoutes)
			}
			if t.catchAll != nil {
				return fmt.Errorf("%w: more than one catch-all", ErrInvalidRoutes)
			}
			if len(r.Children) > 0 {
				return fmt.Errorf("%w: catch-all cannot have children", ErrInvalidRoutes)
			}
			e.path = CatchAll
			t.catchAll = e
		} else {
			e.path = joinPath(prefix, r.Path)
			key := strings.ToLower(e.path)
			if seenPath[key] {
				return fmt.Errorf("%w: duplicate path %q", ErrInvalidRoutes, e.path)
			}
			seenPath[key] = true
			t.entries = append(t.entries, e)
		}

		if r.Name != "" {
			if _, dup := t.byName[r.Name]; dup {
				return fmt.Errorf("%w: duplicate route name %q", ErrInvalidRoutes, r.Name)
			}
			t.byName[r.Name] = e
		}
		if len(r.Children) > 0 {
			if err := t.add(r.Children, chain, e.path, seenPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Table) checkRedirectChain(e *entry) error {
	seen := map[*entry]bool{}
	for cur := e; cur.leaf().Redirect != ""; {
		if seen[cur] {
			return fmt.Errorf("%w: redirect cycle through %q", ErrInvalidRoutes, e.path)
		}
		seen[cur] = true
		cur = t.byName[cur.leaf().Redirect]
	}
	return nil
}

// PathOf returns the absolute path of a named route.
func (t *Table) PathOf(name string) (string, bool) {
	e, ok := t.byName[name]
	if !ok || e == t.catchAll {
		return "", false
	}
	return e.path, true
}

// Paths lists every concrete path in the table, in declaration order.
func (t *Table) Paths() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.path)
	}
	return out
}

func joinPath(prefix, p string) string {
	if strings.HasPrefix(p, "/") {
		return normalizePath(p)
	}
	return normalizePath(strings.TrimSuffix(prefix, "/") + "/" + p)
}

func normalizePath(p string) string {
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
