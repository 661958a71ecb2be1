package router

import (
	"context"
	"errors"
	"sync"
)

// ErrRedirectLoop aborts a transition that keeps redirecting.
var ErrRedirectLoop = errors.New("router: too many redirects")

const maxRedirects = 8

// Result describes a finished transition.
type Result struct {
	Match *Match
	// Redirects holds each guard redirect target, in order.
	Redirects []string
	// Duplicate is set when the target was already current; nothing ran.
	Duplicate bool
	Refresh   RefreshOutcome
}

// Navigator applies the guard to transitions one at a time and tracks the
// current location and document title.
type Navigator struct {
	table *Table
	guard *Guard

	mu      sync.Mutex
	current *Match

	titleMu sync.RWMutex
	title   string
}

func NewNavigator(t *Table, session SessionView) (*Navigator, error) {
	n := &Navigator{table: t}
	g, err := NewGuard(t, session, n)
	if err != nil {
		return nil, err
	}
	n.guard = g
	return n, nil
}

// Push navigates in-app. Navigating to the current full path is a silent no-op.
func (n *Navigator) Push(ctx context.Context, raw string) (*Result, error) {
	return n.navigate(ctx, raw, true)
}

// Visit navigates as a fresh page load: the guard always runs, even when
// the target is already current.
func (n *Navigator) Visit(ctx context.Context, raw string) (*Result, error) {
	return n.navigate(ctx, raw, false)
}

func (n *Navigator) navigate(ctx context.Context, raw string, suppressDuplicate bool) (*Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	m, err := n.table.ResolvePath(raw)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	for {
		if suppressDuplicate && n.isCurrent(m) {
			res.Match = n.current
			res.Duplicate = true
			return res, nil
		}
		d := n.guard.Evaluate(ctx, m)
		if d.Refresh.Attempted {
			res.Refresh = d.Refresh
		}
		if d.Kind == Proceed {
			n.current = m
			res.Match = m
			return res, nil
		}
		if len(res.Redirects) == maxRedirects {
			return res, ErrRedirectLoop
		}
		to := d.To.FullPath()
		res.Redirects = append(res.Redirects, to)
		if m, err = n.table.Resolve(d.To); err != nil {
			return res, err
		}
		// redirect chains dedupe against the current route like any push
		suppressDuplicate = true
	}
}

func (n *Navigator) isCurrent(m *Match) bool {
	return n.current != nil && n.current.FullPath() == m.FullPath()
}

// Current returns the last location a transition proceeded to, or nil.
func (n *Navigator) Current() *Match {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) SetTitle(title string) {
	n.titleMu.Lock()
	n.title = title
	n.titleMu.Unlock()
}

func (n *Navigator) Title() string {
	n.titleMu.RLock()
	defer n.titleMu.RUnlock()
	return n.title
}

// Table returns the route table the navigator resolves against.
func (n *Navigator) Table() *Table { return n.table }
