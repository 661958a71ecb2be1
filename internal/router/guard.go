package router

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mindcareplus/mindcare/client/internal/models"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
	"github.com/mindcareplus/mindcare/client/pkg/metrics"
)

// SessionView is what the guard needs from the session store.
type SessionView interface {
	IsAuthenticated() bool
	Refresh(ctx context.Context) (*models.Profile, error)
}

// TitleSink receives the document title of the route being entered.
type TitleSink interface {
	SetTitle(title string)
}

// RefreshOutcome records the single refresh attempt a transition may make.
type RefreshOutcome struct {
	Attempted bool
	Profile   *models.Profile
	Err       error
}

// Failed reports an attempted refresh that returned an error.
func (o RefreshOutcome) Failed() bool { return o.Attempted && o.Err != nil }

type DecisionKind int

const (
	Proceed DecisionKind = iota
	Redirect
)

func (k DecisionKind) String() string {
	if k == Redirect {
		return "redirect"
	}
	return "proceed"
}

// Decision is the guard's verdict for one transition.
type Decision struct {
	Kind DecisionKind
	// To is set for redirects.
	To      Location
	Refresh RefreshOutcome
}

// Guard gates transitions on the session's authentication state.
type Guard struct {
	session   SessionView
	titles    TitleSink
	login     string
	dashboard string
}

// NewGuard binds the guard to a table, which must name login and dashboard routes.
func NewGuard(t *Table, session SessionView, titles TitleSink) (*Guard, error) {
	login, ok := t.PathOf(LoginRoute)
	if !ok {
		return nil, fmt.Errorf("%w: no %q route", ErrInvalidRoutes, LoginRoute)
	}
	dashboard, ok := t.PathOf(DashboardRoute)
	if !ok {
		return nil, fmt.Errorf("%w: no %q route", ErrInvalidRoutes, DashboardRoute)
	}
	return &Guard{session: session, titles: titles, login: login, dashboard: dashboard}, nil
}

// Evaluate decides one transition to m. Refresh errors never escape: they
// only leave the session unauthenticated.
func (g *Guard) Evaluate(ctx context.Context, m *Match) Decision {
	if title := m.Meta().Title; title != "" && g.titles != nil {
		g.titles.SetTitle(title)
	}

	var d Decision
	if m.RequiresAuth() {
		if !g.session.IsAuthenticated() {
			d.Refresh = g.refresh(ctx)
		}
		if !g.session.IsAuthenticated() {
			d.Kind = Redirect
			d.To = Location{Path: g.login, Query: url.Values{"redirect": {m.FullPath()}}}
			metrics.GuardDecisions.WithLabelValues("redirect_login").Inc()
			return d
		}
	}

	if m.GuestOnly() && g.session.IsAuthenticated() {
		d.Kind = Redirect
		d.To = Location{Path: g.dashboard}
		metrics.GuardDecisions.WithLabelValues("redirect_dashboard").Inc()
		return d
	}

	metrics.GuardDecisions.WithLabelValues("proceed").Inc()
	return d
}

func (g *Guard) refresh(ctx context.Context) RefreshOutcome {
	p, err := g.session.Refresh(ctx)
	out := RefreshOutcome{Attempted: true, Profile: p, Err: err}
	if out.Failed() {
		logger.Debugf("guard: refresh failed: %v", err)
	}
	return out
}
