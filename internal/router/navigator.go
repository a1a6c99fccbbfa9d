package router

import (
	"context"
	"log/slog"

	"github.com/jpalmerr/tcup/internal/pending"
)

// Outcome is the result of [Navigator.Navigate].
type Outcome struct {
	// Requested is the location as asked for.
	Requested Location

	// Match is the resolved target, after route redirects.
	Match Match

	// Decision is proceed or the redirect issued by a guard.
	Decision Decision

	// Cancelled is the number of pending requests drained.
	Cancelled int
}

// Redirect reports where the client should be sent instead of rendering,
// either because a guard redirected or because the route table resolved the
// request to a different location.
func (o Outcome) Redirect() (Location, bool) {
	if o.Decision.Redirected() {
		return o.Decision.Target(), true
	}
	if o.Match.Found() && o.Match.FullPath() != o.Requested.FullPath() {
		return o.Match.Location, true
	}
	return Location{}, false
}

// Navigator runs navigation attempts against a [Table].
//
// Navigator is safe for concurrent use. Navigations of different clients do
// not interact; for any one client the pending-request drain always happens
// before the first guard runs.
type Navigator struct {
	table   *Table
	pending *pending.Pool
	global  []Guard
	logger  *slog.Logger
}

// NavigatorOption configures a [Navigator].
type NavigatorOption func(*Navigator)

// WithGlobalGuard appends a guard run before the per-route guards of every
// navigation. Global guards run in the order they were added.
func WithGlobalGuard(g Guard) NavigatorOption {
	return func(n *Navigator) {
		if g != nil {
			n.global = append(n.global, g)
		}
	}
}

// WithNavigatorLogger sets the logger.
func WithNavigatorLogger(logger *slog.Logger) NavigatorOption {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNavigator creates a [Navigator] over table, draining registries from pool.
func NewNavigator(table *Table, pool *pending.Pool, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		table:   table,
		pending: pool,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Table returns the route table.
func (n *Navigator) Table() *Table {
	return n.table
}

// Navigate evaluates one navigation attempt of clientID:
//
//  1. resolve to (and from) against the table
//  2. drain and cancel the client's pending requests
//  3. run the global guards
//  4. run the BeforeEnter guard of every matched route, root first
//
// The first redirect ends the evaluation. Each page request is a full load,
// so every route in the target chain is treated as entered.
func (n *Navigator) Navigate(ctx context.Context, clientID string, to, from Location) Outcome {
	out := Outcome{
		Requested: to,
		Match:     n.table.Resolve(to),
	}
	nav := Navigation{
		Context:  ctx,
		ClientID: clientID,
		To:       out.Match,
		From:     n.table.Resolve(from),
	}

	if n.pending != nil {
		out.Cancelled = n.pending.DrainAndCancel(clientID)
		if out.Cancelled > 0 {
			n.logger.Debug("pending requests cancelled",
				"client_id", clientID,
				"count", out.Cancelled,
			)
		}
	}

	for _, g := range n.global {
		if d := g(nav); d.Redirected() {
			out.Decision = d
			return out
		}
	}

	for _, r := range nav.To.Matched {
		if r.BeforeEnter == nil {
			continue
		}
		if d := r.BeforeEnter(nav); d.Redirected() {
			out.Decision = d
			return out
		}
	}

	out.Decision = Proceed()
	return out
}
