package router

import (
	"context"
	"log/slog"
	"net/url"
)

// Default paths used by [Policy].
const (
	DefaultLoginPath   = "/login"
	DefaultLandingPath = "/realtime"
)

// Decision is the result of a guard: proceed, or redirect elsewhere.
type Decision struct {
	redirect *Location
}

// Proceed allows the navigation to continue.
func Proceed() Decision {
	return Decision{}
}

// RedirectTo ends the navigation with a redirect to loc.
func RedirectTo(loc Location) Decision {
	return Decision{redirect: &loc}
}

// Redirected reports whether the decision is a redirect.
func (d Decision) Redirected() bool {
	return d.redirect != nil
}

// Target returns the redirect target. It is the zero Location when the
// decision is to proceed.
func (d Decision) Target() Location {
	if d.redirect == nil {
		return Location{}
	}
	return *d.redirect
}

// Navigation describes one navigation attempt as seen by a guard.
type Navigation struct {
	Context  context.Context
	ClientID string
	To       Match
	From     Match
}

// Guard approves or redirects a navigation.
type Guard func(nav Navigation) Decision

// FlagReader reports whether a client carries the login flag.
type FlagReader interface {
	LoggedIn(ctx context.Context, clientID string) (bool, error)
}

// Policy holds the authentication rules enforced by the guards.
type Policy struct {
	flags       FlagReader
	loginPath   string
	landingPath string
	logger      *slog.Logger
}

// PolicyOption configures a [Policy].
type PolicyOption func(*Policy)

// WithLoginPath overrides the login path. Defaults to "/login".
func WithLoginPath(p string) PolicyOption {
	return func(pol *Policy) {
		if p != "" {
			pol.loginPath = p
		}
	}
}

// WithLandingPath overrides where logged-in users visiting the login page are
// sent. Defaults to "/realtime".
func WithLandingPath(p string) PolicyOption {
	return func(pol *Policy) {
		if p != "" {
			pol.landingPath = p
		}
	}
}

// WithPolicyLogger sets the logger used to report flag read failures.
func WithPolicyLogger(logger *slog.Logger) PolicyOption {
	return func(pol *Policy) {
		if logger != nil {
			pol.logger = logger
		}
	}
}

// NewPolicy creates a [Policy] reading login flags from flags.
func NewPolicy(flags FlagReader, opts ...PolicyOption) *Policy {
	p := &Policy{
		flags:       flags,
		loginPath:   DefaultLoginPath,
		landingPath: DefaultLandingPath,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoginPath returns the login path.
func (p *Policy) LoginPath() string {
	return p.loginPath
}

// LandingPath returns the default landing path.
func (p *Policy) LandingPath() string {
	return p.landingPath
}

// Authenticated is the single session predicate shared by all guards. A flag
// that cannot be read counts as absent.
func (p *Policy) Authenticated(nav Navigation) bool {
	ctx := nav.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ok, err := p.flags.LoggedIn(ctx, nav.ClientID)
	if err != nil {
		p.logger.Warn("login flag unreadable, treating as logged out",
			"client_id", nav.ClientID,
			"error", err,
		)
		return false
	}
	return ok
}

// LoginRedirect sends the navigation to the login page, carrying the
// requested full path in the "redirect" query parameter.
func (p *Policy) LoginRedirect(nav Navigation) Decision {
	return RedirectTo(Location{
		Path:  p.loginPath,
		Query: url.Values{"redirect": {nav.To.FullPath()}},
	})
}

// Global is the guard run before every navigation.
//
//   - not logged in, target neither the login page nor public: to login
//   - logged in, target the login page: to the landing path
//   - otherwise: proceed
func (p *Policy) Global(nav Navigation) Decision {
	loggedIn := p.Authenticated(nav)
	isLoginPage := nav.To.Path == p.loginPath

	if !loggedIn && !isLoginPage && !nav.To.Public() {
		return p.LoginRedirect(nav)
	}
	if loggedIn && isLoginPage {
		return RedirectTo(Location{Path: p.landingPath})
	}
	return Proceed()
}

// RequireAuth is the per-route guard of protected subtrees.
func (p *Policy) RequireAuth(nav Navigation) Decision {
	if p.Authenticated(nav) {
		return Proceed()
	}
	return p.LoginRedirect(nav)
}

// LoginEntry is the per-route guard of the login page itself.
func (p *Policy) LoginEntry(nav Navigation) Decision {
	if p.Authenticated(nav) {
		return RedirectTo(Location{Path: p.landingPath})
	}
	return Proceed()
}
