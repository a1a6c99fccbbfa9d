package router

import (
	"net/url"
	"strings"
)

// maxRedirects bounds redirect chains so a cyclic table cannot loop forever.
const maxRedirects = 10

// Meta carries menu-highlighting hints for a route.
type Meta struct {
	FirstMenu  string `json:"first_menu,omitempty"`
	SecondMenu string `json:"second_menu,omitempty"`
}

// Route is one node of the route table.
//
// Paths are absolute, including those of children. A route with Redirect set
// never renders; resolution continues at the redirect target.
type Route struct {
	Path     string
	Name     string
	View     string
	Redirect string
	Meta     Meta

	// Public routes are reachable without the login flag.
	Public bool

	// BeforeEnter runs when the route is part of a navigation target.
	BeforeEnter Guard

	Children []Route
}

// Location is a path plus query, as requested by a navigation.
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation parses a request URI such as "/realtime?x=1".
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, err
	}
	return Location{Path: normalizePath(u.Path), Query: u.Query()}, nil
}

// FullPath returns the path with its encoded query string, if any. Slashes
// are left unescaped in the query, so a login redirect reads
// "/login?redirect=/realtime/mainPage".
func (l Location) FullPath() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + strings.ReplaceAll(l.Query.Encode(), "%2F", "/")
}

// normalizePath maps "" to "/" and strips a trailing slash.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			return "/"
		}
	}
	return p
}

// Match is a resolved navigation target.
type Match struct {
	Location

	// Matched is the chain of routes from the root to the leaf. It is empty
	// when no route matches.
	Matched []*Route
}

// Route returns the leaf route, or nil when nothing matched.
func (m Match) Route() *Route {
	if len(m.Matched) == 0 {
		return nil
	}
	return m.Matched[len(m.Matched)-1]
}

// Found reports whether a route matched.
func (m Match) Found() bool {
	return len(m.Matched) > 0
}

// Public reports whether the leaf route is public.
func (m Match) Public() bool {
	r := m.Route()
	return r != nil && r.Public
}

// Name returns the leaf route name, or "".
func (m Match) Name() string {
	if r := m.Route(); r != nil {
		return r.Name
	}
	return ""
}

// Meta returns the leaf route metadata.
func (m Match) Meta() Meta {
	if r := m.Route(); r != nil {
		return r.Meta
	}
	return Meta{}
}

// RouteInfo is the public description of a renderable route.
type RouteInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
	View string `json:"view,omitempty"`
	Meta Meta   `json:"meta"`
}

// Table is an immutable route table indexed by path.
type Table struct {
	routes []Route
	index  map[string][]*Route
	order  []string
}

// NewTable builds a table from routes. The routes are deep-copied. When two
// routes share a path, the first one wins.
func NewTable(routes ...Route) *Table {
	t := &Table{
		routes: cloneRoutes(routes),
		index:  make(map[string][]*Route),
	}
	for i := range t.routes {
		t.add(nil, &t.routes[i])
	}
	return t
}

func (t *Table) add(parents []*Route, r *Route) {
	chain := make([]*Route, 0, len(parents)+1)
	chain = append(chain, parents...)
	chain = append(chain, r)

	if _, exists := t.index[r.Path]; !exists {
		t.index[r.Path] = chain
		t.order = append(t.order, r.Path)
	}
	for i := range r.Children {
		t.add(chain, &r.Children[i])
	}
}

func cloneRoutes(routes []Route) []Route {
	if routes == nil {
		return nil
	}
	out := make([]Route, len(routes))
	for i, r := range routes {
		out[i] = r
		out[i].Children = cloneRoutes(r.Children)
	}
	return out
}

// Resolve matches loc against the table, following redirects. A redirect
// target without its own query keeps the original query. When nothing
// matches, the returned Match has no routes.
func (t *Table) Resolve(loc Location) Match {
	loc.Path = normalizePath(loc.Path)

	for i := 0; i < maxRedirects; i++ {
		chain, ok := t.index[loc.Path]
		if !ok {
			return Match{Location: loc}
		}

		leaf := chain[len(chain)-1]
		if leaf.Redirect == "" {
			return Match{Location: loc, Matched: chain}
		}

		target, err := ParseLocation(leaf.Redirect)
		if err != nil {
			return Match{Location: loc}
		}
		if len(target.Query) == 0 {
			target.Query = loc.Query
		}
		loc = target
	}
	return Match{Location: loc}
}

// Routes returns every renderable route (no redirect) in declaration order.
func (t *Table) Routes() []RouteInfo {
	out := make([]RouteInfo, 0, len(t.order))
	for _, p := range t.order {
		chain := t.index[p]
		r := chain[len(chain)-1]
		if r.Redirect != "" {
			continue
		}
		out = append(out, RouteInfo{Path: r.Path, Name: r.Name, View: r.View, Meta: r.Meta})
	}
	return out
}
