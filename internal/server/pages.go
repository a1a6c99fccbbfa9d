package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/jpalmerr/tcup/internal/router"
)

// sectionLabels names the first-level menu entries.
var sectionLabels = map[string]string{
	"/realtime":      "实时监控",
	"/check":         "智能巡检",
	"/prediction":    "趋势预测",
	"/overview":      "配置总览",
	"/nft-report":    "NFT报告",
	"/metaverse-hub": "元宇宙中心",
	"/nft-market":    "NFT市场",
}

func sectionLabel(path string) string {
	if l, ok := sectionLabels[path]; ok {
		return l
	}
	return path
}

var templateFuncs = template.FuncMap{
	"sectionLabel": sectionLabel,
}

// menuItem is one entry of the navigation menu.
type menuItem struct {
	Path   string
	Label  string
	Active bool
	Items  []menuItem
}

// pageData is the template context of every page.
type pageData struct {
	Title    string
	View     string
	Name     string
	Path     string
	Meta     router.Meta
	Menu     []menuItem
	LoggedIn bool
	Redirect string
	Error    string
}

// handlePage evaluates a navigation and renders or redirects. Paths outside
// the route table answer 404 without navigating.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := ClientID(ctx)

	to := router.Location{Path: r.URL.Path, Query: r.URL.Query()}

	// favicon.ico and friends are fetched by the browser on its own and must
	// not drain the requests of the view that is loading
	if !s.nav.Table().Resolve(to).Found() {
		http.NotFound(w, r)
		return
	}

	out := s.nav.Navigate(ctx, clientID, to, s.referer(r))
	if target, ok := out.Redirect(); ok {
		http.Redirect(w, r, target.FullPath(), http.StatusFound)
		return
	}

	leaf := out.Match.Route()
	if leaf.View == "login" {
		data := s.pageData(r, out.Match, leaf.View)
		data.Redirect = safeRedirect(out.Match.Query.Get("redirect"), "")
		s.render(w, http.StatusOK, "login.html", data)
		return
	}
	s.render(w, http.StatusOK, "index.html", s.pageData(r, out.Match, leaf.View))
}

// referer returns the previous location when the browser came from this
// server. It is informational only.
func (s *Server) referer(r *http.Request) router.Location {
	ref := r.Referer()
	if ref == "" {
		return router.Location{}
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return router.Location{}
	}
	return router.Location{Path: u.Path, Query: u.Query()}
}

func (s *Server) pageData(r *http.Request, m router.Match, view string) pageData {
	nav := router.Navigation{Context: r.Context(), ClientID: ClientID(r.Context())}
	return pageData{
		Title:    s.title,
		View:     view,
		Name:     m.Name(),
		Path:     m.Path,
		Meta:     m.Meta(),
		Menu:     buildMenu(s.nav.Table().Routes(), m),
		LoggedIn: s.policy.Authenticated(nav),
	}
}

// buildMenu groups routes by their first-level menu, in table order.
func buildMenu(routes []router.RouteInfo, current router.Match) []menuItem {
	meta := current.Meta()
	var menu []menuItem
	index := make(map[string]int)

	for _, ri := range routes {
		first := ri.Meta.FirstMenu
		if first == "" {
			continue
		}
		i, ok := index[first]
		if !ok {
			index[first] = len(menu)
			menu = append(menu, menuItem{
				Path:   ri.Path,
				Label:  sectionLabel(first),
				Active: first == meta.FirstMenu,
			})
			i = len(menu) - 1
		}
		menu[i].Items = append(menu[i].Items, menuItem{
			Path:   ri.Path,
			Label:  ri.Name,
			Active: ri.Path == current.Path,
		})
	}
	return menu
}

// render executes a page template into a buffer first so a template error
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	if s.pages == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render page", "template", name, "error", err)
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("failed to write page response", "error", err)
	}
}

// handleLogin checks the submitted credentials and sets the login flag.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	clientID := ClientID(ctx)
	username := strings.TrimSpace(r.PostFormValue("username"))
	redirect := safeRedirect(r.PostFormValue("redirect"), s.policy.LandingPath())

	if !s.users.Authenticate(username, r.PostFormValue("password")) {
		s.logger.Info("login failed", "client_id", clientID, "username", username)
		m := s.nav.Table().Resolve(router.Location{Path: s.policy.LoginPath()})
		data := s.pageData(r, m, "login")
		data.Redirect = safeRedirect(r.PostFormValue("redirect"), "")
		data.Error = "用户名或密码错误"
		s.render(w, http.StatusUnauthorized, "login.html", data)
		return
	}

	if err := s.flags.SetLoggedIn(ctx, clientID); err != nil {
		s.logger.Error("failed to set login flag", "client_id", clientID, "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	s.logger.Info("login", "client_id", clientID, "username", username)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// handleLogout clears the login flag and cancels the client's requests.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := ClientID(ctx)

	if err := s.flags.Clear(ctx, clientID); err != nil {
		s.logger.Error("failed to clear login flag", "client_id", clientID, "error", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	s.pending.Forget(clientID)
	http.Redirect(w, r, s.policy.LoginPath(), http.StatusSeeOther)
}

// safeRedirect accepts only local absolute paths, falling back to def.
func safeRedirect(target, def string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return def
	}
	return target
}
