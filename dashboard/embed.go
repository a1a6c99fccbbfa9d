// Package dashboard provides the embedded web UI templates for tcup.
//
// The pages are html/template files rendered by the server package after
// each navigation has passed the route guards. This enables single-binary
// deployment without external asset files.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard templates.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Layout shell with menu and the per-view panels
//	  login.html    - Login form
//
//go:embed assets/*
var Assets embed.FS
