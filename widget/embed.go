// Package widget provides the embedded assets of the chat assistant widget.
//
// The files are served at the root of the chat server.
package widget

import (
	"embed"
	"io/fs"
)

//go:embed assets/*
var assets embed.FS

// Assets returns the widget files rooted at the assets directory.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// the directory is embedded at compile time
		panic(err)
	}
	return sub
}
