// Package web embeds the console page and its static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/index.html
//go:embed static/css static/js
var assets embed.FS

// Templates returns the console templates, rooted at templates/
func Templates() fs.FS {
	return mustSub("templates")
}

// Static returns the CSS and JavaScript served under /static/
func Static() fs.FS {
	return mustSub("static")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(assets, dir)
	if err != nil {
		panic("web: " + err.Error())
	}
	return sub
}
