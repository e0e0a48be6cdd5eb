// Package web embeds the HTML templates served by the dashboard.
//
// Usage in the renderer:
//
//	tmpl := template.Must(template.New(web.DashboardFile).ParseFS(web.Templates(), web.DashboardFile))
package web

import (
	"embed"
	"io/fs"
)

// DashboardFile is the SectorScan page template.
const DashboardFile = "dashboard.html"

//go:embed templates/*.html
var templates embed.FS

// Templates returns a filesystem rooted at the embedded templates/ directory.
func Templates() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		// fs.Sub only fails on an invalid path, which is a constant here.
		panic(err)
	}
	return sub
}
