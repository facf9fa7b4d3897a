// Package static embeds the status page served at the root of the control API.
package static

import (
	"embed"
	"net/http"
)

//go:embed index.html app.js style.css
var pageFS embed.FS

// GetFileSystem returns an http.FileSystem for the embedded page.
func GetFileSystem() http.FileSystem {
	return http.FS(pageFS)
}
