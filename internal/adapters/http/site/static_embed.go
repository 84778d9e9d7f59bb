package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Assets returns the embedded public assets rooted at the static dir.
func Assets() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The static dir is embedded at build time, so this cannot happen.
		return staticFS
	}
	return sub
}

// FS returns the public assets as an http.FileSystem.
func FS() http.FileSystem {
	return http.FS(Assets())
}
