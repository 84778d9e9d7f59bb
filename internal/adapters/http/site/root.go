// Package site serves the embedded public assets and the offline
// application-cache manifest.
package site

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// PublicPrefix is the URL prefix of the embedded assets.
const PublicPrefix = "/public"

// ManifestPath is the application-cache manifest of the offline webform.
const ManifestPath = "/_/manifest.appcache"

// Error constants
var (
	ErrManifest = errors.New("offline manifest generation failed")
)

// Register attaches the asset routes to r. The manifest is only served
// when offline mode is enabled.
func Register(_ context.Context, r chi.Router, offline bool) error {
	if r == nil {
		panic("router is nil")
	}

	files := http.StripPrefix(PublicPrefix, http.FileServer(FS()))
	r.Handle(PublicPrefix+"/*", files)

	if !offline {
		return nil
	}
	manifest, err := BuildManifest(Assets())
	if err != nil {
		return err
	}
	r.Get(ManifestPath, NewManifestHandler(manifest).ServeHTTP)
	return nil
}

// BuildManifest lists every asset under PublicPrefix. The version comment
// is a digest of the asset contents so clients refetch after a deploy.
func BuildManifest(assets fs.FS) (string, error) {
	var paths []string
	digest := sha256.New()

	err := fs.WalkDir(assets, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(assets, p)
		if err != nil {
			return err
		}
		paths = append(paths, path.Join(PublicPrefix, p))
		digest.Write([]byte(p))
		digest.Write(data)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrManifest, err)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("CACHE MANIFEST\n")
	fmt.Fprintf(&b, "# version %s\n\n", hex.EncodeToString(digest.Sum(nil))[:16])
	b.WriteString("CACHE:\n")
	for _, p := range paths {
		b.WriteString(p + "\n")
	}
	b.WriteString("\nNETWORK:\n*\n")
	return b.String(), nil
}

// ManifestHandler serves a prebuilt application-cache manifest.
type ManifestHandler struct {
	body string
}

// NewManifestHandler creates a handler for manifest.
func NewManifestHandler(manifest string) *ManifestHandler {
	return &ManifestHandler{body: manifest}
}

// ServeHTTP handles GET /_/manifest.appcache.
func (h *ManifestHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/cache-manifest; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(h.body))
}
