package site

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegister(t *testing.T) {
	Convey("Given a router with the site routes", t, func() {
		ctx := context.Background()
		r := chi.NewRouter()

		Convey("When offline mode is disabled", func() {
			So(Register(ctx, r, false), ShouldBeNil)

			Convey("Then public assets should be served", func() {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/css/webform.css", nil))

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
			})

			Convey("And unknown assets should be 404", func() {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/nope.js", nil))

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And the manifest should not be served", func() {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ManifestPath, nil))

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When offline mode is enabled", func() {
			So(Register(ctx, r, true), ShouldBeNil)

			Convey("Then the manifest should list the assets", func() {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ManifestPath, nil))

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/cache-manifest")
				body := w.Body.String()
				So(body, ShouldStartWith, "CACHE MANIFEST\n")
				So(body, ShouldContainSubstring, "/public/css/webform.css\n")
				So(body, ShouldContainSubstring, "/public/js/webform.js\n")
			})
		})
	})
}

func TestBuildManifest(t *testing.T) {
	Convey("Given two asset sets differing in content", t, func() {
		a := fstest.MapFS{"js/app.js": {Data: []byte("one")}, "css/a.css": {Data: []byte("x")}}
		b := fstest.MapFS{"js/app.js": {Data: []byte("two")}, "css/a.css": {Data: []byte("x")}}

		ma, errA := BuildManifest(a)
		mb, errB := BuildManifest(b)

		Convey("Then the entries should be sorted", func() {
			So(errA, ShouldBeNil)
			So(strings.Index(ma, "/public/css/a.css"), ShouldBeLessThan, strings.Index(ma, "/public/js/app.js"))
		})

		Convey("Then the version should change with the content", func() {
			So(errB, ShouldBeNil)
			So(ma, ShouldNotEqual, mb)
		})
	})

	Convey("Given an unreadable asset set", t, func() {
		_, err := BuildManifest(brokenFS{})

		Convey("Then ErrManifest should be returned", func() {
			So(errors.Is(err, ErrManifest), ShouldBeTrue)
		})
	})
}

type brokenFS struct{}

func (brokenFS) Open(string) (fs.File, error) { return nil, fs.ErrPermission }
