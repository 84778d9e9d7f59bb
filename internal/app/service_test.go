package service_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ivansugi/enketo-express-oc/internal/adapters/repository"
	service "github.com/ivansugi/enketo-express-oc/internal/app"
	"github.com/ivansugi/enketo-express-oc/internal/config"
	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
	"github.com/ivansugi/enketo-express-oc/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

func memoryConfig() *config.Config {
	cfg := config.New()
	cfg.StoreDriver = config.StoreMemory
	return cfg
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(memoryConfig())
		defer svc.Stop()

		Convey("When it is used before Start", func() {
			_, err := svc.GetSurvey(context.Background(), "abcd")
			_, errInfo := svc.GetXFormInfo(context.Background(), &survey.Survey{})

			Convey("Then ErrNotStarted should be returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(errInfo, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["storeDriver"], ShouldEqual, config.StoreMemory)
				So(stats["xformCacheEntries"], ShouldEqual, 0)
			})

			Convey("And starting twice should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And after Stop lookups should fail again", func() {
				svc.Stop()
				_, err := svc.GetSurvey(ctx, "abcd")
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And a restart should build a fresh XForm cache", func() {
				svc.Stop()
				So(svc.Start(ctx), ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats, ShouldContainKey, "xformCacheEntries")
				So(stats["xformCacheEntries"], ShouldEqual, 0)
				So(stats["surveys"], ShouldEqual, 0)
			})
		})
	})

	Convey("Given a configuration whose store cannot be opened", t, func() {
		cfg := config.New()
		cfg.StoreDriver = config.StoreRedis
		cfg.RedisAddr = "127.0.0.1:1"
		svc := service.New(cfg)

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())

			Convey("Then the error should be returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestService_Lookups(t *testing.T) {
	Convey("Given a started service backed by a store and an OpenRosa server", t, func() {
		ctx := context.Background()

		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/formList":
				_, _ = io.WriteString(w, `<xforms><xform><formID>widgets</formID><hash>md5:1</hash><downloadUrl>`+
					"http://"+r.Host+`/form.xml</downloadUrl></xform></xforms>`)
			case "/form.xml":
				_, _ = io.WriteString(w, "<h:html/>")
			default:
				http.NotFound(w, r)
			}
		}))
		defer upstream.Close()

		store := repository.NewMemoryStore()
		So(store.Put(ctx, &survey.Survey{
			EnketoID: "abcd", OpenRosaServer: upstream.URL, OpenRosaID: "widgets", Active: true,
		}), ShouldBeNil)
		So(store.Put(ctx, &survey.Survey{
			EnketoID: "gone", OpenRosaServer: upstream.URL, OpenRosaID: "widgets", Active: false,
		}), ShouldBeNil)

		svc := service.New(memoryConfig(), service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When resolving a survey end to end", func() {
			sv, err := svc.GetSurvey(ctx, "abcd")
			So(err, ShouldBeNil)
			sv, err = svc.GetXFormInfo(ctx, sv)
			So(err, ShouldBeNil)
			sv, err = svc.GetXForm(ctx, sv)

			Convey("Then the XForm should be attached", func() {
				So(err, ShouldBeNil)
				So(sv.Info.Hash, ShouldEqual, "md5:1")
				So(sv.XForm, ShouldEqual, "<h:html/>")
				So(svc.GetStats()["xformCacheEntries"], ShouldEqual, 1)
				So(svc.GetStats()["surveys"], ShouldEqual, 2)
			})

			Convey("And after a restart the form should be fetched through a new cache", func() {
				svc.Stop()
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.GetStats()["xformCacheEntries"], ShouldEqual, 0)

				again, err := svc.GetXForm(ctx, sv)
				So(err, ShouldBeNil)
				So(again.XForm, ShouldEqual, "<h:html/>")
				So(svc.GetStats()["xformCacheEntries"], ShouldEqual, 1)
			})
		})

		Convey("When resolving unknown and inactive surveys", func() {
			_, errMissing := svc.GetSurvey(ctx, "nope")
			_, errInactive := svc.GetSurvey(ctx, "gone")

			Convey("Then the store errors should be passed through", func() {
				So(errors.Is(errMissing, survey.ErrNotFound), ShouldBeTrue)
				So(errors.Is(errInactive, survey.ErrInactive), ShouldBeTrue)
			})
		})

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then an injected store should stay open", func() {
				_, err := store.Get(ctx, "abcd")
				So(err, ShouldBeNil)
			})
		})
	})
}
