// Package web serves the survey views: the webform and its preview, edit and
// offline variants, the raw XForm, and the connection probe.
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ivansugi/enketo-express-oc/internal/adapters/http/auth"
	"github.com/ivansugi/enketo-express-oc/internal/adapters/http/cookie"
	"github.com/ivansugi/enketo-express-oc/internal/adapters/http/render"
	"github.com/ivansugi/enketo-express-oc/internal/adapters/http/site"
	"github.com/ivansugi/enketo-express-oc/internal/adapters/http/swagger"
	"github.com/ivansugi/enketo-express-oc/internal/config"
	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
	"github.com/ivansugi/enketo-express-oc/internal/i18n"
	"github.com/ivansugi/enketo-express-oc/pkg/logger"
)

// Dependencies are the survey lookups the handlers delegate to.
type Dependencies interface {
	// GetSurvey returns the survey for an id.
	GetSurvey(ctx context.Context, enketoID string) (*survey.Survey, error)
	// GetXFormInfo attaches the form's formList entry to s.
	GetXFormInfo(ctx context.Context, s *survey.Survey) (*survey.Survey, error)
	// GetXForm attaches the XForm document to s.
	GetXForm(ctx context.Context, s *survey.Survey) (*survey.Survey, error)
}

const idParam = "enketo_id"

// idRoute matches a survey id segment such as "::abcd".
const idRoute = "{" + idParam + ":" + survey.IDPattern + "}"

// Server wires the HTTP routes of the webform service.
type Server struct {
	deps       Dependencies
	renderer   *render.Engine
	translator *i18n.Translator
	devices    *cookie.DeviceID
	auth       *auth.Authenticator
	offline    bool
	trustProxy bool
	log        logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRenderer replaces the template engine.
func WithRenderer(e *render.Engine) Option {
	return func(s *Server) {
		if e != nil {
			s.renderer = e
		}
	}
}

// WithTranslator replaces the message catalogs.
func WithTranslator(t *i18n.Translator) Option {
	return func(s *Server) {
		if t != nil {
			s.translator = t
		}
	}
}

// NewServer creates a Server from cfg.
func NewServer(cfg *config.Config, deps Dependencies, opts ...Option) (*Server, error) {
	s := &Server{
		deps: deps,
		devices: cookie.NewDeviceID(cfg.CookieSecret,
			cookie.WithSecure(cfg.CookieSecure),
			cookie.WithTrustProxy(cfg.TrustProxy),
		),
		auth:       auth.New(cfg.AuthSecret, cfg.AuthCookieName),
		offline:    cfg.OfflineEnabled,
		trustProxy: cfg.TrustProxy,
		log:        logger.Get().Named("web"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.renderer == nil {
		e, err := render.New()
		if err != nil {
			return nil, err
		}
		s.renderer = e
	}
	if err := s.renderer.Preload(render.Webform, render.Error); err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}

	if s.translator == nil {
		t, err := i18n.New(cfg.DefaultLanguage)
		if err != nil {
			return nil, fmt.Errorf("web: %w", err)
		}
		s.translator = t
	}
	return s, nil
}

// Handler builds the router with every route and middleware attached.
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(RequestID)
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(Instrument(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.GetHead)
	r.Use(s.auth.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.handleError(w, r, &StatusError{Status: http.StatusNotFound, Key: keyPageNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.handleError(w, r, &StatusError{Status: http.StatusMethodNotAllowed, Key: keyMethodNotAllowed})
	})

	r.Get("/healthz", HandleHealth)
	r.Handle("/metrics", MetricsHandler())
	swagger.Register(ctx, r)
	if err := site.Register(ctx, r, s.offline); err != nil {
		return nil, err
	}

	r.Get("/_", s.handleOffline)
	r.Get("/"+idRoute, s.handleWebform)
	r.Get("/preview/"+idRoute, s.handlePreview)
	r.Get("/preview", s.handlePreview)
	r.Get("/edit/"+idRoute, s.handleEdit)
	r.Get("/xform/"+idRoute, s.handleXForm)
	r.Get("/connection", s.handleConnection)

	return r, nil
}
