package web

import (
	"math/rand"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ivansugi/enketo-express-oc/internal/adapters/http/auth"
	"github.com/ivansugi/enketo-express-oc/internal/adapters/http/render"
	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
	"github.com/ivansugi/enketo-express-oc/internal/domain/view"
	"github.com/ivansugi/enketo-express-oc/pkg/logger"
	"github.com/ivansugi/enketo-express-oc/pkg/metrics"
)

// enketoID returns the survey id of the matched route, or "" on routes
// without one.
func enketoID(r *http.Request) string {
	id, _ := survey.ParseEnketoID(chi.URLParam(r, idParam))
	return id
}

// newOptions builds the options record every webform flavour starts from,
// including the custom logo check.
func newOptions(r *http.Request, t view.Type) *view.Options {
	query := r.URL.Query()
	o := view.New(t, query, auth.LoggedIn(r.Context()))
	o.EnketoID = enketoID(r)
	view.ValidateCustomLogo(query, o)
	return o
}

// handleOffline handles GET /_.
func (s *Server) handleOffline(w http.ResponseWriter, r *http.Request) {
	if !s.offline {
		s.handleError(w, r, &StatusError{Status: http.StatusMethodNotAllowed, Key: keyOfflineDisabled})
		return
	}
	o := newOptions(r, view.TypeWebform)
	o.Manifest = view.OfflineManifest
	s.renderWebform(w, r, o)
}

// handleWebform handles GET /{enketo_id}.
func (s *Server) handleWebform(w http.ResponseWriter, r *http.Request) {
	s.renderWebform(w, r, newOptions(r, view.TypeWebform))
}

// handlePreview handles GET /preview and GET /preview/{enketo_id}.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.renderWebform(w, r, newOptions(r, view.TypePreview))
}

// handleEdit handles GET /edit/{enketo_id}. The record to edit is named by
// the instance_id query parameter.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	o := newOptions(r, view.TypeEdit)
	if r.URL.Query().Get(view.ParamInstanceID) == "" {
		s.handleError(w, r, &StatusError{Status: http.StatusBadRequest, Key: keyInvalidEditURL})
		return
	}
	s.renderWebform(w, r, o)
}

// renderWebform issues the device-id cookie and renders the webform page.
func (s *Server) renderWebform(w http.ResponseWriter, r *http.Request, o *view.Options) {
	ctx := r.Context()

	for _, param := range o.ErrorParams() {
		metrics.RecordLogoRejection(param)
		s.log.Debug(ctx, "custom logo rejected",
			logger.String("param", param),
			logger.Any("messages", o.SubmissionErrors[param]),
		)
	}

	if _, err := s.devices.Ensure(w, r); err != nil {
		s.handleError(w, r, err)
		return
	}

	data := render.Context{
		"iframe":     o.Iframe,
		"logout":     o.Logout,
		"manifest":   o.Manifest,
		"type":       string(o.Type),
		"enketoId":   o.EnketoID,
		"customLogo": o.CustomLogo,
		"language":   s.translator.Match(r.Header.Get("Accept-Language")),
	}
	if o.HasErrors() {
		data["submissionErrors"] = o.Errors()
	}

	if err := s.renderer.Render(w, http.StatusOK, render.Webform, data); err != nil {
		s.handleError(w, r, err)
		return
	}
	metrics.RecordViewRendered(string(o.Type))
}

// handleXForm handles GET /xform/{enketo_id}, a debugging view returning the
// survey's XForm as fetched from its OpenRosa server.
func (s *Server) handleXForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sv, err := s.deps.GetSurvey(ctx, enketoID(r))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	sv.Credentials = auth.FromContext(ctx)

	if sv, err = s.deps.GetXFormInfo(ctx, sv); err != nil {
		s.handleError(w, r, err)
		return
	}
	if sv, err = s.deps.GetXForm(ctx, sv); err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sv.XForm))
}

// handleConnection handles GET /connection, used by clients to probe
// connectivity. The random suffix defeats caches.
func (s *Server) handleConnection(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("connected " + strconv.FormatFloat(rand.Float64(), 'f', -1, 64)))
}
