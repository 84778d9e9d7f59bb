package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ivansugi/enketo-express-oc/internal/adapters/communicator"
	"github.com/ivansugi/enketo-express-oc/internal/adapters/http/render"
	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
	"github.com/ivansugi/enketo-express-oc/pkg/logger"
)

// Translation keys of the error pages.
const (
	keyInvalidEditURL   = "error.invalidediturl"
	keyOfflineDisabled  = "error.offlinedisabled"
	keySurveyNotFound   = "error.surveyidnotfound"
	keySurveyInactive   = "error.surveyinactive"
	keyFormNotListed    = "error.formnotlisted"
	keyPageNotFound     = "error.pagenotfound"
	keyMethodNotAllowed = "error.methodnotallowed"
	keyUnauthorized     = "error.unauthorized"
	keyUpstream         = "error.upstream"
	keyUnknown          = "error.unknown"
	keyTitle            = "error.title"
)

// StatusError is an error with the HTTP status to answer with and the
// translation key of the message shown to the user.
type StatusError struct {
	Status int
	Key    string
	Args   []any
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Key, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Key)
}

func (e *StatusError) Unwrap() error { return e.Err }

// classify maps any handler error to a StatusError.
func classify(err error) *StatusError {
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}

	var upstream *communicator.StatusError
	switch {
	case errors.Is(err, survey.ErrNotFound):
		return &StatusError{Status: http.StatusNotFound, Key: keySurveyNotFound, Err: err}
	case errors.Is(err, survey.ErrInactive):
		return &StatusError{Status: http.StatusNotFound, Key: keySurveyInactive, Err: err}
	case errors.Is(err, survey.ErrFormNotListed):
		return &StatusError{Status: http.StatusNotFound, Key: keyFormNotListed, Err: err}
	case errors.As(err, &upstream):
		if upstream.Status == http.StatusUnauthorized || upstream.Status == http.StatusForbidden {
			return &StatusError{Status: upstream.Status, Key: keyUnauthorized, Err: err}
		}
		return &StatusError{Status: upstream.Status, Key: keyUpstream, Args: []any{upstream.Status}, Err: err}
	}
	return &StatusError{Status: http.StatusInternalServerError, Key: keyUnknown, Err: err}
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleError is the single place errors become responses: a translated
// error page, or JSON for clients that ask for it.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	se := classify(err)
	ctx := r.Context()

	fields := []logger.Field{
		logger.Int("status", se.Status),
		logger.String("key", se.Key),
		logger.String("path", r.URL.Path),
		logger.String("request_id", RequestIDFromContext(ctx)),
		logger.Error(err),
	}
	if se.Status >= http.StatusInternalServerError {
		s.log.Error(ctx, "request failed", fields...)
	} else {
		s.log.Warn(ctx, "request rejected", fields...)
	}

	lang := s.translator.Match(r.Header.Get("Accept-Language"))
	msg := s.translator.T(lang, se.Key, se.Args...)

	if strings.Contains(r.Header.Get("Accept"), "json") {
		writeJSON(w, se.Status, errorResponse{Code: se.Status, Message: msg})
		return
	}

	renderErr := s.renderer.Render(w, se.Status, render.Error, render.Context{
		"code":     se.Status,
		"title":    s.translator.T(lang, keyTitle, se.Status),
		"message":  msg,
		"language": lang,
	})
	if renderErr != nil {
		s.log.Error(ctx, "render error page failed", logger.Error(renderErr))
		http.Error(w, msg, se.Status)
	}
}
