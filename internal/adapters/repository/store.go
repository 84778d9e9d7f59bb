// Package repository defines the survey store interface and its drivers.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
)

// Store resolves survey ids to the OpenRosa form they point at.
type Store interface {
	// Get returns the survey for an id.
	// Returns survey.ErrNotFound if the id is unknown and survey.ErrInactive
	// if the survey exists but has been deactivated.
	Get(ctx context.Context, enketoID string) (*survey.Survey, error)

	// Put creates or replaces the survey for s.EnketoID.
	Put(ctx context.Context, s *survey.Survey) error

	// Close releases the underlying connection.
	Close() error
}

// validate checks the fields every driver needs to persist a survey.
func validate(s *survey.Survey) error {
	switch {
	case s == nil:
		return fmt.Errorf("%w: nil survey", ErrInvalidSurvey)
	case strings.TrimSpace(s.EnketoID) == "":
		return fmt.Errorf("%w: empty enketo id", ErrInvalidSurvey)
	case strings.TrimSpace(s.OpenRosaServer) == "":
		return fmt.Errorf("%w: empty openrosa server", ErrInvalidSurvey)
	case strings.TrimSpace(s.OpenRosaID) == "":
		return fmt.Errorf("%w: empty openrosa id", ErrInvalidSurvey)
	}
	return nil
}

// checkActive turns a found but inactive survey into survey.ErrInactive.
func checkActive(s *survey.Survey) (*survey.Survey, error) {
	if !s.Active {
		return nil, fmt.Errorf("%w: %s", survey.ErrInactive, s.EnketoID)
	}
	return s, nil
}
