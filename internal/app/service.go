// Package service provides the core business service that implements
// the dependencies required by the HTTP handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/allegro/bigcache/v3"

	"github.com/ivansugi/enketo-express-oc/internal/adapters/communicator"
	repository "github.com/ivansugi/enketo-express-oc/internal/adapters/repository"
	"github.com/ivansugi/enketo-express-oc/internal/config"
	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
	"github.com/ivansugi/enketo-express-oc/pkg/logger"
	"github.com/ivansugi/enketo-express-oc/pkg/metrics"
)

// Communicator fetches form data from OpenRosa servers.
type Communicator interface {
	GetXFormInfo(ctx context.Context, s *survey.Survey) (*survey.Survey, error)
	GetXForm(ctx context.Context, s *survey.Survey) (*survey.Survey, error)
}

// Service resolves surveys and their XForms for the HTTP handlers.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	store        repository.Store
	communicator Communicator
	cache        *bigcache.BigCache

	// Components built by Start are released by Stop; injected ones are not.
	ownsStore        bool
	ownsCommunicator bool

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects the survey store instead of opening the configured one.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithCommunicator injects the OpenRosa client.
func WithCommunicator(c Communicator) Option {
	return func(s *Service) {
		s.communicator = c
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service for cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the survey store and the OpenRosa client unless they were
// injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting survey service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.cfg)
		if err != nil {
			return fmt.Errorf("open survey store: %w", err)
		}
		s.store = store
		s.ownsStore = true
		s.logger.Info(ctx, "survey store opened", logger.String("driver", s.cfg.StoreDriver))
	}

	if s.communicator == nil {
		opts := []communicator.Option{
			communicator.WithTimeout(s.cfg.OpenRosaTimeout()),
			communicator.WithLogger(s.logger.Named("communicator")),
		}
		if ttl := s.cfg.XFormCacheTTL(); ttl > 0 {
			cache, err := communicator.NewCache(ctx, ttl, s.cfg.XFormCacheMaxMB)
			if err != nil {
				s.closeStore()
				return err
			}
			s.cache = cache
			opts = append(opts, communicator.WithCache(cache))
		}
		s.communicator = communicator.New(opts...)
		s.ownsCommunicator = true
	}

	s.started = true
	s.logger.Info(ctx, "survey service started",
		logger.String("store", s.cfg.StoreDriver),
		logger.Bool("xformCache", s.cache != nil),
	)
	return nil
}

// Stop releases the store, cache and client built by Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping survey service...")

	if s.cache != nil {
		_ = s.cache.Close()
		s.cache = nil
	}
	if s.ownsCommunicator {
		s.communicator = nil
		s.ownsCommunicator = false
	}
	s.closeStore()

	s.started = false
	s.logger.Info(context.Background(), "survey service stopped")
}

func (s *Service) closeStore() {
	if s.store == nil || !s.ownsStore {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing survey store failed", logger.Error(err))
	}
	s.store = nil
	s.ownsStore = false
}

// GetSurvey returns the survey for an id.
func (s *Service) GetSurvey(ctx context.Context, enketoID string) (*survey.Survey, error) {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	sv, err := store.Get(ctx, enketoID)
	switch {
	case err == nil:
		metrics.RecordSurveyLookup("found")
	case errors.Is(err, survey.ErrNotFound):
		metrics.RecordSurveyLookup("not_found")
	case errors.Is(err, survey.ErrInactive):
		metrics.RecordSurveyLookup("inactive")
	default:
		metrics.RecordSurveyLookup("error")
		s.logger.Error(ctx, "survey lookup failed", logger.String("enketoId", enketoID), logger.Error(err))
	}
	return sv, err
}

// GetXFormInfo attaches the form's formList entry to sv.
func (s *Service) GetXFormInfo(ctx context.Context, sv *survey.Survey) (*survey.Survey, error) {
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	return c.GetXFormInfo(ctx, sv)
}

// GetXForm attaches the XForm document to sv.
func (s *Service) GetXForm(ctx context.Context, sv *survey.Survey) (*survey.Survey, error) {
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	return c.GetXForm(ctx, sv)
}

func (s *Service) client() (Communicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.communicator, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"storeDriver": s.cfg.StoreDriver,
	}
	if c, ok := s.store.(interface{ Count() int }); ok {
		stats["surveys"] = c.Count()
	}
	if s.cache != nil {
		entries := s.cache.Len()
		stats["xformCacheEntries"] = entries
		metrics.UpdateXFormCacheEntries(entries)
	}
	return stats
}
