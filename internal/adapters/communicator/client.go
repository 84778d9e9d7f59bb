// Package communicator talks to OpenRosa form servers: it looks a form up in
// the server's formList and downloads its XForm.
package communicator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
	"github.com/ivansugi/enketo-express-oc/pkg/logger"
	"github.com/ivansugi/enketo-express-oc/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBodyBytes caps formList and XForm responses.
	maxBodyBytes = 16 << 20

	openRosaVersionHeader = "X-OpenRosa-Version"
	openRosaVersion       = "1.0"

	opFormList = "formlist"
	opXForm    = "xform"
)

// Client fetches form metadata and XForms from OpenRosa servers.
type Client struct {
	http    *http.Client
	timeout time.Duration
	cache   *bigcache.BigCache
	maxBody int64
	log     logger.Logger
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		timeout: defaultTimeout,
		maxBody: maxBodyBytes,
		log:     logger.Get().Named("communicator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetXFormInfo looks the survey's form up in the server's formList and
// attaches the matching entry to s.Info.
func (c *Client) GetXFormInfo(ctx context.Context, s *survey.Survey) (*survey.Survey, error) {
	listURL := strings.TrimRight(s.OpenRosaServer, "/") + "/formList?formID=" + url.QueryEscape(s.OpenRosaID)

	body, err := c.fetch(ctx, opFormList, listURL, s.Credentials)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	raw, err := readLimited(body, c.maxBody)
	if err != nil {
		return nil, fmt.Errorf("%w: formList: %w", ErrRequest, err)
	}

	info, err := findForm(bytes.NewReader(raw), s.OpenRosaID)
	if err != nil {
		return nil, err
	}
	s.Info = info
	return s, nil
}

// GetXForm downloads the XForm from s.Info.DownloadURL into s.XForm. A form
// whose download url and hash were seen before is served from the cache.
func (c *Client) GetXForm(ctx context.Context, s *survey.Survey) (*survey.Survey, error) {
	if s.Info == nil || s.Info.DownloadURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoDownloadURL, s.EnketoID)
	}

	// Without a hash there is no way to tell revisions apart.
	cacheable := c.cache != nil && s.Info.Hash != ""
	key := cacheKey(s.Info.DownloadURL, s.Info.Hash)

	if cacheable {
		cached, err := c.cache.Get(key)
		switch {
		case err == nil:
			metrics.RecordXFormCacheLookup(true)
			s.XForm = string(cached)
			return s, nil
		case !isCacheMiss(err):
			c.log.Warn(ctx, "xform cache read failed", logger.String("key", key), logger.Error(err))
		}
		metrics.RecordXFormCacheLookup(false)
	}

	body, err := c.fetch(ctx, opXForm, s.Info.DownloadURL, s.Credentials)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	raw, err := readLimited(body, c.maxBody)
	if err != nil {
		return nil, fmt.Errorf("%w: xform: %w", ErrRequest, err)
	}
	s.XForm = string(raw)

	if cacheable {
		if err := c.cache.Set(key, raw); err != nil {
			c.log.Warn(ctx, "xform cache write failed", logger.String("key", key), logger.Error(err))
		}
		metrics.UpdateXFormCacheEntries(c.cache.Len())
	}
	return s, nil
}

// fetch performs an authenticated GET and returns the body of a 2xx response.
func (c *Client) fetch(ctx context.Context, op, target string, creds *survey.Credentials) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set(openRosaVersionHeader, openRosaVersion)
	applyCredentials(req, creds)

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		cancel()
		metrics.RecordCommunicatorRequest(op, "error", latency)
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	metrics.RecordCommunicatorRequest(op, strconv.Itoa(resp.StatusCode), latency)

	c.log.Debug(ctx, "openrosa request",
		logger.String("operation", op),
		logger.String("url", target),
		logger.Int("status", resp.StatusCode),
		logger.Float64("latency_ms", latency),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		return nil, &StatusError{Status: resp.StatusCode, URL: target}
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// readLimited reads r fully and fails with ErrTooLarge when it holds more
// than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, limit)
	}
	return raw, nil
}

// cancelBody releases the request context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func applyCredentials(req *http.Request, creds *survey.Credentials) {
	if creds.Empty() {
		return
	}
	if creds.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Bearer)
		return
	}
	req.SetBasicAuth(creds.User, creds.Pass)
}
