package sbomerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sbomer-dashboard/internal/domain/sbomer"
	applog "sbomer-dashboard/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Client is the only network boundary between the dashboard and the SBOMer
// backend. One instance is built per API version and handed to whoever
// needs it.
type Client interface {
	Version() APIVersion
	Stats(ctx context.Context) (sbomer.Stats, error)
	GetGenerations(ctx context.Context, p Pagination, query string) (Page[sbomer.Generation], error)
	GetGeneration(ctx context.Context, id string) (sbomer.Generation, error)
	GetManifests(ctx context.Context, p Pagination, filter ManifestFilter) (Page[sbomer.Manifest], error)
	GetManifestsForGeneration(ctx context.Context, generationID string) (Page[sbomer.Manifest], error)
	GetManifest(ctx context.Context, id string) (sbomer.Manifest, error)
	GetEvents(ctx context.Context, p Pagination, query string) (Page[sbomer.Event], error)
	GetEvent(ctx context.Context, id string) (sbomer.Event, error)
	GetEventGenerations(ctx context.Context, eventID string) (Page[sbomer.Generation], error)
	GetLogPaths(ctx context.Context, generationID string) ([]string, error)
	OpenLog(ctx context.Context, generationID, path string) (io.ReadCloser, error)
}

type Options struct {
	BaseURL        string
	Version        APIVersion
	HTTPClient     *http.Client
	Timeout        time.Duration
	Logger         logrus.FieldLogger
	Metrics        *Metrics
	MaxPages       int
	PageRetries    int
	RetryBaseDelay time.Duration
}

const (
	defaultMaxPages       = 100
	defaultPageRetries    = 3
	defaultRetryBaseDelay = 200 * time.Millisecond
	maxErrorBodyBytes     = 64 << 10
	truncatedMarker       = "...[truncated]"
)

type HTTPClient struct {
	baseURL        string
	version        APIVersion
	routes         Routes
	client         *http.Client
	logger         logrus.FieldLogger
	metrics        *Metrics
	maxPages       int
	pageRetries    int
	retryBaseDelay time.Duration
}

func New(opts Options) (*HTTPClient, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, ErrNoBaseURL
	}
	version := opts.Version
	if version == "" {
		version = V2
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	retries := opts.PageRetries
	if retries <= 0 {
		retries = defaultPageRetries
	}
	delay := opts.RetryBaseDelay
	if delay <= 0 {
		delay = defaultRetryBaseDelay
	}
	return &HTTPClient{
		baseURL:        normalizeBaseURL(base),
		version:        version,
		routes:         RoutesFor(version),
		client:         hc,
		logger:         logger.WithField("api", string(version)),
		metrics:        opts.Metrics,
		maxPages:       maxPages,
		pageRetries:    retries,
		retryBaseDelay: delay,
	}, nil
}

func (c *HTTPClient) Version() APIVersion { return c.version }

func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) Stats(ctx context.Context) (sbomer.Stats, error) {
	var out sbomer.Stats
	err := c.getJSON(ctx, "stats", c.routes.Stats, nil, &out)
	return out, err
}

func (c *HTTPClient) GetGenerations(ctx context.Context, p Pagination, query string) (Page[sbomer.Generation], error) {
	return getPage[sbomer.Generation](ctx, c, "generations", c.routes.Generations, p, query)
}

func (c *HTTPClient) GetGeneration(ctx context.Context, id string) (sbomer.Generation, error) {
	var out sbomer.Generation
	err := c.getJSON(ctx, "generation", c.routes.generation(id), nil, &out)
	return out, err
}

func (c *HTTPClient) GetManifests(ctx context.Context, p Pagination, filter ManifestFilter) (Page[sbomer.Manifest], error) {
	return getPage[sbomer.Manifest](ctx, c, "manifests", c.routes.Manifests, p, filter.RSQL())
}

// GetManifestsForGeneration walks every page of a generation's manifests.
func (c *HTTPClient) GetManifestsForGeneration(ctx context.Context, generationID string) (Page[sbomer.Manifest], error) {
	path, extra := c.routes.ManifestsForGeneration(generationID)
	return collectPages[sbomer.Manifest](ctx, c, "generation_manifests", path, extra, "generation "+generationID)
}

func (c *HTTPClient) GetManifest(ctx context.Context, id string) (sbomer.Manifest, error) {
	var out sbomer.Manifest
	err := c.getJSON(ctx, "manifest", c.routes.manifest(id), nil, &out)
	return out, err
}

func (c *HTTPClient) GetEvents(ctx context.Context, p Pagination, query string) (Page[sbomer.Event], error) {
	return getPage[sbomer.Event](ctx, c, "events", c.routes.Events, p, query)
}

func (c *HTTPClient) GetEvent(ctx context.Context, id string) (sbomer.Event, error) {
	var out sbomer.Event
	err := c.getJSON(ctx, "event", c.routes.event(id), nil, &out)
	return out, err
}

// GetEventGenerations walks every page of an event's generations serially.
func (c *HTTPClient) GetEventGenerations(ctx context.Context, eventID string) (Page[sbomer.Generation], error) {
	return collectPages[sbomer.Generation](ctx, c, "event_generations", c.routes.eventGenerations(eventID), nil, "event "+eventID)
}

func (c *HTTPClient) GetLogPaths(ctx context.Context, generationID string) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "log_paths", c.routes.logs(generationID), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// OpenLog streams one raw log file. The caller closes the returned reader.
func (c *HTTPClient) OpenLog(ctx context.Context, generationID, path string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, "log", c.routes.log(generationID, path), nil, "text/plain")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// collectPages fetches path page by page in EventGenerationsBatch steps.
// The walk stops at the page the server reports as last, at the configured
// page cap, or at the first page that still fails after retries.
func collectPages[T any](ctx context.Context, c *HTTPClient, endpoint, path string, extra url.Values, owner string) (Page[T], error) {
	out := Page[T]{Data: []T{}}

	for pageIndex := 0; ; pageIndex++ {
		if pageIndex >= c.maxPages {
			c.logger.WithFields(logrus.Fields{"endpoint": endpoint, "owner": owner, "max_pages": c.maxPages}).Warn("page cap reached")
			return Page[T]{}, fmt.Errorf("%w: %s after %d pages", ErrPageLimitExceeded, owner, c.maxPages)
		}

		q := Pagination{PageIndex: pageIndex, PageSize: EventGenerationsBatch}.values()
		for k, vs := range extra {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		var env envelope[T]
		err := retry(ctx, c.pageRetries, c.retryBaseDelay, func() error {
			env = envelope[T]{}
			return c.getJSON(ctx, endpoint, path, q, &env)
		})
		if err != nil {
			return Page[T]{}, err
		}

		if pageIndex == 0 {
			out.Total = env.TotalHits
			out.TotalPages = env.TotalPages
		}
		out.Data = append(out.Data, env.Content...)

		if pageIndex+1 >= env.TotalPages {
			return out, nil
		}
	}
}

func getPage[T any](ctx context.Context, c *HTTPClient, endpoint, path string, p Pagination, query string) (Page[T], error) {
	q := p.values()
	if query = strings.TrimSpace(query); query != "" {
		q.Set("query", query)
	}
	var env envelope[T]
	if err := c.getJSON(ctx, endpoint, path, q, &env); err != nil {
		return Page[T]{}, err
	}
	return env.page(), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, endpoint, path string, q map[string][]string, out any) error {
	resp, err := c.do(ctx, endpoint, path, q, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, endpoint, path string, q map[string][]string, accept string) (*http.Response, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("nil sbomer client")
	}
	endpointURL := c.baseURL + c.routes.Prefix + path
	if len(q) > 0 {
		endpointURL += "?" + encodeQuery(q)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.observe(c.version, endpoint, "error", time.Since(start))
		c.logger.WithFields(logrus.Fields{"endpoint": endpoint, "url": endpointURL}).WithError(err).Warn("sbomer request failed")
		return nil, fmt.Errorf("sbomer %s request: %w", endpoint, err)
	}
	c.metrics.observe(c.version, endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		httpErr := &HTTPError{
			Method:     req.Method,
			URL:        endpointURL,
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		}
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"url":      endpointURL,
			"status":   resp.StatusCode,
		}).Warn("sbomer request returned error status")
		return nil, httpErr
	}
	return resp, nil
}

// readErrorBody keeps the body as sent. Bodies over maxErrorBodyBytes are
// cut and marked so a reader can tell the text is incomplete.
func readErrorBody(r io.Reader) string {
	rb, _ := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes+1))
	if len(rb) > maxErrorBodyBytes {
		return string(rb[:maxErrorBodyBytes]) + truncatedMarker
	}
	return string(rb)
}

var _ Client = (*HTTPClient)(nil)
