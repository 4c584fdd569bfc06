package sbomerapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"sbomer-dashboard/internal/domain/sbomer"
	applog "sbomer-dashboard/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Cache is the subset of the redis cache the client decorator needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

const (
	statsTTL     = 10 * time.Second
	immutableTTL = time.Hour
)

// CacheOptions scope and age the entries of one CachingClient.
type CacheOptions struct {
	// Scope names the backend, normally its base URL. Clients for different
	// backends never share keys.
	Scope string
	// TTL applies to entries that can no longer change. Zero means one hour.
	TTL time.Duration
}

// CachingClient serves reads that can no longer change from the cache:
// manifests, generations that reached a terminal status and their log path
// lists. Stats are cached briefly. Listings always hit the backend.
type CachingClient struct {
	Client
	cache  Cache
	prefix string
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewCachingClient(inner Client, cache Cache, opts CacheOptions, logger logrus.FieldLogger) Client {
	if cache == nil {
		return inner
	}
	if logger == nil {
		logger = applog.Discard()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = immutableTTL
	}
	return &CachingClient{
		Client: inner,
		cache:  cache,
		prefix: KeyPrefix(inner.Version(), opts.Scope),
		ttl:    ttl,
		logger: logger,
	}
}

// KeyPrefix is the cache key prefix of one backend and API version, e.g.
// "sbomer:v2:1f2e3d4c5b6a:".
func KeyPrefix(version APIVersion, scope string) string {
	sum := sha256.Sum256([]byte(scope))
	return "sbomer:" + string(version) + ":" + hex.EncodeToString(sum[:6]) + ":"
}

func (c *CachingClient) Stats(ctx context.Context) (sbomer.Stats, error) {
	key := c.prefix + "stats"
	var cached sbomer.Stats
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}
	s, err := c.Client.Stats(ctx)
	if err != nil {
		return s, err
	}
	c.store(ctx, key, s, statsTTL)
	return s, nil
}

func (c *CachingClient) GetManifest(ctx context.Context, id string) (sbomer.Manifest, error) {
	key := c.prefix + "manifest:" + id
	var cached sbomer.Manifest
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}
	m, err := c.Client.GetManifest(ctx, id)
	if err != nil {
		return m, err
	}
	c.store(ctx, key, m, c.ttl)
	return m, nil
}

func (c *CachingClient) GetGeneration(ctx context.Context, id string) (sbomer.Generation, error) {
	key := c.prefix + "generation:" + id
	var cached sbomer.Generation
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}
	g, err := c.Client.GetGeneration(ctx, id)
	if err != nil {
		return g, err
	}
	if g.Status.IsTerminal() {
		c.store(ctx, key, g, c.ttl)
	}
	return g, nil
}

func (c *CachingClient) GetLogPaths(ctx context.Context, generationID string) ([]string, error) {
	key := c.prefix + "logs:" + generationID
	var cached []string
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}
	paths, err := c.Client.GetLogPaths(ctx, generationID)
	if err != nil {
		return paths, err
	}

	var terminal sbomer.Generation
	if c.lookup(ctx, c.prefix+"generation:"+generationID, &terminal) {
		c.store(ctx, key, paths, c.ttl)
	}
	return paths, nil
}

func (c *CachingClient) lookup(ctx context.Context, key string, out any) bool {
	hit, err := c.cache.GetJSON(ctx, key, out)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Debug("cache lookup failed")
		return false
	}
	if hit {
		c.logger.WithField("key", key).Debug("cache hit")
	}
	return hit
}

func (c *CachingClient) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := c.cache.SetJSON(ctx, key, value, ttl); err != nil {
		c.logger.WithField("key", key).WithError(err).Debug("cache store failed")
	}
}

var _ Client = (*CachingClient)(nil)
