package app

import (
	"context"

	"sbomer-dashboard/internal/config"
	"sbomer-dashboard/internal/infrastructure/cache"
	"sbomer-dashboard/internal/infrastructure/sbomerapi"
	"sbomer-dashboard/internal/ws"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

type Container struct {
	Config   config.Config
	Logger   logrus.FieldLogger
	Cache    *cache.Redis
	Registry *prometheus.Registry
	V1       *sbomerapi.Provider
	V2       *sbomerapi.Provider

	Hub       *ws.Hub
	Followers *ws.Followers

	ctx    context.Context
	cancel context.CancelFunc
}

func NewContainer(cfg config.Config, logger logrus.FieldLogger) (*Container, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := sbomerapi.NewMetrics(reg)

	var redis *cache.Redis
	var apiCache sbomerapi.Cache
	if cfg.Redis.Enabled {
		redis = cache.NewRedis(cfg.Redis, logger)
		apiCache = redis
	}

	provider := func(v sbomerapi.APIVersion) *sbomerapi.Provider {
		return sbomerapi.NewProvider(sbomerapi.ProviderOptions{
			Version:      v,
			BaseURL:      cfg.Sbomer.BaseURL,
			Timeout:      cfg.Sbomer.Timeout,
			MaxPages:     cfg.Sbomer.MaxPages,
			PageRetries:  cfg.Sbomer.PageRetries,
			Cache:        apiCache,
			CacheTTL:     cfg.Redis.TTL,
			AllowedHosts: cfg.Sbomer.AllowedHosts,
			Metrics:      metrics,
			Logger:       logger,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Cache:     redis,
		Registry:  reg,
		V1:        provider(sbomerapi.V1),
		V2:        provider(sbomerapi.V2),
		Hub:       hub,
		Followers: ws.NewFollowers(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Context is cancelled by Close; background work started for the server
// runs under it.
func (c *Container) Context() context.Context {
	return c.ctx
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Followers != nil {
		c.Followers.StopAll()
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}
