package sbomerapi

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	applog "sbomer-dashboard/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// maxProviderClients bounds the per-base-URL client map.
const maxProviderClients = 64

// ProviderOptions hold what every client built by a Provider shares.
type ProviderOptions struct {
	Version     APIVersion
	BaseURL     string
	Timeout     time.Duration
	MaxPages    int
	PageRetries int
	Cache       Cache
	CacheTTL    time.Duration
	Metrics     *Metrics
	Logger      logrus.FieldLogger

	// AllowedHosts lists the request hosts a base URL may be derived from
	// when none is configured. Entries without a port match any port.
	AllowedHosts []string
}

// Provider hands out one client per backend base URL. When no base URL is
// configured the URL is derived from the host the dashboard is served from,
// so a single process can front several deployments listed in AllowedHosts.
type Provider struct {
	opts    ProviderOptions
	allowed map[string]struct{}
	mu      sync.Mutex
	clients map[string]Client
}

func NewProvider(opts ProviderOptions) *Provider {
	if opts.Version == "" {
		opts.Version = V2
	}
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	allowed := make(map[string]struct{}, len(opts.AllowedHosts))
	for _, h := range opts.AllowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = struct{}{}
		}
	}
	return &Provider{opts: opts, allowed: allowed, clients: make(map[string]Client)}
}

func (p *Provider) Version() APIVersion { return p.opts.Version }

// BaseURLFor resolves the backend base URL for a request. A configured URL
// always wins; otherwise the request host must be allow-listed.
func (p *Provider) BaseURLFor(scheme, host string) (string, error) {
	if base, err := ResolveBaseURL(p.opts.BaseURL, "", ""); err == nil {
		return base, nil
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "", ErrNoBaseURL
	}
	if !p.hostAllowed(host) {
		return "", fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}
	if scheme != "http" {
		scheme = "https"
	}
	return ResolveBaseURL("", scheme, host)
}

func (p *Provider) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	if _, ok := p.allowed[host]; ok {
		return true
	}
	if name, _, err := net.SplitHostPort(host); err == nil {
		_, ok := p.allowed[name]
		return ok
	}
	return false
}

// ClientFor returns the client for the request identified by scheme and host.
func (p *Provider) ClientFor(scheme, host string) (Client, error) {
	base, err := p.BaseURLFor(scheme, host)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[base]; ok {
		return c, nil
	}

	hc, err := New(Options{
		BaseURL:     base,
		Version:     p.opts.Version,
		Timeout:     p.opts.Timeout,
		Logger:      p.opts.Logger,
		Metrics:     p.opts.Metrics,
		MaxPages:    p.opts.MaxPages,
		PageRetries: p.opts.PageRetries,
	})
	if err != nil {
		return nil, err
	}

	var c Client = hc
	if p.opts.Cache != nil {
		c = NewCachingClient(hc, p.opts.Cache, CacheOptions{Scope: base, TTL: p.opts.CacheTTL}, p.opts.Logger)
	}
	if len(p.clients) >= maxProviderClients {
		for k := range p.clients {
			delete(p.clients, k)
			break
		}
	}
	p.clients[base] = c
	p.opts.Logger.WithFields(logrus.Fields{"base_url": base, "api": string(p.opts.Version)}).Info("sbomer client created")
	return c, nil
}

func (p *Provider) clientCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
