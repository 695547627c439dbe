// Package soilgrids looks up topsoil properties from the ISRIC SoilGrids v2
// REST API and converts them to the units the soil scorer expects.
package soilgrids

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/terra/internal/config"
	"github.com/sells-group/terra/internal/resilience"
	"github.com/sells-group/terra/internal/soil"
)

// DefaultBaseURL is the public SoilGrids v2 endpoint.
const DefaultBaseURL = "https://rest.isric.org/soilgrids/v2.0"

// ErrNoData is returned when SoilGrids has no value at a point, e.g. over
// water or built-up land.
var ErrNoData = eris.New("soilgrids: no soil data at this location")

// Client looks up soil measurements at a point.
type Client interface {
	// Query returns mean clay and sand (%), organic carbon (g/kg) and pH
	// for the configured depth interval.
	Query(ctx context.Context, lat, lng float64) (*soil.Sample, error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = u }
}

// WithDepth sets the depth interval label, e.g. "0-5cm" or "5-15cm".
func WithDepth(depth string) Option {
	return func(c *client) { c.depth = depth }
}

// WithRateLimit sets the requests-per-second limit. SoilGrids asks for at
// most 5 calls per minute.
func WithRateLimit(rps float64) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithPolicy sets the retry and circuit breaker policy.
func WithPolicy(p *resilience.Policy) Option {
	return func(c *client) { c.policy = p }
}

// WithCache serves repeat lookups from cache.
func WithCache(cache *Cache) Option {
	return func(c *client) { c.cache = cache }
}

// WithObserver is called after every upstream request with its outcome
// ("ok", "no_data", "error") and duration.
func WithObserver(fn func(outcome string, elapsed time.Duration)) Option {
	return func(c *client) { c.observe = fn }
}

type client struct {
	httpClient *http.Client
	baseURL    string
	depth      string
	limiter    *rate.Limiter
	policy     *resilience.Policy
	cache      *Cache
	observe    func(string, time.Duration)
}

// NewClient creates a SoilGrids Client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		depth:      "0-5cm",
		limiter:    rate.NewLimiter(rate.Every(12*time.Second), 1),
		policy:     resilience.NewPolicy("soilgrids", config.SoilGridsConfig{}),
		observe:    func(string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig builds a Client from application settings.
func FromConfig(cfg config.SoilGridsConfig, opts ...Option) Client {
	base := []Option{WithPolicy(resilience.NewPolicy("soilgrids", cfg))}
	if cfg.TimeoutSecs > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}))
	}
	if cfg.BaseURL != "" {
		base = append(base, WithBaseURL(cfg.BaseURL))
	}
	if cfg.Depth != "" {
		base = append(base, WithDepth(cfg.Depth))
	}
	if cfg.RatePerSec > 0 {
		base = append(base, WithRateLimit(cfg.RatePerSec))
	}
	if cfg.CacheSize > 0 {
		base = append(base, WithCache(NewCache(cfg.CacheSize, time.Duration(cfg.CacheTTLHours)*time.Hour)))
	}
	return NewClient(append(base, opts...)...)
}

// Query implements Client.
func (c *client) Query(ctx context.Context, lat, lng float64) (*soil.Sample, error) {
	if c.cache != nil {
		if s, ok := c.cache.Get(lat, lng); ok {
			return &s, nil
		}
	}

	sample, err := resilience.Call(ctx, c.policy, func(ctx context.Context) (*soil.Sample, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "soilgrids: rate limit")
		}

		start := time.Now()
		s, err := c.fetch(ctx, lat, lng)
		switch {
		case err == nil:
			c.observe("ok", time.Since(start))
		case eris.Is(err, ErrNoData):
			c.observe("no_data", time.Since(start))
		default:
			c.observe("error", time.Since(start))
		}
		return s, err
	})
	if err != nil {
		if eris.Is(err, ErrNoData) {
			return nil, ErrNoData
		}
		return nil, eris.Wrapf(err, "soilgrids: query %.5f,%.5f", lat, lng)
	}

	if c.cache != nil {
		c.cache.Put(lat, lng, *sample)
	}
	return sample, nil
}
