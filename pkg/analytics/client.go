// Package analytics provides a client for the dengue clustering and
// forecasting backend.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/cache"
	"github.com/sells-group/dengue-atlas/internal/fetcher"
	"github.com/sells-group/dengue-atlas/internal/model"
	"github.com/sells-group/dengue-atlas/internal/resilience"
)

// ErrNoData is returned when the backend has no data for the request (404).
// It is an expected empty state, not a failure.
var ErrNoData = eris.New("analytics: no data")

// Client defines the analytics backend operations.
type Client interface {
	// Analyze fetches the clustering result and monthly trend for a year.
	Analyze(ctx context.Context, year int, p Params) (*model.Analysis, error)
	// Predict fetches a case forecast for the given number of months.
	Predict(ctx context.Context, months int) (*model.Forecast, error)
}

// Observer receives upstream and cache outcomes, e.g. for metrics.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, d time.Duration)
	ObserveCache(endpoint string, hit bool)
}

// Option configures the analytics client.
type Option func(*httpClient)

// WithFetcher sets the fetcher used for requests.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *httpClient) { c.fetcher = f }
}

// WithCache enables response caching for ttl.
func WithCache(cc cache.Cache, ttl time.Duration) Option {
	return func(c *httpClient) {
		c.cache = cc
		c.cacheTTL = ttl
	}
}

// WithBreaker guards requests with a circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) { c.breaker = cb }
}

// WithObserver reports request outcomes.
func WithObserver(o Observer) Option {
	return func(c *httpClient) { c.observer = o }
}

type httpClient struct {
	baseURL  string
	fetcher  fetcher.Fetcher
	cache    cache.Cache
	cacheTTL time.Duration
	breaker  *resilience.CircuitBreaker
	observer Observer
	log      *zap.Logger
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     zap.L().With(zap.String("component", "analytics")),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	}
	return c
}

// Analyze calls GET /api/analyze/{year}.
func (c *httpClient) Analyze(ctx context.Context, year int, p Params) (*model.Analysis, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	u := c.baseURL + "/api/analyze/" + strconv.Itoa(year) + "?" + p.Query().Encode()

	body, err := c.get(ctx, "analyze", u, func(b []byte) error {
		var a model.Analysis
		if err := json.Unmarshal(b, &a); err != nil {
			return eris.Wrap(err, "decode analysis")
		}
		return a.Validate()
	})
	if err != nil {
		return nil, err
	}

	a, err := fetcher.DecodeJSONObject[model.Analysis](bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "analytics: analyze")
	}
	return a, nil
}

// Predict calls GET /api/predict/{months}.
func (c *httpClient) Predict(ctx context.Context, months int) (*model.Forecast, error) {
	if months < 1 {
		return nil, eris.Errorf("analytics: months must be positive, got %d", months)
	}
	u := c.baseURL + "/api/predict/" + url.PathEscape(strconv.Itoa(months))

	body, err := c.get(ctx, "predict", u, func(b []byte) error {
		var f model.Forecast
		return eris.Wrap(json.Unmarshal(b, &f), "decode forecast")
	})
	if err != nil {
		return nil, err
	}

	f, err := fetcher.DecodeJSONObject[model.Forecast](bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "analytics: predict")
	}
	return f, nil
}

// get returns the response body for u, from cache when possible. validate
// runs before a body is cached so that malformed payloads are never stored.
func (c *httpClient) get(ctx context.Context, endpoint, u string, validate func([]byte) error) ([]byte, error) {
	if c.cache != nil {
		b, hit, err := c.cache.Get(ctx, u)
		if err != nil {
			c.log.Warn("cache read failed", zap.String("url", u), zap.Error(err))
		}
		c.observeCache(endpoint, hit)
		if hit {
			return b, nil
		}
	}

	start := time.Now()
	body, err := c.download(ctx, u)
	if err == nil {
		err = validate(body)
	}
	c.observeUpstream(endpoint, outcome(err), time.Since(start))

	switch {
	case fetcher.IsNotFound(err):
		c.log.Info("no data upstream", zap.String("url", u))
		return nil, eris.Wrapf(ErrNoData, "analytics: %s", endpoint)
	case err != nil:
		c.log.Error("upstream request failed", zap.String("url", u), zap.Error(err))
		return nil, eris.Wrapf(err, "analytics: %s", endpoint)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, u, body, c.cacheTTL); err != nil {
			c.log.Warn("cache write failed", zap.String("url", u), zap.Error(err))
		}
	}
	return body, nil
}

func (c *httpClient) download(ctx context.Context, u string) ([]byte, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		rc, err := c.fetcher.Download(ctx, u)
		if err != nil {
			return nil, err
		}
		defer rc.Close() //nolint:errcheck
		b, err := io.ReadAll(rc)
		return b, eris.Wrap(err, "read body")
	}
	if c.breaker == nil {
		return fetch(ctx)
	}
	return resilience.ExecuteVal(ctx, c.breaker, fetch)
}

func (c *httpClient) observeCache(endpoint string, hit bool) {
	if c.observer != nil {
		c.observer.ObserveCache(endpoint, hit)
	}
}

func (c *httpClient) observeUpstream(endpoint, result string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, result, d)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case fetcher.IsNotFound(err):
		return "no_data"
	case eris.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}
