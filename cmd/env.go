package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/dengue-atlas/internal/boundary"
	"github.com/sells-group/dengue-atlas/internal/cache"
	"github.com/sells-group/dengue-atlas/internal/config"
	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/internal/fetcher"
	"github.com/sells-group/dengue-atlas/internal/metrics"
	"github.com/sells-group/dengue-atlas/internal/region"
	"github.com/sells-group/dengue-atlas/internal/resilience"
	"github.com/sells-group/dengue-atlas/internal/risk"
	"github.com/sells-group/dengue-atlas/pkg/analytics"
)

// appEnv holds the components shared by every command.
type appEnv struct {
	Client  analytics.Client
	Loader  *boundary.Loader
	Cache   cache.Cache
	Breaker *resilience.CircuitBreaker
	Options dashboard.Options
}

// Close releases the response cache.
func (e *appEnv) Close() {
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			zap.L().Warn("close cache", zap.Error(err))
		}
	}
}

// initEnv validates cfg for mode and wires the fetchers, cache, breaker and
// analytics client.
func initEnv(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   c.Analytics.UserAgent,
		Timeout:     c.Analytics.Timeout,
		MaxAttempts: c.Analytics.MaxAttempts,
		RateLimit:   rate.Limit(c.Analytics.RateLimit),
	})
	ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: c.Boundary.FTPTimeout})

	loader := boundary.NewLoader(httpFetcher, ftpFetcher)
	loader.TempDir = c.Boundary.TempDir

	rc, err := cache.New(ctx, c.Cache)
	if err != nil {
		return nil, eris.Wrap(err, "init cache")
	}

	breaker := resilience.NewCircuitBreaker(c.Breaker)
	client := analytics.NewClient(c.Analytics.BaseURL,
		analytics.WithFetcher(httpFetcher),
		analytics.WithCache(rc, c.Cache.TTL),
		analytics.WithBreaker(breaker),
		analytics.WithObserver(metrics.Recorder{}),
	)

	zap.L().Debug("environment ready",
		zap.String("mode", mode),
		zap.String("analytics", c.Analytics.BaseURL),
		zap.String("cache", c.Cache.Driver),
	)

	return &appEnv{
		Client:  client,
		Loader:  loader,
		Cache:   rc,
		Breaker: breaker,
		Options: dashboardOptions(c),
	}, nil
}

// dashboardOptions maps the resolver and risk sections onto view options.
func dashboardOptions(c *config.Config) dashboard.Options {
	return dashboard.Options{
		Resolve: region.ResolveOptions{
			SampleSize: c.Resolver.SampleSize,
			Tie:        region.TiePolicy(c.Resolver.Tie),
		},
		Scheme:  c.Risk.Scheme,
		Palette: risk.NewPalette(c.Risk.Palette),
		TopN:    c.Dashboard.TopN,
	}
}

// defaultParams returns the configured clustering parameters.
func defaultParams(c *config.Config) analytics.Params {
	return analytics.Params{
		Mode:       analytics.Mode(strings.ToLower(c.Dashboard.Mode)),
		Clusters:   c.Dashboard.Clusters,
		Eps:        c.Dashboard.Eps,
		MinSamples: c.Dashboard.MinSamples,
	}.WithDefaults()
}

// selectionFrom reads --year, --mode, --k, --eps and --min-samples, falling
// back to the configured defaults.
func selectionFrom(c *config.Config, year int, mode string, k int, eps float64, minSamples int) (dashboard.Selection, error) {
	p := defaultParams(c)
	if mode != "" {
		p = analytics.Params{Mode: analytics.Mode(strings.ToLower(mode))}
	}
	if k > 0 {
		p.Clusters = k
	}
	if eps > 0 {
		p.Eps = eps
	}
	if minSamples > 0 {
		p.MinSamples = minSamples
	}
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return dashboard.Selection{}, err
	}

	if year == 0 {
		year = c.Dashboard.DefaultYear
	}
	return dashboard.Selection{Year: year, Params: p}, nil
}
