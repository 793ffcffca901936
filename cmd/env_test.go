package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dengue-atlas/internal/cache"
	"github.com/sells-group/dengue-atlas/internal/config"
	"github.com/sells-group/dengue-atlas/internal/region"
	"github.com/sells-group/dengue-atlas/internal/resilience"
	"github.com/sells-group/dengue-atlas/internal/risk"
	"github.com/sells-group/dengue-atlas/pkg/analytics"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.Analytics.BaseURL = "http://analytics.test"
	c.Analytics.Timeout = 5 * time.Second
	c.Boundary.Source = "testdata/kelurahan.geojson"
	c.Resolver.SampleSize = 5
	c.Resolver.Tie = "earliest"
	c.Risk.Scheme = risk.DefaultScheme()
	c.Risk.Palette = map[string]string{"kritis": "#000000"}
	c.Cache = cache.Config{Driver: cache.DriverMemory, TTL: time.Minute, MaxEntries: 8}
	c.Server.Port = 8080
	c.Server.CORSOrigins = []string{"https://atlas.example"}
	c.Dashboard.Years = []int{2023, 2024}
	c.Dashboard.DefaultYear = 2024
	c.Dashboard.Mode = "kmeans"
	c.Dashboard.Clusters = 4
	c.Dashboard.TopN = 5
	c.Dashboard.ForecastMonths = 12
	return c
}

func TestDashboardOptions(t *testing.T) {
	opts := dashboardOptions(testConfig())

	assert.Equal(t, region.ResolveOptions{SampleSize: 5, Tie: region.TieEarliest}, opts.Resolve)
	assert.Equal(t, risk.DefaultScheme(), opts.Scheme)
	assert.Equal(t, 5, opts.TopN)
	assert.Equal(t, "#000000", opts.Palette.Color(risk.Tier{Name: "Kritis", Rank: 2}))
}

func TestDefaultParams(t *testing.T) {
	c := testConfig()
	assert.Equal(t, analytics.Params{Mode: analytics.ModeKMeans, Clusters: 4}, defaultParams(c))

	c.Dashboard.Mode = "DBSCAN"
	c.Dashboard.Eps = 2.5
	p := defaultParams(c)
	assert.Equal(t, analytics.ModeDBSCAN, p.Mode)
	assert.Equal(t, 2.5, p.Eps)
	assert.Equal(t, analytics.DefaultMinSamples, p.MinSamples)
}

func TestSelectionFrom(t *testing.T) {
	c := testConfig()

	t.Run("config defaults", func(t *testing.T) {
		sel, err := selectionFrom(c, 0, "", 0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 2024, sel.Year)
		assert.Equal(t, 4, sel.Params.Clusters)
	})

	t.Run("flags override", func(t *testing.T) {
		sel, err := selectionFrom(c, 2023, "", 2, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 2023, sel.Year)
		assert.Equal(t, 2, sel.Params.Clusters)
	})

	t.Run("mode switch drops configured k", func(t *testing.T) {
		sel, err := selectionFrom(c, 0, "dbscan", 0, 1.5, 0)
		require.NoError(t, err)
		assert.Equal(t, analytics.Params{Mode: analytics.ModeDBSCAN, Eps: 1.5, MinSamples: analytics.DefaultMinSamples}, sel.Params)
	})

	t.Run("k out of range", func(t *testing.T) {
		_, err := selectionFrom(c, 0, "", 9, 0, 0)
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := selectionFrom(c, 0, "hdbscan", 0, 0, 0)
		assert.Error(t, err)
	})
}

func TestInitEnv(t *testing.T) {
	env, err := initEnv(context.Background(), testConfig(), "dashboard")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Client)
	assert.NotNil(t, env.Loader)
	assert.IsType(t, &cache.Memory{}, env.Cache)
	require.NotNil(t, env.Breaker)
	assert.Equal(t, resilience.CircuitClosed, env.Breaker.State())
}

func TestInitEnv_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.Analytics.BaseURL = ""

	_, err := initEnv(context.Background(), c, "dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analytics.base_url is required")
}

func TestServerOptions(t *testing.T) {
	c := testConfig()
	env, err := initEnv(context.Background(), c, "serve")
	require.NoError(t, err)
	defer env.Close()

	opts := serverOptions(c, env)
	assert.Equal(t, []int{2023, 2024}, opts.Years)
	assert.Equal(t, 2024, opts.DefaultYear)
	assert.Equal(t, 12, opts.ForecastMonths)
	assert.Equal(t, []string{"https://atlas.example"}, opts.CORSOrigins)
	assert.Equal(t, 4, opts.Params.Clusters)
	assert.Same(t, env.Breaker, opts.Breaker)
	assert.Equal(t, env.Cache, opts.Cache)
}

func TestIsRemoteSource(t *testing.T) {
	assert.True(t, isRemoteSource("https://example.com/kelurahan.zip"))
	assert.True(t, isRemoteSource("ftp://mirror.example/kelurahan.zip"))
	assert.False(t, isRemoteSource("data/kelurahan.geojson"))
	assert.False(t, isRemoteSource("/srv/atlas/kelurahan.shp"))
}

func TestExportFormat(t *testing.T) {
	f, err := exportFormat("out/DATA.XLSX")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", f)

	f, err = exportFormat("data.csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", f)

	_, err = exportFormat("data.json")
	assert.Error(t, err)
}

func TestYearFromPath(t *testing.T) {
	y, err := yearFromPath("/data/Rekap DBD 2024.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)

	_, err = yearFromPath("/data/rekap.xlsx")
	assert.Error(t, err)
}
