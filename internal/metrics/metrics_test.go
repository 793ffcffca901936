package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("analyze", "no_data"))
	hits := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("analyze"))
	misses := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("analyze"))

	var r Recorder
	r.ObserveUpstream("analyze", "no_data", 20*time.Millisecond)
	r.ObserveCache("analyze", true)
	r.ObserveCache("analyze", false)
	r.ObserveCache("analyze", false)

	assert.InDelta(t, before+1, testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("analyze", "no_data")), 1e-9)
	assert.InDelta(t, hits+1, testutil.ToFloat64(CacheHitsTotal.WithLabelValues("analyze")), 1e-9)
	assert.InDelta(t, misses+2, testutil.ToFloat64(CacheMissesTotal.WithLabelValues("analyze")), 1e-9)
}

func TestObserveResolveAndBoundary(t *testing.T) {
	ObserveResolve(false, 7)
	assert.InDelta(t, 7, testutil.ToFloat64(UnmatchedRegions), 1e-9)

	reloads := testutil.ToFloat64(BoundaryReloadsTotal)
	ObserveBoundary(177, true)
	ObserveBoundary(177, false)
	assert.InDelta(t, 177, testutil.ToFloat64(BoundaryFeatures), 1e-9)
	assert.InDelta(t, reloads+1, testutil.ToFloat64(BoundaryReloadsTotal), 1e-9)
}

func TestHandler(t *testing.T) {
	ObserveHTTP("/health", http.StatusOK, time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dengue_http_requests_total{code="200",route="/health"}`)
}
