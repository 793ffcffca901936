package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dengue-atlas/internal/cache"
	"github.com/sells-group/dengue-atlas/internal/resilience"
)

const analysisBody = `{
  "year": "2024",
  "eda_trend": [{"bulan": "Jan", "positif": 12, "meninggal": 0}],
  "clustering_result": [
    {"wilayah": "Sukamaju", "jml_p": 2, "jml_m": 0, "cluster": 0, "jml_penduduk": 1000},
    {"wilayah": "Karangrejo", "jml_p": 40, "jml_m": 1, "cluster": 1, "jml_penduduk": 2000}
  ],
  "total_clusters": 2
}`

const forecastBody = `{
  "period": "6 bulan",
  "data": [
    {"date": "2024-11", "actual": 30, "predicted": 28},
    {"date": "2024-12", "actual": null, "predicted": 35, "lower": 20, "upper": 50}
  ],
  "model": "SARIMA",
  "last_date": "2024-11",
  "evaluation": {"rmse": 4.2, "mape": 12.5, "mae": 3.1, "r2": 0.81}
}`

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	hits     int
	misses   int
}

func (o *recordingObserver) ObserveUpstream(endpoint, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, endpoint+":"+outcome)
}

func (o *recordingObserver) ObserveCache(_ string, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func TestAnalyze_KMeans(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze/2024", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("n_clusters"))
		assert.Empty(t, r.URL.Query().Get("eps"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(analysisBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/")
	got, err := client.Analyze(context.Background(), 2024, Params{})
	require.NoError(t, err)

	assert.Equal(t, "2024", got.Year)
	assert.Equal(t, 2, got.TotalClusters)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "Karangrejo", got.Records[1].Region)
	assert.Equal(t, 40, got.Records[1].Cases)
	require.Len(t, got.Trend, 1)
	assert.Equal(t, 12, got.Trend[0].Positive)
}

func TestAnalyze_DBSCANQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2.5", q.Get("eps"))
		assert.Equal(t, "3", q.Get("min_samples"))
		assert.Empty(t, q.Get("n_clusters"))
		_, _ = w.Write([]byte(analysisBody))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Analyze(context.Background(), 2024, Params{Mode: ModeDBSCAN, Eps: 2.5})
	require.NoError(t, err)
}

func TestAnalyze_NotFoundIsNoData(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{FailureThreshold: 1})
	obs := &recordingObserver{}
	client := NewClient(srv.URL, WithBreaker(cb), WithObserver(obs))

	for range 3 {
		_, err := client.Analyze(context.Background(), 1999, DefaultParams())
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrNoData))
	}
	assert.Equal(t, resilience.CircuitClosed, cb.State(), "404 must not trip the breaker")
	assert.Equal(t, []string{"analyze:no_data", "analyze:no_data", "analyze:no_data"}, obs.outcomes)
}

func TestAnalyze_ServerErrorTripsBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	client := NewClient(srv.URL, WithBreaker(cb))

	for range 2 {
		_, err := client.Analyze(context.Background(), 2024, DefaultParams())
		require.Error(t, err)
		assert.False(t, eris.Is(err, ErrNoData))
	}
	_, err := client.Analyze(context.Background(), 2024, DefaultParams())
	assert.True(t, eris.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnalyze_InvalidParams(t *testing.T) {
	t.Parallel()

	client := NewClient("http://unused.invalid")
	_, err := client.Analyze(context.Background(), 2024, Params{Mode: ModeKMeans, Clusters: 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n_clusters")
}

func TestAnalyze_MalformedRecordsNotCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"year":"2024","clustering_result":[{"wilayah":"X","jml_p":1}]}`))
	}))
	defer srv.Close()

	mem := cache.NewMemory(8, time.Minute)
	client := NewClient(srv.URL, WithCache(mem, time.Minute))

	for range 2 {
		_, err := client.Analyze(context.Background(), 2024, DefaultParams())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jml_m")
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, mem.Stats().Entries)
}

func TestAnalyze_CachesByURL(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(analysisBody))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(srv.URL, WithCache(cache.NewMemory(8, time.Minute), time.Minute), WithObserver(obs))
	ctx := context.Background()

	_, err := client.Analyze(ctx, 2024, DefaultParams())
	require.NoError(t, err)
	got, err := client.Analyze(ctx, 2024, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, got.Records, 2)
	assert.Equal(t, int32(1), calls.Load())

	_, err = client.Analyze(ctx, 2024, Params{Mode: ModeKMeans, Clusters: 4})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "different parameters are a different key")
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 2, obs.misses)
}

func TestPredict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/predict/6", r.URL.Path)
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Predict(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, "SARIMA", got.Model)
	require.Len(t, got.Rows, 2)
	assert.False(t, got.Rows[0].IsFuture())
	assert.True(t, got.Rows[1].IsFuture())
	require.NotNil(t, got.Evaluation)
	assert.InDelta(t, 12.5, got.Evaluation.MAPE, 1e-9)
}

func TestPredict_RejectsNonPositiveMonths(t *testing.T) {
	t.Parallel()

	_, err := NewClient("http://unused.invalid").Predict(context.Background(), 0)
	require.Error(t, err)
}
