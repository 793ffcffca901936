package analytics

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_WithDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Params{Mode: ModeKMeans, Clusters: 3}, Params{}.WithDefaults())
	assert.Equal(t, Params{Mode: ModeDBSCAN, Eps: 3.0, MinSamples: 3}, Params{Mode: ModeDBSCAN}.WithDefaults())
}

func TestParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"kmeans lower bound", Params{Mode: ModeKMeans, Clusters: 2}, false},
		{"kmeans upper bound", Params{Mode: ModeKMeans, Clusters: 5}, false},
		{"kmeans too few", Params{Mode: ModeKMeans, Clusters: 1}, true},
		{"kmeans too many", Params{Mode: ModeKMeans, Clusters: 6}, true},
		{"dbscan ok", Params{Mode: ModeDBSCAN, Eps: 0.5, MinSamples: 2}, false},
		{"dbscan zero eps", Params{Mode: ModeDBSCAN, MinSamples: 2}, true},
		{"dbscan zero samples", Params{Mode: ModeDBSCAN, Eps: 1}, true},
		{"unknown mode", Params{Mode: "hdbscan"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	p, err := ParseParams(url.Values{"n_clusters": {"4"}})
	require.NoError(t, err)
	assert.Equal(t, Params{Mode: ModeKMeans, Clusters: 4}, p)

	p, err = ParseParams(url.Values{"eps": {"1.5"}})
	require.NoError(t, err)
	assert.Equal(t, Params{Mode: ModeDBSCAN, Eps: 1.5, MinSamples: 3}, p)

	_, err = ParseParams(url.Values{"n_clusters": {"abc"}})
	assert.Error(t, err)

	_, err = ParseParams(url.Values{"n_clusters": {"7"}})
	assert.Error(t, err)
}
