package analytics

import (
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

// Mode selects the clustering algorithm the backend runs.
type Mode string

const (
	ModeKMeans Mode = "kmeans"
	ModeDBSCAN Mode = "dbscan"
)

// Parameter bounds accepted by the backend.
const (
	MinClusters       = 2
	MaxClusters       = 5
	DefaultClusters   = 3
	DefaultEps        = 3.0
	DefaultMinSamples = 3
)

// Params are the clustering parameters of an analyze request.
type Params struct {
	Mode       Mode    `json:"mode" mapstructure:"mode"`
	Clusters   int     `json:"n_clusters,omitempty" mapstructure:"n_clusters"`
	Eps        float64 `json:"eps,omitempty" mapstructure:"eps"`
	MinSamples int     `json:"min_samples,omitempty" mapstructure:"min_samples"`
}

// DefaultParams returns K-Means with three clusters.
func DefaultParams() Params {
	return Params{Mode: ModeKMeans, Clusters: DefaultClusters}
}

// WithDefaults fills unset fields for the selected mode.
func (p Params) WithDefaults() Params {
	if p.Mode == "" {
		p.Mode = ModeKMeans
	}
	switch p.Mode {
	case ModeKMeans:
		if p.Clusters == 0 {
			p.Clusters = DefaultClusters
		}
	case ModeDBSCAN:
		if p.Eps == 0 {
			p.Eps = DefaultEps
		}
		if p.MinSamples == 0 {
			p.MinSamples = DefaultMinSamples
		}
	}
	return p
}

// Validate checks the parameters against the backend's accepted ranges.
func (p Params) Validate() error {
	switch p.Mode {
	case ModeKMeans:
		if p.Clusters < MinClusters || p.Clusters > MaxClusters {
			return eris.Errorf("analytics: n_clusters must be between %d and %d, got %d", MinClusters, MaxClusters, p.Clusters)
		}
	case ModeDBSCAN:
		if p.Eps <= 0 {
			return eris.Errorf("analytics: eps must be positive, got %g", p.Eps)
		}
		if p.MinSamples < 1 {
			return eris.Errorf("analytics: min_samples must be at least 1, got %d", p.MinSamples)
		}
	default:
		return eris.Errorf("analytics: unknown mode %q", p.Mode)
	}
	return nil
}

// Query encodes the parameters the way the backend expects them.
func (p Params) Query() url.Values {
	q := url.Values{}
	switch p.Mode {
	case ModeKMeans:
		q.Set("n_clusters", strconv.Itoa(p.Clusters))
	case ModeDBSCAN:
		q.Set("eps", strconv.FormatFloat(p.Eps, 'f', -1, 64))
		q.Set("min_samples", strconv.Itoa(p.MinSamples))
	}
	return q
}

// ParseParams reads mode, n_clusters, eps and min_samples from a query string.
func ParseParams(q url.Values) (Params, error) {
	p := Params{Mode: Mode(q.Get("mode"))}
	if v := q.Get("n_clusters"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, eris.Wrap(err, "analytics: parse n_clusters")
		}
		p.Clusters = n
	}
	if v := q.Get("eps"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Params{}, eris.Wrap(err, "analytics: parse eps")
		}
		p.Eps = f
	}
	if v := q.Get("min_samples"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, eris.Wrap(err, "analytics: parse min_samples")
		}
		p.MinSamples = n
	}
	if p.Mode == "" && (p.Eps != 0 || p.MinSamples != 0) {
		p.Mode = ModeDBSCAN
	}
	p = p.WithDefaults()
	return p, p.Validate()
}
