package dashboard

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dengue-atlas/internal/boundary"
	"github.com/sells-group/dengue-atlas/internal/metrics"
	"github.com/sells-group/dengue-atlas/internal/model"
	"github.com/sells-group/dengue-atlas/pkg/analytics"
)

// ErrSuperseded is returned by Refresh when a newer refresh was issued
// before this one finished. Its result has been discarded.
var ErrSuperseded = eris.New("dashboard: refresh superseded")

// BoundaryLoader loads the boundary document from a source.
type BoundaryLoader interface {
	Load(ctx context.Context, source string) (*boundary.Document, error)
}

// Selection is what the user is looking at.
type Selection struct {
	Year   int              `json:"year"`
	Params analytics.Params `json:"params"`
}

// State is a snapshot of the controller.
type State struct {
	Selection Selection
	Seq       uint64
	Loading   bool
	Boundary  *boundary.Document
	Analysis  *model.Analysis
	View      *View
	Err       error
}

// Controller owns dashboard state. Every Refresh gets a new sequence number
// and cancels the one before it; only the latest result is applied.
type Controller struct {
	client analytics.Client
	loader BoundaryLoader
	source string
	opts   Options
	log    *zap.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	state  State
	// boundaryGen counts SetBoundary calls; a load started under an older
	// generation is discarded.
	boundaryGen uint64
}

// NewController creates a controller reading boundaries from source.
func NewController(client analytics.Client, loader BoundaryLoader, source string, opts Options) *Controller {
	return &Controller{
		client: client,
		loader: loader,
		source: source,
		opts:   opts.withDefaults(),
		log:    zap.L().With(zap.String("component", "dashboard")),
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetBoundary replaces the boundary document and rebuilds the current view.
func (c *Controller) SetBoundary(doc *boundary.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boundaryGen++
	c.state.Boundary = doc
	if c.state.View != nil {
		year := c.state.View.Year
		c.state.View = BuildView(doc, c.state.Analysis, c.opts)
		c.state.View.Year = year
	}
}

// Refresh fetches the boundary (first time only) and the analysis for sel
// concurrently, then builds the view. If another Refresh starts before this
// one finishes, this one returns ErrSuperseded and leaves state untouched.
// A year without data is not an error: the view has NoData set.
func (c *Controller) Refresh(ctx context.Context, sel Selection) (*View, error) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	rctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	doc := c.state.Boundary
	gen := c.boundaryGen
	c.state.Selection = sel
	c.state.Seq = seq
	c.state.Loading = true
	c.mu.Unlock()
	defer cancel()

	var (
		loaded      *boundary.Document
		boundaryErr error
		analysis    *model.Analysis
	)
	g, gctx := errgroup.WithContext(rctx)
	if doc == nil {
		g.Go(func() error {
			d, err := c.loader.Load(gctx, c.source)
			if err != nil {
				// Records can still be shown without a map.
				boundaryErr = err
				return nil
			}
			loaded = d
			return nil
		})
	}
	g.Go(func() error {
		a, err := c.client.Analyze(gctx, sel.Year, sel.Params)
		if eris.Is(err, analytics.ErrNoData) {
			return nil
		}
		if err != nil {
			return err
		}
		analysis = a
		return nil
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		metrics.SupersededTotal.Inc()
		c.log.Debug("discarding stale refresh", zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return nil, ErrSuperseded
	}
	c.state.Loading = false

	if loaded != nil {
		if gen == c.boundaryGen {
			c.state.Boundary = loaded
			metrics.ObserveBoundary(loaded.Len(), false)
		} else {
			c.log.Debug("discarding boundary load older than SetBoundary")
		}
	}
	if gen != c.boundaryGen {
		// The newer document is already in place.
		boundaryErr = nil
	}
	if err != nil {
		c.log.Error("refresh failed", zap.Int("year", sel.Year), zap.Error(err))
		c.state.Err = eris.Wrap(err, "dashboard: refresh")
		c.state.View = nil
		c.state.Analysis = nil
		return nil, c.state.Err
	}

	v := BuildView(c.state.Boundary, analysis, c.opts)
	v.Year = sel.Year
	if boundaryErr != nil {
		c.log.Error("boundary load failed", zap.String("source", c.source), zap.Error(boundaryErr))
		v.BoundaryError = boundaryErr.Error()
	}
	if !v.NoData {
		metrics.ObserveResolve(v.Resolution.Found, v.Unmatched)
	}

	c.state.Analysis = analysis
	c.state.View = v
	c.state.Err = nil
	return v, nil
}

// Fetch builds a view for sel against an already loaded boundary document.
// It holds no state and is safe for concurrent use by request handlers.
func Fetch(ctx context.Context, client analytics.Client, doc *boundary.Document, sel Selection, opts Options) (*View, error) {
	a, err := client.Analyze(ctx, sel.Year, sel.Params)
	if err != nil && !eris.Is(err, analytics.ErrNoData) {
		return nil, eris.Wrap(err, "dashboard: fetch")
	}
	v := BuildView(doc, a, opts)
	v.Year = sel.Year
	if !v.NoData {
		metrics.ObserveResolve(v.Resolution.Found, v.Unmatched)
	}
	return v, nil
}

// FetchForecast builds the forecast view for the given horizon.
func FetchForecast(ctx context.Context, client analytics.Client, months int) (*ForecastView, error) {
	f, err := client.Predict(ctx, months)
	if eris.Is(err, analytics.ErrNoData) {
		return BuildForecastView(nil), nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: fetch forecast")
	}
	return BuildForecastView(f), nil
}
