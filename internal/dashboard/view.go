// Package dashboard turns a boundary document and an analytics result into
// presentation-ready views and sequences refreshes against the backend.
package dashboard

import (
	"github.com/sells-group/dengue-atlas/internal/boundary"
	"github.com/sells-group/dengue-atlas/internal/model"
	"github.com/sells-group/dengue-atlas/internal/region"
	"github.com/sells-group/dengue-atlas/internal/risk"
)

// DefaultTopN is the size of the highest-case ranking.
const DefaultTopN = 10

// Options controls how a view is built.
type Options struct {
	Resolve region.ResolveOptions
	Scheme  risk.Scheme
	Palette risk.Palette
	TopN    int
}

// DefaultOptions returns the default scheme, palette and resolver settings.
func DefaultOptions() Options {
	return Options{
		Scheme:  risk.DefaultScheme(),
		Palette: risk.NewPalette(nil),
		TopN:    DefaultTopN,
	}
}

func (o Options) withDefaults() Options {
	if o.Palette == nil {
		o.Palette = risk.NewPalette(nil)
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	return o
}

// Region is the rendering state of one boundary feature.
type Region struct {
	Feature int    `json:"feature"`
	Name    string `json:"name,omitempty"`
	// Record indexes View.Records, or region.NoRecord.
	Record int           `json:"record"`
	Status region.Status `json:"status"`
	Tier   *risk.Tier    `json:"tier,omitempty"`
	Color  string        `json:"color"`
}

// View is everything a dashboard page renders for one year.
type View struct {
	Year   int  `json:"year"`
	NoData bool `json:"no_data"`

	Regions       []Region             `json:"regions"`
	Records       []risk.LabeledRecord `json:"records"`
	Clusters      []risk.ClusterStat   `json:"clusters"`
	Summary       Summary              `json:"summary"`
	Distribution  []TierCount          `json:"distribution"`
	Top           []Row                `json:"top"`
	Trend         []model.TrendPoint   `json:"trend"`
	TotalClusters int                  `json:"total_clusters"`

	Resolution region.Resolution `json:"resolution"`
	Shadowed   []region.Shadow   `json:"shadowed,omitempty"`
	Unmatched  int               `json:"unmatched"`

	// BoundaryError is set when records loaded but the boundary did not.
	BoundaryError string `json:"boundary_error,omitempty"`
}

// BuildView resolves the join key, joins features to records, labels risk
// tiers and computes the summary. A nil analysis yields the empty state:
// NoData is set and every region renders as "no data".
func BuildView(doc *boundary.Document, a *model.Analysis, opts Options) *View {
	opts = opts.withDefaults()
	v := &View{
		Regions:  make([]Region, doc.Len()),
		Records:  []risk.LabeledRecord{},
		Clusters: []risk.ClusterStat{},
	}

	if a == nil {
		v.NoData = true
		for i := range v.Regions {
			v.Regions[i] = Region{Feature: i, Record: region.NoRecord, Status: region.StatusNoData, Color: risk.ColorNoData}
		}
		v.Unmatched = len(v.Regions)
		return v
	}

	labeler := risk.NewLabeler(opts.Scheme)
	v.Records = labeler.Label(a.Records)
	v.Clusters = labeler.Rank(a.Records)
	v.Trend = a.Trend
	v.TotalClusters = a.TotalClusters
	v.Summary = Summarize(v.Records)
	v.Distribution = Distribution(v.Records, opts.Palette)
	v.Top = TopN(Rows(v.Records, opts.Palette), opts.TopN)

	names := model.Names(a.Records)
	v.Resolution = region.ResolveKey(doc, names, opts.Resolve)
	joined := region.Join(doc, names, v.Resolution)
	v.Shadowed = joined.Shadowed
	v.Unmatched = doc.Len() - joined.Matched

	for _, m := range joined.Matches {
		r := Region{Feature: m.Feature, Record: m.Record, Status: m.Status, Color: risk.ColorNoData}
		if v.Resolution.Found {
			if val, ok := doc.Features[m.Feature].Attributes.Get(v.Resolution.Key); ok {
				r.Name = region.DisplayValue(val)
			}
		}
		if m.Record != region.NoRecord {
			tier := v.Records[m.Record].Tier
			r.Tier = &tier
			r.Color = opts.Palette.Color(tier)
		}
		v.Regions[m.Feature] = r
	}
	return v
}
