package dashboard

import (
	"github.com/sells-group/dengue-atlas/internal/boundary"
	"github.com/sells-group/dengue-atlas/internal/model"
)

// Properties added to each styled map feature.
const (
	PropStatus = "status"
	PropTier   = "risk_tier"
	PropColor  = "fill_color"
)

// StyleFeatures returns copies of doc's features with rendering properties
// appended after the source attributes: status, tier, fill color, and for
// matched features the record's name and counts.
func StyleFeatures(doc *boundary.Document, v *View) []boundary.Feature {
	out := make([]boundary.Feature, doc.Len())
	for i, f := range doc.Features {
		attrs := f.Attributes.Clone()
		if i < len(v.Regions) {
			r := v.Regions[i]
			attrs.Set(PropStatus, string(r.Status))
			attrs.Set(PropColor, r.Color)
			if r.Tier != nil {
				attrs.Set(PropTier, r.Tier.Name)
			} else {
				attrs.Set(PropTier, nil)
			}
			if r.Record >= 0 && r.Record < len(v.Records) {
				rec := v.Records[r.Record].Record
				attrs.Set(model.FieldRegion, rec.Region)
				attrs.Set(model.FieldCases, rec.Cases)
				attrs.Set(model.FieldDeaths, rec.Deaths)
			}
		}
		out[i] = boundary.Feature{ID: f.ID, Attributes: attrs, Geometry: f.Geometry}
	}
	return out
}
