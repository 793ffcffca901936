// Package boundary loads kelurahan boundary documents and keeps feature
// attributes in source order.
package boundary

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrEmptyDocument is returned when a source holds no features.
var ErrEmptyDocument = eris.New("boundary: document has no features")

// Feature is one administrative region: its attributes and its geometry.
type Feature struct {
	ID         any
	Attributes Attributes
	Geometry   geom.T
}

// Document is an ordered sequence of features.
type Document struct {
	Features []Feature
}

// Len returns the number of features; a nil document has none.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Features)
}

type rawFeature struct {
	Type       string          `json:"type"`
	ID         any             `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties Attributes      `json:"properties"`
}

type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Decode reads a GeoJSON FeatureCollection or a single Feature.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: read document")
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "boundary: decode document")
	}

	var raws []json.RawMessage
	switch head.Type {
	case "FeatureCollection":
		var fc rawCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "boundary: decode feature collection")
		}
		raws = fc.Features
	case "Feature":
		raws = []json.RawMessage{data}
	default:
		return nil, eris.Errorf("boundary: unsupported GeoJSON type %q", head.Type)
	}

	doc := &Document{Features: make([]Feature, 0, len(raws))}
	for i, raw := range raws {
		f, err := decodeFeature(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: feature %d", i)
		}
		doc.Features = append(doc.Features, f)
	}

	if len(doc.Features) == 0 {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

func decodeFeature(raw json.RawMessage) (Feature, error) {
	var rf rawFeature
	if err := json.Unmarshal(raw, &rf); err != nil {
		return Feature{}, eris.Wrap(err, "decode feature")
	}
	f := Feature{ID: rf.ID, Attributes: rf.Properties}

	g := bytes.TrimSpace(rf.Geometry)
	if len(g) == 0 || bytes.Equal(g, []byte("null")) {
		return f, nil
	}
	if err := geojson.Unmarshal(g, &f.Geometry); err != nil {
		return Feature{}, eris.Wrap(err, "decode geometry")
	}
	return f, nil
}

// Encode writes features as a GeoJSON FeatureCollection, attributes in order.
func Encode(w io.Writer, features []Feature) error {
	out := rawCollection{Type: "FeatureCollection", Features: make([]json.RawMessage, 0, len(features))}
	for i, f := range features {
		rf := rawFeature{Type: "Feature", ID: f.ID, Properties: f.Attributes, Geometry: json.RawMessage("null")}
		if f.Geometry != nil {
			g, err := geojson.Marshal(f.Geometry)
			if err != nil {
				return eris.Wrapf(err, "boundary: encode geometry of feature %d", i)
			}
			rf.Geometry = g
		}
		b, err := json.Marshal(rf)
		if err != nil {
			return eris.Wrapf(err, "boundary: encode feature %d", i)
		}
		out.Features = append(out.Features, b)
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return eris.Wrap(err, "boundary: write feature collection")
	}
	return nil
}
