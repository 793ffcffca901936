package boundary

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ReadShapefile reads a polygon shapefile. DBF fields become attribute keys
// in field order; numeric-looking values stay strings so that codes keep
// their leading zeros.
func ReadShapefile(path string) (*Document, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	doc := &Document{}
	var skipped int
	for reader.Next() {
		n, shape := reader.Shape()

		var attrs Attributes
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs.Set(name, val)
		}

		g := shapeToGeom(shape)
		if g == nil {
			skipped++
		}
		doc.Features = append(doc.Features, Feature{
			ID:         strconv.Itoa(n),
			Attributes: attrs,
			Geometry:   g,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "boundary: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("boundary: shapefile records without usable geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	if len(doc.Features) == 0 {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Polygon:
		if g := polygonToMultiPolygon(s); g != nil {
			return g
		}
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(4326)
	}
	return nil
}

// polygonToMultiPolygon turns each shapefile part into one polygon.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
