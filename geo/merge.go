// Package geo holds the geometry collaborators used by the province
// resolver and the map renderer.
package geo

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

var errNoGeometry = errors.New("geo: nothing to merge")

// Merger combines the outlines of several municipalities into one province
// geometry.
type Merger interface {
	Merge(geoms []geom.T) (geom.T, error)
}

// CollectMerger gathers every member polygon into a single MultiPolygon.
// Shared inner edges are kept; a lone polygon is returned as a Polygon.
type CollectMerger struct{}

func (CollectMerger) Merge(geoms []geom.T) (geom.T, error) {
	if len(geoms) == 0 {
		return nil, errNoGeometry
	}

	polys := make([]*geom.Polygon, 0, len(geoms))
	for i, g := range geoms {
		switch t := g.(type) {
		case *geom.Polygon:
			polys = append(polys, t)
		case *geom.MultiPolygon:
			for j := 0; j < t.NumPolygons(); j++ {
				polys = append(polys, t.Polygon(j))
			}
		case nil:
			return nil, fmt.Errorf("geo: member %d has no geometry", i)
		default:
			return nil, fmt.Errorf("geo: member %d: unsupported geometry %T", i, g)
		}
	}
	if len(polys) == 0 {
		return nil, errNoGeometry
	}
	if len(polys) == 1 {
		return polys[0].Clone(), nil
	}

	layout := polys[0].Layout()
	mp := geom.NewMultiPolygon(layout)
	for i, p := range polys {
		if p.Layout() != layout {
			return nil, fmt.Errorf("geo: polygon %d layout %v differs from %v", i, p.Layout(), layout)
		}
		if err := mp.Push(p); err != nil {
			return nil, fmt.Errorf("geo: push polygon %d: %w", i, err)
		}
	}
	return mp, nil
}

// Bounds returns the bounding box enclosing every non-nil geometry, or nil
// when there is none.
func Bounds(geoms []geom.T) *geom.Bounds {
	var b *geom.Bounds
	for _, g := range geoms {
		if g == nil {
			continue
		}
		if b == nil {
			b = geom.NewBounds(geom.XY)
		}
		b.Extend(g)
	}
	return b
}

// Centroid returns the area centroid of a Polygon or MultiPolygon. The
// second result is false for empty or other geometries.
func Centroid(g geom.T) (geom.Coord, bool) {
	switch t := g.(type) {
	case *geom.Polygon:
		if t.Empty() {
			return nil, false
		}
		return xy.PolygonsCentroid(t), true
	case *geom.MultiPolygon:
		if t.Empty() {
			return nil, false
		}
		return xy.MultiPolygonCentroid(t), true
	}
	return nil, false
}
