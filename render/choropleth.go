// Package render turns aggregate rows and boundary features into choropleth
// maps: an interactive Leaflet page and, through a headless browser, a PNG.
package render

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"immo-map/geo"
	"immo-map/models"
)

// Properties added to every matched feature.
const (
	FillProperty  = "fill"
	ValueProperty = "value"
)

// Map is a choropleth ready to be drawn.
type Map struct {
	Options    Options
	FeatureKey string
	Features   []*geojson.Feature

	// RangeMin and RangeMax are the values mapped to the ends of the scale.
	RangeMin float64
	RangeMax float64

	// Matched lists row keys that found a region; UnmatchedRows lists
	// the rest. Both are sorted.
	Matched       []string
	UnmatchedRows []string

	Bounds *geom.Bounds

	// Labels name each region at its centroid. Only province maps carry
	// them; there are too many municipalities to label.
	Labels []Label
}

// Label is a region name pinned to a point.
type Label struct {
	Text string  `json:"text"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Choropleth colours every feature whose featureKey property equals an
// aggregate row key. Matching is exact and case-sensitive; features without
// a row are kept but left unfilled. The input features are not modified.
func Choropleth(rows []models.AggregateRow, features []*geojson.Feature, featureKey string, opts Options) (*Map, error) {
	if featureKey == "" {
		return nil, fmt.Errorf("render: %w: empty feature key", models.ErrInvalidOption)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	values := make(map[string]float64, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}

	lo, hi := opts.RangeMin, opts.RangeMax
	if hi == 0 {
		lo, hi = valueRange(rows)
	}

	m := &Map{
		Options:    opts,
		FeatureKey: featureKey,
		Features:   make([]*geojson.Feature, 0, len(features)),
		RangeMin:   lo,
		RangeMax:   hi,
	}

	matched := make(map[string]struct{})
	geoms := make([]geom.T, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		props := make(map[string]interface{}, len(f.Properties)+2)
		for k, v := range f.Properties {
			props[k] = v
		}
		if key, ok := f.Properties[featureKey].(string); ok {
			if v, ok := values[key]; ok {
				props[FillProperty] = opts.ColorScale.At(v, lo, hi)
				props[ValueProperty] = v
				matched[key] = struct{}{}
			}
		}
		m.Features = append(m.Features, &geojson.Feature{
			ID:         f.ID,
			BBox:       f.BBox,
			Geometry:   f.Geometry,
			Properties: props,
		})
		geoms = append(geoms, f.Geometry)

		if opts.Granularity != Province {
			continue
		}
		if name, ok := f.Properties[featureKey].(string); ok && name != "" {
			if c, ok := geo.Centroid(f.Geometry); ok {
				m.Labels = append(m.Labels, Label{Text: name, Lat: c[1], Lon: c[0]})
			}
		}
	}
	sort.Slice(m.Labels, func(i, j int) bool { return m.Labels[i].Text < m.Labels[j].Text })

	for _, r := range rows {
		if _, ok := matched[r.Key]; ok {
			m.Matched = append(m.Matched, r.Key)
		} else {
			m.UnmatchedRows = append(m.UnmatchedRows, r.Key)
		}
	}
	sort.Strings(m.Matched)
	sort.Strings(m.UnmatchedRows)
	m.Bounds = geo.Bounds(geoms)

	return m, nil
}

// GeoJSON encodes the coloured features as a FeatureCollection.
func (m *Map) GeoJSON() ([]byte, error) {
	b, err := json.Marshal(&geojson.FeatureCollection{Features: m.Features})
	if err != nil {
		return nil, fmt.Errorf("render: encode features: %w", err)
	}
	return b, nil
}

func valueRange(rows []models.AggregateRow) (float64, float64) {
	if len(rows) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		lo = math.Min(lo, r.Value)
		hi = math.Max(hi, r.Value)
	}
	return lo, hi
}
