package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"immo-map/metrics"
	"immo-map/models"
	"immo-map/services"
)

const (
	// CommuneProperty names the commune in the municipality boundary file.
	CommuneProperty = "Communes"
	// ProvinceProperty names the province in the generated province file.
	ProvinceProperty = "province"
	// CommunesProperty lists the members of a dissolved province.
	CommunesProperty = "communes"
)

func readFeatures(path string) ([]*geojson.Feature, error) {
	b, err := readInput("geojson", path)
	if err != nil {
		return nil, err
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("geojson: %q: %w: %v", path, models.ErrParse, err)
	}
	for i, f := range fc.Features {
		if f == nil {
			return nil, fmt.Errorf("geojson: %q: feature %d is null: %w", path, i, models.ErrParse)
		}
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			return nil, fmt.Errorf("geojson: %q: feature %d: unsupported geometry %T: %w",
				path, i, f.Geometry, models.ErrParse)
		}
	}
	return fc.Features, nil
}

func stringProperty(f *geojson.Feature, name string) (string, bool) {
	v, ok := f.Properties[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// LoadMunicipalityBoundaries reads the commune polygons and normalises their
// names the same way listing cities are normalised.
func LoadMunicipalityBoundaries(path string) ([]models.MunicipalityBoundary, error) {
	features, err := readFeatures(path)
	if err != nil {
		return nil, err
	}

	out := make([]models.MunicipalityBoundary, 0, len(features))
	for i, f := range features {
		name, ok := stringProperty(f, CommuneProperty)
		if !ok {
			return nil, fmt.Errorf("geojson: %q: feature %d has no string %q property: %w",
				path, i, CommuneProperty, models.ErrParse)
		}
		out = append(out, models.MunicipalityBoundary{
			Name:     services.NormaliseCommune(name),
			Geometry: f.Geometry,
		})
	}

	metrics.BoundariesLoaded.WithLabelValues("municipality").Add(float64(len(out)))
	return out, nil
}

// LoadProvinceBoundaries reads a province file previously written by
// WriteProvinceBoundaries. Member communes are read from the "communes"
// list, or from a single "Communes" name in older files.
func LoadProvinceBoundaries(path string) ([]models.ProvinceBoundary, error) {
	features, err := readFeatures(path)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProvinceBoundary, 0, len(features))
	for i, f := range features {
		province, ok := stringProperty(f, ProvinceProperty)
		if !ok {
			return nil, fmt.Errorf("geojson: %q: feature %d has no string %q property: %w",
				path, i, ProvinceProperty, models.ErrParse)
		}
		communes, err := communeList(f)
		if err != nil {
			return nil, fmt.Errorf("geojson: %q: feature %d: %w", path, i, err)
		}
		out = append(out, models.ProvinceBoundary{
			Province: services.NormaliseProvince(province),
			Communes: communes,
			Geometry: f.Geometry,
		})
	}

	metrics.BoundariesLoaded.WithLabelValues("province").Add(float64(len(out)))
	return out, nil
}

func communeList(f *geojson.Feature) ([]string, error) {
	if v, ok := f.Properties[CommunesProperty]; ok && v != nil {
		items, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%q is %T, want a list: %w", CommunesProperty, v, models.ErrParse)
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%q holds %T, want strings: %w", CommunesProperty, item, models.ErrParse)
			}
			names = append(names, services.NormaliseCommune(s))
		}
		return names, nil
	}
	if name, ok := stringProperty(f, CommuneProperty); ok && strings.TrimSpace(name) != "" {
		return []string{services.NormaliseCommune(name)}, nil
	}
	return nil, nil
}
