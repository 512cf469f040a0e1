package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom/encoding/geojson"

	"immo-map/metrics"
	"immo-map/models"
)

// pathLocks serialises writers targeting the same output file.
var pathLocks sync.Map

func lockFor(path string) *sync.Mutex {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	mu, _ := pathLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ProvinceFeatures converts province boundaries into GeoJSON features
// carrying "province" and "communes" properties.
func ProvinceFeatures(boundaries []models.ProvinceBoundary) []*geojson.Feature {
	features := make([]*geojson.Feature, 0, len(boundaries))
	for _, b := range boundaries {
		communes := b.Communes
		if communes == nil {
			communes = []string{}
		}
		features = append(features, &geojson.Feature{
			Geometry: b.Geometry,
			Properties: map[string]interface{}{
				ProvinceProperty: b.Province,
				CommunesProperty: communes,
			},
		})
	}
	return features
}

// MunicipalityFeatures converts municipality boundaries into GeoJSON features
// keyed by the "Communes" property. Tagged boundaries also carry "province".
func MunicipalityFeatures(boundaries []models.MunicipalityBoundary) []*geojson.Feature {
	features := make([]*geojson.Feature, 0, len(boundaries))
	for _, b := range boundaries {
		props := map[string]interface{}{CommuneProperty: b.Name}
		if b.Province != "" {
			props[ProvinceProperty] = b.Province
		}
		features = append(features, &geojson.Feature{Geometry: b.Geometry, Properties: props})
	}
	return features
}

// WriteProvinceBoundaries serialises boundaries as a GeoJSON feature
// collection at path, replacing any existing file. The content goes to a
// temporary sibling first and is renamed into place, so readers never see a
// partial file; concurrent writers of the same path are serialised.
func WriteProvinceBoundaries(path string, boundaries []models.ProvinceBoundary) (err error) {
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ProvinceWrites.WithLabelValues(status).Inc()
	}()

	b, err := json.Marshal(&geojson.FeatureCollection{Features: ProvinceFeatures(boundaries)})
	if err != nil {
		return fmt.Errorf("geojson: encode provinces: %w: %v", models.ErrWrite, err)
	}

	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("geojson: create output dir: %w: %v", models.ErrWrite, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("geojson: write %q: %w: %v", path, models.ErrWrite, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("geojson: replace %q: %w: %v", path, models.ErrWrite, err)
	}
	return nil
}
