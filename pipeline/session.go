// Package pipeline ties the loaders, the aggregator, the province resolver
// and the renderer together around one loaded dataset.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"

	"immo-map/geo"
	"immo-map/models"
	"immo-map/render"
	"immo-map/services"
	"immo-map/storage"
	"immo-map/utils"
)

// Options configures how a Session derives province data.
type Options struct {
	// ProvincesPath is where dissolved province boundaries are cached.
	// Empty disables the cache file.
	ProvincesPath string
	// Rebuild ignores an existing cache file on first use.
	Rebuild bool
	Policy  services.ConflictPolicy
	Merger  geo.Merger
}

// Session holds one loaded dataset. Listings and municipality boundaries
// are never modified after construction and may be shared between
// goroutines; derived province data is computed on first use.
type Session struct {
	listings       []models.Listing
	municipalities []models.MunicipalityBoundary
	opts           Options
	loadedAt       time.Time

	resolver   *services.Resolver
	aggregator *services.Aggregator
	logger     *utils.Logger

	resolveOnce sync.Once
	resolution  *services.Resolution
	resolveErr  error

	mu        sync.Mutex
	provinces []models.ProvinceBoundary
}

// New wraps already loaded data in a Session.
func New(listings []models.Listing, municipalities []models.MunicipalityBoundary, opts Options, logger *utils.Logger) *Session {
	if opts.Policy == "" {
		opts.Policy = services.ConflictError
	}
	return &Session{
		listings:       listings,
		municipalities: municipalities,
		opts:           opts,
		loadedAt:       time.Now(),
		resolver:       services.NewResolver(opts.Policy, opts.Merger, logger),
		aggregator:     services.NewAggregator(logger),
		logger:         logger,
	}
}

// Open loads listings from src and municipality boundaries from
// municipalitiesPath. Either failure aborts; no partial session is returned.
func Open(ctx context.Context, src storage.ListingSource, municipalitiesPath string, opts Options, logger *utils.Logger) (*Session, error) {
	start := time.Now()

	listings, err := src.FetchListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load listings: %w", err)
	}
	municipalities, err := storage.LoadMunicipalityBoundaries(municipalitiesPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load municipalities: %w", err)
	}

	logger.Info("[pipeline] Loaded %d listings and %d municipality boundaries in %v",
		len(listings), len(municipalities), time.Since(start).Round(time.Millisecond))
	return New(listings, municipalities, opts, logger), nil
}

// Listings returns the loaded listings. Callers must not modify them.
func (s *Session) Listings() []models.Listing { return s.listings }

// Municipalities returns the untagged municipality boundaries. Callers must
// not modify them.
func (s *Session) Municipalities() []models.MunicipalityBoundary { return s.municipalities }

func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// Aggregate computes one aggregate table over the session's listings.
func (s *Session) Aggregate(key models.GroupKey, metric models.Metric) ([]models.AggregateRow, error) {
	return s.aggregator.Aggregate(s.listings, key, metric)
}

// Resolution runs the province resolver once and caches the outcome,
// including a failure.
func (s *Session) Resolution() (*services.Resolution, error) {
	s.resolveOnce.Do(func() {
		s.resolution, s.resolveErr = s.resolver.Build(s.listings, s.municipalities)
	})
	return s.resolution, s.resolveErr
}

// ProvinceBoundaries returns the province boundaries, reading the cache file
// when one exists and Rebuild is off, and otherwise dissolving and
// persisting them.
func (s *Session) ProvinceBoundaries() ([]models.ProvinceBoundary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provinces != nil {
		return s.provinces, nil
	}

	if s.opts.ProvincesPath != "" && !s.opts.Rebuild {
		cached, err := storage.LoadProvinceBoundaries(s.opts.ProvincesPath)
		switch {
		case err == nil:
			s.logger.Info("[pipeline] Using cached province boundaries from %s", s.opts.ProvincesPath)
			s.provinces = cached
			return cached, nil
		case errors.Is(err, models.ErrNotFound):
			s.logger.Info("[pipeline] No province cache at %s, building", s.opts.ProvincesPath)
		default:
			return nil, err
		}
	}

	return s.rebuildLocked()
}

// RebuildProvinces dissolves the province boundaries again and overwrites
// the cache file.
func (s *Session) RebuildProvinces() ([]models.ProvinceBoundary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked()
}

func (s *Session) rebuildLocked() ([]models.ProvinceBoundary, error) {
	res, err := s.Resolution()
	if err != nil {
		return nil, err
	}
	if s.opts.ProvincesPath != "" {
		if err := storage.WriteProvinceBoundaries(s.opts.ProvincesPath, res.Provinces); err != nil {
			return nil, err
		}
		s.logger.Info("[pipeline] Wrote %d province boundaries to %s", len(res.Provinces), s.opts.ProvincesPath)
	}
	s.provinces = res.Provinces
	return s.provinces, nil
}

// Map aggregates the listings at the granularity named in opts and draws
// them onto the matching boundaries.
func (s *Session) Map(opts render.Options) (*render.Map, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.Aggregate(opts.Granularity.GroupKey(), opts.Metric)
	if err != nil {
		return nil, err
	}

	features, featureKey, err := s.Features(opts.Granularity)
	if err != nil {
		return nil, err
	}

	m, err := render.Choropleth(rows, features, featureKey, opts)
	if err != nil {
		return nil, err
	}
	if len(m.UnmatchedRows) > 0 {
		s.logger.Debug("[pipeline] %d %s rows have no boundary: %v", len(m.UnmatchedRows), opts.Granularity, m.UnmatchedRows)
	}
	return m, nil
}

// Features returns the boundary features of a granularity together with the
// property that holds their join key.
func (s *Session) Features(level render.Granularity) ([]*geojson.Feature, string, error) {
	switch level {
	case render.Municipality:
		return storage.MunicipalityFeatures(s.municipalities), storage.CommuneProperty, nil
	case render.Province:
		provinces, err := s.ProvinceBoundaries()
		if err != nil {
			return nil, "", err
		}
		return storage.ProvinceFeatures(provinces), storage.ProvinceProperty, nil
	}
	return nil, "", fmt.Errorf("pipeline: %w: granularity %q", models.ErrInvalidOption, level)
}
