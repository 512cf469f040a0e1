package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/twpayne/go-geom/encoding/geojson"

	"immo-map/models"
	"immo-map/render"
)

type mapQuery struct {
	Preset string `query:"preset"`
	Metric string `query:"metric" validate:"omitempty,oneof=average_price count"`
	Level  string `query:"level" validate:"omitempty,oneof=municipality province"`
	Scale  string `query:"scale" validate:"omitempty,oneof=RdYlBu Viridis Blues YlOrRd"`
}

type aggregateQuery struct {
	Group  string `query:"group" validate:"required,oneof=city province"`
	Metric string `query:"metric" validate:"required,oneof=average_price count"`
}

func bindQuery(c echo.Context, q interface{}) error {
	if err := c.Bind(q); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidOption, err)
	}
	return c.Validate(q)
}

// Map renders the dashboard page. A preset selects the base view; metric,
// level and scale override it.
func (s *Server) Map(c echo.Context) error {
	var q mapQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	preset := s.presets[0]
	if q.Preset != "" {
		p, ok := render.FindPreset(s.presets, q.Preset)
		if !ok {
			return fmt.Errorf("%w: preset %q", models.ErrNotFound, q.Preset)
		}
		preset = p
	}

	opts := preset.Options
	if q.Metric != "" && models.Metric(q.Metric) != opts.Metric {
		// A price range makes no sense for counts and vice versa.
		opts.Metric = models.Metric(q.Metric)
		opts.RangeMin, opts.RangeMax = 0, 0
	}
	if q.Level != "" {
		opts.Granularity = render.Granularity(q.Level)
	}
	if q.Scale != "" {
		opts.ColorScale = render.ColorScale(q.Scale)
	}

	m, err := s.session.Map(opts)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = render.RenderHTML(&buf, render.Page{
		Title:   preset.Title,
		Map:     m,
		Presets: s.presets,
		Active:  preset.Name,
	})
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Aggregates returns one aggregate table as JSON rows.
func (s *Server) Aggregates(c echo.Context) error {
	var q aggregateQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	rows, err := s.session.Aggregate(models.GroupKey(q.Group), models.Metric(q.Metric))
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []models.AggregateRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// Boundaries returns the boundary features of one level as GeoJSON.
func (s *Server) Boundaries(c echo.Context) error {
	level, err := render.ParseGranularity(c.Param("level"))
	if err != nil {
		return err
	}

	features, _, err := s.session.Features(level)
	if err != nil {
		return err
	}

	b, err := json.Marshal(&geojson.FeatureCollection{Features: features})
	if err != nil {
		return fmt.Errorf("server: encode boundaries: %w", err)
	}
	return c.Blob(http.StatusOK, "application/geo+json", b)
}

// ProvincesResponse describes the province resolution of the dataset.
type ProvincesResponse struct {
	Provinces  models.ProvinceMap        `json:"provinces"`
	Conflicts  []models.ProvinceConflict `json:"conflicts"`
	Unassigned []string                  `json:"unassigned"`
	Unmatched  []string                  `json:"unmatched"`
}

// Provinces returns the province map together with the names that could not
// be placed.
func (s *Server) Provinces(c echo.Context) error {
	res, err := s.session.Resolution()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProvincesResponse{
		Provinces:  res.ProvinceMap,
		Conflicts:  nonNil(res.Conflicts),
		Unassigned: nonNil(res.Unassigned),
		Unmatched:  nonNil(res.Unmatched),
	})
}

// RebuildResponse lists the provinces written by a rebuild.
type RebuildResponse struct {
	Provinces []ProvinceSummary `json:"provinces"`
}

type ProvinceSummary struct {
	Province string   `json:"province"`
	Communes []string `json:"communes"`
}

// RebuildProvinces dissolves the province boundaries again and overwrites
// the cache file.
func (s *Server) RebuildProvinces(c echo.Context) error {
	provinces, err := s.session.RebuildProvinces()
	if err != nil {
		return err
	}

	resp := RebuildResponse{Provinces: make([]ProvinceSummary, 0, len(provinces))}
	for _, p := range provinces {
		resp.Provinces = append(resp.Provinces, ProvinceSummary{Province: p.Province, Communes: p.Communes})
	}
	s.logger.Info("[server] Rebuilt %d province boundaries", len(provinces))
	return c.JSON(http.StatusOK, resp)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
