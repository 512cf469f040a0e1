package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"immo-map/metrics"
)

//go:embed templates/map.html
var mapTemplateSource string

var mapTemplate = template.Must(template.New("map").Parse(mapTemplateSource))

// Page is everything needed to draw one dashboard page.
type Page struct {
	Title   string
	Map     *Map
	Presets []Preset
	Active  string

	// Static drops the sidebar and zoom controls and fits the view to the
	// boundaries. Used for snapshots.
	Static bool
}

type pageConfig struct {
	CenterLat     float64      `json:"centerLat"`
	CenterLon     float64      `json:"centerLon"`
	Zoom          int          `json:"zoom"`
	Opacity       float64      `json:"opacity"`
	FeatureKey    string       `json:"featureKey"`
	FillProperty  string       `json:"fillProperty"`
	ValueProperty string       `json:"valueProperty"`
	MetricLabel   string       `json:"metricLabel"`
	Stops         []string     `json:"stops"`
	RangeMin      float64      `json:"rangeMin"`
	RangeMax      float64      `json:"rangeMax"`
	Bounds        [][2]float64 `json:"bounds,omitempty"`
	Labels        []Label      `json:"labels,omitempty"`
	Static        bool         `json:"static"`
}

type pageView struct {
	Page
	Data   template.JS
	Config pageConfig
}

// RenderHTML writes page as a self-contained Leaflet document.
func RenderHTML(w io.Writer, page Page) error {
	if page.Map == nil {
		return fmt.Errorf("render: page has no map")
	}
	data, err := page.Map.GeoJSON()
	if err != nil {
		return err
	}

	opts := page.Map.Options
	cfg := pageConfig{
		CenterLat:     opts.CenterLat,
		CenterLon:     opts.CenterLon,
		Zoom:          opts.Zoom,
		Opacity:       opts.Opacity,
		FeatureKey:    page.Map.FeatureKey,
		FillProperty:  FillProperty,
		ValueProperty: ValueProperty,
		MetricLabel:   opts.Metric.Label(),
		Stops:         opts.ColorScale.Stops(),
		RangeMin:      page.Map.RangeMin,
		RangeMax:      page.Map.RangeMax,
		Labels:        page.Map.Labels,
		Static:        page.Static,
	}
	if b := page.Map.Bounds; b != nil && !b.IsEmpty() {
		cfg.Bounds = [][2]float64{{b.Min(1), b.Min(0)}, {b.Max(1), b.Max(0)}}
	}
	if page.Title == "" {
		page.Title = opts.Metric.Label()
	}

	// json.Marshal escapes <, > and &, so the encoded features are safe
	// inside the script element.
	view := pageView{Page: page, Data: template.JS(data), Config: cfg}
	if err := mapTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render: execute template: %w", err)
	}
	metrics.RendersTotal.WithLabelValues("html").Inc()
	return nil
}
