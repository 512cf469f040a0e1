package render

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"immo-map/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Granularity is the administrative level a map is drawn at.
type Granularity string

const (
	Municipality Granularity = "municipality"
	Province     Granularity = "province"
)

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Municipality, Province:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("%w: granularity %q", models.ErrInvalidOption, s)
}

// GroupKey is the listing column aggregated for this granularity.
func (g Granularity) GroupKey() models.GroupKey {
	if g == Province {
		return models.GroupByProvince
	}
	return models.GroupByCity
}

// Options controls how an aggregate is turned into a map. It carries no
// data; the same pipeline output can be drawn with any Options.
type Options struct {
	Metric      models.Metric `yaml:"metric" validate:"oneof=average_price count"`
	Granularity Granularity   `yaml:"granularity" validate:"oneof=municipality province"`
	ColorScale  ColorScale    `yaml:"color_scale" validate:"required"`

	// RangeMin and RangeMax clamp the colour scale. A zero RangeMax means
	// the range is taken from the data.
	RangeMin float64 `yaml:"range_min"`
	RangeMax float64 `yaml:"range_max" validate:"gte=0"`

	CenterLat float64 `yaml:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon float64 `yaml:"center_lon" validate:"gte=-180,lte=180"`
	Zoom      int     `yaml:"zoom" validate:"gte=1,lte=18"`
	Opacity   float64 `yaml:"opacity" validate:"gte=0,lte=1"`
}

// DefaultOptions draws average prices per municipality over Belgium.
func DefaultOptions() Options {
	return Options{
		Metric:      models.MetricAveragePrice,
		Granularity: Municipality,
		ColorScale:  RdYlBu,
		RangeMin:    0,
		RangeMax:    2500000,
		CenterLat:   50.8503,
		CenterLon:   4.3517,
		Zoom:        8,
		Opacity:     0.5,
	}
}

// Validate checks field ranges and that the colour scale is known.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidOption, err)
	}
	if _, err := ParseColorScale(string(o.ColorScale)); err != nil {
		return err
	}
	if o.RangeMax != 0 && o.RangeMax <= o.RangeMin {
		return fmt.Errorf("%w: range_max %v must exceed range_min %v", models.ErrInvalidOption, o.RangeMax, o.RangeMin)
	}
	return nil
}

// Preset is a named set of Options offered in the dashboard sidebar.
type Preset struct {
	Name    string  `yaml:"name" validate:"required"`
	Title   string  `yaml:"title" validate:"required"`
	Options Options `yaml:",inline"`
}

// DefaultPresets derives the standard views from base.
func DefaultPresets(base Options) []Preset {
	priceMun := base
	priceMun.Metric, priceMun.Granularity = models.MetricAveragePrice, Municipality

	countMun := base
	countMun.Metric, countMun.Granularity, countMun.RangeMin, countMun.RangeMax = models.MetricCount, Municipality, 0, 0

	priceProv := priceMun
	priceProv.Granularity = Province

	countProv := countMun
	countProv.Granularity = Province

	return []Preset{
		{Name: "price-municipality", Title: "Average Price per Municipality", Options: priceMun},
		{Name: "count-municipality", Title: "Count of Houses per Municipality", Options: countMun},
		{Name: "price-province", Title: "Average Price per Province", Options: priceProv},
		{Name: "count-province", Title: "Count of Houses per Province", Options: countProv},
	}
}

// LoadPresets reads presets from a YAML file. Fields a preset leaves out
// fall back to base.
func LoadPresets(path string, base Options) ([]Preset, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("presets: %q: %w", path, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("presets: read %q: %w", path, err)
	}

	var raw struct {
		Presets []yaml.Node `yaml:"presets"`
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("presets: %q: %w: %v", path, models.ErrParse, err)
	}

	presets := make([]Preset, 0, len(raw.Presets))
	seen := make(map[string]struct{})
	for i := range raw.Presets {
		p := Preset{Options: base}
		if err := raw.Presets[i].Decode(&p); err != nil {
			return nil, fmt.Errorf("presets: %q: preset %d: %w: %v", path, i, models.ErrParse, err)
		}
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("presets: %q: preset %d: %w: %v", path, i, models.ErrInvalidOption, err)
		}
		if err := p.Options.Validate(); err != nil {
			return nil, fmt.Errorf("presets: %q: preset %q: %w", path, p.Name, err)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("presets: %q: duplicate preset %q: %w", path, p.Name, models.ErrInvalidOption)
		}
		seen[p.Name] = struct{}{}
		presets = append(presets, p)
	}
	if len(presets) == 0 {
		return nil, fmt.Errorf("presets: %q defines no presets: %w", path, models.ErrParse)
	}
	return presets, nil
}

// FindPreset returns the preset with the given name.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
