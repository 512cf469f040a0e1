package render

import (
	"fmt"
	"image/color"
	"math"

	"immo-map/models"
)

// ColorScale names a continuous colour scale.
type ColorScale string

const (
	RdYlBu  ColorScale = "RdYlBu"
	Viridis ColorScale = "Viridis"
	Blues   ColorScale = "Blues"
	YlOrRd  ColorScale = "YlOrRd"
)

// scaleStops are evenly spaced colour stops from low to high values.
var scaleStops = map[ColorScale][]color.RGBA{
	RdYlBu: {
		{0xa5, 0x00, 0x26, 0xff}, {0xd7, 0x30, 0x27, 0xff}, {0xf4, 0x6d, 0x43, 0xff},
		{0xfd, 0xae, 0x61, 0xff}, {0xfe, 0xe0, 0x90, 0xff}, {0xff, 0xff, 0xbf, 0xff},
		{0xe0, 0xf3, 0xf8, 0xff}, {0xab, 0xd9, 0xe9, 0xff}, {0x74, 0xad, 0xd1, 0xff},
		{0x45, 0x75, 0xb4, 0xff}, {0x31, 0x36, 0x95, 0xff},
	},
	Viridis: {
		{0x44, 0x01, 0x54, 0xff}, {0x48, 0x28, 0x78, 0xff}, {0x3e, 0x4a, 0x89, 0xff},
		{0x31, 0x68, 0x8e, 0xff}, {0x26, 0x82, 0x8e, 0xff}, {0x1f, 0x9e, 0x89, 0xff},
		{0x35, 0xb7, 0x79, 0xff}, {0x6e, 0xce, 0x58, 0xff}, {0xb5, 0xde, 0x2b, 0xff},
		{0xfd, 0xe7, 0x25, 0xff},
	},
	Blues: {
		{0xf7, 0xfb, 0xff, 0xff}, {0xde, 0xeb, 0xf7, 0xff}, {0xc6, 0xdb, 0xef, 0xff},
		{0x9e, 0xca, 0xe1, 0xff}, {0x6b, 0xae, 0xd6, 0xff}, {0x42, 0x92, 0xc6, 0xff},
		{0x21, 0x71, 0xb5, 0xff}, {0x08, 0x51, 0x9c, 0xff}, {0x08, 0x30, 0x6b, 0xff},
	},
	YlOrRd: {
		{0xff, 0xff, 0xcc, 0xff}, {0xff, 0xed, 0xa0, 0xff}, {0xfe, 0xd9, 0x76, 0xff},
		{0xfe, 0xb2, 0x4c, 0xff}, {0xfd, 0x8d, 0x3c, 0xff}, {0xfc, 0x4e, 0x2a, 0xff},
		{0xe3, 0x1a, 0x1c, 0xff}, {0xbd, 0x00, 0x26, 0xff}, {0x80, 0x00, 0x26, 0xff},
	},
}

// ColorScales lists the supported scales in display order.
func ColorScales() []ColorScale {
	return []ColorScale{RdYlBu, Viridis, Blues, YlOrRd}
}

// ParseColorScale validates a colour scale name.
func ParseColorScale(s string) (ColorScale, error) {
	if _, ok := scaleStops[ColorScale(s)]; ok {
		return ColorScale(s), nil
	}
	return "", fmt.Errorf("%w: colour scale %q", models.ErrInvalidOption, s)
}

// At returns the colour for v within [min, max] as a #rrggbb string. Values
// outside the range are clamped; a degenerate range maps to the low end.
func (c ColorScale) At(v, min, max float64) string {
	stops, ok := scaleStops[c]
	if !ok {
		stops = scaleStops[RdYlBu]
	}

	t := 0.0
	if max > min {
		t = (v - min) / (max - min)
	}
	t = math.Max(0, math.Min(1, t))

	pos := t * float64(len(stops)-1)
	i := int(math.Floor(pos))
	if i >= len(stops)-1 {
		return hex(stops[len(stops)-1])
	}
	frac := pos - float64(i)
	a, b := stops[i], stops[i+1]
	return hex(color.RGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 0xff,
	})
}

// Stops returns the scale's stop colours as #rrggbb strings, for legends.
func (c ColorScale) Stops() []string {
	stops := scaleStops[c]
	out := make([]string, len(stops))
	for i, s := range stops {
		out[i] = hex(s)
	}
	return out
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
