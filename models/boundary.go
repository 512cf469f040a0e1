package models

import (
	"sort"

	"github.com/twpayne/go-geom"
)

// Unassigned tags a municipality whose name has no province in the
// province map.
const Unassigned = "unassigned"

// MunicipalityBoundary is one commune polygon keyed by its normalised name.
// Province stays empty until the boundary is tagged by the province resolver.
type MunicipalityBoundary struct {
	Name     string
	Province string
	Geometry geom.T
}

// IsAssigned reports whether the boundary was tagged with a real province.
func (m MunicipalityBoundary) IsAssigned() bool {
	return m.Province != "" && m.Province != Unassigned
}

// ProvinceBoundary is the dissolved outline of a province together with the
// communes that contributed to it.
type ProvinceBoundary struct {
	Province string
	Communes []string
	Geometry geom.T
}

// ProvinceMap maps a province name to the sorted, unique list of
// municipality names belonging to it.
type ProvinceMap map[string][]string

// Provinces returns the province names in ascending order.
func (m ProvinceMap) Provinces() []string {
	names := make([]string, 0, len(m))
	for p := range m {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the city -> province reverse index. Provinces are visited in
// ascending order, so a city listed under several provinces resolves to the
// last one.
func (m ProvinceMap) Lookup() map[string]string {
	reverse := make(map[string]string)
	for _, p := range m.Provinces() {
		for _, city := range m[p] {
			reverse[city] = p
		}
	}
	return reverse
}

// Cities returns every municipality name in the map, sorted and unique.
func (m ProvinceMap) Cities() []string {
	seen := make(map[string]struct{})
	for _, cities := range m {
		for _, c := range cities {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ProvinceConflict records a city that the listings place in more than one
// province.
type ProvinceConflict struct {
	City      string
	Provinces []string
}
