package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/twpayne/go-geom"

	"immo-map/geo"
	"immo-map/metrics"
	"immo-map/models"
	"immo-map/utils"
)

// ConflictPolicy decides what happens when the listings place one city in
// several provinces.
type ConflictPolicy string

const (
	// ConflictError rejects the province map with ErrProvinceConflict.
	ConflictError ConflictPolicy = "error"
	// ConflictLastWins keeps the lexicographically last province.
	ConflictLastWins ConflictPolicy = "last-wins"
)

// ParseConflictPolicy validates a policy name from config.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case ConflictError, ConflictLastWins:
		return ConflictPolicy(s), nil
	}
	return "", fmt.Errorf("%w: province conflict policy %q", models.ErrInvalidOption, s)
}

// BuildProvinceMap groups the unique (province, city) pairs of the listings
// by province. Rows with an empty province or city are ignored. Cities that
// appear under more than one province are returned as conflicts.
func BuildProvinceMap(listings []models.Listing) (models.ProvinceMap, []models.ProvinceConflict) {
	pairs := make(map[string]map[string]struct{})
	cityProvinces := make(map[string]map[string]struct{})

	for _, l := range listings {
		if l.Province == "" || l.City == "" {
			continue
		}
		if pairs[l.Province] == nil {
			pairs[l.Province] = make(map[string]struct{})
		}
		pairs[l.Province][l.City] = struct{}{}

		if cityProvinces[l.City] == nil {
			cityProvinces[l.City] = make(map[string]struct{})
		}
		cityProvinces[l.City][l.Province] = struct{}{}
	}

	pm := make(models.ProvinceMap, len(pairs))
	for province, cities := range pairs {
		pm[province] = sortedKeys(cities)
	}

	var conflicts []models.ProvinceConflict
	for city, provinces := range cityProvinces {
		if len(provinces) > 1 {
			conflicts = append(conflicts, models.ProvinceConflict{City: city, Provinces: sortedKeys(provinces)})
		}
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].City < conflicts[j].City })

	return pm, conflicts
}

// AssignProvinces returns a copy of municipalities tagged with their
// province. Names missing from the province map are tagged Unassigned.
func AssignProvinces(municipalities []models.MunicipalityBoundary, pm models.ProvinceMap) []models.MunicipalityBoundary {
	lookup := pm.Lookup()
	tagged := make([]models.MunicipalityBoundary, len(municipalities))
	for i, m := range municipalities {
		tagged[i] = m
		if p, ok := lookup[m.Name]; ok {
			tagged[i].Province = p
		} else {
			tagged[i].Province = models.Unassigned
		}
	}
	return tagged
}

// Unassigned returns the sorted names of tagged municipalities that have no
// province.
func Unassigned(tagged []models.MunicipalityBoundary) []string {
	var names []string
	for _, m := range tagged {
		if !m.IsAssigned() {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Unmatched returns the cities of the province map that have no municipality
// boundary; they cannot be drawn at municipality or province level.
func Unmatched(pm models.ProvinceMap, municipalities []models.MunicipalityBoundary) []string {
	known := make(map[string]struct{}, len(municipalities))
	for _, m := range municipalities {
		known[m.Name] = struct{}{}
	}
	var missing []string
	for _, city := range pm.Cities() {
		if _, ok := known[city]; !ok {
			missing = append(missing, city)
		}
	}
	return missing
}

// Dissolve merges the geometries of tagged municipalities into one boundary
// per province, sorted by province name. Unassigned municipalities are left
// out.
func Dissolve(tagged []models.MunicipalityBoundary, merger geo.Merger) ([]models.ProvinceBoundary, error) {
	if len(tagged) == 0 {
		return nil, fmt.Errorf("provinces: dissolve: %w", models.ErrEmptyGroup)
	}

	members := make(map[string][]models.MunicipalityBoundary)
	for _, m := range tagged {
		if !m.IsAssigned() {
			continue
		}
		members[m.Province] = append(members[m.Province], m)
	}

	provinces := make([]string, 0, len(members))
	for p := range members {
		provinces = append(provinces, p)
	}
	sort.Strings(provinces)

	out := make([]models.ProvinceBoundary, 0, len(provinces))
	for _, p := range provinces {
		group := members[p]
		geoms := make([]geom.T, 0, len(group))
		communes := make([]string, 0, len(group))
		for _, m := range group {
			geoms = append(geoms, m.Geometry)
			communes = append(communes, m.Name)
		}
		sort.Strings(communes)

		merged, err := merger.Merge(geoms)
		if err != nil {
			return nil, fmt.Errorf("provinces: dissolve %q: %w", p, err)
		}
		out = append(out, models.ProvinceBoundary{Province: p, Communes: communes, Geometry: merged})
	}
	return out, nil
}

// Resolution is the full result of resolving provinces for a dataset.
type Resolution struct {
	ProvinceMap models.ProvinceMap
	Conflicts   []models.ProvinceConflict
	Tagged      []models.MunicipalityBoundary
	Provinces   []models.ProvinceBoundary
	Unassigned  []string
	Unmatched   []string
}

// Resolver runs the province pipeline with a conflict policy and a merge
// collaborator.
type Resolver struct {
	policy ConflictPolicy
	merger geo.Merger
	logger *utils.Logger
}

func NewResolver(policy ConflictPolicy, merger geo.Merger, logger *utils.Logger) *Resolver {
	if merger == nil {
		merger = geo.CollectMerger{}
	}
	return &Resolver{policy: policy, merger: merger, logger: logger}
}

// ProvinceMap builds the province map and applies the conflict policy.
func (r *Resolver) ProvinceMap(listings []models.Listing) (models.ProvinceMap, []models.ProvinceConflict, error) {
	pm, conflicts := BuildProvinceMap(listings)
	if len(conflicts) == 0 {
		return pm, nil, nil
	}

	metrics.ProvinceConflicts.Add(float64(len(conflicts)))
	if r.policy != ConflictLastWins {
		return nil, conflicts, fmt.Errorf("provinces: %w: %s", models.ErrProvinceConflict, describeConflicts(conflicts))
	}
	for _, c := range conflicts {
		r.logger.Warn("[provinces] %q listed under %s, keeping %q",
			c.City, strings.Join(c.Provinces, ", "), c.Provinces[len(c.Provinces)-1])
	}
	return pm, conflicts, nil
}

// Build runs map construction, assignment and dissolve in one pass.
func (r *Resolver) Build(listings []models.Listing, municipalities []models.MunicipalityBoundary) (*Resolution, error) {
	pm, conflicts, err := r.ProvinceMap(listings)
	if err != nil {
		return nil, err
	}

	tagged := AssignProvinces(municipalities, pm)
	res := &Resolution{
		ProvinceMap: pm,
		Conflicts:   conflicts,
		Tagged:      tagged,
		Unassigned:  Unassigned(tagged),
		Unmatched:   Unmatched(pm, municipalities),
	}

	metrics.UnassignedMunicipalities.Set(float64(len(res.Unassigned)))
	if len(res.Unassigned) > 0 {
		r.logger.Warn("[provinces] %d of %d municipalities have no province", len(res.Unassigned), len(tagged))
	}
	if len(res.Unmatched) > 0 {
		r.logger.Warn("[provinces] %d listed cities have no municipality boundary", len(res.Unmatched))
	}

	res.Provinces, err = Dissolve(tagged, r.merger)
	if err != nil {
		return nil, err
	}

	r.logger.Info("[provinces] Dissolved %d municipalities into %d provinces",
		len(tagged)-len(res.Unassigned), len(res.Provinces))
	return res, nil
}

func describeConflicts(conflicts []models.ProvinceConflict) string {
	const limit = 5
	parts := make([]string, 0, limit)
	for i, c := range conflicts {
		if i == limit {
			parts = append(parts, fmt.Sprintf("and %d more", len(conflicts)-limit))
			break
		}
		parts = append(parts, fmt.Sprintf("%s in [%s]", c.City, strings.Join(c.Provinces, ", ")))
	}
	return strings.Join(parts, "; ")
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
