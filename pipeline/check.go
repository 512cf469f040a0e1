package pipeline

import (
	"errors"
	"sort"

	"immo-map/models"
	"immo-map/services"
)

// CheckReport lists the places where listings and boundaries disagree.
type CheckReport struct {
	ListingProvinces  []string
	BoundaryProvinces []string

	// MissingProvinces are named by listings but have no boundary;
	// ExtraProvinces have a boundary but no listing.
	MissingProvinces []string
	ExtraProvinces   []string

	Conflicts  []models.ProvinceConflict
	Unmatched  []string
	Unassigned []string
}

// OK reports whether every listing can be drawn and every boundary has a
// province.
func (r *CheckReport) OK() bool {
	return len(r.MissingProvinces) == 0 && len(r.Conflicts) == 0 &&
		len(r.Unmatched) == 0 && len(r.Unassigned) == 0
}

// Check compares the listings against the municipality and province
// boundaries. Conflicting cities are reported rather than returned as an
// error so the rest of the report is still produced.
func (s *Session) Check() (*CheckReport, error) {
	pm, conflicts := services.BuildProvinceMap(s.listings)
	tagged := services.AssignProvinces(s.municipalities, pm)

	r := &CheckReport{
		ListingProvinces: pm.Provinces(),
		Conflicts:        conflicts,
		Unmatched:        services.Unmatched(pm, s.municipalities),
		Unassigned:       services.Unassigned(tagged),
	}

	boundaries, err := s.ProvinceBoundaries()
	switch {
	case err == nil:
	case errors.Is(err, models.ErrProvinceConflict), errors.Is(err, models.ErrEmptyGroup):
		s.logger.Warn("[check] Province boundaries unavailable: %v", err)
	default:
		return nil, err
	}

	have := make(map[string]struct{}, len(boundaries))
	for _, b := range boundaries {
		r.BoundaryProvinces = append(r.BoundaryProvinces, b.Province)
		have[b.Province] = struct{}{}
	}
	sort.Strings(r.BoundaryProvinces)

	listed := make(map[string]struct{}, len(pm))
	for _, p := range r.ListingProvinces {
		listed[p] = struct{}{}
		if _, ok := have[p]; !ok {
			r.MissingProvinces = append(r.MissingProvinces, p)
		}
	}
	for _, p := range r.BoundaryProvinces {
		if _, ok := listed[p]; !ok {
			r.ExtraProvinces = append(r.ExtraProvinces, p)
		}
	}
	return r, nil
}
