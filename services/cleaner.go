package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"immo-map/models"
	"immo-map/utils"
)

// droppedColumns are removed from the cleaned export; they carry sale
// metadata the analysis never uses.
var droppedColumns = map[string]struct{}{
	"type_sale":    {},
	"sale_type":    {},
	"has_balcony":  {},
	"life_annuity": {},
}

// ParsePrice converts a raw price cell into a decimal. Blank and malformed
// values yield an invalid NullDecimal rather than zero.
func ParsePrice(raw string) decimal.NullDecimal {
	return parseNumber(raw)
}

func parseNumber(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// CleanResult is the outcome of cleaning a raw export.
type CleanResult struct {
	Header []string
	Rows   []map[string]string

	DroppedMissingPrice int
	DroppedLifeAnnuity  int
}

// Cleaner turns a raw listings export into the cleaned table the dashboard
// loads: trimmed column names, numeric prices only, no life-annuity sales.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean processes raw rows and returns the cleaned table. Raw rows are not
// modified.
func (c *Cleaner) Clean(raw []*models.RawListing) *CleanResult {
	res := &CleanResult{Rows: make([]map[string]string, 0, len(raw))}
	if len(raw) == 0 {
		return res
	}

	res.Header = cleanHeader(raw[0].Header)

	for _, r := range raw {
		row := make(map[string]string, len(res.Header))
		for col, val := range r.Fields {
			name := strings.TrimSpace(col)
			if _, drop := droppedColumns[name]; drop {
				continue
			}
			row[name] = val
		}

		price := ParsePrice(r.Get(findColumn(r.Header, "price")))
		if !price.Valid {
			res.DroppedMissingPrice++
			continue
		}
		if isLifeAnnuity(r.Get(findColumn(r.Header, "life_annuity"))) {
			res.DroppedLifeAnnuity++
			continue
		}

		row["price"] = price.Decimal.String()
		res.Rows = append(res.Rows, row)
	}

	c.logger.Info("[cleaner] Cleaned %d -> %d listings (missing price: %d, life annuity: %d)",
		len(raw), len(res.Rows), res.DroppedMissingPrice, res.DroppedLifeAnnuity)
	return res
}

// cleanHeader trims column names and removes the dropped columns while
// keeping the original order.
func cleanHeader(header []string) []string {
	out := make([]string, 0, len(header))
	for _, h := range header {
		name := strings.TrimSpace(h)
		if _, drop := droppedColumns[name]; drop {
			continue
		}
		out = append(out, name)
	}
	return out
}

// findColumn returns the raw header entry whose trimmed name is want, so
// values can be read from rows whose header still carries stray spaces.
func findColumn(header []string, want string) string {
	for _, h := range header {
		if strings.TrimSpace(h) == want {
			return h
		}
	}
	return want
}

// isLifeAnnuity accepts both numeric (1, 1.0) and boolean spellings.
func isLifeAnnuity(raw string) bool {
	if strings.EqualFold(strings.TrimSpace(raw), "true") {
		return true
	}
	v := parseNumber(raw)
	return v.Valid && v.Decimal.Equal(decimal.NewFromInt(1))
}
