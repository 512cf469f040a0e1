package models

import "github.com/shopspring/decimal"

// RawListing holds one untouched row of a raw listings export.
// Column names are kept exactly as they appear in the file header.
type RawListing struct {
	Header []string
	Fields map[string]string
}

// Get returns the value of the named column, or "" when absent.
func (r *RawListing) Get(column string) string {
	return r.Fields[column]
}

// Listing is a loaded real-estate record ready for aggregation.
// City is the normalised join key. An invalid Price means the raw value
// was blank or malformed; it is excluded from price aggregates but the
// row still counts.
type Listing struct {
	City     string
	Province string
	Price    decimal.NullDecimal
}

// HasPrice reports whether the listing carries a usable price.
func (l Listing) HasPrice() bool {
	return l.Price.Valid
}
