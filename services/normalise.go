package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormaliseCity canonicalises a municipality name so that names coming from
// the listings table and the boundary file compare equal: canonical Unicode
// composition, lower case, surrounding whitespace removed. Accents are kept,
// so "Liège" and "Liege" remain different keys.
func NormaliseCity(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFC.String(s)))
}

// NormaliseCommune applies the city rule to a boundary's commune name.
func NormaliseCommune(s string) string {
	return NormaliseCity(s)
}

// NormaliseProvince only trims; province names keep their casing.
func NormaliseProvince(s string) string {
	return strings.TrimSpace(s)
}
