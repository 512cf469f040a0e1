package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"immo-map/metrics"
	"immo-map/models"
	"immo-map/services"
)

// requiredColumns must be present in a listings file header.
var requiredColumns = []string{"city", "province", "price"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readInput reads a whole input file, mapping a missing path to ErrNotFound.
func readInput(kind, path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %q: %w", kind, path, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read %q: %w", kind, path, err)
	}
	return b, nil
}

// readTable parses CSV bytes into a header and one map per row. Short rows
// are padded with empty values.
func readTable(path string, b []byte) ([]string, []map[string]string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("csv: %q has no header: %w", path, models.ErrParse)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("csv: %q: %w: %v", path, models.ErrParse, err)
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv: %q: %w: %v", path, models.ErrParse, err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// LoadRawListings reads a raw export without interpreting any column.
func LoadRawListings(path string) ([]*models.RawListing, error) {
	b, err := readInput("csv", path)
	if err != nil {
		return nil, err
	}
	header, rows, err := readTable(path, b)
	if err != nil {
		return nil, err
	}

	out := make([]*models.RawListing, 0, len(rows))
	for _, row := range rows {
		out = append(out, &models.RawListing{Header: header, Fields: row})
	}
	return out, nil
}

// LoadListings reads the listings table. City names are normalised, province
// names trimmed, and prices that are blank or malformed are marked missing.
func LoadListings(path string) ([]models.Listing, error) {
	b, err := readInput("csv", path)
	if err != nil {
		return nil, err
	}
	header, rows, err := readTable(path, b)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]string, len(header))
	for _, h := range header {
		columns[strings.TrimSpace(h)] = h
	}
	for _, want := range requiredColumns {
		if _, ok := columns[want]; !ok {
			return nil, fmt.Errorf("csv: %q: missing column %q: %w", path, want, models.ErrParse)
		}
	}

	listings := make([]models.Listing, 0, len(rows))
	missing := 0
	for _, row := range rows {
		l := newListing(row[columns["city"]], row[columns["province"]], row[columns["price"]])
		if !l.HasPrice() {
			missing++
		}
		listings = append(listings, l)
	}

	metrics.ListingsLoaded.WithLabelValues("csv").Add(float64(len(listings)))
	metrics.MissingPrices.WithLabelValues("csv").Add(float64(missing))
	return listings, nil
}

func newListing(city, province, price string) models.Listing {
	return models.Listing{
		City:     services.NormaliseCity(city),
		Province: services.NormaliseProvince(province),
		Price:    services.ParsePrice(price),
	}
}
