package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immo-map/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadListingsNormalisesAndParses(t *testing.T) {
	path := writeFile(t, "houses.csv", "\xEF\xBB\xBFcity, province ,price,bedrooms\n"+
		"Brussels,Brussels,300000,2\n"+
		"brussels , Brussels ,100000,3\n"+
		"Gent,East Flanders, ,1\n"+
		"Gent,East Flanders,on request\n")

	listings, err := LoadListings(path)
	require.NoError(t, err)
	require.Len(t, listings, 4)

	assert.Equal(t, "brussels", listings[0].City)
	assert.Equal(t, "brussels", listings[1].City)
	assert.Equal(t, "Brussels", listings[1].Province)
	assert.True(t, listings[0].HasPrice())
	assert.Equal(t, "100000", listings[1].Price.Decimal.String())
	assert.False(t, listings[2].HasPrice())
	assert.False(t, listings[3].HasPrice())
}

func TestLoadListingsNotFound(t *testing.T) {
	listings, err := LoadListings(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)
	assert.Nil(t, listings)
}

func TestLoadListingsParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty file":     "",
		"missing column": "city,price\nGent,1\n",
		"bad quoting":    "city,province,price\n\"Gent,East Flanders,1\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			listings, err := LoadListings(writeFile(t, "bad.csv", content))
			assert.True(t, errors.Is(err, models.ErrParse), "got %v", err)
			assert.Nil(t, listings)
		})
	}
}

func TestCSVSource(t *testing.T) {
	path := writeFile(t, "houses.csv", "city,province,price\nNamur,Namur,150000\n")

	var src ListingSource = CSVSource{Path: path}
	listings, err := src.FetchListings(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.NoError(t, src.Close())
}

func TestLoadRawListingsKeepsColumns(t *testing.T) {
	path := writeFile(t, "raw.csv", " city ,price,life_annuity\nGent,1,0\nAalst\n")

	raw, err := LoadRawListings(path)
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, []string{" city ", "price", "life_annuity"}, raw[0].Header)
	assert.Equal(t, "Gent", raw[0].Get(" city "))
	assert.Equal(t, "", raw[1].Get("price"))
}

func TestCSVWriterWritesRowsInHeaderOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "clean.csv")

	w, err := NewCSVWriter(path, []string{"city", "province", "price"})
	require.NoError(t, err)
	require.NoError(t, w.WriteRows([]map[string]string{
		{"price": "1", "city": "Gent", "province": "East Flanders"},
		{"city": "Aalst"},
	}))
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "city,province,price\nGent,East Flanders,1\nAalst,,\n", string(b))
}
