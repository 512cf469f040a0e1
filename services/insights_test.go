package services

import (
	"bytes"
	"strings"
	"testing"

	"immo-map/models"
)

func sampleListings() []models.Listing {
	return []models.Listing{
		listing("Antwerpen", "Antwerp", "400000"),
		listing("Antwerpen", "Antwerp", "200000"),
		listing("Mechelen", "Antwerp", "250000"),
		listing("Ixelles", "Brussels", "650000"),
		listing("Mons", "Hainaut", ""),
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.TotalListings != 5 {
		t.Errorf("TotalListings: got %d, want 5", r.TotalListings)
	}
	if r.PricedListings != 4 {
		t.Errorf("PricedListings: got %d, want 4", r.PricedListings)
	}
	if r.MissingPrices != 1 {
		t.Errorf("MissingPrices: got %d, want 1", r.MissingPrices)
	}
	if r.Cities != 4 || r.Provinces != 3 {
		t.Errorf("Cities/Provinces: got %d/%d, want 4/3", r.Cities, r.Provinces)
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.AveragePrice != 375000 {
		t.Errorf("AveragePrice: got %.2f, want 375000", r.AveragePrice)
	}
	if r.MinPrice != 200000 {
		t.Errorf("MinPrice: got %.2f, want 200000", r.MinPrice)
	}
	if r.MaxPrice != 650000 {
		t.Errorf("MaxPrice: got %.2f, want 650000", r.MaxPrice)
	}
}

func TestInsightMostExpensiveCity(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.MostExpensiveCity == nil {
		t.Fatal("MostExpensiveCity should not be nil")
	}
	if r.MostExpensiveCity.Key != "ixelles" {
		t.Errorf("MostExpensiveCity: got %q, want %q", r.MostExpensiveCity.Key, "ixelles")
	}
}

func TestInsightProvinceGrouping(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.ListingsByProvince["Antwerp"] != 3 {
		t.Errorf("Antwerp count: got %d, want 3", r.ListingsByProvince["Antwerp"])
	}
	if r.ListingsByProvince["Hainaut"] != 1 {
		t.Errorf("Hainaut count: got %d, want 1", r.ListingsByProvince["Hainaut"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalListings != 0 {
		t.Errorf("expected 0 total listings for empty input")
	}
	if r.MostExpensiveCity != nil {
		t.Errorf("expected no most expensive city for empty input")
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleListings()))

	out := buf.String()
	for _, want := range []string{"Total listings", "Antwerp", "ixelles"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
