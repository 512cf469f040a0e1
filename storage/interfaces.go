package storage

import (
	"context"

	"immo-map/models"
)

// ListingSource is anything that can supply the listings table.
type ListingSource interface {
	FetchListings(ctx context.Context) ([]models.Listing, error)
	Close() error
}

// CSVSource adapts a listings CSV file to ListingSource.
type CSVSource struct {
	Path string
}

func (s CSVSource) FetchListings(_ context.Context) ([]models.Listing, error) {
	return LoadListings(s.Path)
}

func (CSVSource) Close() error { return nil }
