package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"immo-map/metrics"
	"immo-map/models"
	"immo-map/utils"
)

// PostgresReader reads listings from a PostgreSQL table with city, province
// and price columns. It never writes.
type PostgresReader struct {
	db *sql.DB
}

// NewPostgresReader opens a connection and waits for the server to answer,
// retrying the ping with back-off.
func NewPostgresReader(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresReader, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	err = retry.Do(ctx, "postgres-ping", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &PostgresReader{db: db}, nil
}

// FetchListings reads every row of the listings table. Prices are read as
// text so malformed values are marked missing exactly like in CSV files.
func (pr *PostgresReader) FetchListings(ctx context.Context) ([]models.Listing, error) {
	rows, err := pr.db.QueryContext(ctx, `
		SELECT COALESCE(city, ''), COALESCE(province, ''), COALESCE(price::text, '')
		FROM listings
		ORDER BY 1, 2
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	missing := 0
	for rows.Next() {
		var city, province, price string
		if err := rows.Scan(&city, &province, &price); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w: %v", models.ErrParse, err)
		}
		l := newListing(city, province, price)
		if !l.HasPrice() {
			missing++
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate rows: %w", err)
	}

	metrics.ListingsLoaded.WithLabelValues("postgres").Add(float64(len(listings)))
	metrics.MissingPrices.WithLabelValues("postgres").Add(float64(missing))
	return listings, nil
}

func (pr *PostgresReader) Close() error {
	return pr.db.Close()
}
