// Package metrics exposes Prometheus collectors for the data pipeline and
// the dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ListingsLoaded counts listings read per source.
	ListingsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "immo_map",
			Subsystem: "loader",
			Name:      "listings_total",
			Help:      "Total number of listings loaded by source",
		},
		[]string{"source"},
	)

	// MissingPrices counts listings whose price was blank or malformed.
	MissingPrices = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "immo_map",
			Subsystem: "loader",
			Name:      "missing_prices_total",
			Help:      "Total number of listings loaded without a usable price",
		},
		[]string{"source"},
	)

	// BoundariesLoaded counts boundary features read per level.
	BoundariesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "immo_map",
			Subsystem: "loader",
			Name:      "boundaries_total",
			Help:      "Total number of boundary features loaded by level",
		},
		[]string{"level"},
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "immo_map",
			Subsystem: "aggregate",
			Name:      "duration_seconds",
			Help:      "Duration of aggregate computations in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"group", "metric"},
	)

	// UnassignedMunicipalities is the number of communes left without a
	// province by the last resolution.
	UnassignedMunicipalities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "immo_map",
			Subsystem: "provinces",
			Name:      "unassigned_municipalities",
			Help:      "Municipality boundaries without a resolvable province",
		},
	)

	ProvinceConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "immo_map",
			Subsystem: "provinces",
			Name:      "conflicts_total",
			Help:      "Total number of cities found under more than one province",
		},
	)

	ProvinceWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "immo_map",
			Subsystem: "provinces",
			Name:      "writes_total",
			Help:      "Province boundary file writes by status",
		},
		[]string{"status"},
	)

	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "immo_map",
			Subsystem: "render",
			Name:      "maps_total",
			Help:      "Total number of rendered maps by format",
		},
		[]string{"format"},
	)
)
