package models

import "fmt"

// GroupKey selects the listing column aggregates are grouped by.
type GroupKey string

const (
	GroupByCity     GroupKey = "city"
	GroupByProvince GroupKey = "province"
)

// ParseGroupKey validates a group key coming from config or a request.
func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(s) {
	case GroupByCity, GroupByProvince:
		return GroupKey(s), nil
	}
	return "", fmt.Errorf("%w: group key %q", ErrInvalidOption, s)
}

// Metric selects the statistic computed per group.
type Metric string

const (
	MetricAveragePrice Metric = "average_price"
	MetricCount        Metric = "count"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricAveragePrice, MetricCount:
		return Metric(s), nil
	}
	return "", fmt.Errorf("%w: metric %q", ErrInvalidOption, s)
}

// Label is the human readable legend title of a metric.
func (m Metric) Label() string {
	switch m {
	case MetricAveragePrice:
		return "Average price"
	case MetricCount:
		return "Number of listings"
	}
	return string(m)
}

// AggregateRow is one (key, value) pair of an aggregate table.
type AggregateRow struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// SummaryReport holds the overview printed by the summary command.
type SummaryReport struct {
	TotalListings      int
	PricedListings     int
	MissingPrices      int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	Cities             int
	Provinces          int
	ListingsByProvince map[string]int
	MostExpensiveCity  *AggregateRow
}
