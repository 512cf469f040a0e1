package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"immo-map/metrics"
	"immo-map/models"
	"immo-map/utils"
)

// Aggregator computes grouped statistics over a listings table.
type Aggregator struct {
	logger *utils.Logger
}

func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

type group struct {
	rows   int
	priced int
	sum    decimal.Decimal
}

// Aggregate groups listings by key and computes metric per group. Rows are
// returned sorted by key. Listings with an empty key are skipped. For
// average_price, groups without a single valid price are left out.
func (a *Aggregator) Aggregate(listings []models.Listing, key models.GroupKey, metric models.Metric) ([]models.AggregateRow, error) {
	start := time.Now()

	keyOf, err := keyFunc(key)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	if _, err := models.ParseMetric(string(metric)); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	groups := make(map[string]*group)
	for _, l := range listings {
		k := keyOf(l)
		if k == "" {
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
		}
		g.rows++
		if l.HasPrice() {
			g.priced++
			g.sum = g.sum.Add(l.Price.Decimal)
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]models.AggregateRow, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		switch metric {
		case models.MetricCount:
			rows = append(rows, models.AggregateRow{Key: k, Value: float64(g.rows)})
		case models.MetricAveragePrice:
			if g.priced == 0 {
				continue
			}
			mean := g.sum.Div(decimal.NewFromInt(int64(g.priced)))
			rows = append(rows, models.AggregateRow{Key: k, Value: mean.InexactFloat64()})
		}
	}

	metrics.AggregationDuration.WithLabelValues(string(key), string(metric)).Observe(time.Since(start).Seconds())
	a.logger.Debug("[aggregate] %s by %s: %d listings -> %d rows", metric, key, len(listings), len(rows))
	return rows, nil
}

func keyFunc(key models.GroupKey) (func(models.Listing) string, error) {
	switch key {
	case models.GroupByCity:
		return func(l models.Listing) string { return l.City }, nil
	case models.GroupByProvince:
		return func(l models.Listing) string { return l.Province }, nil
	}
	return nil, fmt.Errorf("%w: group key %q", models.ErrInvalidOption, key)
}
