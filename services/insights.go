package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"immo-map/models"
	"immo-map/utils"
)

// InsightService summarises a listings table for the terminal.
type InsightService struct {
	logger     *utils.Logger
	aggregator *Aggregator
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, aggregator: NewAggregator(logger)}
}

// Generate computes the summary report. It never fails on empty input.
func (s *InsightService) Generate(listings []models.Listing) *models.SummaryReport {
	report := &models.SummaryReport{
		ListingsByProvince: make(map[string]int),
	}
	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var total, lowest, highest decimal.Decimal
	cities := make(map[string]struct{})
	for _, l := range listings {
		if l.City != "" {
			cities[l.City] = struct{}{}
		}
		if l.Province != "" {
			report.ListingsByProvince[l.Province]++
		}
		if !l.HasPrice() {
			report.MissingPrices++
			continue
		}
		p := l.Price.Decimal
		if report.PricedListings == 0 || p.LessThan(lowest) {
			lowest = p
		}
		if report.PricedListings == 0 || p.GreaterThan(highest) {
			highest = p
		}
		total = total.Add(p)
		report.PricedListings++
	}

	report.Cities = len(cities)
	report.Provinces = len(report.ListingsByProvince)

	if report.PricedListings > 0 {
		avg := total.Div(decimal.NewFromInt(int64(report.PricedListings)))
		report.AveragePrice = avg.Round(2).InexactFloat64()
		report.MinPrice = lowest.Round(2).InexactFloat64()
		report.MaxPrice = highest.Round(2).InexactFloat64()
	}

	byCity, err := s.aggregator.Aggregate(listings, models.GroupByCity, models.MetricAveragePrice)
	if err == nil && len(byCity) > 0 {
		top := byCity[0]
		for _, r := range byCity[1:] {
			if r.Value > top.Value {
				top = r
			}
		}
		report.MostExpensiveCity = &top
	}

	return report
}

// Print writes the report in a boxed terminal layout.
func (s *InsightService) Print(w io.Writer, r *models.SummaryReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  BELGIUM REAL ESTATE SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings   : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  With a price     : \033[1m%d\033[0m\n", r.PricedListings)
	fmt.Fprintf(w, "  Missing price    : \033[1m%d\033[0m\n", r.MissingPrices)
	fmt.Fprintf(w, "  Municipalities   : \033[1m%d\033[0m\n", r.Cities)
	fmt.Fprintf(w, "  Provinces        : \033[1m%d\033[0m\n\n", r.Provinces)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m€%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m€%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m€%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensiveCity != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Municipality\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s : \033[1;31m€%.2f\033[0m average\n\n",
			truncate(r.MostExpensiveCity.Key, 30), r.MostExpensiveCity.Value)
	}

	fmt.Fprintf(w, "\033[1;33m  Listings by Province\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByProvince) == 0 {
		fmt.Fprintf(w, "  No province data\n")
	} else {
		type provCount struct {
			name  string
			count int
		}
		provs := make([]provCount, 0, len(r.ListingsByProvince))
		for p, n := range r.ListingsByProvince {
			provs = append(provs, provCount{p, n})
		}
		sort.Slice(provs, func(i, j int) bool {
			if provs[i].count != provs[j].count {
				return provs[i].count > provs[j].count
			}
			return provs[i].name < provs[j].name
		})
		maxCount := provs[0].count
		for _, pc := range provs {
			bar := strings.Repeat("█", barWidth(pc.count, maxCount, 20))
			fmt.Fprintf(w, "  %-24s %s (%d)\n", truncate(pc.name, 22), bar, pc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// PrintRows writes an aggregate table with one row per line.
func (s *InsightService) PrintRows(w io.Writer, key models.GroupKey, metric models.Metric, rows []models.AggregateRow) {
	fmt.Fprintf(w, "\033[1;33m  %s by %s\033[0m\n", metric.Label(), key)
	fmt.Fprintf(w, "  %s\n", strings.Repeat("─", 54))
	for _, r := range rows {
		if metric == models.MetricCount {
			fmt.Fprintf(w, "  %-32s %10.0f\n", truncate(r.Key, 30), r.Value)
		} else {
			fmt.Fprintf(w, "  %-32s %14.2f\n", truncate(r.Key, 30), r.Value)
		}
	}
	fmt.Fprintf(w, "  (%d rows)\n", len(rows))
}

func barWidth(n, max, width int) int {
	if max <= 0 {
		return 0
	}
	w := n * width / max
	if w == 0 && n > 0 {
		w = 1
	}
	return w
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
