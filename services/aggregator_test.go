package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immo-map/models"
)

func listing(city, province, price string) models.Listing {
	return models.Listing{
		City:     NormaliseCity(city),
		Province: NormaliseProvince(province),
		Price:    ParsePrice(price),
	}
}

func TestAggregateBrusselsScenario(t *testing.T) {
	a := NewAggregator(newTestLogger())
	listings := []models.Listing{
		listing("Brussels", "Brussels", "300000"),
		listing("brussels ", "Brussels", "100000"),
	}

	avg, err := a.Aggregate(listings, models.GroupByCity, models.MetricAveragePrice)
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRow{{Key: "brussels", Value: 200000}}, avg)

	count, err := a.Aggregate(listings, models.GroupByCity, models.MetricCount)
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRow{{Key: "brussels", Value: 2}}, count)
}

func TestAggregateOmitsGroupsWithoutPrice(t *testing.T) {
	a := NewAggregator(newTestLogger())
	listings := []models.Listing{
		listing("Arlon", "Luxembourg", ""),
		listing("Arlon", "Luxembourg", "n/a"),
		listing("Bastogne", "Luxembourg", "175000"),
	}

	avg, err := a.Aggregate(listings, models.GroupByCity, models.MetricAveragePrice)
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRow{{Key: "bastogne", Value: 175000}}, avg)

	count, err := a.Aggregate(listings, models.GroupByCity, models.MetricCount)
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRow{
		{Key: "arlon", Value: 2},
		{Key: "bastogne", Value: 1},
	}, count)
}

func TestAggregateMissingPriceIsNotZero(t *testing.T) {
	a := NewAggregator(newTestLogger())
	listings := []models.Listing{
		listing("Mons", "Hainaut", "200000"),
		listing("Mons", "Hainaut", ""),
	}

	avg, err := a.Aggregate(listings, models.GroupByCity, models.MetricAveragePrice)
	require.NoError(t, err)
	assert.Equal(t, 200000.0, avg[0].Value)
}

func TestAggregateByProvince(t *testing.T) {
	a := NewAggregator(newTestLogger())
	listings := []models.Listing{
		listing("Gent", "East Flanders", "300000"),
		listing("Aalst", "East Flanders", "200000"),
		listing("Brugge", "West Flanders", "250000"),
		listing("Nowhere", "", "100000"),
	}

	avg, err := a.Aggregate(listings, models.GroupByProvince, models.MetricAveragePrice)
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRow{
		{Key: "East Flanders", Value: 250000},
		{Key: "West Flanders", Value: 250000},
	}, avg)
}

func TestAggregateIsIdempotent(t *testing.T) {
	a := NewAggregator(newTestLogger())
	listings := []models.Listing{
		listing("Leuven", "Flemish Brabant", "410000"),
		listing("Wavre", "Walloon Brabant", "330000"),
		listing("Leuven", "Flemish Brabant", "290000"),
		listing("Hasselt", "Limburg", ""),
	}

	first, err := a.Aggregate(listings, models.GroupByCity, models.MetricAveragePrice)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := a.Aggregate(listings, models.GroupByCity, models.MetricAveragePrice)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAggregateRejectsUnknownOptions(t *testing.T) {
	a := NewAggregator(newTestLogger())

	_, err := a.Aggregate(nil, models.GroupKey("street"), models.MetricCount)
	assert.True(t, errors.Is(err, models.ErrInvalidOption))

	_, err = a.Aggregate(nil, models.GroupByCity, models.Metric("median"))
	assert.True(t, errors.Is(err, models.ErrInvalidOption))
}

func TestAggregateEmptyInput(t *testing.T) {
	rows, err := NewAggregator(newTestLogger()).Aggregate(nil, models.GroupByCity, models.MetricCount)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
