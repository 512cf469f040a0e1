package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"immo-map/models"
	"immo-map/pipeline"
	"immo-map/render"
	"immo-map/storage"
	"immo-map/utils"
)

func square(x, y float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y},
	}})
}

func listing(city, province string, price int64) models.Listing {
	return models.Listing{
		City:     city,
		Province: province,
		Price:    decimal.NullDecimal{Decimal: decimal.NewFromInt(price), Valid: true},
	}
}

type testServer struct {
	srv      *Server
	provPath string
}

func newTestServer(t *testing.T, listings []models.Listing) *testServer {
	t.Helper()
	municipalities := []models.MunicipalityBoundary{
		{Name: "brussels", Geometry: square(0, 0)},
		{Name: "gent", Geometry: square(1, 0)},
		{Name: "namur", Geometry: square(2, 0)},
	}
	provPath := filepath.Join(t.TempDir(), "provinces.geojson")
	session := pipeline.New(listings, municipalities, pipeline.Options{ProvincesPath: provPath}, utils.NewNopLogger())
	srv := New(session, render.DefaultPresets(render.DefaultOptions()), "test", utils.NewNopLogger())
	return &testServer{srv: srv, provPath: provPath}
}

func defaultListings() []models.Listing {
	return []models.Listing{
		listing("brussels", "Brussels", 300000),
		listing("brussels", "Brussels", 100000),
		listing("gent", "East Flanders", 250000),
	}
}

func (ts *testServer) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRootRedirectsToMap(t *testing.T) {
	ts := newTestServer(t, defaultListings())
	rec := ts.do(http.MethodGet, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/map", rec.Header().Get("Location"))
}

func TestAggregatesAPI(t *testing.T) {
	ts := newTestServer(t, defaultListings())

	t.Run("AveragePriceByCity", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/aggregates?group=city&metric=average_price")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rows := decode[[]models.AggregateRow](t, rec)
		assert.Equal(t, []models.AggregateRow{
			{Key: "brussels", Value: 200000},
			{Key: "gent", Value: 250000},
		}, rows)
	})

	t.Run("CountByProvince", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/aggregates?group=province&metric=count")
		require.Equal(t, http.StatusOK, rec.Code)
		rows := decode[[]models.AggregateRow](t, rec)
		assert.Equal(t, []models.AggregateRow{
			{Key: "Brussels", Value: 2},
			{Key: "East Flanders", Value: 1},
		}, rows)
	})

	t.Run("InvalidMetric", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/aggregates?group=city&metric=median")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[ErrorResponse](t, rec)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("MissingGroup", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/aggregates?metric=count")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBoundariesAPI(t *testing.T) {
	ts := newTestServer(t, defaultListings())

	rec := ts.do(http.MethodGet, "/api/v1/boundaries/municipality")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	fc := decode[map[string]any](t, rec)
	assert.Equal(t, "FeatureCollection", fc["type"])
	assert.Len(t, fc["features"], 3)

	rec = ts.do(http.MethodGet, "/api/v1/boundaries/province")
	require.Equal(t, http.StatusOK, rec.Code)
	fc = decode[map[string]any](t, rec)
	assert.Len(t, fc["features"], 2)

	rec = ts.do(http.MethodGet, "/api/v1/boundaries/region")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProvincesAPI(t *testing.T) {
	ts := newTestServer(t, defaultListings())

	rec := ts.do(http.MethodGet, "/api/v1/provinces")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[ProvincesResponse](t, rec)
	assert.Equal(t, []string{"gent"}, body.Provinces["East Flanders"])
	assert.Equal(t, []string{"namur"}, body.Unassigned)
	assert.Empty(t, body.Unmatched)
	assert.Empty(t, body.Conflicts)
}

func TestProvincesAPIConflict(t *testing.T) {
	ts := newTestServer(t, []models.Listing{
		listing("gent", "East Flanders", 1),
		listing("gent", "West Flanders", 1),
	})

	rec := ts.do(http.MethodGet, "/api/v1/provinces")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "gent")
}

func TestRebuildProvincesAPI(t *testing.T) {
	ts := newTestServer(t, defaultListings())

	rec := ts.do(http.MethodPost, "/api/v1/provinces/rebuild")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[RebuildResponse](t, rec)
	require.Len(t, body.Provinces, 2)
	assert.Equal(t, "Brussels", body.Provinces[0].Province)

	_, err := os.Stat(ts.provPath)
	require.NoError(t, err)
	persisted, err := storage.LoadProvinceBoundaries(ts.provPath)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestMapPage(t *testing.T) {
	ts := newTestServer(t, defaultListings())

	rec := ts.do(http.MethodGet, "/map")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "Average Price per Municipality")
	assert.Contains(t, rec.Body.String(), "2 regions coloured")

	rec = ts.do(http.MethodGet, "/map?preset=count-province&scale=Viridis")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "#fde725", "viridis stops end the legend")

	rec = ts.do(http.MethodGet, "/map?level=province&metric=count")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/map?scale=rainbow")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/map?preset=nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, defaultListings())

	rec := ts.do(http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[HealthStatus](t, rec)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 3, status.Checks["listings"].Count)
	assert.Equal(t, "test", status.Version)

	rec = ts.do(http.MethodGet, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready until Run starts")

	empty := newTestServer(t, nil)
	rec = empty.do(http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultListings())
	ts.do(http.MethodGet, "/api/v1/aggregates?group=city&metric=count")

	rec := ts.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "immo_map_aggregate_duration_seconds")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(models.ErrInvalidOption))
	assert.Equal(t, http.StatusNotFound, statusFor(models.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(models.ErrProvinceConflict))
	assert.Equal(t, http.StatusInternalServerError, statusFor(models.ErrWrite))
}
