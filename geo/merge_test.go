package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(x, y, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}})
}

func TestCollectMergerSinglePolygon(t *testing.T) {
	out, err := CollectMerger{}.Merge([]geom.T{square(0, 0, 1)})
	require.NoError(t, err)

	p, ok := out.(*geom.Polygon)
	require.True(t, ok, "expected *geom.Polygon, got %T", out)
	assert.Equal(t, 1, p.NumLinearRings())
}

func TestCollectMergerFlattensMultiPolygons(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(square(2, 0, 1)))
	require.NoError(t, mp.Push(square(4, 0, 1)))

	out, err := CollectMerger{}.Merge([]geom.T{square(0, 0, 1), mp})
	require.NoError(t, err)

	merged, ok := out.(*geom.MultiPolygon)
	require.True(t, ok, "expected *geom.MultiPolygon, got %T", out)
	assert.Equal(t, 3, merged.NumPolygons())
}

func TestCollectMergerRejectsEmptyAndUnsupported(t *testing.T) {
	_, err := CollectMerger{}.Merge(nil)
	assert.Error(t, err)

	_, err = CollectMerger{}.Merge([]geom.T{geom.NewPointFlat(geom.XY, []float64{1, 2})})
	assert.Error(t, err)

	_, err = CollectMerger{}.Merge([]geom.T{nil})
	assert.Error(t, err)
}

func TestBounds(t *testing.T) {
	b := Bounds([]geom.T{square(0, 0, 1), nil, square(3, 4, 2)})
	require.NotNil(t, b)
	assert.Equal(t, 0.0, b.Min(0))
	assert.Equal(t, 0.0, b.Min(1))
	assert.Equal(t, 5.0, b.Max(0))
	assert.Equal(t, 6.0, b.Max(1))

	assert.Nil(t, Bounds(nil))
}

func TestCentroid(t *testing.T) {
	c, ok := Centroid(square(0, 0, 2))
	require.True(t, ok)
	assert.InDelta(t, 1.0, c[0], 1e-9)
	assert.InDelta(t, 1.0, c[1], 1e-9)

	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(square(0, 0, 1)))
	require.NoError(t, mp.Push(square(2, 0, 1)))
	c, ok = Centroid(mp)
	require.True(t, ok)
	assert.InDelta(t, 1.5, c[0], 1e-9)
	assert.InDelta(t, 0.5, c[1], 1e-9)

	_, ok = Centroid(geom.NewPolygon(geom.XY))
	assert.False(t, ok)
	_, ok = Centroid(geom.NewPointFlat(geom.XY, []float64{1, 2}))
	assert.False(t, ok)
	_, ok = Centroid(nil)
	assert.False(t, ok)
}
