package qtree_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"qtree-api/internal/qtree"
)

func box(maxLat, minLat, maxLon, minLon float64) qtree.BBox {
	return qtree.BBox{MaxLat: maxLat, MinLat: minLat, MaxLon: maxLon, MinLon: minLon}
}

func TestBBox_ContainsPoint(t *testing.T) {
	t.Parallel()

	b := box(10, 0, 10, 0)

	require.True(t, b.ContainsPoint(qtree.Point{Lat: 5, Lon: 5}))
	require.True(t, b.ContainsPoint(qtree.Point{Lat: 10, Lon: 10}), "max corner is inside")
	require.True(t, b.ContainsPoint(qtree.Point{Lat: 0, Lon: 0}), "min corner is inside")
	require.False(t, b.ContainsPoint(qtree.Point{Lat: 10.0001, Lon: 5}))
	require.False(t, b.ContainsPoint(qtree.Point{Lat: 5, Lon: -0.0001}))
}

func TestBBox_IntersectEmpty(t *testing.T) {
	t.Parallel()

	b := box(10, 0, 10, 0)

	t.Run("Overlapping", func(t *testing.T) {
		t.Parallel()
		require.False(t, b.IntersectEmpty(box(15, 5, 15, 5)))
	})

	t.Run("SharedEdge", func(t *testing.T) {
		t.Parallel()
		require.False(t, b.IntersectEmpty(box(20, 10, 10, 0)))
	})

	t.Run("Separated", func(t *testing.T) {
		t.Parallel()
		require.True(t, b.IntersectEmpty(box(20, 10.5, 10, 0)))
		require.True(t, b.IntersectEmpty(box(10, 0, -1, -5)))
	})
}

func TestBBox_Intersect(t *testing.T) {
	t.Parallel()

	got := box(10, 0, 10, 0).Intersect(box(15, 5, 7, -3))

	require.Equal(t, box(10, 5, 7, 0), got)
	require.True(t, got.Valid())
}

func TestBBox_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, box(1, 1, 1, 1).Valid())
	require.False(t, box(0, 1, 1, 0).Valid())
	require.False(t, box(1, 0, 0, 1).Valid())
}

func TestPoint_JSON(t *testing.T) {
	t.Parallel()

	var pts []qtree.Point
	require.NoError(t, json.Unmarshal([]byte(`[[7,2,5],[1.5,8,9,42]]`), &pts))
	require.Equal(t, []qtree.Point{{Lat: 7, Lon: 2, Value: 5}, {Lat: 1.5, Lon: 8, Value: 9}}, pts)

	b, err := json.Marshal(pts[0])
	require.NoError(t, err)
	require.JSONEq(t, `[7,2,5]`, string(b))

	require.Error(t, json.Unmarshal([]byte(`[[7,2]]`), &pts))
	require.Error(t, json.Unmarshal([]byte(`[{"lat":1}]`), &pts))
}
