package qtree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"qtree-api/internal/logger"
)

// 父盒 0..10，子盒只覆盖纬度 0..4 与 6..10，纬度 (4, 6) 为缝隙
func gappedInternal() (*Internal, [4]*Leaf) {
	kids := [4]*Leaf{
		newMemoryLeaf(BBox{MaxLat: 10, MaxLon: 5, MinLat: 6, MinLon: 0}),
		newMemoryLeaf(BBox{MaxLat: 10, MaxLon: 10, MinLat: 6, MinLon: 5}),
		newMemoryLeaf(BBox{MaxLat: 4, MaxLon: 5, MinLat: 0, MinLon: 0}),
		newMemoryLeaf(BBox{MaxLat: 4, MaxLon: 10, MinLat: 0, MinLon: 5}),
	}
	n := NewInternal(BBox{MaxLat: 10, MaxLon: 10, MinLat: 0, MinLon: 0}, kids[0], kids[1], kids[2], kids[3])
	return n, kids
}

func TestInternal_addPoint_noChildContainsPoint(t *testing.T) {
	prev := logger.L()
	t.Cleanup(func() { logger.Set(prev) })
	var buf bytes.Buffer
	logger.Set(logger.New(&buf, "debug", "json"))

	n, kids := gappedInternal()
	require.NotPanics(t, func() { n.addPoint(Point{Lat: 5, Lon: 3, Value: 1}) })

	for i, k := range kids {
		require.Zero(t, k.NumPoints(), "child %s", Quadrant(i))
	}
	require.Zero(t, n.NumPoints())
	require.Empty(t, n.FindPoints(n.BBox()))
	require.Contains(t, buf.String(), `"msg":"shape_error"`)
	require.Contains(t, buf.String(), "no child contains point")
	require.Contains(t, buf.String(), `"lat":5`)
}

func TestInternal_addPoint_routesToContainingChild(t *testing.T) {
	n, kids := gappedInternal()

	n.addPoint(Point{Lat: 8, Lon: 7, Value: 2})
	n.addPoint(Point{Lat: 20, Lon: 7, Value: 3})

	require.Equal(t, 1, kids[NE].NumPoints())
	require.Equal(t, 1, n.NumPoints(), "point outside the parent is ignored")
}
