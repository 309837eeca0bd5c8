package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"qtree-api/internal/api"
	"qtree-api/internal/catalog"
	"qtree-api/internal/memory"
	"qtree-api/internal/qtree"
	"qtree-api/internal/store"
)

var world = qtree.BBox{MaxLat: 10, MaxLon: 10, MinLat: 0, MinLon: 0}

var points = []qtree.Point{
	{Lat: 7, Lon: 2, Value: 5},
	{Lat: 1, Lon: 8, Value: 9},
}

const nwBoxes = `[{"nw":{"lat":10,"lon":0},"se":{"lat":5,"lon":5}}]`
const allBoxes = `[{"nw":{"lat":10,"lon":0},"se":{"lat":0,"lon":10}}]`

type fakeCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	sets int
}

func (c *fakeCache) Get(_ context.Context, k string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[k]
	return b, ok
}

func (c *fakeCache) Set(_ context.Context, k string, v []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[k] = v
	c.sets++
}

type fakeStats struct {
	mu   sync.Mutex
	hits int
	miss int
}

func (s *fakeStats) RecordQuery(_ context.Context, _, _, _ string, _ int, hit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hit {
		s.hits++
	} else {
		s.miss++
	}
	return nil
}

func (s *fakeStats) GetTotals(context.Context) (*store.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &store.Totals{Total: int64(s.hits + s.miss), Today: int64(s.hits + s.miss), TodayMisses: int64(s.miss)}, nil
}

func (s *fakeStats) TopPartitions(context.Context, int) ([]store.PartitionCount, error) {
	return nil, nil
}

type fakeLocator struct{ lat, lon float64 }

func (l fakeLocator) Locate(string) (float64, float64, bool) { return l.lat, l.lon, true }

// newCatalog stores an in-memory partition 2000-01/1 and a disk-backed partition 2000-01/4.
func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	base := t.TempDir()
	opts := catalog.DefaultOptions()
	opts.BaseDir = base
	c := catalog.New(opts)
	c.Store("2000", "01", "1", qtree.BuildFromPoints(world, 1, points))

	k := catalog.Key{Year: "2000", Month: "01", Res: "4"}
	require.NoError(t, qtree.WriteDir(qtree.BuildFromPoints(world, 2, points), k.Dir(base)))
	require.NoError(t, c.GetEntry(context.Background(), k.Year, k.Month, k.Res))
	return c
}

func get(t *testing.T, h http.Handler, path string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path+"?"+params.Encode(), nil))
	return rec
}

func partition(year, month, res, boxes string) url.Values {
	v := url.Values{"year": {year}, "month": {month}, "res": {res}}
	if boxes != "" {
		v.Set("bboxes", boxes)
	}
	return v
}

func TestGetValues(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{}
	stats := &fakeStats{}
	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t), Cache: cache, Stats: stats})

	rec := get(t, h, "/get_values", partition("2000", "01", "1", nwBoxes))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[[7,2,5]]`, rec.Body.String())
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, 1, cache.sets)

	again := get(t, h, "/get_values", partition("2000", "01", "1", nwBoxes))
	require.JSONEq(t, `[[7,2,5]]`, again.Body.String())
	require.Equal(t, 1, stats.hits, "second response served from cache")

	miss := get(t, h, "/get_values", partition("1900", "01", "1", nwBoxes))
	require.Equal(t, http.StatusOK, miss.Code)
	require.JSONEq(t, `[]`, miss.Body.String())
	require.Equal(t, 1, cache.sets, "misses are not cached")
	require.Equal(t, 1, stats.miss)
}

func TestGetValues_badRequests(t *testing.T) {
	t.Parallel()

	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t)})

	for name, v := range map[string]url.Values{
		"NoPartition":   {"bboxes": {nwBoxes}},
		"NoBoxes":       partition("2000", "01", "1", ""),
		"BadJSON":       partition("2000", "01", "1", `[{`),
		"MissingCorner": partition("2000", "01", "1", `[{"nw":{"lat":10}}]`),
		"Inverted":      partition("2000", "01", "1", `[{"nw":{"lat":0,"lon":0},"se":{"lat":10,"lon":10}}]`),
		"NearUnknown":   {"year": {"2000"}, "month": {"01"}, "res": {"1"}, "near": {"me"}},
	} {
		rec := get(t, h, "/get_values", v)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/get_values", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetValues_nearMe(t *testing.T) {
	t.Parallel()

	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t), Locator: fakeLocator{lat: 7, lon: 2}, NearRadius: 1})

	v := partition("2000", "01", "1", "")
	v.Set("near", "me")
	rec := get(t, h, "/get_values", v)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[[7,2,5]]`, rec.Body.String())
}

func TestGetTimes(t *testing.T) {
	t.Parallel()

	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t)})

	rec := get(t, h, "/get_times", partition("2000", "01", "1", allBoxes))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "found 2 points in "), rec.Body.String())
	require.True(t, strings.HasSuffix(rec.Body.String(), "memory is 0"))

	miss := get(t, h, "/get_times", partition("1900", "02", "1", allBoxes))
	require.Equal(t, http.StatusNotFound, miss.Code)
	require.Equal(t, "No data for 02/1900, resolution 1", miss.Body.String())
}

func TestShowTree(t *testing.T) {
	t.Parallel()

	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t)})

	rec := get(t, h, "/show_tree", partition("2000", "01", "1", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var d qtree.TreeDump
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	require.Equal(t, world, d.BBox)
	require.Equal(t, 2, d.Points)
	require.NotNil(t, d.NW)

	require.Equal(t, http.StatusNotFound, get(t, h, "/show_tree", partition("2000", "01", "2", "")).Code)
	require.Equal(t, http.StatusBadRequest, get(t, h, "/show_tree", url.Values{}).Code)
}

func TestGetGeoJSON(t *testing.T) {
	t.Parallel()

	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t)})

	v := partition("2000", "01", "1", nwBoxes)
	v.Set("minVal", "0")
	v.Set("maxVal", "10")
	rec := get(t, h, "/get_geojson", v)
	require.Equal(t, http.StatusOK, rec.Code)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties struct {
				Color string `json:"color"`
			} `json:"properties"`
			Geometry struct {
				Coordinates [][][2]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	require.Equal(t, [2]float64{1.5, 6.5}, fc.Features[0].Geometry.Coordinates[0][0])

	bad := partition("2000", "01", "3", nwBoxes)
	bad.Set("minVal", "0")
	bad.Set("maxVal", "10")
	require.Equal(t, http.StatusBadRequest, get(t, h, "/get_geojson", bad).Code, "unknown resolution")

	inverted := partition("2000", "01", "1", nwBoxes)
	inverted.Set("minVal", "10")
	inverted.Set("maxVal", "0")
	require.Equal(t, http.StatusBadRequest, get(t, h, "/get_geojson", inverted).Code)

	for _, bounds := range [][2]string{{"NaN", "10"}, {"0", "NaN"}, {"-Inf", "0"}, {"0", "+Inf"}} {
		nonFinite := partition("2000", "01", "1", nwBoxes)
		nonFinite.Set("minVal", bounds[0])
		nonFinite.Set("maxVal", bounds[1])
		rec := get(t, h, "/get_geojson", nonFinite)
		require.Equal(t, http.StatusBadRequest, rec.Code, "%v", bounds)
		require.Contains(t, rec.Body.String(), "finite")
	}

	require.Equal(t, http.StatusBadRequest, get(t, h, "/get_geojson", partition("2000", "01", "1", nwBoxes)).Code)
}

func TestFind_missListsEntries(t *testing.T) {
	t.Parallel()

	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t)})

	rec := get(t, h, "/find", partition("1900", "01", "1", allBoxes))

	require.Equal(t, http.StatusOK, rec.Code)
	var res catalog.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.False(t, res.Found)
	require.Equal(t, "no entries for 01/1900 at resolution 1", res.Message)
	require.Equal(t, []catalog.Entry{
		{Year: "2000", Month: "01", Res: "1"},
		{Year: "2000", Month: "01", Res: "4"},
	}, res.Entries)
}

func TestFind_hitWithoutMatchesKeepsPoints(t *testing.T) {
	t.Parallel()

	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t)})
	neBoxes := `[{"nw":{"lat":10,"lon":5},"se":{"lat":5,"lon":10}}]`

	rec := get(t, h, "/find", partition("2000", "01", "1", neBoxes))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.JSONEq(t, `true`, string(body["found"]))
	require.Contains(t, body, "points")
	require.JSONEq(t, `[]`, string(body["points"]))
	require.JSONEq(t, `0`, string(body["count"]))

	miss := get(t, h, "/find", partition("1900", "01", "1", neBoxes))
	require.Contains(t, miss.Body.String(), `"points":[]`)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	c := newCatalog(t)
	h := api.BuildRoutes(api.Deps{Catalog: c, AdminToken: "tok"})

	require.Equal(t, http.StatusForbidden, get(t, h, "/load", partition("2000", "01", "4", "")).Code)

	req := httptest.NewRequest(http.MethodGet, "/load?"+partition("2000", "01", "4", "").Encode(), nil)
	req.Header.Set("x-admin-token", "tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "01/2000 resolution 4 loaded, memory is 0", rec.Body.String())
	require.Equal(t, 16, qtree.LoadedLeaves(c.GetQt("2000", "01", "4")))
}

func TestQuery_evictsUnderMemoryPressure(t *testing.T) {
	t.Parallel()

	c := newCatalog(t)
	over := memory.NewWithReader(1, func() (memory.Usage, error) { return memory.Usage{Virtual: 2}, nil })
	h := api.BuildRoutes(api.Deps{Catalog: c, Monitor: over})

	rec := get(t, h, "/get_values", partition("2000", "01", "4", allBoxes))

	require.Equal(t, http.StatusOK, rec.Code)
	var pts []qtree.Point
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pts))
	require.ElementsMatch(t, points, pts)
	require.Zero(t, qtree.LoadedLeaves(c.GetQt("2000", "01", "4")), "non-primary partition evicted after the query")
	require.Equal(t, 2, c.GetQt("2000", "01", "1").NumPoints(), "primary untouched")
}

func TestStatsAndEntries(t *testing.T) {
	t.Parallel()

	stats := &fakeStats{}
	mon := memory.NewWithReader(100, func() (memory.Usage, error) { return memory.Usage{Virtual: 10, Resident: 5}, nil })
	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t), Monitor: mon, Stats: stats})

	get(t, h, "/get_values", partition("2000", "01", "1", allBoxes))

	rec := get(t, h, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{
		"catalog": {"partitions": 2, "leaves": 20, "loaded_leaves": 4, "loaded_points": 2, "primary_res": "1"},
		"memory": {"virtual": 10, "resident": 5, "limit": 100},
		"queries": {"total": 1, "today": 1, "today_misses": 0}
	}`, rec.Body.String())

	ent := get(t, h, "/entries", nil)
	require.JSONEq(t, `[{"year":"2000","month":"01","res":"1"},{"year":"2000","month":"01","res":"4"}]`, ent.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	h := api.BuildRoutes(api.Deps{Catalog: newCatalog(t)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/get_values", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
