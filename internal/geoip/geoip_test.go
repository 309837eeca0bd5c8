package geoip_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"qtree-api/internal/geoip"
)

func TestOpen_missingFile(t *testing.T) {
	t.Parallel()

	_, err := geoip.Open(filepath.Join(t.TempDir(), "missing.mmdb"))

	require.Error(t, err)
}

// GEOIP_TEST_DB 指向 GeoLite2-City 测试库（如 maxmind 仓库中的 GeoIP2-City-Test.mmdb）
func TestReader_Locate(t *testing.T) {
	path := os.Getenv("GEOIP_TEST_DB")
	if path == "" {
		t.Skip("GEOIP_TEST_DB not set")
	}
	r, err := geoip.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	lat, lon, ok := r.Locate("81.2.69.142")
	require.True(t, ok)
	require.InDelta(t, 51.5, lat, 1)
	require.InDelta(t, -0.1, lon, 1)

	_, _, ok = r.Locate("not-an-ip")
	require.False(t, ok)
	_, _, ok = r.Locate("127.0.0.1")
	require.False(t, ok)
}
