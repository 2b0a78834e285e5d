package yamlconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/typecache-go/core/cache"
)

const sample = `
defaults:
  expiry_time: 5m
  capacity: 200
caches:
  pages:
    expiry_time: 30s
  "string:int":
    capacity: 50
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Equal(t, cache.Options{ExpiryTime: 5 * time.Minute, Capacity: 200}, r.Defaults)
	require.Equal(t, map[string]cache.Options{
		"pages":      {ExpiryTime: 30 * time.Second, Capacity: 200},
		"string:int": {ExpiryTime: 5 * time.Minute, Capacity: 50},
	}, r.Stores)
	require.False(t, r.Strict)

	reg := cache.NewRegistry(cache.RegistryOptions{Resolver: r})
	s, err := cache.GetStore[string, int](t.Context(), reg, "")
	require.NoError(t, err)
	require.Equal(t, 50, s.Options().Capacity)
}

func TestParse_Empty(t *testing.T) {
	r, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, cache.DefaultOptions, r.Defaults)
	require.Empty(t, r.Stores)
}

func TestParse_Strict(t *testing.T) {
	r, err := Parse([]byte("strict: true\ncaches:\n  pages:\n    capacity: 3\n"))
	require.NoError(t, err)

	reg := cache.NewRegistry(cache.RegistryOptions{Resolver: r})
	_, err = cache.GetStore[string, string](t.Context(), reg, "pages")
	require.NoError(t, err)
	_, err = cache.GetStore[string, string](t.Context(), reg, "other")
	require.ErrorIs(t, err, cache.ErrNoOptions)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":        "defaults: [",
		"duration":      "defaults:\n  expiry_time: soon\n",
		"negative ttl":  "caches:\n  pages:\n    expiry_time: -1s\n",
		"negative size": "defaults:\n  capacity: -4\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			require.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caches.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, r.Stores, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
