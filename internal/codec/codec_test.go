package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/typecache-go/core/cache"
)

func TestCodecs_Options(t *testing.T) {
	want := cache.Options{ExpiryTime: 90 * time.Second, Capacity: 500}

	for name, c := range map[string]Codec{"json": JSONCodec{}, "yaml": YAMLCodec{}} {
		t.Run(name, func(t *testing.T) {
			data, err := c.Marshal(want)
			require.NoError(t, err)
			require.Contains(t, string(data), "expiry_time")

			var got cache.Options
			require.NoError(t, c.Unmarshal(data, &got))
			require.Equal(t, want, got)
		})
	}
}

func TestYAMLCodec_Document(t *testing.T) {
	var got struct {
		Defaults cache.Options            `yaml:"defaults"`
		Caches   map[string]cache.Options `yaml:"caches"`
	}
	doc := `
defaults:
  expiry_time: 5m
  capacity: 100
caches:
  pages:
    expiry_time: 30s
`
	require.NoError(t, YAMLCodec{}.Unmarshal([]byte(doc), &got))
	require.Equal(t, cache.Options{ExpiryTime: 5 * time.Minute, Capacity: 100}, got.Defaults)
	require.Equal(t, cache.Options{ExpiryTime: 30 * time.Second}, got.Caches["pages"])

	require.Error(t, YAMLCodec{}.Unmarshal([]byte("defaults:\n  expiry_time: later\n"), &got))
}
