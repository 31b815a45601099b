package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.True(t, c.IsDefault())
	assert.True(t, c.GetFollowRedirects())
	assert.True(t, c.GetValidateSSL())
	assert.False(t, c.GetStreamMultipart())
	assert.Equal(t, 30*time.Second, c.TimeoutDuration())
	assert.NoError(t, c.Validate())
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	c, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, c.IsDefault())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".servicecallrc"), []byte(`{
		"timeout": 1500,
		"validateSSL": false,
		"headers": {"X-Client": "servicecall"},
		"history": "history.db"
	}`), 0644))

	c, err = FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 1500, c.Timeout)
	assert.False(t, c.GetValidateSSL())
	assert.True(t, c.GetFollowRedirects())
	assert.Equal(t, "servicecall", c.Headers["X-Client"])
	assert.Equal(t, "history.db", c.History)
	assert.Equal(t, 10, c.MaxRedirects)
	assert.False(t, c.IsDefault())
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"timeout": "soon"}`), 0644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	negative := filepath.Join(dir, "negative.json")
	require.NoError(t, os.WriteFile(negative, []byte(`{"timeout": -1}`), 0644))
	_, err = LoadConfig(negative)
	assert.ErrorContains(t, err, "timeout")
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1", "B": "1"}

	merged := base.Merge(&Config{
		Timeout:         500,
		FollowRedirects: BoolPtr(false),
		Headers:         map[string]string{"B": "2"},
		Proxy:           "http://proxy:8080",
	})

	assert.Equal(t, 500, merged.Timeout)
	assert.False(t, merged.GetFollowRedirects())
	assert.True(t, merged.GetValidateSSL())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, "http://proxy:8080", merged.Proxy)

	// the receiver is left untouched
	assert.Equal(t, "1", base.Headers["B"])
	assert.Equal(t, 30000, base.Timeout)

	assert.Same(t, base, base.Merge(nil))
}

func TestClientAndEncodeOptions(t *testing.T) {
	c := DefaultConfig()
	assert.Len(t, c.ClientOptions(), 4)
	assert.Empty(t, c.EncodeOptions())

	c = c.Merge(&Config{
		Proxy:           "http://proxy",
		Headers:         map[string]string{"X": "1"},
		StreamMultipart: BoolPtr(true),
	})
	assert.Len(t, c.ClientOptions(), 6)
	assert.Len(t, c.EncodeOptions(), 1)
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servicecall.config.json")
	c := DefaultConfig()
	c.Schema = "schema.json"
	require.NoError(t, c.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "schema.json", loaded.Schema)
}
