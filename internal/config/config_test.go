package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("CASATUNES_URI", "")
	t.Setenv("BRIDGE_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Port)
	assert.Equal(t, 5000, cfg.CasaTunesTimeoutMs)
	assert.Equal(t, "@every 60s", cfg.RefreshSchedule)
	assert.False(t, cfg.CasaTunesConfigured())
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("BRIDGE_CONFIG_FILE", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_FileOverlayAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	content := "casatunes_uri: http://10.0.0.5:8735/api/v1\nport: \"9300\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("BRIDGE_CONFIG_FILE", path)
	t.Setenv("PORT", "9400")
	t.Setenv("CASATUNES_URI", "")

	cfg, err := Load()
	require.NoError(t, err)

	// Env wins over file, file wins over defaults.
	assert.Equal(t, "9400", cfg.Port)
	assert.Equal(t, "http://10.0.0.5:8735/api/v1", cfg.CasaTunesURI)
	assert.True(t, cfg.CasaTunesConfigured())
}

func TestCasaTunesConfigured(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want bool
	}{
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"placeholder", "http://undefined:8735/api/v1", false},
		{"bare placeholder", "undefined", false},
		{"configured", "http://192.168.1.20:8735/api/v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{CasaTunesURI: tt.uri}
			assert.Equal(t, tt.want, cfg.CasaTunesConfigured())
		})
	}
}
