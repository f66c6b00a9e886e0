package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected *Config
	}{
		{
			name: "all fields",
			body: `{"server_url":"http://bank:9000","database_path":"/tmp/b.db","request_timeout":"3s"}`,
			expected: &Config{ServerURL: "http://bank:9000", DatabasePath: "/tmp/b.db", RequestTimeout: 3 * time.Second},
		},
		{
			name: "partial keeps defaults",
			body: `{"request_timeout":2000000000}`,
			expected: &Config{ServerURL: "http://127.0.0.1:8080", DatabasePath: "kidsbank.db", RequestTimeout: 2 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeFile(t, tt.body))
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, `{"server_url":`))
	assert.Error(t, err)
}
