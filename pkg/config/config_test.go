package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/heysubinoy/keyval/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keyval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, config.DefaultBackend, cfg.Backend)
	assert.Equal(t, config.DefaultDataPath, cfg.DataPath)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.True(t, cfg.Metrics)
	assert.Empty(t, cfg.GRPCAddr)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, `
port: 9000
backend: bolt
data_path: /tmp/keyval.bolt
grpc_addr: ":9090"
metrics: false
log_level: debug
log_json: true
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "bolt", cfg.Backend)
	assert.Equal(t, "/tmp/keyval.bolt", cfg.DataPath)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.False(t, cfg.Metrics)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeFile(t, "port: 9000\nbackend: bolt\n")
	t.Setenv("KEYVAL_PORT", "9100")
	t.Setenv("KEYVAL_BACKEND", "memory")
	t.Setenv("KEYVAL_METRICS", "false")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "memory", cfg.Backend)
	assert.False(t, cfg.Metrics)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad yaml", yaml: "port: [1"},
		{name: "port out of range", yaml: "port: 70000"},
		{name: "unknown backend", yaml: "backend: redis"},
		{name: "bad log level", yaml: "log_level: loud"},
		{name: "bad env port", env: map[string]string{"KEYVAL_PORT": "http"}},
		{name: "bad env bool", env: map[string]string{"KEYVAL_METRICS": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, tt.yaml)
			}
			_, err := config.LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParsePort(t *testing.T) {
	port, err := config.ParsePort("8081")
	require.NoError(t, err)
	assert.Equal(t, 8081, port)

	for _, bad := range []string{"", "abc", "0", "65536", "-1"} {
		_, err := config.ParsePort(bad)
		assert.Error(t, err, bad)
	}
}
