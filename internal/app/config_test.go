package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(f, []byte(body), 0644))
	return f
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, realpath, err := LoadConfig(writeConfig(t, "server:\n  http-port: \":8080\"\n"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(realpath))
	assert.Equal(t, realpath, cfg.File)

	assert.Equal(t, ":8080", cfg.Server.HttpPort)
	assert.Equal(t, DocumentStoreDatabase, cfg.Server.DocumentStore)
	assert.Equal(t, LocalTypeDatabase, cfg.Local.Type)
	assert.Equal(t, "http", cfg.Remote.Type)
	assert.Equal(t, "localfs", cfg.Storage.Type)
	assert.False(t, cfg.Sync.OnWrite, "sync-on-write is opt-in")
	assert.True(t, cfg.AutoSave())
	assert.Equal(t, 365*24*time.Hour, cfg.GetTokenExpiry())
	assert.Equal(t, 60*time.Second, cfg.GetSyncTimeout())
	assert.Equal(t, 15*time.Second, cfg.GetRemoteTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetContextTimeout())
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, _, err := LoadConfig(writeConfig(t, `
local:
  type: file
  file-path: /tmp/qr.json
remote:
  type: object
sync:
  on-write: true
  timeout: 5s
history:
  auto-save: false
security:
  token-expiry: 7d
app:
  worker-pool-max-workers: 2
  write-queue-timeout: 3s
`))
	require.NoError(t, err)

	assert.Equal(t, LocalTypeFile, cfg.Local.Type)
	assert.Equal(t, "/tmp/qr.json", cfg.Local.FilePath)
	assert.Equal(t, "object", cfg.Remote.Type)
	assert.True(t, cfg.Sync.OnWrite)
	assert.Equal(t, 5*time.Second, cfg.GetSyncTimeout())
	assert.False(t, cfg.AutoSave(), "explicit false survives the second defaults pass")
	assert.Equal(t, 7*24*time.Hour, cfg.GetTokenExpiry())

	wp := cfg.GetWorkerPoolConfig()
	assert.Equal(t, 2, wp.MaxWorkers)
	wq := cfg.GetWriteQueueConfig()
	assert.Equal(t, 3*time.Second, wq.WriteTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, _, err = LoadConfig(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestConfigSave(t *testing.T) {
	f := writeConfig(t, "remote:\n  endpoint: http://old.example\n")
	cfg, _, err := LoadConfig(f)
	require.NoError(t, err)

	cfg.Remote.Endpoint = "http://new.example"
	require.NoError(t, cfg.Save())

	data, err := os.ReadFile(f)
	require.NoError(t, err)
	var saved AppConfig
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "http://new.example", saved.Remote.Endpoint)
	assert.Empty(t, saved.File, "file path is not serialized")
}
