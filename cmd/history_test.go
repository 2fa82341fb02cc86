package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDeviceConfig 文件本地存储 + 本地对象存储作为云端
func writeDeviceConfig(t *testing.T, autoSave bool) string {
	t.Helper()
	dir := t.TempDir()
	content := strings.NewReplacer(
		"{dir}", filepath.ToSlash(dir),
		"{autoSave}", map[bool]string{true: "true", false: "false"}[autoSave],
	).Replace(`
log:
  level: error
  file: {dir}/logs/log.log
  production: false
database:
  path: {dir}/db.sqlite3
local:
  type: file
  file-path: {dir}/qrHistory.json
remote:
  type: object
storage:
  type: localfs
  save-path: {dir}/objects
history:
  auto-save: {autoSave}
security:
  auth-token-key: test-secret-key
`)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryCmd_AddListClear(t *testing.T) {
	cfg := writeDeviceConfig(t, true)

	_, err := runHistory(t, "add", "-c", cfg, "--type", "scanned", "--content", "https://example.com", "--timestamp", "2000")
	require.NoError(t, err)
	_, err = runHistory(t, "add", "-c", cfg, "--type", "generated", "--content", "hello", "--timestamp", "1000")
	require.NoError(t, err)

	// 本地追加在头部，只有同步才重新排序
	out, err := runHistory(t, "list", "-c", cfg, "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"generated","content":"hello","timestamp":1000},
		{"type":"scanned","content":"https://example.com","timestamp":2000}
	]`, out)

	_, err = runHistory(t, "sync", "-c", cfg, "--uid", "alice")
	require.NoError(t, err)
	out, err = runHistory(t, "list", "-c", cfg, "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"scanned","content":"https://example.com","timestamp":2000},
		{"type":"generated","content":"hello","timestamp":1000}
	]`, out)

	out, err = runHistory(t, "list", "-c", cfg, "--type", "generated")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.NotContains(t, out, "example.com")

	_, err = runHistory(t, "list", "-c", cfg, "--type", "bogus")
	assert.Error(t, err)

	_, err = runHistory(t, "clear", "-c", cfg)
	require.NoError(t, err)
	out, err = runHistory(t, "list", "-c", cfg, "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestHistoryCmd_AutoSaveDisabled(t *testing.T) {
	cfg := writeDeviceConfig(t, false)

	out, err := runHistory(t, "add", "-c", cfg, "--type", "generated", "--content", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "auto-save is disabled")

	out, err = runHistory(t, "list", "-c", cfg, "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestHistoryCmd_Sync(t *testing.T) {
	cfg := writeDeviceConfig(t, true)

	_, err := runHistory(t, "add", "-c", cfg, "--type", "scanned", "--content", "a", "--timestamp", "5")
	require.NoError(t, err)

	out, err := runHistory(t, "sync", "-c", cfg, "--uid", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "history synced for alice: 1 entries")

	// 另一台设备共享同一个对象存储
	other := writeDeviceConfig(t, true)
	otherDir := filepath.Dir(other)
	sharedDir := filepath.Dir(cfg)
	raw, err := os.ReadFile(other)
	require.NoError(t, err)
	patched := strings.Replace(string(raw), filepath.ToSlash(otherDir)+"/objects", filepath.ToSlash(sharedDir)+"/objects", 1)
	require.NoError(t, os.WriteFile(other, []byte(patched), 0o644))

	_, err = runHistory(t, "add", "-c", other, "--type", "generated", "--content", "b", "--timestamp", "9")
	require.NoError(t, err)
	out, err = runHistory(t, "sync", "-c", other, "--uid", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "2 entries")

	out, err = runHistory(t, "list", "-c", other, "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"generated","content":"b","timestamp":9},
		{"type":"scanned","content":"a","timestamp":5}
	]`, out)
}

func TestTokenCmd(t *testing.T) {
	cfg := writeDeviceConfig(t, true)

	cmd := newTokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-c", cfg, "--uid", "alice"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out.String()), ".")), "jwt has three segments")

	cmd = newTokenCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"-c", cfg})
	assert.Error(t, cmd.Execute(), "uid is required")
}
