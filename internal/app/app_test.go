package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/auth"
	"github.com/haierkeys/fast-qr-history-sync/internal/dao"
	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/internal/remote"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConfig(t *testing.T) *AppConfig {
	t.Helper()
	cfg := new(AppConfig)
	require.NoError(t, defaults.Set(cfg))
	dir := t.TempDir()
	cfg.Database.Path = filepath.Join(dir, "db.sqlite3")
	cfg.Database.MaxOpenConns = 1
	cfg.Local.FilePath = filepath.Join(dir, "qrHistory.json")
	cfg.Storage.SavePath = filepath.Join(dir, "objects")
	return cfg
}

func TestNewApp_Validation(t *testing.T) {
	_, err := NewApp(nil, zap.NewNop(), nil)
	assert.Error(t, err)

	cfg := newTestConfig(t)
	_, err = NewApp(cfg, nil, nil)
	assert.Error(t, err)

	_, err = NewApp(cfg, zap.NewNop(), nil)
	assert.Error(t, err, "database local store without a database")

	cfg.Local.Type = "cookie"
	_, err = NewApp(cfg, zap.NewNop(), nil)
	assert.Error(t, err)
}

// 文件本地存储 + 对象存储远端，完整走一次登录同步
func TestApp_SignInSyncObjectRemote(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Local.Type = LocalTypeFile
	cfg.Remote.Type = remote.TypeObject
	cfg.Server.DocumentStore = DocumentStoreObject

	a, err := NewApp(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	ctx := context.Background()
	require.NoError(t, a.RemoteStore.WriteDocument(ctx, "u1", domain.HistoryLog{
		{Kind: domain.KindScanned, Content: "remote", Timestamp: 200},
		{Kind: domain.KindGenerated, Content: "shared", Timestamp: 50},
	}))

	_, err = a.HistoryService.Save(ctx, domain.KindGenerated, "local", 300)
	require.NoError(t, err)
	_, err = a.HistoryService.Save(ctx, domain.KindGenerated, "shared", 100)
	require.NoError(t, err)

	changed, cancel := a.Hub.Subscribe()
	defer cancel()

	require.NoError(t, a.AuthWatcher.Handle(ctx, auth.SignedIn("u1")))
	assert.Equal(t, "u1", a.AuthWatcher.CurrentUser())

	want := domain.HistoryLog{
		{Kind: domain.KindGenerated, Content: "local", Timestamp: 300},
		{Kind: domain.KindScanned, Content: "remote", Timestamp: 200},
		{Kind: domain.KindGenerated, Content: "shared", Timestamp: 100},
	}
	local, err := a.LocalStore.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, local)

	doc, found, err := a.DocumentStore.ReadDocument(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, doc, "server side sees the same object document")

	select {
	case <-changed:
	default:
		t.Fatal("history changed notification not delivered")
	}
}

func TestApp_DatabaseStores(t *testing.T) {
	cfg := newTestConfig(t)
	db, err := dao.NewDBEngineWithConfig(cfg.DaoConfig(), nil)
	require.NoError(t, err)

	a, err := NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	assert.NotNil(t, a.Dao)
	assert.NotNil(t, a.DocumentStore)
	_, ok := a.RemoteStore.(*remote.HTTPStore)
	assert.True(t, ok, "http remote by default")

	ctx := context.Background()
	_, saved, err := a.HistoryService.RecordGenerated(ctx, "hello")
	require.NoError(t, err)
	assert.True(t, saved)
	log, err := a.LocalStore.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, log, 1)

	assert.False(t, a.IsShuttingDown())
	require.NoError(t, a.Shutdown(context.Background()))
	assert.True(t, a.IsShuttingDown())
	assert.NoError(t, a.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestApp_StartAuthWatcher(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Local.Type = LocalTypeFile
	cfg.Remote.Type = remote.TypeObject

	a, err := NewApp(cfg, zap.NewNop(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.RemoteStore.WriteDocument(ctx, "u2", domain.HistoryLog{
		{Kind: domain.KindScanned, Content: "cloud", Timestamp: 7},
	}))

	a.StartAuthWatcher(ctx)
	a.AuthProvider.SignIn("u2")

	require.Eventually(t, func() bool {
		local, err := a.LocalStore.ReadAll(ctx)
		return err == nil && len(local) == 1 && local[0].Content == "cloud"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "u2", a.AuthWatcher.CurrentUser())

	a.AuthProvider.SignOut()
	require.Eventually(t, func() bool {
		return a.AuthWatcher.CurrentUser() == ""
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Shutdown(ctx), "watcher goroutine stops on shutdown")
}
