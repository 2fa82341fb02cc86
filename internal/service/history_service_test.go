package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/workerpool"
	"github.com/haierkeys/fast-qr-history-sync/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHistoryFixture(t *testing.T, cfg *HistoryServiceConfig, opts ...HistoryOption) (HistoryService, *memLocal, *countingNotifier) {
	t.Helper()
	writes := writequeue.New(nil, zap.NewNop())
	t.Cleanup(func() { _ = writes.Shutdown(context.Background()) })
	local := newMemLocal(nil)
	n := &countingNotifier{}
	return NewHistoryService(local, n, writes, zap.NewNop(), cfg, opts...), local, n
}

func TestHistoryService_SavePrepends(t *testing.T) {
	svc, local, n := newHistoryFixture(t, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.KindGenerated, "first", 100)
	require.NoError(t, err)
	_, err = svc.Save(ctx, domain.KindScanned, "second", 50)
	require.NoError(t, err)

	assert.Equal(t, domain.HistoryLog{scanned("second", 50), generated("first", 100)}, local.snapshot(),
		"appends go to the head, not sorted")
	assert.Equal(t, 2, n.count())
}

func TestHistoryService_SaveDefaultsTimestamp(t *testing.T) {
	svc, _, _ := newHistoryFixture(t, nil)
	before := time.Now().UnixMilli()
	e, err := svc.Save(context.Background(), domain.KindScanned, "x", 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, e.Timestamp, before)
	assert.LessOrEqual(t, e.Timestamp, time.Now().UnixMilli())
}

func TestHistoryService_SaveRejectsUnknownKind(t *testing.T) {
	svc, local, n := newHistoryFixture(t, nil)
	_, err := svc.Save(context.Background(), domain.EntryKind("printed"), "x", 1)
	assert.ErrorIs(t, err, domain.ErrMalformedEntry)
	assert.Empty(t, local.snapshot())
	assert.Equal(t, 0, n.count())
}

func TestHistoryService_AutoSave(t *testing.T) {
	svc, local, _ := newHistoryFixture(t, &HistoryServiceConfig{AutoSave: false})
	ctx := context.Background()

	_, saved, err := svc.RecordGenerated(ctx, "code")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Empty(t, local.snapshot())

	// 扫描结果不受自动保存开关影响
	_, err = svc.RecordScanned(ctx, "scan")
	require.NoError(t, err)
	assert.Len(t, local.snapshot(), 1)

	svc.SetAutoSave(true)
	assert.True(t, svc.AutoSave())
	e, saved, err := svc.RecordGenerated(ctx, "code")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, domain.KindGenerated, e.Kind)
	assert.Len(t, local.snapshot(), 2)
}

func TestHistoryService_ListAndClear(t *testing.T) {
	svc, _, n := newHistoryFixture(t, nil)
	ctx := context.Background()
	_, _ = svc.Save(ctx, domain.KindGenerated, "g", 1)
	_, _ = svc.Save(ctx, domain.KindScanned, "s", 2)

	all, err := svc.List(ctx, domain.FilterAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyGenerated, err := svc.List(ctx, domain.FilterGenerated)
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryLog{generated("g", 1)}, onlyGenerated)

	require.NoError(t, svc.Clear(ctx))
	all, err = svc.List(ctx, domain.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 3, n.count())
}

// recordingSync counts sync calls per uid
type recordingSync struct {
	mu    sync.Mutex
	calls map[string]int
	done  chan struct{}
}

func (r *recordingSync) SyncOnSignIn(ctx context.Context, uid string) (*SyncResult, error) {
	r.mu.Lock()
	r.calls[uid]++
	r.mu.Unlock()
	r.done <- struct{}{}
	return &SyncResult{UID: uid}, nil
}

// sharedOnceSync reports the first call as joined to an in-flight sync
type sharedOnceSync struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func (r *sharedOnceSync) SyncOnSignIn(ctx context.Context, uid string) (*SyncResult, error) {
	r.mu.Lock()
	r.calls++
	shared := r.calls == 1
	r.mu.Unlock()
	r.done <- struct{}{}
	return &SyncResult{UID: uid, Shared: shared}, nil
}

func TestHistoryService_SyncOnWriteRerunsSharedSync(t *testing.T) {
	pool := workerpool.New(&workerpool.Config{MaxWorkers: 1, QueueSize: 4}, zap.NewNop())
	defer pool.Shutdown(context.Background())

	rs := &sharedOnceSync{done: make(chan struct{}, 8)}
	svc, _, _ := newHistoryFixture(t, nil, WithSyncOnWrite(&SyncServiceConfig{OnWrite: true}, pool, rs, func() string { return "u1" }))

	_, err := svc.RecordScanned(context.Background(), "x")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case <-rs.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("sync %d did not run", i+1)
		}
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	assert.Equal(t, 2, rs.calls)
}

// 后台同步写远端期间再次追加，追加的记录最终也要推送到远端
func TestHistoryService_SyncOnWriteAppendDuringRemoteWrite(t *testing.T) {
	pool := workerpool.New(&workerpool.Config{MaxWorkers: 4, QueueSize: 8}, zap.NewNop())
	defer pool.Shutdown(context.Background())
	writes := writequeue.New(nil, zap.NewNop())
	defer writes.Shutdown(context.Background())

	local := newMemLocal(nil)
	remote := newMemRemote()
	writing := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	remote.set(func(m *memRemote) {
		m.onWrite = func() {
			once.Do(func() {
				close(writing)
				<-release
			})
		}
	})

	syncCfg := &SyncServiceConfig{OnWrite: true}
	syncSvc := NewSyncService(local, remote, nil, writes, zap.NewNop(), syncCfg)
	svc := NewHistoryService(local, nil, writes, zap.NewNop(), nil,
		WithSyncOnWrite(syncCfg, pool, syncSvc, func() string { return "u1" }))
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.KindScanned, "X", 10)
	require.NoError(t, err)

	select {
	case <-writing:
	case <-time.After(2 * time.Second):
		t.Fatal("first sync never reached the remote write")
	}
	_, err = svc.Save(ctx, domain.KindScanned, "Y", 20)
	require.NoError(t, err)
	close(release)

	want := domain.HistoryLog{
		{Kind: domain.KindScanned, Content: "Y", Timestamp: 20},
		{Kind: domain.KindScanned, Content: "X", Timestamp: 10},
	}
	require.Eventually(t, func() bool {
		doc, ok := remote.doc("u1")
		return ok && doc.Equal(want)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, want, local.snapshot())
}

func TestHistoryService_SyncOnWrite(t *testing.T) {
	pool := workerpool.New(&workerpool.Config{MaxWorkers: 1, QueueSize: 4}, zap.NewNop())
	defer pool.Shutdown(context.Background())

	rs := &recordingSync{calls: map[string]int{}, done: make(chan struct{}, 8)}
	user := ""
	var mu sync.Mutex
	current := func() string {
		mu.Lock()
		defer mu.Unlock()
		return user
	}
	svc, _, _ := newHistoryFixture(t, nil, WithSyncOnWrite(&SyncServiceConfig{OnWrite: true}, pool, rs, current))
	ctx := context.Background()

	// 未登录时不触发同步
	_, err := svc.RecordScanned(ctx, "anon")
	require.NoError(t, err)

	mu.Lock()
	user = "u1"
	mu.Unlock()
	_, err = svc.RecordScanned(ctx, "signed-in")
	require.NoError(t, err)

	select {
	case <-rs.done:
	case <-time.After(2 * time.Second):
		t.Fatal("background sync did not run")
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	assert.Equal(t, 1, rs.calls["u1"])
	assert.Len(t, rs.calls, 1)
}

func TestHistoryService_SyncOnWriteDisabled(t *testing.T) {
	pool := workerpool.New(nil, zap.NewNop())
	defer pool.Shutdown(context.Background())

	rs := &recordingSync{calls: map[string]int{}, done: make(chan struct{}, 8)}
	svc, _, _ := newHistoryFixture(t, nil, WithSyncOnWrite(&SyncServiceConfig{OnWrite: false}, pool, rs, func() string { return "u1" }))

	_, err := svc.RecordScanned(context.Background(), "x")
	require.NoError(t, err)

	select {
	case <-rs.done:
		t.Fatal("sync ran although on-write is off")
	case <-time.After(100 * time.Millisecond):
	}
}
