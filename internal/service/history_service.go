package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"go.uber.org/zap"
)

// BackgroundRunner runs keyed background tasks, implemented by workerpool.Pool
// BackgroundRunner 后台任务执行器，同一键的待执行任务会被合并
type BackgroundRunner interface {
	SubmitKeyed(ctx context.Context, key string, fn func(context.Context) error) (bool, error)
}

// HistoryService defines the local history business service interface
// HistoryService 定义本地历史记录业务服务接口
type HistoryService interface {
	// Save prepends an entry, ts 0 means now
	// Save 在头部追加一条记录，ts 为 0 时使用当前时间
	Save(ctx context.Context, kind domain.EntryKind, content string, ts int64) (domain.HistoryEntry, error)

	// RecordGenerated records a generated code when auto-save is enabled
	// RecordGenerated 自动保存开启时记录生成的二维码，saved 表示是否已写入
	RecordGenerated(ctx context.Context, content string) (entry domain.HistoryEntry, saved bool, err error)

	// RecordScanned always records a scan result
	// RecordScanned 记录扫描结果
	RecordScanned(ctx context.Context, content string) (domain.HistoryEntry, error)

	// List returns the local log filtered by kind
	// List 按类型过滤返回本地历史
	List(ctx context.Context, filter domain.HistoryFilter) (domain.HistoryLog, error)

	// Clear removes local history only, never synced as a deletion
	// Clear 清空本地历史（不会同步到远端）
	Clear(ctx context.Context) error

	SetAutoSave(enabled bool)
	AutoSave() bool
}

// historyService implementation of HistoryService interface
// historyService 实现 HistoryService 接口
type historyService struct {
	local    domain.LocalHistoryStore
	notifier domain.Notifier
	writes   WriteExecutor
	autoSave atomic.Bool
	logger   *zap.Logger

	// sync-on-write, all nil unless enabled
	syncCfg  *SyncServiceConfig
	runner   BackgroundRunner
	sync     SyncService
	signedIn func() string
}

type HistoryOption func(*historyService)

// WithSyncOnWrite pushes a background sync for the signed-in user after each write when cfg.OnWrite is set
// WithSyncOnWrite 开启写入后同步，currentUser 返回当前登录用户，未登录时为空
func WithSyncOnWrite(cfg *SyncServiceConfig, runner BackgroundRunner, sync SyncService, currentUser func() string) HistoryOption {
	return func(s *historyService) {
		s.syncCfg = cfg
		s.runner = runner
		s.sync = sync
		s.signedIn = currentUser
	}
}

// NewHistoryService creates HistoryService instance
// NewHistoryService 创建 HistoryService 实例
func NewHistoryService(local domain.LocalHistoryStore, notifier domain.Notifier, writes WriteExecutor, logger *zap.Logger, config *HistoryServiceConfig, opts ...HistoryOption) HistoryService {
	if config == nil {
		config = &HistoryServiceConfig{AutoSave: true}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = domain.NotifierFunc(func(context.Context) {})
	}
	s := &historyService{
		local:    local,
		notifier: notifier,
		writes:   writes,
		logger:   logger,
	}
	s.autoSave.Store(config.AutoSave)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *historyService) Save(ctx context.Context, kind domain.EntryKind, content string, ts int64) (domain.HistoryEntry, error) {
	if !kind.Valid() {
		return domain.HistoryEntry{}, fmt.Errorf("save history: unknown kind %q: %w", kind, domain.ErrMalformedEntry)
	}
	entry := domain.NewHistoryEntry(kind, content, ts)

	err := s.writes.Execute(ctx, localWriteKey, func() error {
		return s.local.Append(ctx, entry)
	})
	if err != nil {
		s.logger.Error("save history failed",
			zap.String(logger.FieldKind, kind.String()),
			zap.Error(err))
		return domain.HistoryEntry{}, err
	}
	historyAppends.WithLabelValues(kind.String()).Inc()

	s.notifier.HistoryChanged(ctx)
	s.afterWrite()
	return entry, nil
}

func (s *historyService) RecordGenerated(ctx context.Context, content string) (domain.HistoryEntry, bool, error) {
	if !s.autoSave.Load() {
		return domain.NewHistoryEntry(domain.KindGenerated, content, 0), false, nil
	}
	entry, err := s.Save(ctx, domain.KindGenerated, content, 0)
	if err != nil {
		return domain.HistoryEntry{}, false, err
	}
	return entry, true, nil
}

func (s *historyService) RecordScanned(ctx context.Context, content string) (domain.HistoryEntry, error) {
	return s.Save(ctx, domain.KindScanned, content, 0)
}

func (s *historyService) List(ctx context.Context, filter domain.HistoryFilter) (domain.HistoryLog, error) {
	log, err := s.local.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return log.Filter(filter), nil
}

func (s *historyService) Clear(ctx context.Context) error {
	err := s.writes.Execute(ctx, localWriteKey, func() error {
		return s.local.Clear(ctx)
	})
	if err != nil {
		return err
	}
	s.logger.Info("local history cleared")
	s.notifier.HistoryChanged(ctx)
	return nil
}

func (s *historyService) SetAutoSave(enabled bool) {
	s.autoSave.Store(enabled)
}

func (s *historyService) AutoSave() bool {
	return s.autoSave.Load()
}

// afterWrite submits a keyed background sync, pending syncs for the same user coalesce
func (s *historyService) afterWrite() {
	if s.syncCfg == nil || !s.syncCfg.OnWrite || s.runner == nil || s.sync == nil || s.signedIn == nil {
		return
	}
	uid := s.signedIn()
	if uid == "" {
		return
	}
	queued, err := s.runner.SubmitKeyed(context.Background(), "sync:"+uid, func(ctx context.Context) error {
		res, err := s.sync.SyncOnSignIn(ctx, uid)
		if err == nil && res.Shared {
			// 复用的同步可能在本次写入前已读取本地，重新同步一次
			_, err = s.sync.SyncOnSignIn(ctx, uid)
		}
		return err
	})
	if err != nil {
		s.logger.Warn("sync-on-write not scheduled", zap.String(logger.FieldUID, uid), zap.Error(err))
		return
	}
	s.logger.Debug("sync-on-write scheduled", zap.String(logger.FieldUID, uid), zap.Bool("queued", queued))
}
