package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"
	"github.com/haierkeys/fast-qr-history-sync/pkg/merge"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// WriteExecutor serializes writes per key, implemented by writequeue.Manager
// WriteExecutor 按键串行执行写操作
type WriteExecutor interface {
	Execute(ctx context.Context, key string, fn func() error) error
}

// SyncService defines the sign-in history sync service interface
// SyncService 定义登录时历史同步服务接口
type SyncService interface {
	// SyncOnSignIn reconciles the local log with the user's remote document
	// Every failure is a *domain.SyncError naming the failed step
	// SyncOnSignIn 合并本地与远端历史并写回两端，失败时返回 *domain.SyncError
	SyncOnSignIn(ctx context.Context, uid string) (*SyncResult, error)
}

// SyncResult outcome of one sync
// SyncResult 单次同步结果
type SyncResult struct {
	UID           string        `json:"uid"`
	LocalEntries  int           `json:"localEntries"`  // Local entries merged // 参与合并的本地记录数
	RemoteEntries int           `json:"remoteEntries"` // Remote entries merged // 参与合并的远端记录数
	RemoteFound   bool          `json:"remoteFound"`   // Remote document existed // 远端文档是否存在
	Merged        int           `json:"merged"`        // Entries in the canonical log // 合并后的记录数
	Duplicates    int           `json:"duplicates"`    // Entries dropped by dedup // 去重丢弃的记录数
	Shared        bool          `json:"shared"`        // Joined an in-flight sync // 是否复用进行中的同步
	Duration      time.Duration `json:"duration"`
}

// syncService implementation of SyncService interface
// syncService 实现 SyncService 接口
type syncService struct {
	local    domain.LocalHistoryStore  // Local store // 本地存储
	remote   domain.RemoteHistoryStore // Remote store // 远端存储
	notifier domain.Notifier           // Presentation layer // 展示层通知
	writes   WriteExecutor             // Local write serialization // 本地写串行化
	sf       *singleflight.Group       // Per-user in-flight guard // 每用户并发请求合并
	logger   *zap.Logger
	config   *SyncServiceConfig
}

// NewSyncService creates SyncService instance
// NewSyncService 创建 SyncService 实例
func NewSyncService(local domain.LocalHistoryStore, remote domain.RemoteHistoryStore, notifier domain.Notifier, writes WriteExecutor, logger *zap.Logger, config *SyncServiceConfig) SyncService {
	if config == nil {
		config = &SyncServiceConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = domain.NotifierFunc(func(context.Context) {})
	}
	return &syncService{
		local:    local,
		remote:   remote,
		notifier: notifier,
		writes:   writes,
		sf:       &singleflight.Group{},
		logger:   logger,
		config:   config,
	}
}

func (s *syncService) SyncOnSignIn(ctx context.Context, uid string) (*SyncResult, error) {
	if uid == "" {
		return nil, &domain.SyncError{Step: domain.StepReadRemote, Err: fmt.Errorf("%w: empty uid", domain.ErrPermission)}
	}

	v, err, shared := s.sf.Do(uid, func() (interface{}, error) {
		return s.run(ctx, uid)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*SyncResult)
	res.Shared = shared
	return &res, nil
}

// run executes the six sync steps once
func (s *syncService) run(ctx context.Context, uid string) (res *SyncResult, err error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	res = &SyncResult{UID: uid}
	defer func() {
		res.Duration = time.Since(start)
		syncDuration.Observe(res.Duration.Seconds())
		s.finish(uid, res, err)
	}()

	// 1. read local
	local, err := s.local.ReadAll(ctx)
	if err != nil {
		return res, s.fail(domain.StepReadLocal, uid, err)
	}

	// 2. read remote, the only network suspension point
	remote, found, err := s.remote.ReadDocument(ctx, uid)
	if err != nil {
		return res, s.fail(domain.StepReadRemote, uid, err)
	}
	res.RemoteFound = found
	res.RemoteEntries = len(remote)

	// 3. merge
	merged := merge.MergeWithStats(local, remote)

	// 4. replace local from a fresh read inside the write queue so concurrent appends survive
	err = s.writes.Execute(ctx, localWriteKey, func() error {
		fresh, rerr := s.local.ReadAll(ctx)
		if rerr != nil {
			return rerr
		}
		merged = merge.MergeWithStats(fresh, remote)
		local = fresh
		return s.local.ReplaceAll(ctx, merged.Log)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrStorage) {
			err = fmt.Errorf("%w: %w", domain.ErrStorage, err)
		}
		return res, s.fail(domain.StepReplaceLocal, uid, err)
	}
	res.LocalEntries = len(local)
	res.Merged = len(merged.Log)
	res.Duplicates = merged.Duplicates
	mergedEntries.Observe(float64(res.Merged))
	mergeDuplicates.Add(float64(res.Duplicates))

	// local changed, the view refreshes even if the remote write fails
	defer s.notifier.HistoryChanged(ctx)

	// 5. replace remote
	if err = s.remote.WriteDocument(ctx, uid, merged.Log); err != nil {
		return res, s.fail(domain.StepWriteRemote, uid, err)
	}

	return res, nil
}

func (s *syncService) fail(step domain.SyncStep, uid string, err error) error {
	return &domain.SyncError{Step: step, UID: uid, Err: err}
}

func (s *syncService) finish(uid string, res *SyncResult, err error) {
	if err == nil {
		syncTotal.WithLabelValues("success").Inc()
		s.logger.Info("history sync completed",
			zap.String(logger.FieldUID, uid),
			zap.Int(logger.FieldLocalEntries, res.LocalEntries),
			zap.Int(logger.FieldRemoteEntries, res.RemoteEntries),
			zap.Int(logger.FieldEntries, res.Merged),
			zap.Int(logger.FieldDuplicates, res.Duplicates),
			zap.Duration(logger.FieldDuration, res.Duration))
		return
	}

	syncTotal.WithLabelValues("failure").Inc()
	var se *domain.SyncError
	step := "unknown"
	if errors.As(err, &se) {
		step = string(se.Step)
	}
	class := errorClass(err)
	syncFailures.WithLabelValues(step, class).Inc()
	s.logger.Warn("history sync failed",
		zap.String(logger.FieldUID, uid),
		zap.String(logger.FieldStep, step),
		zap.String("class", class),
		zap.Bool("localMerged", se != nil && se.LocalStateMerged()),
		zap.Duration(logger.FieldDuration, res.Duration),
		zap.Error(err))
}
