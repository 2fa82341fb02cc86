package auth

import (
	"context"
	"sync"

	"github.com/haierkeys/fast-qr-history-sync/internal/service"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"go.uber.org/zap"
)

// Watcher runs the sign-in sync on a signed-out to signed-in transition or a user switch
// Watcher 在未登录到登录、或切换用户时触发一次同步
type Watcher struct {
	sync   service.SyncService
	logger *zap.Logger

	mu      sync.RWMutex
	current string
}

func NewWatcher(sync service.SyncService, lg *zap.Logger) *Watcher {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Watcher{sync: sync, logger: lg}
}

// CurrentUser signed-in uid, empty when signed out
// CurrentUser 当前登录用户，未登录为空
func (w *Watcher) CurrentUser() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Handle applies one transition and returns the sync error, if any
// A repeated SignedIn for the current user does nothing
// Handle 处理一次状态变化，返回同步错误（由调用方决定是否忽略）
func (w *Watcher) Handle(ctx context.Context, ev Event) error {
	w.mu.Lock()
	if ev.Type != EventSignedIn || ev.UID == "" {
		if w.current != "" {
			w.logger.Info("signed out", zap.String(logger.FieldUID, w.current))
		}
		w.current = ""
		w.mu.Unlock()
		return nil
	}
	if ev.UID == w.current {
		w.mu.Unlock()
		return nil
	}
	w.current = ev.UID
	w.mu.Unlock()

	w.logger.Info("signed in, syncing history", zap.String(logger.FieldUID, ev.UID))
	res, err := w.sync.SyncOnSignIn(ctx, ev.UID)
	if err != nil {
		w.logger.Warn("sign-in sync failed, local history unaffected",
			zap.String(logger.FieldUID, ev.UID), zap.Error(err))
		return err
	}
	w.logger.Debug("sign-in sync done", zap.String(logger.FieldUID, ev.UID), zap.Int(logger.FieldEntries, res.Merged))
	return nil
}

// Run consumes events until ctx is done or the channel closes, sync errors are logged and swallowed
// Run 持续处理事件，同步错误只记录日志
func (w *Watcher) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = w.Handle(ctx, ev)
		}
	}
}
