// Package notify delivers "history changed" signals to the presentation layer
// Package notify 向展示层发送历史变更信号
package notify

import (
	"context"
	"sync"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"go.uber.org/zap"
)

// Hub fans HistoryChanged out to subscribers
// Each subscriber channel holds one pending signal, bursts coalesce into it
// Hub 将变更信号分发给订阅者，未读信号会被合并
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan struct{}
}

var _ domain.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan struct{})}
}

// Subscribe returns a signal channel and a cancel func that closes it
// Subscribe 订阅变更信号，cancel 后通道关闭
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan struct{}, 1)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *Hub) HistoryChanged(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers 当前订阅数
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// LogNotifier logs each change at debug level
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) HistoryChanged(ctx context.Context) {
	if n.Logger != nil {
		n.Logger.Debug("history changed", zap.String(logger.FieldAction, "HistoryChanged"))
	}
}

// Multi notifies every non-nil notifier in order
// Multi 依次通知多个 Notifier
func Multi(ns ...domain.Notifier) domain.Notifier {
	list := make([]domain.Notifier, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			list = append(list, n)
		}
	}
	return domain.NotifierFunc(func(ctx context.Context) {
		for _, n := range list {
			n.HistoryChanged(ctx)
		}
	})
}
