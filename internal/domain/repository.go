// Package domain defines domain models and interfaces
// Package domain 定义领域模型和接口
package domain

import "context"

// LocalHistoryStore device-local durable history log
// LocalHistoryStore 设备本地历史存储接口
type LocalHistoryStore interface {
	// ReadAll returns the whole log, an absent log is empty
	// ReadAll 读取全部记录，不存在时返回空日志
	ReadAll(ctx context.Context) (HistoryLog, error)

	// ReplaceAll replaces the log in full, failures wrap ErrStorage
	// ReplaceAll 整体替换日志，失败时返回 ErrStorage
	ReplaceAll(ctx context.Context, log HistoryLog) error

	// Append inserts entry at the head
	// Append 在头部追加记录
	Append(ctx context.Context, entry HistoryEntry) error

	// Clear removes every entry
	// Clear 清空历史
	Clear(ctx context.Context) error
}

// RemoteHistoryStore per-user history document in a cloud store
// RemoteHistoryStore 云端每用户历史文档接口
type RemoteHistoryStore interface {
	// ReadDocument returns the user's log and whether the document exists
	// Failures wrap ErrNetwork or ErrPermission
	// ReadDocument 读取用户历史文档，失败时返回 ErrNetwork 或 ErrPermission
	ReadDocument(ctx context.Context, uid string) (HistoryLog, bool, error)

	// WriteDocument replaces the user's document in full
	// WriteDocument 整体覆盖用户历史文档
	WriteDocument(ctx context.Context, uid string, log HistoryLog) error
}

// Notifier presentation layer cache invalidation, no payload
// The receiver re-reads the local store itself
// Notifier 通知展示层历史已变更（不携带数据）
type Notifier interface {
	HistoryChanged(ctx context.Context)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context)

func (f NotifierFunc) HistoryChanged(ctx context.Context) {
	f(ctx)
}
