// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Sync    SyncServiceConfig    // Sync related config // 同步相关配置
	History HistoryServiceConfig // History related config // 历史记录相关配置
}

// SyncServiceConfig sync service configuration
// SyncServiceConfig 同步服务配置
type SyncServiceConfig struct {
	OnWrite bool          // Push a background sync after each local write while signed in // 登录状态下写入后触发后台同步
	Timeout time.Duration // Bound for one whole sync, 0 means caller context only // 单次同步超时，0 表示仅受调用方 context 约束
}

// HistoryServiceConfig history service configuration
// HistoryServiceConfig 历史记录服务配置
type HistoryServiceConfig struct {
	AutoSave bool // Record generated codes // 是否自动保存生成的二维码
}

// localWriteKey write queue key shared by local appends and the sync replace step
// localWriteKey 本地追加与同步替换共用的写队列键
const localWriteKey = "local"
