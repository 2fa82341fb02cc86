// Package model gorm table models
// Package model 数据表模型
package model

import (
	"time"

	"gorm.io/gorm"
)

// HistoryEntry local history row, Position orders the log ascending
// HistoryEntry 本地历史记录表，Position 升序即日志顺序
type HistoryEntry struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Position  int64     `gorm:"column:position;index:idx_history_entry_position" json:"position"`
	Kind      string    `gorm:"column:type;size:16;not null" json:"type"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	Timestamp int64     `gorm:"column:timestamp;not null" json:"timestamp"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// HistoryDocument server side per-user history document
// HistoryDocument 服务端用户历史文档表
type HistoryDocument struct {
	UID        string    `gorm:"column:uid;primaryKey;size:191" json:"uid"`
	Payload    string    `gorm:"column:payload;not null" json:"payload"`
	EntryCount int       `gorm:"column:entry_count;not null;default:0" json:"entryCount"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// AutoMigrate migrates the tables needed by key, "local" or "server"
// AutoMigrate 按用途迁移表结构
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "local":
		return db.AutoMigrate(&HistoryEntry{})
	case "server":
		return db.AutoMigrate(&HistoryDocument{})
	}
	return nil
}
