package dao

import (
	"context"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/internal/model"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// historyEntryRepository 基于数据库的本地历史存储，实现 domain.LocalHistoryStore
type historyEntryRepository struct {
	dao *Dao
}

// NewHistoryEntryRepository 创建本地历史存储
func NewHistoryEntryRepository(dao *Dao) domain.LocalHistoryStore {
	return &historyEntryRepository{dao: dao}
}

func storageErr(op string, err error) error {
	return errors.Wrap(domain.WithKind(domain.ErrStorage, err), op)
}

func (r *historyEntryRepository) db(ctx context.Context) (*gorm.DB, error) {
	if err := r.dao.Once("local#historyEntry", func(g *gorm.DB) error {
		return model.AutoMigrate(g, "local")
	}); err != nil {
		return nil, storageErr("migrate history_entry", err)
	}
	return r.dao.DB().WithContext(ctx), nil
}

// ReadAll 按 position 升序读取全部记录
func (r *historyEntryRepository) ReadAll(ctx context.Context) (domain.HistoryLog, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.HistoryEntry
	if err := db.Order("position ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, storageErr("read history", err)
	}

	var entries []domain.HistoryEntry
	if err := copier.Copy(&entries, &rows); err != nil {
		return nil, storageErr("map history rows", err)
	}

	log, bad := domain.HistoryLog(entries).Validate()
	for _, b := range bad {
		r.dao.Logger().Warn("skipping malformed history row",
			zap.String(logger.FieldMethod, "historyEntryRepository.ReadAll"),
			zap.Int(logger.FieldIndex, b.Index),
			zap.String(logger.FieldError, b.Reason))
	}
	return log, nil
}

// ReplaceAll 在事务中整体替换日志
func (r *historyEntryRepository) ReplaceAll(ctx context.Context, log domain.HistoryLog) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}

	rows := toRows(log)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.HistoryEntry{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
	if err != nil {
		return storageErr("replace history", err)
	}
	return nil
}

// Append 以比当前最小 position 更小的位置插入，保持头部追加
func (r *historyEntryRepository) Append(ctx context.Context, entry domain.HistoryEntry) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var head struct {
			HeadMin   *int64
			HeadCount int64
		}
		if err := tx.Model(&model.HistoryEntry{}).
			Select("MIN(position) AS head_min, COUNT(*) AS head_count").
			Scan(&head).Error; err != nil {
			return err
		}
		pos := int64(0)
		if head.HeadCount > 0 && head.HeadMin != nil {
			pos = *head.HeadMin - 1
		}
		row := model.HistoryEntry{
			Position:  pos,
			Kind:      string(entry.Kind),
			Content:   entry.Content,
			Timestamp: entry.Timestamp,
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return storageErr("append history", err)
	}
	return nil
}

// Clear 删除全部记录
func (r *historyEntryRepository) Clear(ctx context.Context) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.HistoryEntry{}).Error; err != nil {
		return storageErr("clear history", err)
	}
	return nil
}

func toRows(log domain.HistoryLog) []*model.HistoryEntry {
	rows := make([]*model.HistoryEntry, 0, len(log))
	for i, e := range log {
		rows = append(rows, &model.HistoryEntry{
			Position:  int64(i),
			Kind:      string(e.Kind),
			Content:   e.Content,
			Timestamp: e.Timestamp,
		})
	}
	return rows
}
