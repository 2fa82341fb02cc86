package dao

import (
	"context"
	"errors"

	"github.com/haierkeys/fast-qr-history-sync/internal/codec"
	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/internal/model"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRepository 服务端历史文档表，实现 domain.RemoteHistoryStore
type documentRepository struct {
	dao *Dao
}

// NewDocumentRepository 创建服务端文档存储
func NewDocumentRepository(dao *Dao) domain.RemoteHistoryStore {
	return &documentRepository{dao: dao}
}

func (r *documentRepository) db(ctx context.Context) (*gorm.DB, error) {
	if err := r.dao.Once("server#historyDocument", func(g *gorm.DB) error {
		return model.AutoMigrate(g, "server")
	}); err != nil {
		return nil, storageErr("migrate history_document", err)
	}
	return r.dao.DB().WithContext(ctx), nil
}

// ReadDocument 读取用户文档，记录不存在时 found 为 false
func (r *documentRepository) ReadDocument(ctx context.Context, uid string) (domain.HistoryLog, bool, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, false, err
	}

	var m model.HistoryDocument
	err = db.Where("uid = ?", uid).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.HistoryLog{}, false, nil
	}
	if err != nil {
		return nil, false, storageErr("read history document", err)
	}

	log, bad, err := codec.DecodeDocument([]byte(m.Payload))
	if err != nil {
		return nil, true, err
	}
	for _, b := range bad {
		r.dao.Logger().Warn("skipping malformed history entry",
			zap.String(logger.FieldMethod, "documentRepository.ReadDocument"),
			zap.String(logger.FieldUID, uid),
			zap.Int(logger.FieldIndex, b.Index),
			zap.String(logger.FieldError, b.Reason))
	}
	return log, true, nil
}

// WriteDocument 以 upsert 方式整体覆盖用户文档
func (r *documentRepository) WriteDocument(ctx context.Context, uid string, log domain.HistoryLog) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}

	payload, err := codec.EncodeDocument(log)
	if err != nil {
		return storageErr("encode history document", err)
	}

	m := model.HistoryDocument{
		UID:        uid,
		Payload:    string(payload),
		EntryCount: len(log),
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "entry_count", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return storageErr("write history document", err)
	}
	return nil
}
