package dao

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/haierkeys/fast-qr-history-sync/internal/codec"
	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"go.uber.org/zap"
)

// FileHistoryStore 以 JSON 数组文件保存本地历史（与浏览器 localStorage 的 qrHistory 格式一致）
type FileHistoryStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileHistoryStore 创建文件存储，path 不存在时视为空日志
func NewFileHistoryStore(path string, lg *zap.Logger) *FileHistoryStore {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &FileHistoryStore{path: path, logger: lg}
}

// Path 返回文件路径
func (s *FileHistoryStore) Path() string {
	return s.path
}

func (s *FileHistoryStore) read() (domain.HistoryLog, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.HistoryLog{}, nil
	}
	if err != nil {
		return nil, storageErr("read history file", err)
	}

	log, bad, err := codec.DecodeLog(data)
	if err != nil {
		return nil, err
	}
	for _, b := range bad {
		s.logger.Warn("skipping malformed history entry",
			zap.String(logger.FieldMethod, "FileHistoryStore.read"),
			zap.String("path", s.path),
			zap.Int(logger.FieldIndex, b.Index),
			zap.String(logger.FieldError, b.Reason))
	}
	return log, nil
}

// write 先写临时文件再 rename，保证文件内容完整
func (s *FileHistoryStore) write(log domain.HistoryLog) error {
	data, err := codec.EncodeLog(log)
	if err != nil {
		return storageErr("encode history", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return storageErr("create history dir", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return storageErr("create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storageErr("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return storageErr("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return storageErr("close temp file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return storageErr(fmt.Sprintf("rename %s", tmpName), err)
	}
	return nil
}

// ReadAll 读取全部记录
func (s *FileHistoryStore) ReadAll(ctx context.Context) (domain.HistoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// ReplaceAll 整体替换
func (s *FileHistoryStore) ReplaceAll(ctx context.Context, log domain.HistoryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(log)
}

// Append 头部追加
func (s *FileHistoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.read()
	if err != nil {
		return err
	}
	return s.write(log.Prepend(entry))
}

// Clear 清空历史
func (s *FileHistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(domain.HistoryLog{})
}

var _ domain.LocalHistoryStore = (*FileHistoryStore)(nil)
