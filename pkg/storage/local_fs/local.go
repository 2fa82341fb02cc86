package local_fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haierkeys/fast-qr-history-sync/pkg/fileurl"
	"github.com/haierkeys/fast-qr-history-sync/pkg/storage/storeerr"
)

type Config struct {
	SavePath   string `yaml:"save-path" default:"storage/objects"`
	CustomPath string `yaml:"custom-path"`
}

// LocalFS 本地目录模拟对象存储
type LocalFS struct {
	Config *Config
}

func NewClient(conf *Config) (*LocalFS, error) {
	if conf.SavePath == "" {
		return nil, errors.New("local_fs: save-path is required")
	}
	return &LocalFS{Config: conf}, nil
}

func (p *LocalFS) filePath(key string) string {
	return filepath.Join(p.Config.SavePath, filepath.FromSlash(fileurl.JoinKey(p.Config.CustomPath, key)))
}

// GetContent 读取文件内容
func (p *LocalFS) GetContent(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(p.filePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("local_fs: %w: %w", storeerr.ErrNotExist, err)
	}
	if errors.Is(err, os.ErrPermission) {
		return nil, fmt.Errorf("local_fs: %w: %w", storeerr.ErrAccessDenied, err)
	}
	if err != nil {
		return nil, fmt.Errorf("local_fs: %w", err)
	}
	return data, nil
}

// SendContent 先写同目录下的唯一临时文件再 rename，同一 key 并发写入互不影响
func (p *LocalFS) SendContent(ctx context.Context, key string, content []byte) error {
	dst := p.filePath(key)
	if err := fileurl.CreatePath(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("local_fs: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("local_fs: %w: %w", storeerr.ErrAccessDenied, err)
		}
		return fmt.Errorf("local_fs: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("local_fs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local_fs: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("local_fs: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("local_fs: %w", err)
	}
	return nil
}
