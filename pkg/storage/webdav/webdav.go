package webdav

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/haierkeys/fast-qr-history-sync/pkg/fileurl"
	"github.com/haierkeys/fast-qr-history-sync/pkg/storage/storeerr"

	"github.com/studio-b12/gowebdav"
)

// Config 结构体用于存储 WebDAV 连接信息。
type Config struct {
	Endpoint   string `yaml:"endpoint"`
	Path       string `yaml:"path"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	CustomPath string `yaml:"custom-path"`
}

// WebDAV 结构体表示 WebDAV 客户端。
type WebDAV struct {
	Client *gowebdav.Client
	Config *Config
}

// NewClient 创建一个新的 WebDAV 客户端实例。
func NewClient(conf *Config) (*WebDAV, error) {
	c := gowebdav.NewClient(conf.Endpoint, conf.User, conf.Password)
	return &WebDAV{Client: c, Config: conf}, nil
}

func (w *WebDAV) remotePath(key string) string {
	return "/" + fileurl.JoinKey(fileurl.JoinKey(w.Config.Path, w.Config.CustomPath), key)
}

// GetContent 读取远端文件
// gowebdav 不接受 context，请求超时由客户端 Timeout 控制
func (w *WebDAV) GetContent(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := w.Client.Read(w.remotePath(key))
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

// SendContent 写入远端文件，自动创建父目录
func (w *WebDAV) SendContent(ctx context.Context, key string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := w.remotePath(key)
	if err := w.Client.MkdirAll(path.Dir(p), 0o755); err != nil {
		return classify(err)
	}
	if err := w.Client.Write(p, content, 0o644); err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	switch {
	case gowebdav.IsErrNotFound(err):
		return fmt.Errorf("webdav: %w: %w", storeerr.ErrNotExist, err)
	case gowebdav.IsErrCode(err, http.StatusUnauthorized), gowebdav.IsErrCode(err, http.StatusForbidden):
		return fmt.Errorf("webdav: %w: %w", storeerr.ErrAccessDenied, err)
	}
	return fmt.Errorf("webdav: %w", err)
}
