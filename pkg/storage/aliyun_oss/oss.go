package aliyun_oss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/haierkeys/fast-qr-history-sync/pkg/fileurl"
	"github.com/haierkeys/fast-qr-history-sync/pkg/storage/storeerr"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	Endpoint        string `yaml:"endpoint"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
}

type OSS struct {
	Client *oss.Client
	Bucket *oss.Bucket
	Config *Config
	logger *zap.Logger
}

// NewClient 创建阿里云 OSS 存储实例
func NewClient(conf *Config, logger *zap.Logger) (*OSS, error) {
	client, err := oss.New(conf.Endpoint, conf.AccessKeyID, conf.AccessKeySecret)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "aliyun_oss")
	}
	bucket, err := client.Bucket(conf.BucketName)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "aliyun_oss")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OSS{Client: client, Bucket: bucket, Config: conf, logger: logger}, nil
}

func (p *OSS) objectKey(key string) string {
	return fileurl.JoinKey(p.Config.CustomPath, key)
}

// GetContent 读取对象内容
func (p *OSS) GetContent(ctx context.Context, key string) ([]byte, error) {
	body, err := p.Bucket.GetObject(p.objectKey(key), oss.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "aliyun_oss: read body")
	}
	return data, nil
}

// SendContent 写入对象内容
func (p *OSS) SendContent(ctx context.Context, key string, content []byte) error {
	err := p.Bucket.PutObject(p.objectKey(key), bytes.NewReader(content),
		oss.WithContext(ctx), oss.ContentType("application/json"))
	if err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	var se oss.ServiceError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusNotFound || se.Code == "NoSuchKey":
			return fmt.Errorf("aliyun_oss: %w: %w", storeerr.ErrNotExist, err)
		case se.StatusCode == http.StatusForbidden || se.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("aliyun_oss: %w: %w", storeerr.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("aliyun_oss: %w", err)
}
