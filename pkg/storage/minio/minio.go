package minio

import (
	"github.com/haierkeys/fast-qr-history-sync/pkg/storage/aws_s3"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
}

// MinIO 通过 S3 协议访问，使用 path-style 寻址
type MinIO struct {
	*aws_s3.S3
}

// NewClient 创建 MinIO 存储实例
func NewClient(conf *Config, logger *zap.Logger) (*MinIO, error) {
	if conf.Endpoint == "" {
		return nil, errors.New("minio: endpoint is required")
	}
	s, err := aws_s3.NewClient(&aws_s3.Config{
		Endpoint:        conf.Endpoint,
		Region:          conf.Region,
		BucketName:      conf.BucketName,
		AccessKeyID:     conf.AccessKeyID,
		AccessKeySecret: conf.AccessKeySecret,
		CustomPath:      conf.CustomPath,
		UsePathStyle:    true,
	}, aws_s3.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "minio")
	}
	return &MinIO{S3: s}, nil
}
