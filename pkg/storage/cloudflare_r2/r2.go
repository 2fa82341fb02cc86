package cloudflare_r2

import (
	"fmt"

	"github.com/haierkeys/fast-qr-history-sync/pkg/storage/aws_s3"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	AccountID       string `yaml:"account-id"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
}

// R2 Cloudflare R2 is S3 compatible, requests go through the aws_s3 client
// R2 Cloudflare R2 兼容 S3 协议，复用 aws_s3 客户端
type R2 struct {
	*aws_s3.S3
}

// Endpoint returns the account scoped R2 endpoint
func Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewClient creates an R2 storage instance
// NewClient 创建 R2 存储实例
func NewClient(conf *Config, logger *zap.Logger) (*R2, error) {
	if conf.AccountID == "" {
		return nil, errors.New("cloudflare_r2: account-id is required")
	}
	s, err := aws_s3.NewClient(&aws_s3.Config{
		Endpoint:        Endpoint(conf.AccountID),
		Region:          "auto",
		BucketName:      conf.BucketName,
		AccessKeyID:     conf.AccessKeyID,
		AccessKeySecret: conf.AccessKeySecret,
		CustomPath:      conf.CustomPath,
	}, aws_s3.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "cloudflare_r2")
	}
	return &R2{S3: s}, nil
}
