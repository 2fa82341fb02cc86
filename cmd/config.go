package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/haierkeys/fast-qr-history-sync/pkg/fileurl"
	"github.com/haierkeys/fast-qr-history-sync/pkg/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// defaultConfigPath 未找到配置文件时自动创建的位置
const defaultConfigPath = "config/config.yaml"

// defaultTokenKeyPlaceholder 默认配置中的 Token 密钥占位符，自动创建时替换为随机值
const defaultTokenKeyPlaceholder = "fast-qr-history-sync-Auth-Token"

// resolveConfig 返回要使用的配置文件路径
// 未指定时依次查找 config/config-dev.yaml、config.yaml、config/config.yaml，都不存在则写入默认配置
func resolveConfig(path string) (string, error) {
	if len(path) > 0 {
		return path, nil
	}
	for _, p := range []string{"config/config-dev.yaml", "config.yaml", defaultConfigPath} {
		if fileurl.IsExist(p) {
			return p, nil
		}
	}

	bootstrapLogger.Warn("config file not found, creating default config")
	content := strings.Replace(configDefault, defaultTokenKeyPlaceholder, util.GetRandomString(32), 1)

	if err := fileurl.CreatePath(filepath.Dir(defaultConfigPath), os.ModePerm); err != nil {
		return "", errors.Wrap(err, "config file auto create error")
	}
	if err := os.WriteFile(defaultConfigPath, []byte(content), 0644); err != nil {
		return "", errors.Wrap(err, "config file auto create writing error")
	}
	bootstrapLogger.Info("config file auto create successfully", zap.String("path", defaultConfigPath))
	return defaultConfigPath, nil
}
