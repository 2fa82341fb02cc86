package cmd

import (
	"os"

	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"go.uber.org/zap"
)

// bootstrapLogger 读取配置前使用的控制台日志器，设置 DEBUG 环境变量时输出 debug 日志
var bootstrapLogger = newBootstrapLogger()

func newBootstrapLogger() *zap.Logger {
	level := "info"
	if os.Getenv("DEBUG") != "" {
		level = "debug"
	}
	lg, err := logger.NewLogger(logger.Config{Level: level})
	if err != nil {
		return zap.NewNop()
	}
	return lg
}
