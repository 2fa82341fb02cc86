package cmd

import (
	"context"
	"fmt"

	internalApp "github.com/haierkeys/fast-qr-history-sync/internal/app"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deviceFlags 设备端命令共用参数
type deviceFlags struct {
	config string // 配置文件路径
	token  string // 覆盖 remote.token
}

// openDevice 加载配置并创建设备端 App 容器，返回的 close 负责优雅关闭
func openDevice(f *deviceFlags) (*internalApp.App, func(), error) {
	path, err := resolveConfig(f.config)
	if err != nil {
		return nil, nil, err
	}
	cfg, _, err := internalApp.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if f.token != "" {
		cfg.Remote.Token = f.token
	}

	lg, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := initStorageWithConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("initStorage: %w", err)
	}

	var db *gorm.DB
	if cfg.Local.Type != internalApp.LocalTypeFile {
		db, err = initDatabaseWithConfig(cfg, lg)
		if err != nil {
			return nil, nil, fmt.Errorf("initDatabase: %w", err)
		}
	}

	a, err := internalApp.NewApp(cfg, lg, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create app container: %w", err)
	}

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			lg.Warn("device shutdown", zap.Error(err))
		}
		_ = lg.Sync()
	}
	return a, closeFn, nil
}
