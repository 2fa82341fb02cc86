// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/auth"
	"github.com/haierkeys/fast-qr-history-sync/internal/dao"
	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/internal/notify"
	"github.com/haierkeys/fast-qr-history-sync/internal/remote"
	"github.com/haierkeys/fast-qr-history-sync/internal/service"
	pkgapp "github.com/haierkeys/fast-qr-history-sync/pkg/app"
	"github.com/haierkeys/fast-qr-history-sync/pkg/storage"
	"github.com/haierkeys/fast-qr-history-sync/pkg/workerpool"
	"github.com/haierkeys/fast-qr-history-sync/pkg/writequeue"

	"github.com/lxzan/gws"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// StartTime 容器创建时间
	StartTime time.Time

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// 设备端
	LocalStore  domain.LocalHistoryStore
	RemoteStore domain.RemoteHistoryStore
	Hub         *notify.Hub

	SyncService    service.SyncService
	HistoryService service.HistoryService
	AuthProvider   *auth.LocalProvider
	AuthWatcher    *auth.Watcher

	// 云端
	DocumentStore   domain.RemoteHistoryStore
	TokenManager    pkgapp.TokenManager
	WebsocketServer *pkgapp.WebsocketServer

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// Option App 配置项
type Option func(*App)

// WithRemoteStore 替换按配置创建的远端存储
func WithRemoteStore(r domain.RemoteHistoryStore) Option {
	return func(a *App) { a.RemoteStore = r }
}

// WithLocalStore 替换按配置创建的本地存储
func WithLocalStore(l domain.LocalHistoryStore) Option {
	return func(a *App) { a.LocalStore = l }
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接，local.type 与 server.document-store 均不使用数据库时可为 nil
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	if db != nil {
		dbConfig := cfg.DaoConfig()
		a.Dao = dao.New(db, context.Background(),
			dao.WithConfig(&dbConfig),
			dao.WithLogger(logger),
		)
	}

	if err := a.initStores(); err != nil {
		a.abort()
		return nil, err
	}

	// 初始化 TokenManager
	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    pkgapp.DefaultTokenIssuer,
		Expiry:    cfg.GetTokenExpiry(),
	})
	a.WebsocketServer = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:   true,
			Recovery:           gws.Recovery,                         // 开启异常恢复
			PermessageDeflate:  gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ReadMaxPayloadSize: 1024 * 64,                            // 客户端只发送控制消息
		},
	}, logger)

	svcConfig := &service.ServiceConfig{
		Sync: service.SyncServiceConfig{
			OnWrite: cfg.Sync.OnWrite,
			Timeout: cfg.GetSyncTimeout(),
		},
		History: service.HistoryServiceConfig{
			AutoSave: cfg.AutoSave(),
		},
	}

	a.Hub = notify.NewHub()
	notifier := notify.Multi(a.Hub, notify.LogNotifier{Logger: logger})

	// 初始化 Service 层（依赖注入）
	a.SyncService = service.NewSyncService(a.LocalStore, a.RemoteStore, notifier, a.writeQueueMgr, logger, &svcConfig.Sync)
	a.AuthProvider = auth.NewLocalProvider()
	a.AuthWatcher = auth.NewWatcher(a.SyncService, logger)
	a.HistoryService = service.NewHistoryService(a.LocalStore, notifier, a.writeQueueMgr, logger, &svcConfig.History,
		service.WithSyncOnWrite(&svcConfig.Sync, a.workerPool, a.SyncService, a.AuthWatcher.CurrentUser),
	)

	logger.Info("App container initialized successfully",
		zap.String("localType", cfg.Local.Type),
		zap.String("remoteType", cfg.Remote.Type),
		zap.String("documentStore", cfg.Server.DocumentStore),
		zap.Bool("syncOnWrite", cfg.Sync.OnWrite),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// initStores 按配置创建本地存储、远端存储与服务端文档存储
func (a *App) initStores() error {
	cfg := a.config

	if a.LocalStore == nil {
		switch cfg.Local.Type {
		case LocalTypeFile:
			a.LocalStore = dao.NewFileHistoryStore(cfg.Local.FilePath, a.logger)
		case LocalTypeDatabase, "":
			if a.Dao == nil {
				return fmt.Errorf("local.type %q requires a database", LocalTypeDatabase)
			}
			a.LocalStore = dao.NewHistoryEntryRepository(a.Dao)
		default:
			return fmt.Errorf("unsupported local.type %q", cfg.Local.Type)
		}
	}

	var objects storage.Storager
	objectClient := func() (storage.Storager, error) {
		if objects != nil {
			return objects, nil
		}
		c, err := storage.NewClient(&cfg.Storage, a.logger)
		if err != nil {
			return nil, err
		}
		objects = c
		return c, nil
	}

	if a.RemoteStore == nil {
		switch cfg.Remote.Type {
		case remote.TypeHTTP, "":
			s, err := remote.NewHTTPStore(remote.HTTPConfig{
				Endpoint: cfg.Remote.Endpoint,
				Token:    cfg.Remote.Token,
				Timeout:  cfg.GetRemoteTimeout(),
				DeviceID: cfg.Remote.DeviceID,
			}, remote.WithHTTPLogger(a.logger))
			if err != nil {
				return err
			}
			a.RemoteStore = s
		case remote.TypeObject:
			c, err := objectClient()
			if err != nil {
				return err
			}
			a.RemoteStore = remote.NewObjectStore(c, a.logger)
		default:
			return fmt.Errorf("unsupported remote.type %q", cfg.Remote.Type)
		}
	}

	switch cfg.Server.DocumentStore {
	case DocumentStoreDatabase, "":
		if a.Dao != nil {
			a.DocumentStore = dao.NewDocumentRepository(a.Dao)
		}
	case DocumentStoreObject:
		c, err := objectClient()
		if err != nil {
			return err
		}
		a.DocumentStore = remote.NewObjectStore(c, a.logger)
	default:
		return fmt.Errorf("unsupported server.document-store %q", cfg.Server.DocumentStore)
	}
	return nil
}

// abort 初始化失败时释放已创建的组件
func (a *App) abort() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = a.workerPool.Shutdown(ctx)
	_ = a.writeQueueMgr.Shutdown(ctx)
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Name:      Name,
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager 获取 Write Queue Manager（用于高级操作）
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// StartAuthWatcher 订阅登录状态并在后台处理，关闭时自动退出
func (a *App) StartAuthWatcher(ctx context.Context) {
	events, cancel := a.AuthProvider.Subscribe()
	ctx, stop := context.WithCancel(ctx)
	done := a.TrackOperation()
	go func() {
		defer done()
		defer cancel()
		defer stop()
		go func() {
			select {
			case <-a.shutdownCh:
				stop()
			case <-ctx.Done():
			}
		}()
		a.AuthWatcher.Run(ctx, events)
	}()
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Websocket -> Worker Pool -> Write Queue Manager -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	// 如果没有提供 context，使用默认超时
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 0. 断开所有 websocket 连接
	if a.WebsocketServer != nil {
		a.WebsocketServer.CloseAll()
	}

	// 1. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 2. 关闭 Write Queue Manager（排空所有队列）
	if a.writeQueueMgr != nil {
		a.logger.Info("Shutting down write queue manager...")
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		} else {
			a.logger.Info("write queue manager shutdown completed")
		}
	}

	// 3. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 4. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
