package routers

import (
	"net/http"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/app"
	"github.com/haierkeys/fast-qr-history-sync/internal/middleware"
	"github.com/haierkeys/fast-qr-history-sync/internal/remote"
	"github.com/haierkeys/fast-qr-history-sync/internal/routers/api_router"
	pkgapp "github.com/haierkeys/fast-qr-history-sync/pkg/app"
	"github.com/haierkeys/fast-qr-history-sync/pkg/limiter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// DocumentRoute 历史文档接口，挂在 /api 下
	DocumentRoute = "/history/document"
	// EventsRoute websocket 推送接口，挂在 /api 下
	EventsRoute = "/history/events"
)

func newMethodLimiters() limiter.Face {
	return limiter.NewMethodLimiter().AddBuckets(
		limiter.BucketRule{
			Key:          limiter.MethodKey(http.MethodPut, remote.DocumentPath),
			FillInterval: time.Second,
			Capacity:     20,
			Quantum:      20,
		},
		limiter.BucketRule{
			Key:          limiter.MethodKey(http.MethodGet, "/api"+EventsRoute),
			FillInterval: time.Second,
			Capacity:     10,
			Quantum:      10,
		},
	)
}

// NewRouter 创建云端历史 API 路由
func NewRouter(appContainer *app.App) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()
	lg := appContainer.Logger()

	uni, err := pkgapp.Translator()
	if err != nil {
		lg.Warn("validator translations unavailable, bind errors stay untranslated", zap.Error(err))
	}

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
		if cfg.Tracer.Enabled {
			api.Use(middleware.TraceMiddleware(cfg.Tracer.Header)) // Trace ID 中间件
		}
		api.Use(middleware.RateLimiter(newMethodLimiters()))
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
		api.Use(middleware.Lang(uni))
		api.Use(middleware.AccessLog(lg))
		api.Use(middleware.Recovery(lg))

		// 创建 Handlers（注入 App Container）
		healthHandler := api_router.NewHealthHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)
		historyHandler := api_router.NewHistoryHandler(appContainer)

		// 无需认证
		api.GET("/health", healthHandler.Check)
		api.GET("/version", versionHandler.ServerVersion)

		auth := api.Group("", middleware.UserAuthToken(appContainer.TokenManager))
		auth.GET(DocumentRoute, historyHandler.Get)
		auth.PUT(DocumentRoute, historyHandler.Put)
		auth.GET(EventsRoute, appContainer.WebsocketServer.Run())
	}

	r.NoRoute(middleware.NoFound())

	return r
}
