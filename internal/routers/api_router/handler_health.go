// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/app"
	pkgapp "github.com/haierkeys/fast-qr-history-sync/pkg/app"
	"github.com/haierkeys/fast-qr-history-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status        string  `json:"status"`        // "healthy" 或 "unhealthy"
	Version       string  `json:"version"`       // 服务版本号
	Uptime        float64 `json:"uptime"`        // 运行时间（秒）
	Database      string  `json:"database"`      // "connected"、"error" 或 "disabled"
	DocumentStore string  `json:"documentStore"` // database | object
	Connections   int     `json:"connections"`   // 当前 websocket 连接数
}

// Check 健康检查接口，数据库不可达时返回 unhealthy
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:        "healthy",
		Version:       h.App.Version().Version,
		Uptime:        time.Since(h.App.StartTime).Seconds(),
		Database:      "disabled",
		DocumentStore: h.App.Config().Server.DocumentStore,
		Connections:   h.App.WebsocketServer.Count(),
	}

	if h.App.DB != nil {
		response.Database = "connected"
		sqlDB, err := h.App.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Status = "unhealthy"
			response.Database = "error"
			pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(response))
			return
		}
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}
