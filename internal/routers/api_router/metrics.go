package api_router

import (
	"expvar"
	"sync"
	"sync/atomic"

	"github.com/haierkeys/fast-qr-history-sync/internal/app"

	"github.com/gin-gonic/gin"
)

var (
	publishOnce sync.Once
	expvarApp   atomic.Pointer[app.App]
)

// PublishExpvar 注册容器运行状态到 expvar，变量只注册一次，始终读取最后传入的容器
func PublishExpvar(a *app.App) {
	expvarApp.Store(a)
	publishOnce.Do(func() {
		publish := func(name string, fn func(a *app.App) any) {
			expvar.Publish(name, expvar.Func(func() any {
				if a := expvarApp.Load(); a != nil {
					return fn(a)
				}
				return nil
			}))
		}
		publish("history_ws_connections", func(a *app.App) any { return a.WebsocketServer.Count() })
		publish("history_write_queues", func(a *app.App) any { return a.WriteQueueManager().QueueCount() })
		publish("history_workers_active", func(a *app.App) any { return a.WorkerPool().ActiveCount() })
		publish("history_workers_queued", func(a *app.App) any { return a.WorkerPool().QueuedCount() })
	})
}

// Expvar 导出 expvar 指标（memstats、cmdline 以及上面注册的变量）
func Expvar(c *gin.Context) {
	expvar.Handler().ServeHTTP(c.Writer, c.Request)
}
