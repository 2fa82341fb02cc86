package middleware

import (
	"github.com/haierkeys/fast-qr-history-sync/pkg/app"
	"github.com/haierkeys/fast-qr-history-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound 404 处理
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).ToResponse(code.ErrorNotFound)
		c.Abort()
	}
}
