package limiter

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// MethodLimiter 按 "METHOD path" 限流，path 不含 query
type MethodLimiter struct {
	*Limiter
}

func NewMethodLimiter() Face {
	return &MethodLimiter{Limiter: &Limiter{}}
}

func (l *MethodLimiter) Key(c *gin.Context) string {
	uri := c.Request.RequestURI
	if index := strings.Index(uri, "?"); index != -1 {
		uri = uri[:index]
	}
	return MethodKey(c.Request.Method, uri)
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.add(rules...)
	return l
}

// MethodKey 生成 MethodLimiter 使用的规则键
func MethodKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}
