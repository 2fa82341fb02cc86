package middleware

import (
	"strings"

	"github.com/haierkeys/fast-qr-history-sync/pkg/app"
	"github.com/haierkeys/fast-qr-history-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest 依次从 query、header 中读取 token，支持 "Bearer " 前缀
func tokenFromRequest(c *gin.Context) string {
	var token string
	if s, ok := c.GetQuery("authorization"); ok {
		token = s
	} else if s := c.GetHeader("Authorization"); s != "" {
		token = s
	} else if s, ok := c.GetQuery("token"); ok {
		token = s
	} else if s := c.GetHeader("Token"); s != "" {
		token = s
	}
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

// UserAuthToken 用户 Token 认证中间件
// 缺少 Token 或 Token 无效时返回 401，解析结果存入 gin.Context 的 user_token
func UserAuthToken(tm app.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := tokenFromRequest(c)
		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		user, err := tm.Parse(token)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		c.Set(app.UserTokenKey, user)

		c.Next()
	}
}
