package middleware

import (
	"strings"

	pkgapp "github.com/haierkeys/fast-qr-history-sync/pkg/app"
	"github.com/haierkeys/fast-qr-history-sync/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// Lang 根据 lang 参数或请求头切换响应消息语言，并为参数校验设置当前请求的翻译器
// uni 为 nil 时只切换消息语言，未知语言回退英文
func Lang(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if s, ok := c.GetQuery("lang"); ok {
			lang = s
		} else if s := c.GetHeader("lang"); s != "" {
			lang = s
		}

		if uni != nil {
			c.Set(pkgapp.TransKey, pkgapp.LookupTranslator(uni, lang))
		}
		if lang != "" {
			_ = code.SetGlobalDefaultLang(strings.ToLower(strings.ReplaceAll(lang, "-", "_")))
		}

		c.Next()
	}
}
