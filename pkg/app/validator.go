package app

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// TransKey gin.Context 中存放当前请求翻译器的键
const TransKey = "trans"

var (
	uniOnce sync.Once
	uni     *ut.UniversalTranslator
	uniErr  error
)

// Translator returns the shared translator, registering gin's validator translations on first use
// Translator 返回全局翻译器，首次调用时为 gin 的参数校验注册中英文翻译与 form/json 字段名
func Translator() (*ut.UniversalTranslator, error) {
	uniOnce.Do(func() {
		uni = ut.New(en.New(), en.New(), zh.New())

		validate, ok := binding.Validator.Engine().(*validatorV10.Validate)
		if !ok {
			return
		}
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		zhTran, _ := uni.GetTranslator("zh")
		enTran, _ := uni.GetTranslator("en")
		if uniErr = zh_translations.RegisterDefaultTranslations(validate, zhTran); uniErr != nil {
			return
		}
		uniErr = en_translations.RegisterDefaultTranslations(validate, enTran)
	})
	return uni, uniErr
}

// LookupTranslator maps a request language (en, zh_cn, zh-CN ...) to a translator, English by default
// LookupTranslator 按请求语言查找翻译器，未知语言使用英文
func LookupTranslator(u *ut.UniversalTranslator, lang string) ut.Translator {
	lang = strings.ToLower(strings.ReplaceAll(lang, "-", "_"))
	if strings.HasPrefix(lang, "zh") {
		lang = "zh"
	}
	if trans, found := u.GetTranslator(lang); found {
		return trans
	}
	trans, _ := u.GetTranslator("en")
	return trans
}

// BindErrorDetails 将参数绑定错误翻译为当前请求语言，非校验错误原样返回
func BindErrorDetails(c *gin.Context, err error) []string {
	var verrs validatorV10.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	trans, ok := c.Value(TransKey).(ut.Translator)
	if !ok {
		out := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fe.Error())
		}
		return out
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Translate(trans))
	}
	return out
}
