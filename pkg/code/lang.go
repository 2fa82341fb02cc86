package code

import (
	"errors"
	"sync/atomic"
)

// lang English and Chinese text of one code
// lang 存储英文和中文文本
type lang struct {
	en    string
	zh_cn string
}

const FALLBACK_LNG = "en"

var supported = []string{"en", "zh_cn"}

// lng 全局语言，包级变量初始化（注册错误码）时尚未写入
var lng atomic.Value

func currentLang() string {
	if v, ok := lng.Load().(string); ok {
		return v
	}
	return FALLBACK_LNG
}

// GetMessage returns the message in the global language, falling back to English
// GetMessage 按全局语言返回消息，缺失时回退英文
func (l lang) GetMessage() string {
	if currentLang() == "zh_cn" && l.zh_cn != "" {
		return l.zh_cn
	}
	if l.en != "" {
		return l.en
	}
	return l.zh_cn
}

// GetSupportedLanguages 返回支持的语言
func GetSupportedLanguages() []string {
	return append([]string{}, supported...)
}

// SetGlobalDefaultLang sets the global language, unknown values reset to English
// SetGlobalDefaultLang 设置全局语言，不支持的语言重置为英文
func SetGlobalDefaultLang(language string) error {
	for _, s := range supported {
		if s == language {
			lng.Store(language)
			return nil
		}
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang 获取全局语言
func GetGlobalDefaultLang() string {
	return currentLang()
}
