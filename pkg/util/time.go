package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses duration strings with a day suffix
// Supports 7d, 24h, 30m, 10s, a bare number means seconds
// ParseDuration 解析时间间隔，支持 7d（天）、24h、30m、10s，纯数字按秒处理
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	if _, err := strconv.Atoi(s); err == nil {
		s += "s"
	}
	return time.ParseDuration(s)
}

// ParseDurationOr returns fallback when s is empty or invalid
// ParseDurationOr 解析失败时返回默认值
func ParseDurationOr(s string, fallback time.Duration) time.Duration {
	if d, err := ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}

// NowMilli current time in milliseconds since epoch
// NowMilli 当前毫秒时间戳
func NowMilli() int64 {
	return time.Now().UnixMilli()
}
