// Package fileurl path helpers shared by storage backends
package fileurl

import (
	"os"
	"path"
	"strings"
)

// IsExist 判断路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	return err == nil || !os.IsNotExist(err)
}

// CreatePath 创建目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(dst, perm)
}

// PathSuffixCheckAdd 确保路径以 suffix 结尾
func PathSuffixCheckAdd(p string, suffix string) string {
	if !strings.HasSuffix(p, suffix) {
		p = p + suffix
	}
	return p
}

// JoinKey 拼接对象键，prefix 为空时原样返回 key
// 结果不以 / 开头
func JoinKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(key, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
