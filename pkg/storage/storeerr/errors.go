// Package storeerr classified errors shared by storage backends
// Package storeerr 存储后端通用错误
package storeerr

import "errors"

var (
	// ErrNotExist object does not exist
	// ErrNotExist 对象不存在
	ErrNotExist = errors.New("storage object not found")
	// ErrAccessDenied credentials rejected or missing permission
	// ErrAccessDenied 凭证无效或无权限
	ErrAccessDenied = errors.New("storage access denied")
)
