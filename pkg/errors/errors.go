package errors

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/internal/middleware"
	"github.com/haierkeys/fast-qr-history-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// AppError 统一应用错误结构体
// 包含错误码、消息、详情、追踪ID和时间戳
type AppError struct {
	// Code 错误码
	Code int `json:"code"`
	// Status 恒为 false，与成功响应的结构保持一致
	Status bool `json:"status"`
	// Message 错误消息
	Message string `json:"message"`
	// Details 错误详情（可选）
	Details []string `json:"details,omitempty"`
	// TraceID 请求追踪ID
	TraceID string `json:"traceId,omitempty"`
	// Cause 原始错误（不序列化到JSON）
	Cause error `json:"-"`
	// Timestamp 错误发生时间
	Timestamp time.Time `json:"timestamp"`

	httpStatus int
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap 实现 errors.Unwrap 接口，支持错误链路追踪
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode HTTP 状态码
func (e *AppError) StatusCode() int {
	return e.httpStatus
}

// NewAppError 从 Code 对象创建 AppError
func NewAppError(c *code.Code, cause error) *AppError {
	return &AppError{
		Code:       c.Code(),
		Message:    c.Msg(),
		Details:    c.Details(),
		Cause:      cause,
		Timestamp:  time.Now(),
		httpStatus: c.StatusCode(),
	}
}

// WithTraceID 设置 TraceID 并返回自身（链式调用）
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// WithDetails 设置详情并返回自身（链式调用）
func (e *AppError) WithDetails(details ...string) *AppError {
	e.Details = details
	return e
}

// CodeOf 将领域错误映射为响应码
func CodeOf(err error) *code.Code {
	var codeErr *code.Code
	switch {
	case err == nil:
		return code.Success
	case errors.As(err, &codeErr):
		return codeErr
	case errors.Is(err, domain.ErrMalformedDocument), errors.Is(err, domain.ErrMalformedEntry):
		return code.ErrorHistoryDocumentInvalid
	case errors.Is(err, domain.ErrPermission):
		return code.ErrorUserForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return code.ErrorRequestTimeout
	case errors.Is(err, domain.ErrStorage), errors.Is(err, domain.ErrNetwork):
		return code.ErrorHistoryStorage
	}
	return code.ErrorServerInternal
}

// ErrorResponse 统一错误响应处理
// 从 gin.Context 获取 TraceID，将错误转换为 AppError 并返回 JSON 响应
func ErrorResponse(c *gin.Context, err error) {
	traceID := middleware.GetTraceIDFromGin(c)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewAppError(CodeOf(err), err)
		if err != nil && appErr.Code == code.ErrorHistoryDocumentInvalid.Code() {
			appErr.Details = []string{err.Error()}
		}
	}
	appErr.TraceID = traceID

	if err != nil {
		_ = c.Error(err)
	}
	c.Set("status_code", appErr.StatusCode())
	c.AbortWithStatusJSON(appErr.StatusCode(), appErr)
}

// IsAppError 检查错误是否为 AppError 类型
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
