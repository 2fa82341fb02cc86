package code

import "net/http"

var (
	Success = NewSuss(1, lang{en: "Success", zh_cn: "成功"})

	SuccessHistoryRead  = NewSuss(101, lang{en: "History document loaded", zh_cn: "历史文档读取成功"})
	SuccessHistoryWrite = NewSuss(102, lang{en: "History document saved", zh_cn: "历史文档保存成功"})

	Failed                    = NewError(400, lang{en: "Operation failed", zh_cn: "操作失败"}, http.StatusBadRequest)
	ErrorInvalidParams        = NewError(405, lang{en: "Invalid params", zh_cn: "参数错误"}, http.StatusBadRequest)
	ErrorNotFound             = NewError(406, lang{en: "Resource not found", zh_cn: "资源不存在"}, http.StatusNotFound)
	ErrorTooManyRequests      = NewError(407, lang{en: "Too many requests", zh_cn: "请求过多"}, http.StatusTooManyRequests)
	ErrorServerInternal       = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"}, http.StatusInternalServerError)
	ErrorRequestTimeout       = NewError(504, lang{en: "Request timeout", zh_cn: "请求超时"}, http.StatusGatewayTimeout)
	ErrorNotUserAuthToken     = NewError(505, lang{en: "Missing auth token", zh_cn: "缺少授权 Token"}, http.StatusUnauthorized)
	ErrorInvalidUserAuthToken = NewError(506, lang{en: "Invalid or expired auth token", zh_cn: "授权 Token 无效或已过期"}, http.StatusUnauthorized)
	ErrorUserForbidden        = NewError(507, lang{en: "Access to this history is forbidden", zh_cn: "无权访问该历史记录"}, http.StatusForbidden)

	ErrorInvalidStorageType      = NewError(601, lang{en: "Unsupported storage type", zh_cn: "不支持的存储类型"})
	ErrorHistoryStorage          = NewError(602, lang{en: "History storage unavailable", zh_cn: "历史存储不可用"}, http.StatusInternalServerError)
	ErrorHistoryDocumentInvalid  = NewError(603, lang{en: "History document is malformed", zh_cn: "历史文档格式错误"}, http.StatusBadRequest)
	ErrorHistoryDocumentTooLarge = NewError(604, lang{en: "History document is too large", zh_cn: "历史文档过大"}, http.StatusRequestEntityTooLarge)
)
