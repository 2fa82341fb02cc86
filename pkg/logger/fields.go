package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldStep 同步步骤字段
	FieldStep = "step"

	// FieldEntries 记录条数字段
	FieldEntries = "entries"

	// FieldLocalEntries 本地记录条数
	FieldLocalEntries = "localEntries"

	// FieldRemoteEntries 远端记录条数
	FieldRemoteEntries = "remoteEntries"

	// FieldDuplicates 去重条数
	FieldDuplicates = "duplicates"

	// FieldIndex 记录下标
	FieldIndex = "index"

	// FieldKind 记录类型
	FieldKind = "kind"

	// FieldBackend 存储后端
	FieldBackend = "backend"

	// FieldFileKey 对象存储键
	FieldFileKey = "fileKey"

	// FieldDeviceID 设备 ID
	FieldDeviceID = "deviceId"
)
