package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy of the history sync engine, matched with errors.Is
// 历史同步错误分类，使用 errors.Is 判断
var (
	// ErrStorage local persistence unavailable
	// ErrStorage 本地存储不可用
	ErrStorage = errors.New("history storage unavailable")
	// ErrNetwork remote store unreachable, retried on the next sign-in
	// ErrNetwork 远端不可达，下次登录时重试
	ErrNetwork = errors.New("remote history unreachable")
	// ErrPermission remote access denied for this user
	// ErrPermission 远端拒绝访问
	ErrPermission = errors.New("remote history access denied")
	// ErrMalformedEntry a stored record failed shape validation
	// ErrMalformedEntry 存储记录格式非法
	ErrMalformedEntry = errors.New("malformed history entry")
	// ErrMalformedDocument a stored log could not be parsed as a whole
	// ErrMalformedDocument 整个历史文档无法解析
	ErrMalformedDocument = errors.New("malformed history document")
)

// MalformedEntryError describes one skipped record
// MalformedEntryError 描述一条被跳过的记录
type MalformedEntryError struct {
	Index  int
	Reason string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("history entry %d: %s", e.Index, e.Reason)
}

func (e *MalformedEntryError) Unwrap() error {
	return ErrMalformedEntry
}

// KindError cause classified under one taxonomy sentinel, both match errors.Is
// KindError 带分类的底层错误，分类与原因都可被 errors.Is 匹配
type KindError struct {
	Kind  error
	Cause error
}

// WithKind classifies cause under kind, nil cause yields nil
func WithKind(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &KindError{Kind: kind, Cause: cause}
}

func (e *KindError) Error() string {
	return e.Kind.Error() + ": " + e.Cause.Error()
}

func (e *KindError) Is(target error) bool {
	return target == e.Kind
}

func (e *KindError) Unwrap() error {
	return e.Cause
}

// SyncStep identifies the orchestrator step that failed
// SyncStep 同步步骤
type SyncStep string

const (
	StepReadLocal    SyncStep = "read-local"
	StepReadRemote   SyncStep = "read-remote"
	StepMerge        SyncStep = "merge"
	StepReplaceLocal SyncStep = "replace-local"
	StepWriteRemote  SyncStep = "write-remote"
)

// SyncError sync aborted at Step for UID
// SyncError 同步在某一步骤中止
type SyncError struct {
	Step SyncStep
	UID  string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("history sync for %q failed at %s: %v", e.UID, e.Step, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later sign-in may succeed without re-authentication
// Retryable 是否可在下次登录时重试
func (e *SyncError) Retryable() bool {
	return !errors.Is(e.Err, ErrPermission) && !errors.Is(e.Err, ErrMalformedDocument)
}

// LocalStateMerged reports whether the local store already holds the merged log
// LocalStateMerged 本地是否已经写入合并结果
func (e *SyncError) LocalStateMerged() bool {
	return e.Step == StepWriteRemote
}
