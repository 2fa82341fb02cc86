// Package domain defines domain models and interfaces
// Package domain 定义领域模型和接口
package domain

import (
	"fmt"
	"time"
)

// EntryKind provenance of a history entry
// EntryKind 历史记录来源
type EntryKind string

const (
	// KindGenerated entry recorded by the generator
	// KindGenerated 生成二维码时记录
	KindGenerated EntryKind = "generated"
	// KindScanned entry recorded by the scanner
	// KindScanned 扫描二维码时记录
	KindScanned EntryKind = "scanned"
)

// Valid reports whether k is one of the two stored kinds
// Valid 判断 k 是否为合法类型
func (k EntryKind) Valid() bool {
	return k == KindGenerated || k == KindScanned
}

func (k EntryKind) String() string {
	return string(k)
}

// ParseEntryKind parses a stored kind value
// ParseEntryKind 解析类型字符串
func ParseEntryKind(s string) (EntryKind, error) {
	k := EntryKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown history kind %q: %w", s, ErrMalformedEntry)
	}
	return k, nil
}

// HistoryEntry one recorded generate/scan action
// HistoryEntry 一次生成/扫描操作的记录
type HistoryEntry struct {
	Kind      EntryKind
	Content   string
	Timestamp int64 // milliseconds since epoch, set once by the producer // 毫秒时间戳，创建后不可修改
}

// NewHistoryEntry creates an entry stamped with now when ts is zero
// NewHistoryEntry 创建历史记录，ts 为 0 时使用当前时间
func NewHistoryEntry(kind EntryKind, content string, ts int64) HistoryEntry {
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return HistoryEntry{Kind: kind, Content: content, Timestamp: ts}
}

// HistoryLog ordered sequence of history entries, most recent first once canonical
// HistoryLog 有序的历史记录序列
type HistoryLog []HistoryEntry

// Clone returns an independent copy of the log
// Clone 返回日志副本
func (l HistoryLog) Clone() HistoryLog {
	if l == nil {
		return HistoryLog{}
	}
	out := make(HistoryLog, len(l))
	copy(out, l)
	return out
}

// Prepend returns a new log with e at the head
// Prepend 在头部插入记录并返回新日志
func (l HistoryLog) Prepend(e HistoryEntry) HistoryLog {
	out := make(HistoryLog, 0, len(l)+1)
	out = append(out, e)
	return append(out, l...)
}

// Equal reports whether both logs hold the same entries in the same order
// Equal 判断两个日志是否完全相同
func (l HistoryLog) Equal(o HistoryLog) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if l[i] != o[i] {
			return false
		}
	}
	return true
}

// Filter returns entries matching f, keeping order
// Filter 按筛选条件过滤记录
func (l HistoryLog) Filter(f HistoryFilter) HistoryLog {
	if f == FilterAll || f == "" {
		return l.Clone()
	}
	out := HistoryLog{}
	for _, e := range l {
		if string(e.Kind) == string(f) {
			out = append(out, e)
		}
	}
	return out
}

// Validate splits the log into well-formed entries and the malformed ones it skipped
// Validate 校验日志，返回合法记录与被跳过的非法记录
func (l HistoryLog) Validate() (HistoryLog, []*MalformedEntryError) {
	out := make(HistoryLog, 0, len(l))
	var bad []*MalformedEntryError
	for i, e := range l {
		if !e.Kind.Valid() {
			bad = append(bad, &MalformedEntryError{Index: i, Reason: fmt.Sprintf("unknown kind %q", e.Kind)})
			continue
		}
		out = append(out, e)
	}
	return out, bad
}

// HistoryFilter view filter used by the history list
// HistoryFilter 历史列表筛选条件
type HistoryFilter string

const (
	FilterAll       HistoryFilter = "all"
	FilterGenerated HistoryFilter = HistoryFilter(KindGenerated)
	FilterScanned   HistoryFilter = HistoryFilter(KindScanned)
)

// ParseHistoryFilter parses all|generated|scanned
// ParseHistoryFilter 解析筛选条件
func ParseHistoryFilter(s string) (HistoryFilter, error) {
	switch HistoryFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterGenerated, FilterScanned:
		return HistoryFilter(s), nil
	}
	return "", fmt.Errorf("unknown history filter %q", s)
}
