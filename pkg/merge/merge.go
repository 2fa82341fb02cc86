// Package merge combines two history logs into one canonical log
// Package merge 合并本地与远端历史记录
package merge

import (
	"cmp"
	"slices"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
)

// Result merge output with bookkeeping for logs and metrics
// Result 合并结果
type Result struct {
	Log domain.HistoryLog
	// Duplicates number of entries dropped because an earlier one had the same content
	// Duplicates 因内容重复被丢弃的条数
	Duplicates int
}

// Merge concatenates local then remote, keeps the first entry per content
// and stable-sorts by timestamp descending
// Merge 先本地后远端拼接，按内容去重保留首次出现的记录，再按时间戳稳定降序排序
func Merge(local, remote domain.HistoryLog) domain.HistoryLog {
	return MergeWithStats(local, remote).Log
}

// MergeWithStats is Merge plus the count of dropped duplicates
// MergeWithStats 合并并统计重复条数
func MergeWithStats(local, remote domain.HistoryLog) Result {
	seen := make(map[string]struct{}, len(local)+len(remote))
	out := make(domain.HistoryLog, 0, len(local)+len(remote))
	dup := 0

	for _, src := range [2]domain.HistoryLog{local, remote} {
		for _, e := range src {
			if _, ok := seen[e.Content]; ok {
				dup++
				continue
			}
			seen[e.Content] = struct{}{}
			out = append(out, e)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.HistoryEntry) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	return Result{Log: out, Duplicates: dup}
}

// IsCanonical reports whether log has unique contents and descending timestamps
// IsCanonical 判断日志是否满足去重与降序
func IsCanonical(log domain.HistoryLog) bool {
	seen := make(map[string]struct{}, len(log))
	for i, e := range log {
		if _, ok := seen[e.Content]; ok {
			return false
		}
		seen[e.Content] = struct{}{}
		if i > 0 && log[i-1].Timestamp < e.Timestamp {
			return false
		}
	}
	return true
}
