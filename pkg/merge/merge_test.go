package merge

import (
	"testing"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func generated(c string, ts int64) domain.HistoryEntry {
	return domain.HistoryEntry{Kind: domain.KindGenerated, Content: c, Timestamp: ts}
}

func scan(c string, ts int64) domain.HistoryEntry {
	return domain.HistoryEntry{Kind: domain.KindScanned, Content: c, Timestamp: ts}
}

func TestMerge_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		local  domain.HistoryLog
		remote domain.HistoryLog
		want   domain.HistoryLog
	}{
		{
			name:   "remote empty",
			local:  domain.HistoryLog{generated("A", 100)},
			remote: domain.HistoryLog{},
			want:   domain.HistoryLog{generated("A", 100)},
		},
		{
			name:   "local wins on duplicate content",
			local:  domain.HistoryLog{generated("A", 200)},
			remote: domain.HistoryLog{scan("A", 100)},
			want:   domain.HistoryLog{generated("A", 200)},
		},
		{
			name:   "local wins even when remote is newer",
			local:  domain.HistoryLog{generated("A", 100)},
			remote: domain.HistoryLog{scan("A", 900)},
			want:   domain.HistoryLog{generated("A", 100)},
		},
		{
			name:   "union sorted by timestamp descending",
			local:  domain.HistoryLog{generated("A", 100), scan("B", 300)},
			remote: domain.HistoryLog{generated("C", 200)},
			want:   domain.HistoryLog{scan("B", 300), generated("C", 200), generated("A", 100)},
		},
		{
			name:   "remote absent returns local sorted",
			local:  domain.HistoryLog{generated("A", 100), scan("B", 300), generated("C", 200)},
			remote: nil,
			want:   domain.HistoryLog{scan("B", 300), generated("C", 200), generated("A", 100)},
		},
		{
			name:   "equal timestamps keep first-encounter order",
			local:  domain.HistoryLog{generated("X", 50), generated("Y", 50)},
			remote: domain.HistoryLog{scan("Z", 50)},
			want:   domain.HistoryLog{generated("X", 50), generated("Y", 50), scan("Z", 50)},
		},
		{
			name:   "duplicates inside local collapse to the first",
			local:  domain.HistoryLog{generated("A", 10), scan("A", 20)},
			remote: nil,
			want:   domain.HistoryLog{generated("A", 10)},
		},
		{
			name:   "both empty",
			local:  nil,
			remote: nil,
			want:   domain.HistoryLog{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.local, tt.remote)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsCanonical(got))
		})
	}
}

func TestMergeWithStats_CountsDuplicates(t *testing.T) {
	res := MergeWithStats(
		domain.HistoryLog{generated("A", 1), generated("B", 2)},
		domain.HistoryLog{scan("A", 3), scan("B", 4), scan("C", 5)},
	)
	assert.Equal(t, 2, res.Duplicates)
	assert.Len(t, res.Log, 3)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	local := domain.HistoryLog{generated("A", 1), generated("B", 2)}
	remote := domain.HistoryLog{scan("C", 3)}
	localCopy := local.Clone()
	remoteCopy := remote.Clone()

	_ = Merge(local, remote)

	assert.Equal(t, localCopy, local)
	assert.Equal(t, remoteCopy, remote)
}

// genEntry small content alphabet so duplicates are common
func genEntry() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(domain.KindGenerated, domain.KindScanned),
		gen.OneConstOf("a", "b", "c", "d", "e", "f", "https://x.y", ""),
		gen.Int64Range(0, 20),
	).Map(func(v []interface{}) domain.HistoryEntry {
		return domain.HistoryEntry{
			Kind:      v[0].(domain.EntryKind),
			Content:   v[1].(string),
			Timestamp: v[2].(int64),
		}
	})
}

func genLog() gopter.Gen {
	return gen.SliceOf(genEntry()).Map(func(v []domain.HistoryEntry) domain.HistoryLog {
		return domain.HistoryLog(v)
	})
}

func TestProperty_MergeInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 幂等: merge(merge(L,R), merge(L,R)) == merge(L,R)
	properties.Property("merge is idempotent", prop.ForAll(
		func(l, r domain.HistoryLog) bool {
			m := Merge(l, r)
			return Merge(m, m).Equal(m)
		},
		genLog(), genLog(),
	))

	// 重新合并已合并结果不改变内容
	properties.Property("re-merging with the merged result is stable", prop.ForAll(
		func(l, r domain.HistoryLog) bool {
			m := Merge(l, r)
			return Merge(m, r).Equal(m) && Merge(l, m).Equal(Merge(l, r))
		},
		genLog(), genLog(),
	))

	// 内容并集，本地优先
	properties.Property("content set is the union with local precedence", prop.ForAll(
		func(l, r domain.HistoryLog) bool {
			m := Merge(l, r)
			byContent := map[string]domain.HistoryEntry{}
			for _, e := range m {
				byContent[e.Content] = e
			}
			first := map[string]domain.HistoryEntry{}
			for _, e := range append(l.Clone(), r...) {
				if _, ok := first[e.Content]; !ok {
					first[e.Content] = e
				}
			}
			if len(first) != len(byContent) {
				return false
			}
			for c, e := range first {
				if byContent[c] != e {
					return false
				}
			}
			return true
		},
		genLog(), genLog(),
	))

	// 降序且无重复
	properties.Property("result is sorted and duplicate free", prop.ForAll(
		func(l, r domain.HistoryLog) bool {
			return IsCanonical(Merge(l, r))
		},
		genLog(), genLog(),
	))

	properties.TestingRun(t)
}
