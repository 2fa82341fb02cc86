package service

import (
	"errors"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_history_sync_total",
		Help: "Sign-in syncs by result",
	}, []string{"result"})

	syncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_history_sync_failures_total",
		Help: "Failed syncs by step and error class",
	}, []string{"step", "class"})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qr_history_sync_duration_seconds",
		Help:    "Duration of one sign-in sync",
		Buckets: prometheus.DefBuckets,
	})

	mergedEntries = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qr_history_merged_entries",
		Help:    "Entries in the canonical log after a merge",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	mergeDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_history_merge_duplicates_total",
		Help: "Entries dropped by content dedup",
	})

	historyAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_history_appends_total",
		Help: "Local history appends by kind",
	}, []string{"kind"})
)

// errorClass metrics label of a sync failure
func errorClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrPermission):
		return "permission"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	case errors.Is(err, domain.ErrStorage):
		return "storage"
	case errors.Is(err, domain.ErrMalformedDocument):
		return "malformed"
	}
	return "other"
}
