package notify

import (
	"context"
	"testing"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestHub_CoalescesPendingSignals(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	ctx := context.Background()
	h.HistoryChanged(ctx)
	h.HistoryChanged(ctx)
	h.HistoryChanged(ctx)

	<-ch
	select {
	case <-ch:
		t.Fatal("bursts should coalesce into a single pending signal")
	default:
	}
}

func TestHub_FanOutAndCancel(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()
	assert.Equal(t, 2, h.Subscribers())

	cancelA()
	cancelA()
	assert.Equal(t, 1, h.Subscribers())
	_, open := <-a
	assert.False(t, open)

	h.HistoryChanged(context.Background())
	_, open = <-b
	assert.True(t, open)
}

func TestMulti(t *testing.T) {
	calls := 0
	count := domain.NotifierFunc(func(context.Context) { calls++ })
	n := Multi(count, nil, LogNotifier{}, count)
	n.HistoryChanged(context.Background())
	assert.Equal(t, 2, calls)
}
