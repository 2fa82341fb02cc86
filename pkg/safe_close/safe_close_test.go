package safe_close

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeClose_WaitsForAllUnits(t *testing.T) {
	sc := NewSafeClose()
	var finished atomic.Int32

	for i := 0; i < 3; i++ {
		sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			<-closeSignal
			time.Sleep(10 * time.Millisecond)
			finished.Add(1)
		})
	}

	sc.SendCloseSignal(nil)
	assert.NoError(t, sc.WaitClosed())
	assert.Equal(t, int32(3), finished.Load())
}

func TestSafeClose_FirstErrorWins(t *testing.T) {
	sc := NewSafeClose()
	first := errors.New("listen failed")

	sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		sc.SendCloseSignal(first)
	})
	<-sc.CloseSignal()
	sc.SendCloseSignal(errors.New("second"))

	assert.ErrorIs(t, sc.WaitClosed(), first)
}

func TestSafeClose_DoneIsIdempotent(t *testing.T) {
	sc := NewSafeClose()
	sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		done()
		done()
	})
	sc.SendCloseSignal(nil)
	assert.NoError(t, sc.WaitClosed())
}
