package safe_close

import (
	"sync"
)

// SafeClose 协调多个后台执行单元的统一关闭
// 任一单元调用 SendCloseSignal 后，所有单元收到 closeSignal，WaitClosed 等待全部 done
type SafeClose struct {
	once       sync.Once
	mu         sync.Mutex
	wg         sync.WaitGroup
	closeCh    chan struct{}
	closeError error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{closeCh: make(chan struct{})}
}

// Attach 启动一个执行单元，fn 结束前必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var doneOnce sync.Once
	done := func() { doneOnce.Do(s.wg.Done) }
	go fn(done, s.closeCh)
}

// SendCloseSignal 发送关闭信号，仅第一次调用生效，err 为首个关闭原因
func (s *SafeClose) SendCloseSignal(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.closeError = err
		s.mu.Unlock()
		close(s.closeCh)
	})
}

// CloseSignal 返回关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeCh
}

// WaitClosed 等待所有执行单元结束，返回关闭原因
func (s *SafeClose) WaitClosed() error {
	<-s.closeCh
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeError
}
