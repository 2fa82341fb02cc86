// Package workerpool 提供有界的后台任务池
// 用于写入后的后台同步，限制并发并合并同一键的待执行任务
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 任务队列已满
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed 任务池已关闭
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 任务在执行前被取消
	ErrTaskCancelled = errors.New("task was cancelled")
)

// Config 任务池配置
type Config struct {
	// MaxWorkers 最大并发 worker 数量，默认 4
	MaxWorkers int
	// QueueSize 任务队列大小，默认 64
	QueueSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxWorkers: 4,
		QueueSize:  64,
	}
}

type keyState struct {
	running bool
	dirty   bool
	ctx     context.Context
	fn      func(context.Context) error
}

type task struct {
	ctx  context.Context
	key  string
	fn   func(context.Context) error
	done chan error
}

// Pool 固定数量 worker 的任务池
type Pool struct {
	config Config
	logger *zap.Logger

	taskCh   chan task
	workerWg sync.WaitGroup

	activeCount atomic.Int64

	// keys 已入队或执行中的键，执行期间再次提交会标记 dirty，结束后重跑一次
	keyMu sync.Mutex
	keys  map[string]*keyState

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// New 创建任务池，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: c,
		logger: logger,
		taskCh: make(chan task, c.QueueSize),
		keys:   make(map[string]*keyState),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < c.MaxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))

	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.taskCh:
			if !ok {
				return
			}
			p.run(t)
		}
	}
}

func (p *Pool) run(t task) {
	if t.key != "" {
		p.runKeyed(t)
		return
	}

	err := p.exec(t)
	if t.done != nil {
		t.done <- err
	} else if err != nil {
		p.logger.Warn("background task failed", zap.Error(err))
	}
}

// runKeyed 执行键任务，执行期间有新的提交时用最新的 fn 再执行一次
func (p *Pool) runKeyed(t task) {
	p.keyMu.Lock()
	st := p.keys[t.key]
	st.running = true
	p.keyMu.Unlock()

	for {
		if err := p.exec(t); err != nil {
			p.logger.Warn("background task failed", zap.String("key", t.key), zap.Error(err))
		}

		p.keyMu.Lock()
		if !st.dirty {
			delete(p.keys, t.key)
			p.keyMu.Unlock()
			return
		}
		st.dirty = false
		t.ctx, t.fn = st.ctx, st.fn
		p.keyMu.Unlock()
	}
}

func (p *Pool) exec(t task) error {
	p.activeCount.Add(1)
	defer p.activeCount.Add(-1)

	if t.ctx.Err() != nil {
		return ErrTaskCancelled
	}
	return t.fn(t.ctx)
}

func (p *Pool) enqueue(t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}
	select {
	case p.taskCh <- t:
		return nil
	default:
		return ErrWorkerPoolFull
	}
}

// Submit 提交任务并等待完成
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.enqueue(task{ctx: ctx, fn: fn, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrWorkerPoolClosed
	}
}

// SubmitAsync 异步提交任务，不等待结果
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(task{ctx: ctx, fn: fn})
}

// SubmitKeyed 异步提交任务，同一键已在队列中时直接合并
// 同一键正在执行时不会并发执行，而是在其结束后再执行一次
// 返回 false 表示被合并
func (p *Pool) SubmitKeyed(ctx context.Context, key string, fn func(context.Context) error) (bool, error) {
	p.keyMu.Lock()
	if st, ok := p.keys[key]; ok {
		if st.running {
			st.dirty = true
			st.ctx, st.fn = ctx, fn
		}
		p.keyMu.Unlock()
		return false, nil
	}
	p.keys[key] = &keyState{}
	p.keyMu.Unlock()

	if err := p.enqueue(task{ctx: ctx, key: key, fn: fn}); err != nil {
		p.keyMu.Lock()
		delete(p.keys, key)
		p.keyMu.Unlock()
		return false, err
	}
	return true, nil
}

// ActiveCount 当前执行中的任务数
func (p *Pool) ActiveCount() int64 {
	return p.activeCount.Load()
}

// QueuedCount 队列中等待的任务数
func (p *Pool) QueuedCount() int {
	return len(p.taskCh)
}

// IsClosed 是否已关闭
func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown 关闭任务池并等待已入队任务完成，ctx 控制等待超时
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.taskCh)
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down",
		zap.Int64("activeCount", p.activeCount.Load()),
		zap.Int("queuedCount", len(p.taskCh)))

	done := make(chan struct{})
	go func() {
		p.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shutdown completed")
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}
