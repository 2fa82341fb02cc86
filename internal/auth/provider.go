// Package auth connects authentication transitions to the history sync
// Package auth 将登录状态变化接入历史同步
package auth

import "sync"

// EventType auth transition kind
type EventType int

const (
	EventSignedOut EventType = iota
	EventSignedIn
)

func (t EventType) String() string {
	if t == EventSignedIn {
		return "SignedIn"
	}
	return "SignedOut"
}

// Event one auth transition, UID is set for SignedIn
// Event 登录状态变化事件
type Event struct {
	Type EventType
	UID  string
}

func SignedIn(uid string) Event {
	return Event{Type: EventSignedIn, UID: uid}
}

func SignedOut() Event {
	return Event{Type: EventSignedOut}
}

// Provider source of auth transitions
// Provider 登录状态提供者
type Provider interface {
	Subscribe() (<-chan Event, func())
}

// LocalProvider in-process provider driven by SignIn/SignOut calls
// LocalProvider 进程内的登录状态提供者，由 CLI 或宿主应用调用 SignIn/SignOut
type LocalProvider struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

var _ Provider = (*LocalProvider)(nil)

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{subs: make(map[int]chan Event)}
}

// Subscribe buffered event channel, cancel closes it
func (p *LocalProvider) Subscribe() (<-chan Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	ch := make(chan Event, 16)
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
}

func (p *LocalProvider) SignIn(uid string) {
	p.emit(SignedIn(uid))
}

func (p *LocalProvider) SignOut() {
	p.emit(SignedOut())
}

// emit never blocks, a subscriber whose buffer is full loses its oldest event
// emit 不阻塞，订阅者缓冲已满时丢弃最早的事件，保证最新状态可达
func (p *LocalProvider) emit(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
