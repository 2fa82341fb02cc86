package service

import (
	"context"
	"sync"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
)

// memLocal in-memory LocalHistoryStore
type memLocal struct {
	mu         sync.Mutex
	log        domain.HistoryLog
	readErr    error
	replaceErr error
	reads      int
	replaces   int
}

func newMemLocal(log domain.HistoryLog) *memLocal {
	return &memLocal{log: log.Clone()}
}

func (m *memLocal) ReadAll(ctx context.Context) (domain.HistoryLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.log.Clone(), nil
}

func (m *memLocal) ReplaceAll(ctx context.Context, log domain.HistoryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.log = log.Clone()
	return nil
}

func (m *memLocal) Append(ctx context.Context, entry domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.log = m.log.Prepend(entry)
	return nil
}

func (m *memLocal) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = domain.HistoryLog{}
	return nil
}

func (m *memLocal) snapshot() domain.HistoryLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log.Clone()
}

// memRemote in-memory RemoteHistoryStore keyed by uid
type memRemote struct {
	mu       sync.Mutex
	docs     map[string]domain.HistoryLog
	readErr  error
	writeErr error
	reads    int
	writes   int
	// onRead runs after the document is loaded and before it is returned
	onRead func()
	// onWrite runs before the document is stored
	onWrite func()
}

func newMemRemote() *memRemote {
	return &memRemote{docs: map[string]domain.HistoryLog{}}
}

func (m *memRemote) ReadDocument(ctx context.Context, uid string) (domain.HistoryLog, bool, error) {
	m.mu.Lock()
	m.reads++
	err := m.readErr
	log, found := m.docs[uid]
	hook := m.onRead
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, false, err
	}
	if !found {
		return domain.HistoryLog{}, false, nil
	}
	return log.Clone(), true, nil
}

func (m *memRemote) WriteDocument(ctx context.Context, uid string, log domain.HistoryLog) error {
	m.mu.Lock()
	hook := m.onWrite
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.docs[uid] = log.Clone()
	return nil
}

func (m *memRemote) doc(uid string) (domain.HistoryLog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log, ok := m.docs[uid]
	return log.Clone(), ok
}

func (m *memRemote) set(f func(m *memRemote)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(m)
}

// countingNotifier counts HistoryChanged calls
type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNotifier) HistoryChanged(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}
