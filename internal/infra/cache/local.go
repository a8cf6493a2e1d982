package cache

import (
	"context"
	"sync"
	"time"

	"industry-mailer/internal/domain"
)

// LocalLocker — блокировка в памяти процесса для запуска без Redis.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localLease
	now   func() time.Time
	token uint64
}

type localLease struct {
	token   uint64
	expires time.Time
}

var _ domain.Locker = (*LocalLocker)(nil)

// NewLocalLocker создаёт блокировщик в памяти.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localLease), now: time.Now}
}

// TryLock занимает ключ, если он свободен или его аренда истекла.
func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.held[key]; ok && now.Before(lease.expires) {
		return nil, false, nil
	}
	l.token++
	token := l.token
	l.held[key] = localLease{token: token, expires: now.Add(ttl)}

	unlock := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, ok := l.held[key]; ok && lease.token == token {
			delete(l.held, key)
		}
	}
	return unlock, true, nil
}
