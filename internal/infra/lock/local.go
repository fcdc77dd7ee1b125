package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is the single process fallback when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localEntry
	now   func() time.Time
	token uint64
}

type localEntry struct {
	token     uint64
	expiresAt time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localEntry), now: time.Now}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expiresAt) {
		return nil, false, nil
	}

	l.token++
	mine := l.token
	l.held[key] = localEntry{token: mine, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[key]; ok && e.token == mine {
			delete(l.held, key)
		}
		return nil
	}
	return release, true, nil
}
