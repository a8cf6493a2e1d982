package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalLockerExclusive(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "topic:1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("ожидали успешный захват, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, "topic:1", time.Minute); ok {
		t.Fatal("повторный захват занятого ключа должен быть отклонён")
	}
	if _, ok, _ := l.TryLock(ctx, "topic:2", time.Minute); !ok {
		t.Fatal("другой ключ должен захватываться независимо")
	}

	unlock()
	if _, ok, _ := l.TryLock(ctx, "topic:1", time.Minute); !ok {
		t.Fatal("после освобождения ключ должен быть доступен")
	}
}

func TestLocalLockerExpiredLease(t *testing.T) {
	l := NewLocalLocker()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	staleUnlock, ok, _ := l.TryLock(context.Background(), "topic:1", time.Minute)
	if !ok {
		t.Fatal("ожидали успешный захват")
	}

	now = now.Add(2 * time.Minute)
	_, ok, _ = l.TryLock(context.Background(), "topic:1", time.Minute)
	if !ok {
		t.Fatal("истёкшая аренда не должна блокировать ключ")
	}

	// освобождение устаревшей аренды не снимает новую
	staleUnlock()
	if _, ok, _ := l.TryLock(context.Background(), "topic:1", time.Minute); ok {
		t.Fatal("устаревший unlock снял чужую блокировку")
	}
}
