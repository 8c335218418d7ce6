package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// Locker hands out exclusive, per-key locks. Acquire blocks until the lock
// is held or ctx is done.
type Locker interface {
	Acquire(ctx context.Context, key string) (Unlock, error)
}

func TeacherKey(teacherID uuid.UUID) string {
	return fmt.Sprintf("teacher:%s", teacherID)
}

// Local is an in-process Locker, enough for a single API instance.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

func (l *Local) Acquire(ctx context.Context, key string) (Unlock, error) {
	const op = "lock.Local.Acquire"

	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, s)
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.drop(key, s)
		})
		return nil
	}, nil
}

func (l *Local) drop(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held reports how many keys currently have holders or waiters.
func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
