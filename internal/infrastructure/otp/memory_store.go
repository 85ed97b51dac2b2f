package otp

import (
	"context"
	"sync"
	"time"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/logger"
)

var _ repository.SweepingOTPStore = (*MemoryStore)(nil)

// MemoryStore is a process-local TTL map of pending codes. It owns the
// goroutine that evicts expired entries.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entity.OTPEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entity.OTPEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Set(_ context.Context, phone string, entry *entity.OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = *entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, phone string) (*entity.OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[phone]
	if !ok {
		return nil, nil
	}
	if e.Expired(s.now()) {
		delete(s.entries, phone)
		return nil, nil
	}
	return &e, nil
}

func (s *MemoryStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}

func (s *MemoryStore) Modify(_ context.Context, phone string, fn func(entry *entity.OTPEntry) *entity.OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *entity.OTPEntry
	if e, ok := s.entries[phone]; ok && !e.Expired(s.now()) {
		current = &e
	}
	if next := fn(current); next != nil {
		s.entries[phone] = *next
	} else {
		delete(s.entries, phone)
	}
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for phone, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, phone)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweeper is a store that can evict expired entries in bulk.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// StartSweeper runs store.Sweep every interval until ctx is cancelled. The
// returned channel closes once the goroutine has exited.
func StartSweeper(ctx context.Context, store Sweeper, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.Sweep(ctx)
				if err != nil {
					logger.Warn("otp sweep failed: %v", err)
					continue
				}
				if n > 0 {
					logger.Debug("otp sweep removed %d expired codes", n)
				}
			}
		}
	}()
	return done
}
