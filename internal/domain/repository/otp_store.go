package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

// OTPStore keeps one pending code per phone number. Get returns (nil, nil)
// for a missing or expired entry.
type OTPStore interface {
	Set(ctx context.Context, phone string, entry *entity.OTPEntry) error
	Get(ctx context.Context, phone string) (*entity.OTPEntry, error)
	Delete(ctx context.Context, phone string) error
	// Modify applies fn to the pending entry atomically. fn sees nil for a
	// missing or expired entry and returns the entry to keep, or nil to
	// delete it. fn may run more than once and must not have side effects
	// beyond its return value and captured results it resets on entry.
	Modify(ctx context.Context, phone string, fn func(entry *entity.OTPEntry) *entity.OTPEntry) error
}

// SweepingOTPStore is an OTPStore that can evict expired codes in bulk.
type SweepingOTPStore interface {
	OTPStore
	Sweep(ctx context.Context) (int, error)
}
