package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
)

const otpCollection = "otp_codes"

// firestoreOTPStore shares pending codes across instances. Documents are
// keyed by phone number.
type firestoreOTPStore struct {
	client *firestore.Client
	now    func() time.Time
}

func NewFirestoreOTPStore(client *firestore.Client) repository.SweepingOTPStore {
	return &firestoreOTPStore{client: client, now: time.Now}
}

func (s *firestoreOTPStore) Set(ctx context.Context, phone string, entry *entity.OTPEntry) error {
	_, err := s.client.Collection(otpCollection).Doc(phone).Set(ctx, entry)
	return err
}

func (s *firestoreOTPStore) Get(ctx context.Context, phone string) (*entity.OTPEntry, error) {
	doc, err := s.client.Collection(otpCollection).Doc(phone).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry entity.OTPEntry
	if err := doc.DataTo(&entry); err != nil {
		return nil, err
	}
	if entry.Expired(s.now()) {
		return nil, nil
	}
	return &entry, nil
}

func (s *firestoreOTPStore) Delete(ctx context.Context, phone string) error {
	_, err := s.client.Collection(otpCollection).Doc(phone).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

// Modify reads and rewrites the code document in one Firestore transaction,
// which retries fn when a concurrent verify touched the same document.
func (s *firestoreOTPStore) Modify(ctx context.Context, phone string, fn func(entry *entity.OTPEntry) *entity.OTPEntry) error {
	ref := s.client.Collection(otpCollection).Doc(phone)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current *entity.OTPEntry
		doc, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			var entry entity.OTPEntry
			if err := doc.DataTo(&entry); err != nil {
				return err
			}
			if !entry.Expired(s.now()) {
				current = &entry
			}
		}

		next := fn(current)
		if next != nil {
			return tx.Set(ref, next)
		}
		if doc != nil && doc.Exists() {
			return tx.Delete(ref)
		}
		return nil
	})
}

// Sweep deletes every expired code document.
func (s *firestoreOTPStore) Sweep(ctx context.Context) (int, error) {
	iter := s.client.Collection(otpCollection).Where("expiresAt", "<=", s.now()).Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	removed := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return removed, err
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			bw.End()
			return removed, err
		}
		removed++
	}
	bw.End()
	return removed, nil
}
