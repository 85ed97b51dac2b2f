package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

const (
	otpDigits      = 6
	otpMaxAttempts = 5

	actionSendOTP = "send_otp"
)

type OTPConfig struct {
	TTL time.Duration
}

// OTPService issues and checks one-time login codes.
type OTPService struct {
	store   repository.OTPStore
	sms     SMSSender
	limiter RateLimiter
	cfg     OTPConfig

	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(store repository.OTPStore, sms SMSSender, limiter RateLimiter, cfg OTPConfig) *OTPService {
	if cfg.TTL <= 0 {
		cfg.TTL = 180 * time.Second
	}
	return &OTPService{
		store:    store,
		sms:      sms,
		limiter:  limiter,
		cfg:      cfg,
		now:      time.Now,
		generate: randomCode,
	}
}

func randomCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

type SendOTPResult struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId,omitempty"`
}

// SendOTP stores a fresh code for phone, replacing any pending one, and
// texts it.
func (s *OTPService) SendOTP(ctx context.Context, phone string) (*SendOTPResult, error) {
	if s.limiter != nil {
		if ok, wait := s.limiter.Allow(phone, actionSendOTP); !ok {
			return nil, errors.TooManyRequests(fmt.Sprintf("Too many code requests, try again in %d seconds", int(wait.Seconds())+1))
		}
	}

	code, err := s.generate()
	if err != nil {
		return nil, errors.Internal("Failed to generate code", err)
	}

	entry := &entity.OTPEntry{Code: code, ExpiresAt: s.now().Add(s.cfg.TTL)}
	if err := s.store.Set(ctx, phone, entry); err != nil {
		return nil, errors.Internal("Failed to store code", err)
	}

	jobID, err := s.sms.Send(ctx, phone, fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.cfg.TTL.Minutes())))
	if err != nil {
		if delErr := s.store.Delete(ctx, phone); delErr != nil {
			logger.Warn("failed to drop unsent code for %s: %v", phone, delErr)
		}
		return nil, errors.Internal("Failed to send verification code", err)
	}

	return &SendOTPResult{Success: true, JobID: jobID}, nil
}

// VerifyOTP reports whether code matches the pending code for phone. A match
// consumes the code; too many misses discard it. Concurrent calls with the
// right code succeed at most once.
func (s *OTPService) VerifyOTP(ctx context.Context, phone, code string) (bool, error) {
	var matched bool
	err := s.store.Modify(ctx, phone, func(entry *entity.OTPEntry) *entity.OTPEntry {
		matched = false
		if entry == nil || entry.Expired(s.now()) {
			return nil
		}
		if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) == 1 {
			matched = true
			return nil
		}
		entry.Attempts++
		if entry.Attempts >= otpMaxAttempts {
			return nil
		}
		return entry
	})
	if err != nil {
		return false, errors.Internal("Failed to check code", err)
	}
	return matched, nil
}
