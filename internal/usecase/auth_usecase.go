package usecase

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
)

// OTPVerifier is the part of OTPService the login flow needs.
type OTPVerifier interface {
	VerifyOTP(ctx context.Context, phone, code string) (bool, error)
}

type AuthUseCase struct {
	userRepo repository.UserRepository
	otp      OTPVerifier
	tokens   TokenIssuer
	hasher   PasswordHasher
}

func NewAuthUseCase(userRepo repository.UserRepository, otp OTPVerifier, tokens TokenIssuer, hasher PasswordHasher) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		otp:      otp,
		tokens:   tokens,
		hasher:   hasher,
	}
}

type VerifyOTPInput struct {
	PhoneNumber string
	Code        string
	UserType    entity.UserType
	Name        string
}

type AuthResult struct {
	Token     string       `json:"token"`
	User      *entity.User `json:"user"`
	IsNewUser bool         `json:"isNewUser"`
}

// VerifyOTP logs a user in with a one-time code, registering the phone
// number on first use.
func (uc *AuthUseCase) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*AuthResult, error) {
	user, err := uc.userRepo.GetByPhone(ctx, input.PhoneNumber)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	isNew := user == nil
	if isNew && !input.UserType.Valid() {
		return nil, errors.BadRequest("userType is required for new accounts (PROVIDER or RECEIVER)", nil)
	}

	ok, err := uc.otp.VerifyOTP(ctx, input.PhoneNumber, input.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Unauthorized("Invalid or expired verification code", nil)
	}

	if isNew {
		user = &entity.User{
			ID:          uuid.NewString(),
			PhoneNumber: input.PhoneNumber,
			Name:        strings.TrimSpace(input.Name),
			UserType:    input.UserType,
			IsActive:    true,
			Balance:     decimal.Zero,
		}
		if err := uc.userRepo.Create(ctx, user); err != nil {
			if !stderrors.Is(err, repository.ErrDuplicatePhone) {
				return nil, err
			}
			// Registered concurrently by another verification.
			if user, err = uc.userRepo.GetByPhone(ctx, input.PhoneNumber); err != nil {
				return nil, err
			}
			isNew = false
		}
	}

	if !user.IsActive {
		return nil, errors.Forbidden("Account is disabled", nil)
	}

	token, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}

	return &AuthResult{Token: token, User: user, IsNewUser: isNew}, nil
}

func (uc *AuthUseCase) AdminLogin(ctx context.Context, phone, password string) (*AuthResult, error) {
	invalid := errors.Unauthorized("Invalid credentials", nil)

	user, err := uc.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, invalid
		}
		return nil, err
	}
	if !user.IsAdmin || user.PasswordHash == "" || !uc.hasher.Compare(user.PasswordHash, password) {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, errors.Forbidden("Account is disabled", nil)
	}

	token, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
