package repository

import "errors"

// Storage-level outcomes that use cases translate into user-facing errors.
var (
	ErrDuplicateOffer      = errors.New("offer already exists for this demand and provider")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceLimit        = errors.New("balance would exceed the allowed maximum")
	ErrStateChanged        = errors.New("row no longer in the expected state")
	ErrDuplicateReview     = errors.New("review already exists")
	ErrDuplicateCategory   = errors.New("category name already exists")
	ErrDuplicatePhone      = errors.New("phone number already registered")
)
