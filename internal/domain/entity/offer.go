package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "PENDING"
	OfferStatusAccepted  OfferStatus = "ACCEPTED"
	OfferStatusRejected  OfferStatus = "REJECTED"
	OfferStatusCompleted OfferStatus = "COMPLETED"
)

type Offer struct {
	ID                string          `json:"id"`
	DemandID          string          `json:"demandId"`
	ProviderID        string          `json:"providerId"`
	Price             decimal.Decimal `json:"price"`
	EstimatedTime     string          `json:"estimatedTime"`
	Message           string          `json:"message,omitempty"`
	Status            OfferStatus     `json:"status"`
	ProviderCompleted bool            `json:"providerCompleted"`
	// IsApproved is kept for API compatibility and is always true.
	IsApproved       bool            `json:"isApproved"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}
