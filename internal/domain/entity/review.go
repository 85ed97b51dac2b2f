package entity

import (
	"time"
)

// Review is a 1-5 rating one user leaves about another, optionally tied to
// a completed offer.
type Review struct {
	ID             string    `json:"id"`
	ReviewerID     string    `json:"reviewerId"`
	ReviewedUserID string    `json:"reviewedUserId"`
	OfferID        *string   `json:"offerId,omitempty"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
