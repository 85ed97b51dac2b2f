package entity

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationNewOffer       NotificationType = "NEW_OFFER"
	NotificationOfferAccepted  NotificationType = "OFFER_ACCEPTED"
	NotificationOfferRejected  NotificationType = "OFFER_REJECTED"
	NotificationOfferCompleted NotificationType = "OFFER_COMPLETED"
	NotificationDemandApproved NotificationType = "DEMAND_APPROVED"
	NotificationDemandRejected NotificationType = "DEMAND_REJECTED"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Data      json.RawMessage  `json:"data,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}
