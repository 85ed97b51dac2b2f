package entity

import (
	"encoding/json"
	"time"
)

type DemandStatus string

const (
	DemandStatusActive    DemandStatus = "ACTIVE"
	DemandStatusClosed    DemandStatus = "CLOSED"
	DemandStatusCompleted DemandStatus = "COMPLETED"
	DemandStatusCancelled DemandStatus = "CANCELLED"
)

func (s DemandStatus) Valid() bool {
	switch s {
	case DemandStatusActive, DemandStatusClosed, DemandStatusCompleted, DemandStatusCancelled:
		return true
	}
	return false
}

type Demand struct {
	ID           string          `json:"id"`
	DemandNumber int64           `json:"demandNumber"`
	UserID       string          `json:"userId"`
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	City         string          `json:"city"`
	District     string          `json:"district"`
	Answers      json.RawMessage `json:"answers,omitempty"`
	Status       DemandStatus    `json:"status"`
	IsApproved   bool            `json:"isApproved"`
	OfferCount   int             `json:"offerCount"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
