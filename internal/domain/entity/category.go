package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Category is a node in the service-type tree. CommissionRate is per-mille.
type Category struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	ParentID       *string          `json:"parentId"`
	CommissionRate *decimal.Decimal `json:"commissionRate"`
	IsActive       bool             `json:"isActive"`
	ImageURL       string           `json:"imageUrl,omitempty"`
	Questions      json.RawMessage  `json:"questions,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Rate returns the commission rate, treating an unset rate as zero.
func (c *Category) Rate() decimal.Decimal {
	if c == nil || c.CommissionRate == nil {
		return decimal.Zero
	}
	return *c.CommissionRate
}

type CategoryNode struct {
	*Category
	Children []*CategoryNode `json:"children"`
}

// CategoryReferences counts the rows that block a category from being deleted.
type CategoryReferences struct {
	Demands     int64
	Children    int64
	Subscribers int64
}

func (r CategoryReferences) InUse() bool {
	return r.Demands > 0 || r.Children > 0 || r.Subscribers > 0
}
