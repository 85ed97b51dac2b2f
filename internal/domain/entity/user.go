package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserType string

const (
	UserTypeProvider UserType = "PROVIDER"
	UserTypeReceiver UserType = "RECEIVER"
)

func (t UserType) Valid() bool {
	return t == UserTypeProvider || t == UserTypeReceiver
}

type User struct {
	ID          string          `json:"id"`
	PhoneNumber string          `json:"phoneNumber"`
	Name        string          `json:"name"`
	Email       *string         `json:"email,omitempty"`
	UserType    UserType        `json:"userType"`
	IsAdmin     bool            `json:"isAdmin"`
	IsActive    bool            `json:"isActive"`
	Balance     decimal.Decimal `json:"balance"`
	Rating      float64         `json:"rating"`
	RatingCount int             `json:"ratingCount"`

	FCMToken     string `json:"-"`
	PasswordHash string `json:"-"`

	// Filled for providers when the profile is loaded.
	CategoryIDs []string `json:"categoryIds,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) IsProvider() bool {
	return u.UserType == UserTypeProvider
}

// PublicProfile is what other users may see about an account.
type PublicProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	UserType    UserType `json:"userType"`
	Rating      float64  `json:"rating"`
	RatingCount int      `json:"ratingCount"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Name:        u.Name,
		UserType:    u.UserType,
		Rating:      u.Rating,
		RatingCount: u.RatingCount,
	}
}
