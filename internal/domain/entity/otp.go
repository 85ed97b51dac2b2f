package entity

import "time"

type OTPEntry struct {
	Code      string    `json:"code" firestore:"code"`
	Attempts  int       `json:"attempts" firestore:"attempts"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt"`
}

func (e *OTPEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
