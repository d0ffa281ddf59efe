package domain

import "time"

// RemoteAccount holds the single remote reader-service account. Token
// acquisition happens elsewhere; the sync core only needs the tokens to be
// available here.
type RemoteAccount struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountRowID is the fixed key of the single account row
const AccountRowID = "primary"
