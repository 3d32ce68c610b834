package models

import (
	"time"
)

type User struct {
	ID            uint    `gorm:"primaryKey"`
	TelegramID    int64   `gorm:"uniqueIndex;not null"`
	Username      string  `gorm:"size:255"`
	FirstName     string  `gorm:"size:255"`
	WalletAddress *string `gorm:"size:64"`
	Bets          []Bet   `gorm:"foreignKey:OwnerID;references:TelegramID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DisplayName prefers the username and falls back to the first name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// HasWallet reports whether a validated wallet was submitted.
func (u User) HasWallet() bool {
	return u.WalletAddress != nil && *u.WalletAddress != ""
}

// Profile is the platform identity used to seed a new User.
type Profile struct {
	TelegramID int64
	Username   string
	FirstName  string
}
