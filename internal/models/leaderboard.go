package models

import "time"

// LeaderboardEntry is derived from User.Bets and recomputed wholesale.
// ID preserves first-insertion order for tie breaking.
type LeaderboardEntry struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      int64  `gorm:"uniqueIndex;not null"`
	DisplayName string `gorm:"size:255"`
	Wins        int
	Losses      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
