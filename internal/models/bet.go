package models

import (
	"fmt"
	"strings"
	"time"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionSame Direction = "same"
	DirectionDown Direction = "down"
)

// Directions is the menu order.
var Directions = []Direction{DirectionUp, DirectionSame, DirectionDown}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionSame, DirectionDown:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

type BetStatus string

const (
	BetStatusOpen   BetStatus = "open"
	BetStatusClosed BetStatus = "closed"
)

type Verdict string

const (
	VerdictUnresolved Verdict = "unresolved"
	VerdictWon        Verdict = "won"
	VerdictLost       Verdict = "lost"
)

// Bet is a single directional call on a token price. ID keeps placement order
// within a user; BetID is the public identifier used for resolution.
type Bet struct {
	ID           uint      `gorm:"primaryKey"`
	BetID        string    `gorm:"size:36;uniqueIndex;not null"`
	OwnerID      int64     `gorm:"index;not null"`
	Token        string    `gorm:"size:128;not null"`
	Network      string    `gorm:"size:32;not null"`
	Name         string    `gorm:"size:255"`
	Symbol       string    `gorm:"size:64"`
	Direction    Direction `gorm:"size:8;not null"`
	PriceAtStart float64   `gorm:"not null"`
	PriceAtEnd   *float64
	Status       BetStatus `gorm:"size:16;index;default:'open'"`
	Verdict      Verdict   `gorm:"size:16;default:'unresolved'"`
	PlacedAt     time.Time `gorm:"index"`
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (b Bet) IsOpen() bool { return b.Status == BetStatusOpen }

// Judge applies the win/loss rule to a freshly sampled price.
func Judge(direction Direction, startPrice, currentPrice float64) Verdict {
	switch direction {
	case DirectionDown:
		if currentPrice < startPrice {
			return VerdictWon
		}
	case DirectionUp:
		if currentPrice > startPrice {
			return VerdictWon
		}
	case DirectionSame:
		if currentPrice == startPrice {
			return VerdictWon
		}
	}
	return VerdictLost
}
