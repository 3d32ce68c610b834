// Package store persists users, their bets and the derived leaderboard.
//
// Every mutation of a user record is serialized per user id, so concurrent
// flows for the same user cannot lose each other's writes while flows for
// different users never wait on one another.
package store

import (
	"context"
	"errors"
	"time"

	"trendbet-bot/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrBetNotFound      = errors.New("bet not found")
	ErrBetAlreadyClosed = errors.New("bet already closed")
)

type UserStore interface {
	// GetOrCreate inserts a user with no wallet and no bets, or returns the
	// existing record untouched.
	GetOrCreate(ctx context.Context, profile models.Profile) (*models.User, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	// Get returns the user with bets in placement order, or ErrUserNotFound.
	Get(ctx context.Context, userID int64) (*models.User, error)
	// SetWallet reports false when the user does not exist. The address must
	// already be validated.
	SetWallet(ctx context.Context, userID int64, address string) (bool, error)
	// AppendBet reports false when the user does not exist.
	AppendBet(ctx context.Context, userID int64, bet models.Bet) (bool, error)
	// ResolveBet closes the bet identified by betID and returns it. Resolving a
	// closed bet returns ErrBetAlreadyClosed and writes nothing.
	ResolveBet(ctx context.Context, userID int64, betID string, finalPrice float64, verdict models.Verdict) (*models.Bet, error)
	// ListBets is empty for unknown users.
	ListBets(ctx context.Context, userID int64) ([]models.Bet, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// ListOpenBets returns open bets placed at or before placedBefore, oldest first.
	ListOpenBets(ctx context.Context, placedBefore time.Time) ([]models.Bet, error)
}

type LeaderboardRepo interface {
	// UpsertEntries updates entries in place by user id and inserts new ones.
	// Entries are never removed.
	UpsertEntries(ctx context.Context, entries []models.LeaderboardEntry) error
	// Entries returns all entries in first-insertion order.
	Entries(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// closeBet applies a resolution to b in place.
func closeBet(b *models.Bet, finalPrice float64, verdict models.Verdict, at time.Time) {
	price := finalPrice
	b.Status = models.BetStatusClosed
	b.Verdict = verdict
	b.PriceAtEnd = &price
	b.ResolvedAt = &at
}
