// Package leaderboard derives win/loss tallies from user bet histories.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"trendbet-bot/internal/models"
	"trendbet-bot/internal/store"
)

const (
	DefaultMinBets = 5
	DefaultSize    = 10
)

// Aggregator recomputes the leaderboard wholesale from the user store.
type Aggregator struct {
	users   store.UserStore
	repo    store.LeaderboardRepo
	minBets int
	log     *zap.Logger

	// one recompute at a time so upserts never interleave
	mu sync.Mutex
}

func NewAggregator(users store.UserStore, repo store.LeaderboardRepo, minBets int, log *zap.Logger) *Aggregator {
	if minBets <= 0 {
		minBets = DefaultMinBets
	}
	return &Aggregator{
		users:   users,
		repo:    repo,
		minBets: minBets,
		log:     log,
	}
}

// Tally counts closed bets. Open bets are neither wins nor losses.
func Tally(bets []models.Bet) (wins, losses int) {
	for _, b := range bets {
		if b.IsOpen() {
			continue
		}
		switch b.Verdict {
		case models.VerdictWon:
			wins++
		case models.VerdictLost:
			losses++
		}
	}
	return wins, losses
}

// Recompute upserts an entry for every user with at least minBets bets.
func (a *Aggregator) Recompute(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("recompute leaderboard: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		if len(u.Bets) < a.minBets {
			continue
		}
		wins, losses := Tally(u.Bets)
		entries = append(entries, models.LeaderboardEntry{
			UserID:      u.TelegramID,
			DisplayName: u.DisplayName(),
			Wins:        wins,
			Losses:      losses,
		})
	}

	if err := a.repo.UpsertEntries(ctx, entries); err != nil {
		return fmt.Errorf("recompute leaderboard: %w", err)
	}

	a.log.Debug("leaderboard recomputed", zap.Int("users", len(users)), zap.Int("entries", len(entries)))
	return nil
}

// Top returns up to n entries by wins, descending. Ties keep insertion order.
func (a *Aggregator) Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	if n <= 0 {
		n = DefaultSize
	}

	entries, err := a.repo.Entries(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Wins > entries[j].Wins
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
