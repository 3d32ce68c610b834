package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trendbet-bot/internal/models"
	"trendbet-bot/internal/store"
)

func seed(t *testing.T, s *store.MemoryStore, userID int64, name string, verdicts ...models.Verdict) {
	t.Helper()
	ctx := context.Background()
	_, err := s.GetOrCreate(ctx, models.Profile{TelegramID: userID, Username: name})
	require.NoError(t, err)

	for _, v := range verdicts {
		betID := uuid.NewString()
		ok, err := s.AppendBet(ctx, userID, models.Bet{
			BetID:        betID,
			Direction:    models.DirectionUp,
			PriceAtStart: 1,
			Status:       models.BetStatusOpen,
			Verdict:      models.VerdictUnresolved,
			PlacedAt:     time.Now().UTC(),
		})
		require.NoError(t, err)
		require.True(t, ok)
		if v != models.VerdictUnresolved {
			_, err := s.ResolveBet(ctx, userID, betID, 2, v)
			require.NoError(t, err)
		}
	}
}

func TestTally(t *testing.T) {
	bets := []models.Bet{
		{Status: models.BetStatusClosed, Verdict: models.VerdictWon},
		{Status: models.BetStatusClosed, Verdict: models.VerdictLost},
		{Status: models.BetStatusOpen, Verdict: models.VerdictUnresolved},
		{Status: models.BetStatusClosed, Verdict: models.VerdictWon},
	}
	wins, losses := Tally(bets)
	assert.Equal(t, 2, wins)
	assert.Equal(t, 1, losses)
}

func TestRecomputeEligibility(t *testing.T) {
	s := store.NewMemoryStore()
	won, lost := models.VerdictWon, models.VerdictLost
	seed(t, s, 1, "five", won, lost, won, lost, won)
	seed(t, s, 2, "four", won, won, won, won)
	seed(t, s, 3, "pending", won, models.VerdictUnresolved, models.VerdictUnresolved, lost, lost)

	agg := NewAggregator(s, s, 5, zap.NewNop())
	require.NoError(t, agg.Recompute(context.Background()))

	top, err := agg.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, int64(1), top[0].UserID)
	assert.Equal(t, "five", top[0].DisplayName)
	assert.Equal(t, 3, top[0].Wins)
	assert.Equal(t, 2, top[0].Losses)

	assert.Equal(t, int64(3), top[1].UserID)
	assert.Equal(t, 1, top[1].Wins)
	assert.Equal(t, 2, top[1].Losses)
}

func TestTopIsStableAndBounded(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.UpsertEntries(ctx, []models.LeaderboardEntry{
		{UserID: 1, Wins: 2},
		{UserID: 2, Wins: 5},
		{UserID: 3, Wins: 2},
		{UserID: 4, Wins: 7},
		{UserID: 5, Wins: 2},
	}))

	agg := NewAggregator(s, s, 0, zap.NewNop())

	top, err := agg.Top(ctx, 0)
	require.NoError(t, err)
	ids := make([]int64, 0, len(top))
	for _, e := range top {
		ids = append(ids, e.UserID)
	}
	assert.Equal(t, []int64{4, 2, 1, 3, 5}, ids)

	top, err = agg.Top(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestRecomputeUpdatesInPlace(t *testing.T) {
	s := store.NewMemoryStore()
	won := models.VerdictWon
	seed(t, s, 1, "a", won, won, won, won, won)

	agg := NewAggregator(s, s, 5, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, agg.Recompute(ctx))

	seed(t, s, 1, "a", models.VerdictLost)
	require.NoError(t, agg.Recompute(ctx))

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Wins)
	assert.Equal(t, 1, entries[0].Losses)
}
