package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trendbet-bot/internal/models"
)

func TestTrendingListKeepsTrueRanks(t *testing.T) {
	tokens := []models.TokenSnapshot{
		{Rank: 3, Name: "Pepe", Symbol: "PEPE"},
		{Rank: 4, Name: "Bonk", Symbol: "BONK"},
	}

	got := TrendingList("solana", tokens, true)
	assert.Equal(t, "These are the coins that are available for betting on the solana chain:\n3. Pepe ( PEPE )\n4. Bonk ( BONK )", got)

	got = TrendingList("bsc", tokens[:1], false)
	assert.Equal(t, "These are the coins that are top 10 trending on the bsc chain:\n3. Pepe ( PEPE )", got)
}

func TestBetTexts(t *testing.T) {
	price := 90.0
	open := models.Bet{Name: "Pepe", Direction: models.DirectionDown, Status: models.BetStatusOpen, Verdict: models.VerdictUnresolved}
	closed := open
	closed.Status = models.BetStatusClosed
	closed.Verdict = models.VerdictWon
	closed.PriceAtEnd = &price

	assert.Equal(t, "you have placed a bet on Pepe and the direction is down", BetPlaced(open))
	assert.Equal(t, "alice your bet on Pepe was won", BetOutcome("alice", closed))
	assert.Equal(t, "your bet on Pepe will be resolved in 30m0s", BetPending(open, 30*time.Minute))
	assert.Equal(t, "you have a bet on Pepe to go down", BetLine(open))
	assert.Equal(t, "you placed a bet on Pepe to go down and it was won", BetLine(closed))

	assert.Equal(t, NoBets, MyBets(nil))
	assert.Equal(t, "you have a bet on Pepe to go down\nyou placed a bet on Pepe to go down and it was won", MyBets([]models.Bet{open, closed}))
	assert.Equal(t, NoOpenBets, OpenBets([]models.Bet{closed}))
	assert.Equal(t, "you have a bet on Pepe to go down", OpenBets([]models.Bet{open, closed}))
}

func TestLeaderboard(t *testing.T) {
	assert.Equal(t, EmptyLeaderboard, Leaderboard(nil))
	got := Leaderboard([]models.LeaderboardEntry{
		{DisplayName: "alice", Wins: 3},
		{DisplayName: "bob", Wins: 1},
	})
	assert.Equal(t, "1. alice   3 wins\n2. bob   1 wins", got)
}

func TestHelpListsCommands(t *testing.T) {
	help := Help()
	for _, c := range []string{"/start", "/placebet", "/mybets", "/leaderboard", "/analysis"} {
		assert.Contains(t, help, c+":")
	}
}
