package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trendbet-bot/internal/betflow"
	"trendbet-bot/internal/chat"
	"trendbet-bot/internal/history"
	"trendbet-bot/internal/leaderboard"
	"trendbet-bot/internal/models"
	"trendbet-bot/internal/store"
)

type stubGateway struct {
	mu       sync.Mutex
	price    float64
	down     bool
	trending map[models.Chain][]models.TokenSnapshot
	failing  map[models.Chain]bool
}

func (g *stubGateway) FetchTrending(_ context.Context, chain models.Chain, _ bool) ([]models.TokenSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing[chain] {
		return nil, errors.New("upstream down")
	}
	return g.trending[chain], nil
}

func (g *stubGateway) FetchOverview(_ context.Context, address, network string) (*models.TokenSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.down {
		return nil, errors.New("upstream down")
	}
	return &models.TokenSnapshot{Token: address, Network: network, Price: g.price}, nil
}

func (g *stubGateway) setDown(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.down = down
}

type recordingSender struct {
	mu      sync.Mutex
	replies []chat.Reply
}

func (s *recordingSender) Send(_ context.Context, r chat.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, r)
	return nil
}

func (s *recordingSender) sent() []chat.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Reply(nil), s.replies...)
}

type settlerFixture struct {
	users   *store.MemoryStore
	gateway *stubGateway
	sender  *recordingSender
	settler *Settler
	now     time.Time
}

func newSettlerFixture(t *testing.T, hold time.Duration, rdb *redis.Client) *settlerFixture {
	t.Helper()
	log := zap.NewNop()
	users := store.NewMemoryStore()
	gateway := &stubGateway{price: 80}
	board := leaderboard.NewAggregator(users, users, leaderboard.DefaultMinBets, log)
	engine := betflow.NewEngine(users, gateway, board, log, betflow.WithHoldPeriod(hold))
	sender := &recordingSender{}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	settler := NewSettler(users, engine, rdb, sender, time.Minute, log)
	settler.now = func() time.Time { return now }

	return &settlerFixture{users: users, gateway: gateway, sender: sender, settler: settler, now: now}
}

func (f *settlerFixture) placeBet(t *testing.T, userID int64, betID string, placedAt time.Time) {
	t.Helper()
	ctx := context.Background()
	_, err := f.users.GetOrCreate(ctx, models.Profile{TelegramID: userID, Username: "trader"})
	require.NoError(t, err)
	ok, err := f.users.AppendBet(ctx, userID, models.Bet{
		BetID:        betID,
		OwnerID:      userID,
		Token:        "tok-" + betID,
		Network:      "solana",
		Name:         "Coin " + betID,
		Direction:    models.DirectionDown,
		PriceAtStart: 100,
		Status:       models.BetStatusOpen,
		Verdict:      models.VerdictUnresolved,
		PlacedAt:     placedAt,
	})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSettlerResolvesOnlyDueBets(t *testing.T) {
	f := newSettlerFixture(t, 30*time.Minute, nil)
	f.placeBet(t, 1, "old", f.now.Add(-45*time.Minute))
	f.placeBet(t, 1, "fresh", f.now.Add(-10*time.Minute))

	settled := f.settler.SettleDue(context.Background())
	assert.Equal(t, 1, settled)

	bets, err := f.users.ListBets(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, models.BetStatusClosed, bets[0].Status)
	assert.Equal(t, models.VerdictWon, bets[0].Verdict)
	require.NotNil(t, bets[0].PriceAtEnd)
	assert.Equal(t, 80.0, *bets[0].PriceAtEnd)
	assert.True(t, bets[1].IsOpen())

	sent := f.sender.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(1), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Coin old")
}

func TestSettlerRunTwiceSettlesOnce(t *testing.T) {
	f := newSettlerFixture(t, 0, nil)
	f.placeBet(t, 7, "b1", f.now.Add(-time.Minute))

	assert.Equal(t, 1, f.settler.SettleDue(context.Background()))
	assert.Equal(t, 0, f.settler.SettleDue(context.Background()))
	assert.Len(t, f.sender.sent(), 1)
}

func TestSettlerRetriesWhenPriceUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newSettlerFixture(t, 0, rdb)
	f.placeBet(t, 3, "b1", f.now.Add(-time.Minute))

	f.gateway.setDown(true)
	assert.Equal(t, 0, f.settler.SettleDue(context.Background()))
	assert.False(t, mr.Exists(settleKey("b1")), "claim must be released for a retry")

	f.gateway.setDown(false)
	assert.Equal(t, 1, f.settler.SettleDue(context.Background()))
	assert.True(t, mr.Exists(settleKey("b1")))
	assert.Len(t, f.sender.sent(), 1)
}

func TestSettlerSkipsClaimedBets(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newSettlerFixture(t, 0, rdb)
	f.placeBet(t, 3, "b1", f.now.Add(-time.Minute))
	require.NoError(t, mr.Set(settleKey("b1"), "1"))

	assert.Equal(t, 0, f.settler.SettleDue(context.Background()))
	bets, err := f.users.ListBets(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, bets[0].IsOpen())
	assert.Empty(t, f.sender.sent())
}

func TestSettlerStartStopsWithContext(t *testing.T) {
	f := newSettlerFixture(t, 0, nil)
	f.placeBet(t, 9, "b1", f.now.Add(-time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.settler.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(f.sender.sent()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("settler did not stop")
	}
}

func TestNonPositiveIntervalsUseDefaults(t *testing.T) {
	settler := NewSettler(store.NewMemoryStore(), nil, nil, nil, 0, zap.NewNop())
	assert.Equal(t, DefaultSettleInterval, settler.Interval)

	sampler := NewSampler(&stubGateway{}, &memoryHistory{}, -time.Second, zap.NewNop())
	assert.Equal(t, DefaultSampleInterval, sampler.Interval)
}

type memoryHistory struct {
	mu      sync.Mutex
	samples []models.TokenSample
	pruned  map[string][]string
}

func (h *memoryHistory) Append(_ context.Context, samples []models.TokenSample) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = append(h.samples, samples...)
	return nil
}

func (h *memoryHistory) Recent(_ context.Context, network, token string, n int) ([]models.TokenSample, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.TokenSample
	for _, s := range h.samples {
		if s.Network == network && s.Token == token {
			out = append(out, s)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

func (h *memoryHistory) Prune(_ context.Context, network string, keep []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pruned == nil {
		h.pruned = make(map[string][]string)
	}
	h.pruned[network] = keep
	return nil
}

var _ history.Store = (*memoryHistory)(nil)

func TestSamplerRecordsEveryChain(t *testing.T) {
	gateway := &stubGateway{
		trending: map[models.Chain][]models.TokenSnapshot{
			models.ChainSolana:   {{Token: "s1", Network: "solana", Name: "Sol One", Price: 1.5, MarketCap: 900}},
			models.ChainEthereum: {{Token: "e1", Network: "ethereum", Name: "Eth One", Price: 2}, {Token: "e2", Network: "ethereum", Name: "Eth Two", Price: 3}},
		},
		failing: map[models.Chain]bool{models.ChainBnb: true},
	}
	h := &memoryHistory{}
	sampler := NewSampler(gateway, h, time.Minute, zap.NewNop())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sampler.now = func() time.Time { return at }

	sampler.SampleAll(context.Background())

	require.Len(t, h.samples, 3)
	for _, s := range h.samples {
		assert.Equal(t, at, s.SampledAt)
	}

	got, err := h.Recent(context.Background(), "solana", "s1", history.ChartPoints)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.5, got[0].Price)
	assert.Equal(t, 900.0, got[0].MarketCap)
	assert.Equal(t, "Sol One", got[0].Name)

	assert.ElementsMatch(t, []string{"e1", "e2"}, h.pruned["ethereum"])
	assert.NotContains(t, h.pruned, "bsc")
}
