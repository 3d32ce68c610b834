package birdeye

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"trendbet-bot/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func trendingPayload(n int) map[string]any {
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]any{
			"token":     fmt.Sprintf("addr-%d", i),
			"rank":      i + 1,
			"price":     float64(i) + 0.5,
			"liquidity": float64(1000 * (i + 1)),
			"tokenData": map[string]any{
				"name":   fmt.Sprintf("Coin%d", i),
				"symbol": fmt.Sprintf("C%d", i),
			},
		})
	}
	return map[string]any{"success": true, "data": rows}
}

func newUpstream(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/{network}/trending/token", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(hits, 1)
		_ = json.NewEncoder(w).Encode(trendingPayload(10))
	})
	mux.HandleFunc("/{network}/overview/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		addr := r.URL.Query().Get("address")
		switch addr {
		case "missing":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "data": nil})
		case "garbage":
			_, _ = w.Write([]byte("{not json"))
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": map[string]any{
					"address": addr, "name": "Pepe", "symbol": "PEPE",
					"price": 42.5, "liquidity": 10.0, "mc": 99.0,
				},
			})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchTrendingBettingWindow(t *testing.T) {
	var hits int32
	srv := newUpstream(t, &hits)

	for _, chain := range models.Chains {
		t.Run(chain.String(), func(t *testing.T) {
			c := NewClient(srv.URL, "", 0, nil, zap.NewNop())

			full, err := c.FetchTrending(context.Background(), chain, false)
			require.NoError(t, err)
			require.Len(t, full, 10)

			window, err := c.FetchTrending(context.Background(), chain, true)
			require.NoError(t, err)
			require.Len(t, window, 5)

			assert.Equal(t, full[2:7], window)
			assert.Equal(t, 3, window[0].Rank)
			assert.Equal(t, 7, window[4].Rank)
			assert.Equal(t, chain.Network(), window[0].Network)
		})
	}
}

func TestBettingWindowShortList(t *testing.T) {
	tokens := []models.TokenSnapshot{{Rank: 1}, {Rank: 2}, {Rank: 3}, {Rank: 4}}

	assert.Equal(t, []models.TokenSnapshot{{Rank: 3}, {Rank: 4}}, BettingWindow(tokens))
	assert.Empty(t, BettingWindow(tokens[:2]))
	assert.Empty(t, BettingWindow(nil))
}

func TestFetchTrendingUpstreamError(t *testing.T) {
	var hits int32
	srv := newUpstream(t, &hits)
	// unknown prefix makes the fake upstream answer 404
	c := NewClient(srv.URL+"/v0", "", 0, nil, zap.NewNop())

	_, err := c.FetchTrending(context.Background(), models.ChainSolana, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestFetchOverview(t *testing.T) {
	var hits int32
	srv := newUpstream(t, &hits)
	c := NewClient(srv.URL, "agent", 0, nil, zap.NewNop())

	snap, err := c.FetchOverview(context.Background(), "0xabc", "bsc")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", snap.Token)
	assert.Equal(t, "bsc", snap.Network)
	assert.Equal(t, 42.5, snap.Price)
	assert.Equal(t, 99.0, snap.MarketCap)

	_, err = c.FetchOverview(context.Background(), "missing", "bsc")
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = c.FetchOverview(context.Background(), "garbage", "bsc")
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestFetchAll(t *testing.T) {
	var hits int32
	srv := newUpstream(t, &hits)
	c := NewClient(srv.URL, "", 0, nil, zap.NewNop())

	all, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(models.Chains))
	for _, chain := range models.Chains {
		assert.Len(t, all[chain], 10)
	}
}

func TestRedisCacheServesDisplayListsOnly(t *testing.T) {
	var hits int32
	srv := newUpstream(t, &hits)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewClient(srv.URL, "", 0, NewRedisCache(rdb, time.Minute), zap.NewNop())
	ctx := context.Background()

	first, err := c.FetchTrending(ctx, models.ChainEthereum, false)
	require.NoError(t, err)
	second, err := c.FetchTrending(ctx, models.ChainEthereum, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, mr.Exists("trending:ethereum"))

	_, err = c.FetchTrending(ctx, models.ChainEthereum, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	mr.FastForward(2 * time.Minute)
	_, err = c.FetchTrending(ctx, models.ChainEthereum, false)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}
