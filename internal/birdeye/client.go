package birdeye

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"trendbet-bot/internal/metrics"
	"trendbet-bot/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrDataUnavailable wraps every network, status or decode failure from upstream.
var ErrDataUnavailable = errors.New("token data unavailable")

// Betting window bounds, 0-indexed and inclusive. The top two trending tokens
// are never offered for betting.
const (
	BettingWindowStart = 2
	BettingWindowEnd   = 6
)

// Cache stores display trending lists for a short time.
type Cache interface {
	GetTrending(ctx context.Context, network string) ([]models.TokenSnapshot, bool, error)
	SetTrending(ctx context.Context, network string, tokens []models.TokenSnapshot) error
}

type Client struct {
	BaseURL    string
	AgentID    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Cache      Cache
	Log        *zap.Logger
}

func NewClient(baseURL, agentID string, rps float64, cache Cache, log *zap.Logger) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		BaseURL: baseURL,
		AgentID: agentID,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Limiter: rate.NewLimiter(limit, 5),
		Cache:   cache,
		Log:     log,
	}
}

func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	target := fmt.Sprintf("%s%s", c.BaseURL, endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.AgentID != "" {
		req.Header.Set("agent-id", c.AgentID)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api error: %s (status: %d)", string(body), resp.StatusCode)
	}

	return body, nil
}

// FetchTrending returns the ranked trending list for chain. With forBetting set
// only the betting window is returned, keeping the original rank numbers.
func (c *Client) FetchTrending(ctx context.Context, chain models.Chain, forBetting bool) ([]models.TokenSnapshot, error) {
	network := chain.Network()

	if !forBetting && c.Cache != nil {
		cached, ok, err := c.Cache.GetTrending(ctx, network)
		if err != nil {
			c.Log.Warn("trending cache read failed", zap.String("network", network), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	body, err := c.doRequest(ctx, fmt.Sprintf("/%s/trending/token", network), nil)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("trending", "error").Inc()
		c.Log.Error("trending fetch failed", zap.String("network", network), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var result trendingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		metrics.UpstreamRequests.WithLabelValues("trending", "decode_error").Inc()
		c.Log.Error("trending decode failed", zap.String("network", network), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", ErrDataUnavailable, err)
	}
	metrics.UpstreamRequests.WithLabelValues("trending", "ok").Inc()

	tokens := make([]models.TokenSnapshot, 0, len(result.Data))
	for i, t := range result.Data {
		tokens = append(tokens, t.snapshot(network, i))
	}

	if forBetting {
		return BettingWindow(tokens), nil
	}

	if c.Cache != nil {
		if err := c.Cache.SetTrending(ctx, network, tokens); err != nil {
			c.Log.Warn("trending cache write failed", zap.String("network", network), zap.Error(err))
		}
	}

	return tokens, nil
}

// FetchOverview re-samples a single token by contract address.
func (c *Client) FetchOverview(ctx context.Context, address, network string) (*models.TokenSnapshot, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/%s/overview/token", network), url.Values{"address": {address}})
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("overview", "error").Inc()
		c.Log.Error("overview fetch failed", zap.String("network", network), zap.String("token", address), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var result overviewResponse
	if err := json.Unmarshal(body, &result); err != nil {
		metrics.UpstreamRequests.WithLabelValues("overview", "decode_error").Inc()
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", ErrDataUnavailable, err)
	}
	if result.Data == nil {
		metrics.UpstreamRequests.WithLabelValues("overview", "empty").Inc()
		return nil, fmt.Errorf("%w: empty overview for %s", ErrDataUnavailable, address)
	}
	metrics.UpstreamRequests.WithLabelValues("overview", "ok").Inc()

	snapshot := result.Data.snapshot(address, network)
	return &snapshot, nil
}

// FetchAll loads the display list of every supported chain concurrently.
func (c *Client) FetchAll(ctx context.Context) (map[models.Chain][]models.TokenSnapshot, error) {
	results := make([][]models.TokenSnapshot, len(models.Chains))

	g, gctx := errgroup.WithContext(ctx)
	for i, chain := range models.Chains {
		g.Go(func() error {
			tokens, err := c.FetchTrending(gctx, chain, false)
			if err != nil {
				return err
			}
			results[i] = tokens
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[models.Chain][]models.TokenSnapshot, len(models.Chains))
	for i, chain := range models.Chains {
		out[chain] = results[i]
	}
	return out, nil
}

// BettingWindow slices indices [BettingWindowStart, BettingWindowEnd] out of a
// full trending list. Shorter lists yield whatever part of the window exists.
func BettingWindow(tokens []models.TokenSnapshot) []models.TokenSnapshot {
	if len(tokens) <= BettingWindowStart {
		return []models.TokenSnapshot{}
	}
	end := BettingWindowEnd + 1
	if end > len(tokens) {
		end = len(tokens)
	}
	window := make([]models.TokenSnapshot, end-BettingWindowStart)
	copy(window, tokens[BettingWindowStart:end])
	return window
}
