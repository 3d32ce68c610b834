package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trendbet-bot/internal/history"
	"trendbet-bot/internal/models"
)

type TrendingSource interface {
	FetchTrending(ctx context.Context, chain models.Chain, forBetting bool) ([]models.TokenSnapshot, error)
}

// Sampler records a price point for every trending token on every chain and
// forgets tokens that left the trending list.
type Sampler struct {
	Source   TrendingSource
	History  history.Store
	Interval time.Duration
	Log      *zap.Logger

	now func() time.Time
}

// DefaultSampleInterval is used when a non-positive interval is given.
const DefaultSampleInterval = 5 * time.Minute

func NewSampler(source TrendingSource, h history.Store, interval time.Duration, log *zap.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Sampler{
		Source:   source,
		History:  h,
		Interval: interval,
		Log:      log,
		now:      time.Now,
	}
}

func (s *Sampler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	s.Log.Info("price sampler started", zap.Duration("interval", s.Interval))

	s.SampleAll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Log.Info("price sampler stopped")
			return
		case <-ticker.C:
			s.SampleAll(ctx)
		}
	}
}

// SampleAll samples each chain concurrently. A failing chain is logged and
// skipped without affecting the others.
func (s *Sampler) SampleAll(ctx context.Context) {
	var g errgroup.Group
	for _, chain := range models.Chains {
		g.Go(func() error {
			if err := s.sample(ctx, chain); err != nil {
				s.Log.Warn("sampling chain failed", zap.String("chain", chain.String()), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Sampler) sample(ctx context.Context, chain models.Chain) error {
	tokens, err := s.Source.FetchTrending(ctx, chain, false)
	if err != nil {
		return err
	}

	at := s.now().UTC()
	samples := make([]models.TokenSample, 0, len(tokens))
	keep := make([]string, 0, len(tokens))
	for _, t := range tokens {
		samples = append(samples, models.TokenSample{
			Network:   chain.Network(),
			Token:     t.Token,
			Name:      t.Name,
			Symbol:    t.Symbol,
			Price:     t.Price,
			MarketCap: t.MarketCap,
			SampledAt: at,
		})
		keep = append(keep, t.Token)
	}

	if len(keep) > 0 {
		if err := s.History.Prune(ctx, chain.Network(), keep); err != nil {
			return err
		}
	}
	return s.History.Append(ctx, samples)
}
