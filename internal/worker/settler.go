package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trendbet-bot/internal/betflow"
	"trendbet-bot/internal/chat"
	"trendbet-bot/internal/formatter"
	"trendbet-bot/internal/models"
	"trendbet-bot/internal/store"
)

type Resolver interface {
	Resolve(ctx context.Context, bet models.Bet) (*models.Bet, error)
	HoldPeriod() time.Duration
}

// Settler resolves bets whose holding period elapsed, and retries bets whose
// inline resolution could not fetch a price.
type Settler struct {
	Users    store.UserStore
	Resolver Resolver
	Redis    *redis.Client
	Sender   chat.Sender
	Interval time.Duration
	Log      *zap.Logger

	now func() time.Time
}

// DefaultSettleInterval is used when a non-positive interval is given.
const DefaultSettleInterval = time.Minute

func NewSettler(users store.UserStore, resolver Resolver, rdb *redis.Client, sender chat.Sender, interval time.Duration, log *zap.Logger) *Settler {
	if interval <= 0 {
		interval = DefaultSettleInterval
	}
	return &Settler{
		Users:    users,
		Resolver: resolver,
		Redis:    rdb,
		Sender:   sender,
		Interval: interval,
		Log:      log,
		now:      time.Now,
	}
}

// Start runs a settle cycle immediately and then every Interval until ctx ends.
func (s *Settler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	s.Log.Info("bet settler started", zap.Duration("interval", s.Interval), zap.Duration("hold", s.Resolver.HoldPeriod()))

	s.SettleDue(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Log.Info("bet settler stopped")
			return
		case <-ticker.C:
			s.SettleDue(ctx)
		}
	}
}

func settleKey(betID string) string {
	return fmt.Sprintf("settle:%s", betID)
}

// SettleDue resolves every open bet that is due and returns how many closed.
func (s *Settler) SettleDue(ctx context.Context) int {
	due := s.now().Add(-s.Resolver.HoldPeriod()).UTC()

	bets, err := s.Users.ListOpenBets(ctx, due)
	if err != nil {
		s.Log.Error("listing open bets failed", zap.Error(err))
		return 0
	}

	settled := 0
	for _, bet := range bets {
		if ctx.Err() != nil {
			break
		}
		if !s.claim(ctx, bet.BetID) {
			continue
		}

		resolved, err := s.Resolver.Resolve(ctx, bet)
		switch {
		case errors.Is(err, store.ErrBetAlreadyClosed):
			continue
		case errors.Is(err, betflow.ErrPriceUnavailable):
			s.release(ctx, bet.BetID)
			continue
		case err != nil:
			s.Log.Error("settling bet failed", zap.String("bet_id", bet.BetID), zap.Error(err))
			continue
		}

		settled++
		s.notify(ctx, *resolved)
	}

	if settled > 0 {
		s.Log.Info("settle cycle finished", zap.Int("due", len(bets)), zap.Int("settled", settled))
	}
	return settled
}

// claim guards a bet against concurrent settle cycles. Without redis every
// bet is claimable and the store's idempotent resolve is the only guard.
func (s *Settler) claim(ctx context.Context, betID string) bool {
	if s.Redis == nil {
		return true
	}
	ok, err := s.Redis.SetNX(ctx, settleKey(betID), "1", 2*s.Interval+time.Minute).Result()
	if err != nil {
		s.Log.Warn("settle claim failed", zap.String("bet_id", betID), zap.Error(err))
		return true
	}
	return ok
}

func (s *Settler) release(ctx context.Context, betID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, settleKey(betID)).Err(); err != nil {
		s.Log.Warn("settle release failed", zap.String("bet_id", betID), zap.Error(err))
	}
}

func (s *Settler) notify(ctx context.Context, bet models.Bet) {
	if s.Sender == nil {
		return
	}
	user, err := s.Users.Get(ctx, bet.OwnerID)
	if err != nil {
		s.Log.Warn("owner lookup for notification failed", zap.String("bet_id", bet.BetID), zap.Error(err))
		return
	}

	err = s.Sender.Send(ctx, chat.Reply{
		ChatID: bet.OwnerID,
		Text:   formatter.BetOutcome(user.DisplayName(), bet),
	})
	if err != nil {
		s.Log.Warn("bet outcome notification failed", zap.Int64("user_id", bet.OwnerID), zap.Error(err))
	}
}
