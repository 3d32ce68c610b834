package betflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trendbet-bot/internal/chat"
	"trendbet-bot/internal/formatter"
	"trendbet-bot/internal/metrics"
	"trendbet-bot/internal/models"
	"trendbet-bot/internal/store"
	"trendbet-bot/internal/utils"
)

// ErrPriceUnavailable means the bet stays open because no current price
// could be sampled.
var ErrPriceUnavailable = errors.New("current price unavailable")

// Gateway is the token data the engine needs.
type Gateway interface {
	FetchTrending(ctx context.Context, chain models.Chain, forBetting bool) ([]models.TokenSnapshot, error)
	FetchOverview(ctx context.Context, address, network string) (*models.TokenSnapshot, error)
}

type Leaderboard interface {
	Recompute(ctx context.Context) error
}

// Publisher receives bet lifecycle notifications. Delivery is best effort.
type Publisher interface {
	BetPlaced(ctx context.Context, bet models.Bet)
	BetResolved(ctx context.Context, bet models.Bet)
}

type Engine struct {
	users   store.UserStore
	gateway Gateway
	board   Leaderboard
	events  Publisher
	hold    time.Duration
	log     *zap.Logger

	// held across append and resolve so nothing interleaves for one user
	locks *utils.KeyedMutex

	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithHoldPeriod defers resolution by d. Zero resolves right after placement.
func WithHoldPeriod(d time.Duration) Option {
	return func(e *Engine) { e.hold = d }
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(users store.UserStore, gateway Gateway, board Leaderboard, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		users:   users,
		gateway: gateway,
		board:   board,
		events:  nopPublisher{},
		log:     log,
		locks:   utils.NewKeyedMutex(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) HoldPeriod() time.Duration { return e.hold }

// Start checks the entry preconditions and opens a flow at ChooseChain. A nil
// flow means the user was told why betting cannot start.
func (e *Engine) Start(ctx context.Context, userID, chatID int64) (*Flow, []chat.Reply, error) {
	user, err := e.users.Get(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		metrics.FlowRejections.WithLabelValues("not_registered").Inc()
		return nil, text(formatter.NotRegistered), nil
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.HasWallet() {
		metrics.FlowRejections.WithLabelValues("no_wallet").Inc()
		return nil, text(formatter.NoWallet), nil
	}

	flow := &Flow{
		ID:          e.flowID(),
		UserID:      userID,
		ChatID:      chatID,
		DisplayName: user.DisplayName(),
		Stage:       StageChooseChain,
		StartedAt:   e.now(),
	}

	e.log.Info("bet flow started", zap.Int64("user_id", userID), zap.String("flow_id", flow.ID))
	return flow, e.Menu(flow), nil
}

func (e *Engine) flowID() string {
	return strings.ReplaceAll(e.newID(), "-", "")[:8]
}

// Menu re-renders the prompt for the flow's current stage.
func (e *Engine) Menu(f *Flow) []chat.Reply {
	switch f.Stage {
	case StageChooseChain:
		buttons := make([]chat.Button, 0, len(models.Chains))
		for _, c := range models.Chains {
			buttons = append(buttons, chat.Button{Text: c.String(), Data: ChainCallback(f.ID, c)})
		}
		return []chat.Reply{{Text: formatter.ChooseChain, Buttons: chat.Menu(buttons...)}}

	case StageChooseCoin:
		buttons := make([]chat.Button, 0, len(f.Candidates)+1)
		for i, t := range f.Candidates {
			buttons = append(buttons, chat.Button{Text: t.Name, Data: CoinCallback(f.ID, f.Menu, i)})
		}
		buttons = append(buttons, chat.Button{Text: "Cancel", Data: CancelCallback(f.ID)})
		return []chat.Reply{{Text: formatter.CoinMenu(f.Chain), Buttons: chat.Menu(buttons...)}}

	case StageChooseDirection:
		buttons := make([]chat.Button, 0, len(models.Directions)+1)
		for _, d := range models.Directions {
			label := strings.ToUpper(string(d[:1])) + string(d[1:])
			buttons = append(buttons, chat.Button{Text: label, Data: DirectionCallback(f.ID, d)})
		}
		buttons = append(buttons, chat.Button{Text: "Cancel", Data: CancelCallback(f.ID)})
		return []chat.Reply{{Text: formatter.ChooseDirection, Buttons: chat.Menu(buttons...)}}
	}
	return nil
}

// Handle applies one event to the flow. Any (stage, event) pair not listed
// below is refused with the invalid-action text and leaves the flow untouched.
func (e *Engine) Handle(ctx context.Context, f *Flow, ev Event) ([]chat.Reply, error) {
	switch {
	case ev.Kind == EventCancel && f.Stage != StagePlaced:
		return e.cancel(f), nil
	case ev.Kind == EventChain && f.Stage == StageChooseChain:
		return e.chooseChain(ctx, f, ev.Chain)
	case ev.Kind == EventCoin && f.Stage == StageChooseCoin:
		return e.chooseCoin(f, ev.Menu, ev.CoinIndex)
	case ev.Kind == EventDirection && f.Stage == StageChooseDirection:
		return e.place(ctx, f, ev.Direction)
	}

	metrics.FlowRejections.WithLabelValues("out_of_state").Inc()
	e.log.Debug("out of state bet event",
		zap.Int64("user_id", f.UserID),
		zap.String("flow_id", f.ID),
		zap.Stringer("stage", f.Stage),
		zap.Stringer("event", ev.Kind),
	)
	return text(formatter.InvalidAction), nil
}

func (e *Engine) cancel(f *Flow) []chat.Reply {
	f.Stage = StageChooseChain
	e.log.Info("bet flow cancelled", zap.Int64("user_id", f.UserID), zap.String("flow_id", f.ID))
	return text(formatter.BetCancelled)
}

func (e *Engine) chooseChain(ctx context.Context, f *Flow, chain models.Chain) ([]chat.Reply, error) {
	tokens, err := e.gateway.FetchTrending(ctx, chain, true)
	if err != nil {
		e.log.Warn("betting list unavailable", zap.Int64("user_id", f.UserID), zap.String("chain", chain.String()), zap.Error(err))
		return text(formatter.TryAgainLater), nil
	}
	if len(tokens) == 0 {
		e.log.Warn("betting list empty", zap.String("chain", chain.String()))
		return text(formatter.TryAgainLater), nil
	}

	f.Chain = chain
	f.Candidates = tokens
	f.Selected = nil
	f.Menu++
	f.Stage = StageChooseCoin
	return e.Menu(f), nil
}

func (e *Engine) chooseCoin(f *Flow, menu, index int) ([]chat.Reply, error) {
	if menu != f.Menu {
		metrics.FlowRejections.WithLabelValues("stale_coin_menu").Inc()
		e.log.Debug("coin pressed on an old menu",
			zap.Int64("user_id", f.UserID),
			zap.Int("menu", menu),
			zap.Int("current_menu", f.Menu),
		)
		return text(formatter.InvalidAction), nil
	}
	if index < 0 || index >= len(f.Candidates) {
		metrics.FlowRejections.WithLabelValues("bad_coin").Inc()
		return text(formatter.InvalidAction), nil
	}

	selected := f.Candidates[index]
	f.Selected = &selected
	f.Stage = StageChooseDirection
	return e.Menu(f), nil
}

func (e *Engine) place(ctx context.Context, f *Flow, direction models.Direction) ([]chat.Reply, error) {
	if f.Selected == nil {
		return text(formatter.InvalidAction), nil
	}

	placed, resolved, replies, err := e.placeLocked(ctx, f, direction)

	// published outside the user lock
	if placed != nil {
		e.events.BetPlaced(ctx, *placed)
	}
	if resolved != nil {
		e.events.BetResolved(ctx, *resolved)
	}
	return replies, err
}

// placeLocked appends the bet and, without a holding period, resolves it, all
// under the user's lock. placed is nil when nothing was stored.
func (e *Engine) placeLocked(ctx context.Context, f *Flow, direction models.Direction) (placed, resolved *models.Bet, replies []chat.Reply, err error) {
	unlock := e.locks.Lock(f.UserID)
	defer unlock()

	token := f.Selected
	bet := models.Bet{
		BetID:        e.newID(),
		OwnerID:      f.UserID,
		Token:        token.Token,
		Network:      token.Network,
		Name:         token.Name,
		Symbol:       token.Symbol,
		Direction:    direction,
		PriceAtStart: token.Price,
		Status:       models.BetStatusOpen,
		Verdict:      models.VerdictUnresolved,
		PlacedAt:     e.now().UTC(),
	}

	ok, err := e.users.AppendBet(ctx, f.UserID, bet)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("place bet: %w", err)
	}
	if !ok {
		return nil, nil, text(formatter.NotRegistered), nil
	}

	f.Stage = StagePlaced
	metrics.BetsPlaced.WithLabelValues(bet.Network).Inc()
	e.log.Info("bet placed",
		zap.Int64("user_id", f.UserID),
		zap.String("bet_id", bet.BetID),
		zap.String("token", bet.Token),
		zap.String("network", bet.Network),
		zap.String("direction", string(direction)),
		zap.Float64("price_at_start", bet.PriceAtStart),
	)

	replies = text(formatter.BetPlaced(bet))

	if e.hold > 0 {
		return &bet, nil, append(replies, chat.Reply{Text: formatter.BetPending(bet, e.hold)}), nil
	}

	resolved, err = e.resolveLocked(ctx, bet)
	if errors.Is(err, ErrPriceUnavailable) {
		// left open, the settler retries it
		return &bet, nil, append(replies, chat.Reply{Text: formatter.ResolutionDeferred}), nil
	}
	if err != nil {
		return &bet, nil, replies, fmt.Errorf("resolve bet: %w", err)
	}
	return &bet, resolved, append(replies, chat.Reply{Text: formatter.BetOutcome(f.DisplayName, *resolved)}), nil
}

// Resolve samples the current price for an open bet and closes it. It is safe
// to call for bets that were already resolved; those return
// store.ErrBetAlreadyClosed.
func (e *Engine) Resolve(ctx context.Context, bet models.Bet) (*models.Bet, error) {
	resolved, err := e.resolveUnderLock(ctx, bet)
	if err != nil {
		return nil, err
	}
	e.events.BetResolved(ctx, *resolved)
	return resolved, nil
}

func (e *Engine) resolveUnderLock(ctx context.Context, bet models.Bet) (*models.Bet, error) {
	unlock := e.locks.Lock(bet.OwnerID)
	defer unlock()

	return e.resolveLocked(ctx, bet)
}

// resolveLocked expects the owner's lock to be held and leaves publishing to
// the caller.
func (e *Engine) resolveLocked(ctx context.Context, bet models.Bet) (*models.Bet, error) {
	current, err := e.gateway.FetchOverview(ctx, bet.Token, bet.Network)
	if err != nil {
		e.log.Warn("price unavailable for resolution", zap.String("bet_id", bet.BetID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	verdict := models.Judge(bet.Direction, bet.PriceAtStart, current.Price)
	resolved, err := e.users.ResolveBet(ctx, bet.OwnerID, bet.BetID, current.Price, verdict)
	if errors.Is(err, store.ErrBetNotFound) || errors.Is(err, store.ErrUserNotFound) {
		e.log.Error("bet missing at resolution", zap.Int64("user_id", bet.OwnerID), zap.String("bet_id", bet.BetID), zap.Error(err))
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	metrics.BetsResolved.WithLabelValues(string(resolved.Verdict)).Inc()
	e.log.Info("bet resolved",
		zap.Int64("user_id", bet.OwnerID),
		zap.String("bet_id", bet.BetID),
		zap.Float64("price_at_start", bet.PriceAtStart),
		zap.Float64("price_at_end", current.Price),
		zap.String("verdict", string(resolved.Verdict)),
	)

	if err := e.board.Recompute(ctx); err != nil {
		e.log.Error("leaderboard recompute failed", zap.Error(err))
	}
	return resolved, nil
}

func text(s string) []chat.Reply {
	return []chat.Reply{{Text: s}}
}

type nopPublisher struct{}

func (nopPublisher) BetPlaced(context.Context, models.Bet)   {}
func (nopPublisher) BetResolved(context.Context, models.Bet) {}
