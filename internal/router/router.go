// Package router dispatches inbound commands and button presses to the right
// handler and owns the table of active bet flows.
package router

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"trendbet-bot/internal/betflow"
	"trendbet-bot/internal/chat"
	"trendbet-bot/internal/formatter"
	"trendbet-bot/internal/history"
	"trendbet-bot/internal/intent"
	"trendbet-bot/internal/models"
	"trendbet-bot/internal/store"
	"trendbet-bot/internal/utils"
)

type Gateway interface {
	FetchTrending(ctx context.Context, chain models.Chain, forBetting bool) ([]models.TokenSnapshot, error)
	FetchAll(ctx context.Context) (map[models.Chain][]models.TokenSnapshot, error)
}

type Leaderboard interface {
	Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
}

// ChartRenderer draws one line chart as PNG.
type ChartRenderer func(title, label string, xs, ys []float64) ([]byte, error)

type Deps struct {
	Users           store.UserStore
	Engine          *betflow.Engine
	Gateway         Gateway
	Leaderboard     Leaderboard
	LeaderboardSize int
	History         history.Store
	Charts          ChartRenderer
	Classifier      intent.Classifier
}

type Router struct {
	Deps
	log *zap.Logger

	// one event per user at a time
	locks *utils.KeyedMutex

	mu    sync.Mutex
	flows map[int64]*betflow.Flow
}

func New(deps Deps, log *zap.Logger) *Router {
	if deps.Classifier == nil {
		deps.Classifier = intent.Disabled{}
	}
	return &Router{
		Deps:  deps,
		log:   log,
		locks: utils.NewKeyedMutex(),
		flows: make(map[int64]*betflow.Flow),
	}
}

// Handle processes one inbound event and returns the replies to send, all
// addressed to the chat the event came from.
func (r *Router) Handle(ctx context.Context, in chat.Inbound) []chat.Reply {
	unlock := r.locks.Lock(in.UserID)
	defer unlock()

	var (
		replies []chat.Reply
		err     error
	)
	if in.IsCallback() {
		replies, err = r.handleCallback(ctx, in)
	} else {
		replies, err = r.handleCommand(ctx, in, in.Command)
	}
	if err != nil {
		r.log.Error("handle event failed",
			zap.Int64("user_id", in.UserID),
			zap.String("command", in.Command),
			zap.String("callback", in.Callback),
			zap.Error(err),
		)
		replies = append(replies, chat.Reply{Text: formatter.GenericFailure})
	}

	for i := range replies {
		if replies[i].ChatID == 0 {
			replies[i].ChatID = in.ChatID
		}
	}
	return replies
}

// ActiveFlow returns the user's open bet flow, if any.
func (r *Router) ActiveFlow(userID int64) (*betflow.Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[userID]
	return f, ok
}

func (r *Router) setFlow(userID int64, f *betflow.Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f == nil {
		delete(r.flows, userID)
		return
	}
	r.flows[userID] = f
}

func (r *Router) handleCommand(ctx context.Context, in chat.Inbound, command string) ([]chat.Reply, error) {
	switch command {
	case "start":
		return r.start(ctx, in)
	case "help":
		return text(formatter.Help()), nil
	case "wallet":
		return text(formatter.WalletInstructions(displayName(in))), nil
	case "eth":
		return r.trending(ctx, models.ChainEthereum)
	case "sol":
		return r.trending(ctx, models.ChainSolana)
	case "bnb":
		return r.trending(ctx, models.ChainBnb)
	case "getalltokens":
		return r.allTokens(ctx)
	case "bet":
		return text(formatter.BetHowTo), nil
	case "placebet":
		if in.IsGroup {
			return text(formatter.GroupRefused), nil
		}
		return r.placeBet(ctx, in)
	case "cancelbet":
		return r.cancelBet(ctx, in)
	case "submitwallet":
		if in.IsGroup {
			return text(formatter.GroupRefused), nil
		}
		return r.submitWallet(ctx, in)
	case "mybets":
		bets, err := r.Users.ListBets(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		return text(formatter.MyBets(bets)), nil
	case "myopenbets":
		bets, err := r.Users.ListBets(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		return text(formatter.OpenBets(bets)), nil
	case "leaderboard":
		entries, err := r.Leaderboard.Top(ctx, r.LeaderboardSize)
		if err != nil {
			return nil, err
		}
		return text(formatter.Leaderboard(entries)), nil
	case "analysis":
		return r.analysisMenu(), nil
	case "prompt":
		return r.prompt(ctx, in)
	case "quit":
		if !in.IsGroup {
			return text(formatter.QuitPrivate), nil
		}
		r.log.Info("leaving group", zap.Int64("chat_id", in.ChatID), zap.Int64("user_id", in.UserID))
		return []chat.Reply{{Text: formatter.Goodbye, LeaveChat: true}}, nil
	}
	return nil, nil
}

func (r *Router) start(ctx context.Context, in chat.Inbound) ([]chat.Reply, error) {
	_, err := r.Users.GetOrCreate(ctx, models.Profile{
		TelegramID: in.UserID,
		Username:   in.Username,
		FirstName:  in.FirstName,
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("user registered", zap.Int64("user_id", in.UserID))
	return text(formatter.Welcome), nil
}

func (r *Router) trending(ctx context.Context, chain models.Chain) ([]chat.Reply, error) {
	tokens, err := r.Gateway.FetchTrending(ctx, chain, false)
	if err != nil || len(tokens) == 0 {
		r.log.Warn("trending list unavailable", zap.String("chain", chain.String()), zap.Error(err))
		return text(formatter.TryAgainLater), nil
	}
	return text(formatter.TrendingList(chain.Network(), topTen(tokens), false)), nil
}

func (r *Router) allTokens(ctx context.Context) ([]chat.Reply, error) {
	all, err := r.Gateway.FetchAll(ctx)
	if err != nil {
		r.log.Warn("trending lists unavailable", zap.Error(err))
		return text(formatter.TryAgainLater), nil
	}

	replies := make([]chat.Reply, 0, len(models.Chains))
	for _, chain := range models.Chains {
		tokens := all[chain]
		if len(tokens) == 0 {
			continue
		}
		replies = append(replies, chat.Reply{Text: formatter.TrendingList(chain.Network(), topTen(tokens), false)})
	}
	if len(replies) == 0 {
		return text(formatter.TryAgainLater), nil
	}
	return replies, nil
}

func (r *Router) placeBet(ctx context.Context, in chat.Inbound) ([]chat.Reply, error) {
	if flow, ok := r.ActiveFlow(in.UserID); ok {
		if flow.Stage == betflow.StageChooseChain {
			return r.Engine.Menu(flow), nil
		}
		return append(text(formatter.BetInProgress), r.Engine.Menu(flow)...), nil
	}

	flow, replies, err := r.Engine.Start(ctx, in.UserID, in.ChatID)
	if err != nil {
		return nil, err
	}
	if flow != nil {
		r.setFlow(in.UserID, flow)
	}
	return replies, nil
}

func (r *Router) cancelBet(ctx context.Context, in chat.Inbound) ([]chat.Reply, error) {
	flow, ok := r.ActiveFlow(in.UserID)
	if !ok {
		return text(formatter.NoBetInProgress), nil
	}
	return r.Engine.Handle(ctx, flow, betflow.Event{Kind: betflow.EventCancel})
}

func (r *Router) submitWallet(ctx context.Context, in chat.Inbound) ([]chat.Reply, error) {
	exists, err := r.Users.Exists(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return text(formatter.WalletNotRegistered), nil
	}

	address := strings.TrimSpace(in.Args)
	if address == "" {
		return text(formatter.WalletMissing), nil
	}
	if !utils.IsValidWallet(address) {
		return text(formatter.WalletInvalid), nil
	}

	ok, err := r.Users.SetWallet(ctx, in.UserID, address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return text(formatter.WalletNotRegistered), nil
	}
	r.log.Info("wallet submitted", zap.Int64("user_id", in.UserID), zap.String("wallet", utils.MaskWallet(address)))
	return text(formatter.WalletSubmitted), nil
}

func (r *Router) handleCallback(ctx context.Context, in chat.Inbound) ([]chat.Reply, error) {
	switch {
	case betflow.IsCallback(in.Callback):
		return r.betCallback(ctx, in)
	case isAnalysisCallback(in.Callback):
		return r.analysisCallback(ctx, in)
	}
	r.log.Debug("unhandled callback", zap.String("data", in.Callback))
	return nil, nil
}

func (r *Router) betCallback(ctx context.Context, in chat.Inbound) ([]chat.Reply, error) {
	flowID, ev, err := betflow.ParseCallback(in.Callback)
	if err != nil {
		r.log.Warn("bad bet callback", zap.Int64("user_id", in.UserID), zap.Error(err))
		return text(formatter.InvalidAction), nil
	}

	flow, ok := r.ActiveFlow(in.UserID)
	if !ok || flow.ID != flowID {
		return text(formatter.StaleMenu), nil
	}

	replies, err := r.Engine.Handle(ctx, flow, ev)
	if flow.Done() {
		r.setFlow(in.UserID, nil)
	}
	return replies, err
}

func (r *Router) prompt(ctx context.Context, in chat.Inbound) ([]chat.Reply, error) {
	request := strings.TrimSpace(in.Args)
	if request == "" {
		return text(formatter.PromptUsage), nil
	}

	got, err := r.Classifier.Classify(ctx, request)
	if errors.Is(err, intent.ErrDisabled) {
		return text(formatter.PromptDisabled), nil
	}
	if err != nil {
		r.log.Warn("intent classification failed", zap.Error(err))
		return text(formatter.TryAgainLater), nil
	}

	switch got.Kind {
	case intent.KindTrending:
		chain, err := models.ParseChain(got.Param("chain"))
		if err != nil {
			return r.allTokens(ctx)
		}
		return r.trending(ctx, chain)
	case intent.KindBet:
		return r.handleCommand(ctx, in, "placebet")
	case intent.KindLeaderboard:
		return r.handleCommand(ctx, in, "leaderboard")
	case intent.KindBets:
		return r.handleCommand(ctx, in, "mybets")
	}
	return text(formatter.PromptUnknown), nil
}

func displayName(in chat.Inbound) string {
	if in.Username != "" {
		return in.Username
	}
	return in.FirstName
}

func topTen(tokens []models.TokenSnapshot) []models.TokenSnapshot {
	if len(tokens) > 10 {
		return tokens[:10]
	}
	return tokens
}

func text(s string) []chat.Reply {
	return []chat.Reply{{Text: s}}
}
