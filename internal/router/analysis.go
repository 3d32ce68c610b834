package router

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"trendbet-bot/internal/chat"
	"trendbet-bot/internal/formatter"
	"trendbet-bot/internal/history"
	"trendbet-bot/internal/models"
)

// Analysis buttons: an:chain:<Chain> and an:coin:<network>:<address>.
const analysisPrefix = "an:"

func isAnalysisCallback(data string) bool {
	return strings.HasPrefix(data, analysisPrefix)
}

func (r *Router) analysisMenu() []chat.Reply {
	buttons := make([]chat.Button, 0, len(models.Chains))
	for _, c := range models.Chains {
		buttons = append(buttons, chat.Button{Text: c.String(), Data: analysisPrefix + "chain:" + c.String()})
	}
	return []chat.Reply{{Text: formatter.ChooseChartChain, Buttons: chat.Menu(buttons...)}}
}

func (r *Router) analysisCallback(ctx context.Context, in chat.Inbound) ([]chat.Reply, error) {
	parts := strings.Split(strings.TrimPrefix(in.Callback, analysisPrefix), ":")
	switch {
	case len(parts) == 2 && parts[0] == "chain":
		chain, err := models.ParseChain(parts[1])
		if err != nil {
			return text(formatter.InvalidAction), nil
		}
		return r.chartCoins(ctx, chain)
	case len(parts) == 3 && parts[0] == "coin":
		return r.charts(ctx, parts[1], parts[2])
	}
	return text(formatter.InvalidAction), nil
}

func (r *Router) chartCoins(ctx context.Context, chain models.Chain) ([]chat.Reply, error) {
	tokens, err := r.Gateway.FetchTrending(ctx, chain, false)
	if err != nil || len(tokens) == 0 {
		r.log.Warn("chart coin list unavailable", zap.String("chain", chain.String()), zap.Error(err))
		return text(formatter.TryAgainLater), nil
	}

	buttons := make([]chat.Button, 0, len(tokens))
	for _, t := range topTen(tokens) {
		buttons = append(buttons, chat.Button{
			Text: t.Name,
			Data: analysisPrefix + "coin:" + chain.Network() + ":" + t.Token,
		})
	}
	return []chat.Reply{{Text: formatter.ChartCoinMenu(chain), Buttons: chat.Menu(buttons...)}}, nil
}

func (r *Router) charts(ctx context.Context, network, token string) ([]chat.Reply, error) {
	samples, err := r.History.Recent(ctx, network, token, history.ChartPoints)
	if err != nil {
		return nil, err
	}
	series, ok := history.BuildSeries(samples)
	if !ok {
		return text(formatter.DataUnavailable), nil
	}

	price, err := r.Charts(series.Name, "Coin price", series.Minutes, series.Prices)
	if err != nil {
		r.log.Error("price chart failed", zap.String("token", token), zap.Error(err))
		return text(formatter.DataUnavailable), nil
	}
	marketCap, err := r.Charts(series.Name, "Market cap", series.Minutes, series.MarketCaps)
	if err != nil {
		r.log.Error("market cap chart failed", zap.String("token", token), zap.Error(err))
		return text(formatter.DataUnavailable), nil
	}

	return []chat.Reply{{
		Images: []chat.Image{
			{Name: "price.png", PNG: price, Caption: formatter.PriceChartCaption(series.Name)},
			{Name: "marketcap.png", PNG: marketCap, Caption: formatter.MarketCapChartCaption(series.Name)},
		},
	}}, nil
}
