package birdeye

import "trendbet-bot/internal/models"

type trendingResponse struct {
	Success bool            `json:"success"`
	Data    []trendingToken `json:"data"`
}

type trendingToken struct {
	Token                 string    `json:"token"`
	Rank                  int       `json:"rank"`
	RankTrade24h          int       `json:"rankTrade24h"`
	RankView              int       `json:"rankView"`
	RankVolume24h         int       `json:"rankVolume24h"`
	Price                 float64   `json:"price"`
	PriceChange24hPercent float64   `json:"priceChange24hPercent"`
	Volume24h             float64   `json:"volume24h"`
	Liquidity             float64   `json:"liquidity"`
	Network               string    `json:"network"`
	TokenData             tokenData `json:"tokenData"`
}

type tokenData struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Icon     string `json:"icon"`
	Website  string `json:"website"`
}

type overviewResponse struct {
	Success bool           `json:"success"`
	Data    *overviewToken `json:"data"`
}

type overviewToken struct {
	Address               string  `json:"address"`
	Name                  string  `json:"name"`
	Symbol                string  `json:"symbol"`
	Price                 float64 `json:"price"`
	Liquidity             float64 `json:"liquidity"`
	MarketCap             float64 `json:"mc"`
	Volume24h             float64 `json:"v24hUSD"`
	PriceChange24hPercent float64 `json:"priceChange24hPercent"`
}

// snapshot normalizes one trending row. Rank is the position in the full list.
func (t trendingToken) snapshot(network string, position int) models.TokenSnapshot {
	return models.TokenSnapshot{
		Token:                 t.Token,
		Network:               network,
		Name:                  t.TokenData.Name,
		Symbol:                t.TokenData.Symbol,
		Rank:                  position + 1,
		Price:                 t.Price,
		Liquidity:             t.Liquidity,
		MarketCap:             t.Liquidity, // trending rows carry no mc field
		Volume24h:             t.Volume24h,
		PriceChange24hPercent: t.PriceChange24hPercent,
	}
}

func (o overviewToken) snapshot(address, network string) models.TokenSnapshot {
	token := o.Address
	if token == "" {
		token = address
	}
	return models.TokenSnapshot{
		Token:                 token,
		Network:               network,
		Name:                  o.Name,
		Symbol:                o.Symbol,
		Price:                 o.Price,
		Liquidity:             o.Liquidity,
		MarketCap:             o.MarketCap,
		Volume24h:             o.Volume24h,
		PriceChange24hPercent: o.PriceChange24hPercent,
	}
}
