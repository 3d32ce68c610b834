package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendbet_bets_placed_total",
		Help: "Bets placed, by network.",
	}, []string{"network"})

	BetsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendbet_bets_resolved_total",
		Help: "Bets resolved, by verdict.",
	}, []string{"verdict"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendbet_upstream_requests_total",
		Help: "Requests to the token data provider, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	FlowRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendbet_flow_rejections_total",
		Help: "Bet flow events refused, by reason.",
	}, []string{"reason"})
)
