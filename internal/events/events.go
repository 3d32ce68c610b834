// Package events publishes bet lifecycle messages to kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"trendbet-bot/internal/models"
)

const (
	TypeBetPlaced   = "bet_placed"
	TypeBetResolved = "bet_resolved"
)

// BetEvent is the wire shape of both lifecycle messages.
type BetEvent struct {
	Type         string   `json:"type"`
	BetID        string   `json:"betId"`
	UserID       int64    `json:"userId"`
	Token        string   `json:"token"`
	Network      string   `json:"network"`
	Direction    string   `json:"direction"`
	PriceAtStart float64  `json:"priceAtStart"`
	PriceAtEnd   *float64 `json:"priceAtEnd,omitempty"`
	Verdict      string   `json:"verdict"`
	Status       string   `json:"status"`
	TsUnixMs     int64    `json:"ts"`
}

func newBetEvent(kind string, bet models.Bet, ts time.Time) BetEvent {
	return BetEvent{
		Type:         kind,
		BetID:        bet.BetID,
		UserID:       bet.OwnerID,
		Token:        bet.Token,
		Network:      bet.Network,
		Direction:    string(bet.Direction),
		PriceAtStart: bet.PriceAtStart,
		PriceAtEnd:   bet.PriceAtEnd,
		Verdict:      string(bet.Verdict),
		Status:       string(bet.Status),
		TsUnixMs:     ts.UnixMilli(),
	}
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns an async writer: WriteMessages only enqueues, and delivery
// failures are reported to log.
func NewWriter(brokers []string, log *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("bet events not delivered", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
}

type KafkaPublisher struct {
	Writer        MessageWriter
	PlacedTopic   string
	ResolvedTopic string
	Log           *zap.Logger
	now           func() time.Time
}

func NewKafkaPublisher(w MessageWriter, placedTopic, resolvedTopic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		Writer:        w,
		PlacedTopic:   placedTopic,
		ResolvedTopic: resolvedTopic,
		Log:           log,
		now:           time.Now,
	}
}

func (p *KafkaPublisher) BetPlaced(ctx context.Context, bet models.Bet) {
	p.publish(ctx, p.PlacedTopic, newBetEvent(TypeBetPlaced, bet, p.now()))
}

func (p *KafkaPublisher) BetResolved(ctx context.Context, bet models.Bet) {
	p.publish(ctx, p.ResolvedTopic, newBetEvent(TypeBetResolved, bet, p.now()))
}

// publish never fails the caller; errors are only logged.
func (p *KafkaPublisher) publish(ctx context.Context, topic string, e BetEvent) {
	b, err := json.Marshal(e)
	if err != nil {
		p.Log.Error("encode bet event", zap.String("bet_id", e.BetID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(e.BetID),
		Value: b,
		Time:  time.UnixMilli(e.TsUnixMs),
	})
	if err != nil {
		p.Log.Warn("publish bet event failed",
			zap.String("topic", topic),
			zap.String("bet_id", e.BetID),
			zap.Error(err),
		)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) BetPlaced(context.Context, models.Bet)   {}
func (Nop) BetResolved(context.Context, models.Bet) {}
func (Nop) Close() error                            { return nil }
