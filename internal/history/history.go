// Package history keeps the per-network price samples behind /analysis.
package history

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"trendbet-bot/internal/models"
)

// ChartPoints is the number of samples a chart shows.
const ChartPoints = 6

// SampleMinutes is the spacing printed on the chart x axis.
const SampleMinutes = 5

type Store interface {
	Append(ctx context.Context, samples []models.TokenSample) error
	// Recent returns up to n samples for a token, oldest first.
	Recent(ctx context.Context, network, token string, n int) ([]models.TokenSample, error)
	// Prune drops the history of every token on network that is not in keep.
	Prune(ctx context.Context, network string, keep []string) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, samples []models.TokenSample) error {
	if len(samples) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&samples).Error; err != nil {
		return fmt.Errorf("append samples: %w", err)
	}
	return nil
}

func (s *GormStore) Recent(ctx context.Context, network, token string, n int) ([]models.TokenSample, error) {
	var samples []models.TokenSample
	err := s.db.WithContext(ctx).
		Where("network = ? AND token = ?", network, token).
		Order("sampled_at DESC, id DESC").
		Limit(n).
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("recent samples: %w", err)
	}

	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}

func (s *GormStore) Prune(ctx context.Context, network string, keep []string) error {
	q := s.db.WithContext(ctx).Where("network = ?", network)
	if len(keep) > 0 {
		q = q.Where("token NOT IN ?", keep)
	}
	if err := q.Delete(&models.TokenSample{}).Error; err != nil {
		return fmt.Errorf("prune samples: %w", err)
	}
	return nil
}

// Series is a chart-ready view of the last ChartPoints samples.
type Series struct {
	Name       string
	Minutes    []float64
	Prices     []float64
	MarketCaps []float64
}

// BuildSeries left-pads with zeros when fewer than ChartPoints samples exist.
// It reports false when there is no history at all.
func BuildSeries(samples []models.TokenSample) (Series, bool) {
	if len(samples) == 0 {
		return Series{}, false
	}
	if len(samples) > ChartPoints {
		samples = samples[len(samples)-ChartPoints:]
	}

	s := Series{
		Name:       samples[len(samples)-1].Name,
		Minutes:    make([]float64, ChartPoints),
		Prices:     make([]float64, ChartPoints),
		MarketCaps: make([]float64, ChartPoints),
	}
	for i := range s.Minutes {
		s.Minutes[i] = float64(i * SampleMinutes)
	}

	offset := ChartPoints - len(samples)
	for i, sample := range samples {
		s.Prices[offset+i] = sample.Price
		s.MarketCaps[offset+i] = sample.MarketCap
	}
	return s, true
}
