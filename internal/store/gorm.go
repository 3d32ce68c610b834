package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trendbet-bot/internal/models"
	"trendbet-bot/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements UserStore and LeaderboardRepo on postgres or sqlite.
// Per-user mutations take an in-process lock and run in a transaction; on
// postgres the touched rows are additionally locked FOR UPDATE.
type GormStore struct {
	db    *gorm.DB
	locks *utils.KeyedMutex
	now   func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:    db,
		locks: utils.NewKeyedMutex(),
		now:   time.Now,
	}
}

func (s *GormStore) forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (s *GormStore) GetOrCreate(ctx context.Context, profile models.Profile) (*models.User, error) {
	unlock := s.locks.Lock(profile.TelegramID)
	defer unlock()

	var user models.User
	err := s.db.WithContext(ctx).
		Where(models.User{TelegramID: profile.TelegramID}).
		Attrs(models.User{Username: profile.Username, FirstName: profile.FirstName}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("get or create user %d: %w", profile.TelegramID, err)
	}

	user.Bets = []models.Bet{}
	err = s.db.WithContext(ctx).
		Where("owner_id = ?", profile.TelegramID).
		Order("id").
		Find(&user.Bets).Error
	if err != nil {
		return nil, fmt.Errorf("load bets for user %d: %w", profile.TelegramID, err)
	}
	return &user, nil
}

func (s *GormStore) Exists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("telegram_id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user %d: %w", userID, err)
	}
	return count > 0, nil
}

func (s *GormStore) Get(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Bets", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("telegram_id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &user, nil
}

func (s *GormStore) SetWallet(ctx context.Context, userID int64, address string) (bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ?", userID).
		Update("wallet_address", address)
	if res.Error != nil {
		return false, fmt.Errorf("set wallet for %d: %w", userID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) AppendBet(ctx context.Context, userID int64, bet models.Bet) (bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	appended := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := s.forUpdate(tx).Where("telegram_id = ?", userID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		bet.ID = 0
		bet.OwnerID = userID
		if err := tx.Create(&bet).Error; err != nil {
			return err
		}
		appended = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("append bet for %d: %w", userID, err)
	}
	return appended, nil
}

func (s *GormStore) ResolveBet(ctx context.Context, userID int64, betID string, finalPrice float64, verdict models.Verdict) (*models.Bet, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var bet models.Bet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.forUpdate(tx).Where("bet_id = ? AND owner_id = ?", betID, userID).First(&bet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			var count int64
			if err := tx.Model(&models.User{}).Where("telegram_id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrUserNotFound
			}
			return ErrBetNotFound
		}
		if err != nil {
			return err
		}
		if !bet.IsOpen() {
			return ErrBetAlreadyClosed
		}

		closeBet(&bet, finalPrice, verdict, s.now())
		return tx.Model(&bet).Select("status", "verdict", "price_at_end", "resolved_at").Updates(&bet).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrBetNotFound) || errors.Is(err, ErrBetAlreadyClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve bet %s: %w", betID, err)
	}
	return &bet, nil
}

func (s *GormStore) ListBets(ctx context.Context, userID int64) ([]models.Bet, error) {
	bets := []models.Bet{}
	if err := s.db.WithContext(ctx).Where("owner_id = ?", userID).Order("id").Find(&bets).Error; err != nil {
		return nil, fmt.Errorf("list bets for %d: %w", userID, err)
	}
	return bets, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Bets", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *GormStore) ListOpenBets(ctx context.Context, placedBefore time.Time) ([]models.Bet, error) {
	var bets []models.Bet
	err := s.db.WithContext(ctx).
		Where("status = ? AND placed_at <= ?", models.BetStatusOpen, placedBefore).
		Order("id").
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("list open bets: %w", err)
	}
	return bets, nil
}

func (s *GormStore) UpsertEntries(ctx context.Context, entries []models.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].ID = 0
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "wins", "losses", "updated_at"}),
	}).Create(&entries).Error
	if err != nil {
		return fmt.Errorf("upsert leaderboard: %w", err)
	}
	return nil
}

func (s *GormStore) Entries(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	if err := s.db.WithContext(ctx).Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	return entries, nil
}
