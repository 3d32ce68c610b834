package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"trendbet-bot/internal/models"
)

// MemoryStore implements UserStore and LeaderboardRepo in process memory.
// Reads return copies so callers cannot mutate stored records.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]*models.User
	entries []models.LeaderboardEntry
	nextID  uint
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[int64]*models.User),
		now:   time.Now,
	}
}

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func copyUser(u *models.User) *models.User {
	out := *u
	if u.WalletAddress != nil {
		w := *u.WalletAddress
		out.WalletAddress = &w
	}
	out.Bets = make([]models.Bet, len(u.Bets))
	for i, b := range u.Bets {
		out.Bets[i] = copyBet(b)
	}
	return &out
}

func copyBet(b models.Bet) models.Bet {
	if b.PriceAtEnd != nil {
		p := *b.PriceAtEnd
		b.PriceAtEnd = &p
	}
	if b.ResolvedAt != nil {
		t := *b.ResolvedAt
		b.ResolvedAt = &t
	}
	return b
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, profile models.Profile) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[profile.TelegramID]; ok {
		return copyUser(u), nil
	}

	now := s.now()
	u := &models.User{
		ID:         s.id(),
		TelegramID: profile.TelegramID,
		Username:   profile.Username,
		FirstName:  profile.FirstName,
		Bets:       []models.Bet{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.users[profile.TelegramID] = u
	return copyUser(u), nil
}

func (s *MemoryStore) Exists(ctx context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[userID]
	return ok, nil
}

func (s *MemoryStore) Get(ctx context.Context, userID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) SetWallet(ctx context.Context, userID int64, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	u.WalletAddress = &address
	u.UpdatedAt = s.now()
	return true, nil
}

func (s *MemoryStore) AppendBet(ctx context.Context, userID int64, bet models.Bet) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return false, nil
	}

	now := s.now()
	bet.ID = s.id()
	bet.OwnerID = userID
	bet.CreatedAt = now
	bet.UpdatedAt = now
	u.Bets = append(u.Bets, copyBet(bet))
	return true, nil
}

func (s *MemoryStore) ResolveBet(ctx context.Context, userID int64, betID string, finalPrice float64, verdict models.Verdict) (*models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	for i := range u.Bets {
		if u.Bets[i].BetID != betID {
			continue
		}
		if !u.Bets[i].IsOpen() {
			return nil, ErrBetAlreadyClosed
		}
		now := s.now()
		closeBet(&u.Bets[i], finalPrice, verdict, now)
		u.Bets[i].UpdatedAt = now
		out := copyBet(u.Bets[i])
		return &out, nil
	}
	return nil, ErrBetNotFound
}

func (s *MemoryStore) ListBets(ctx context.Context, userID int64) ([]models.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return []models.Bet{}, nil
	}
	return copyUser(u).Bets, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) ListOpenBets(ctx context.Context, placedBefore time.Time) ([]models.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []models.Bet
	for _, u := range s.users {
		for _, b := range u.Bets {
			if b.IsOpen() && !b.PlacedAt.After(placedBefore) {
				open = append(open, copyBet(b))
			}
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open, nil
}

func (s *MemoryStore) UpsertEntries(ctx context.Context, entries []models.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, e := range entries {
		found := false
		for i := range s.entries {
			if s.entries[i].UserID == e.UserID {
				s.entries[i].DisplayName = e.DisplayName
				s.entries[i].Wins = e.Wins
				s.entries[i].Losses = e.Losses
				s.entries[i].UpdatedAt = now
				found = true
				break
			}
		}
		if !found {
			e.ID = s.id()
			e.CreatedAt = now
			e.UpdatedAt = now
			s.entries = append(s.entries, e)
		}
	}
	return nil
}

func (s *MemoryStore) Entries(ctx context.Context) ([]models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LeaderboardEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
