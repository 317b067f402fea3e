// Package memory is an in-process Store used for local development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu            sync.Mutex
	transactions  map[string]core.Transaction
	categories    map[string]core.Category
	settings      map[string]core.UserSettings
	shares        map[string]core.Share
	subscriptions map[string]core.Subscription
}

func New() *Store {
	return &Store{
		transactions:  make(map[string]core.Transaction),
		categories:    make(map[string]core.Category),
		settings:      make(map[string]core.UserSettings),
		shares:        make(map[string]core.Share),
		subscriptions: make(map[string]core.Subscription),
	}
}

// NewFromFiles seeds categories from base/seed_categories.txt. Each line is
// "user_id|name[|icon[|color]]"; blank lines and # comments are skipped and
// duplicate user/name pairs are kept once.
func NewFromFiles(base string) *Store {
	s := New()
	now := time.Now().UTC()
	for _, line := range readLines(filepath.Join(base, "seed_categories.txt")) {
		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			continue
		}
		c := core.Category{
			UserID:    strings.TrimSpace(fields[0]),
			Name:      strings.TrimSpace(fields[1]),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if len(fields) > 2 {
			c.Icon = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			c.Color = strings.TrimSpace(fields[3])
		}
		c.Icon = core.NormalizeIcon(c.Icon)
		if c.UserID == "" || c.Validate() != nil {
			continue
		}
		_, _ = s.AddCategory(context.Background(), c)
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.transactions[tx.ID]
	if !ok || cur.UserID != tx.UserID {
		return core.ErrNotFound
	}
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.transactions[id]
	if !ok || cur.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, core.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Store) AddCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c = c.Clone()
	s.categories[c.ID] = c
	return c.Clone(), nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.categories[c.ID]
	if !ok || cur.UserID != c.UserID {
		return core.ErrNotFound
	}
	cur.Name = c.Name
	cur.Icon = c.Icon
	cur.Color = c.Color
	cur.UpdatedAt = c.UpdatedAt
	s.categories[c.ID] = cur
	return nil
}

func (s *Store) SetCategoryBudget(_ context.Context, userID, id string, month core.MonthKey, amount core.Money, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.categories[id]
	if !ok || cur.UserID != userID {
		return core.ErrNotFound
	}
	cur = cur.Clone()
	cur.MonthlyBudgets[month] = amount
	cur.UpdatedAt = at
	s.categories[id] = cur
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.categories[id]
	if !ok || cur.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return core.UserSettings{}, core.ErrNotFound
	}
	return st, nil
}

func (s *Store) PutSettings(_ context.Context, st core.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.UserID] = st
	return nil
}

func (s *Store) AddShare(_ context.Context, sh core.Share) (core.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	s.shares[sh.ID] = sh
	return sh, nil
}

func (s *Store) GetShare(_ context.Context, ownerID, id string) (core.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shares[id]
	if !ok || sh.OwnerID != ownerID {
		return core.Share{}, core.ErrNotFound
	}
	return sh, nil
}

func (s *Store) ListShares(_ context.Context, ownerID string) ([]core.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Share, 0)
	for _, sh := range s.shares {
		if sh.OwnerID == ownerID {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) RevokeShare(_ context.Context, ownerID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shares[id]
	if !ok || sh.OwnerID != ownerID {
		return core.ErrNotFound
	}
	if sh.RevokedAt == nil {
		sh.RevokedAt = &at
		s.shares[id] = sh
	}
	return nil
}

func (s *Store) ListSubscriptions(_ context.Context, userID string) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sortSubscriptions(out)
	return out, nil
}

func (s *Store) ListDueSubscriptions(_ context.Context, onOrBefore core.Date) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.Status == core.SubscriptionActive && !sub.RenewalDate.After(onOrBefore) {
			out = append(out, sub)
		}
	}
	sortSubscriptions(out)
	return out, nil
}

func (s *Store) GetSubscription(_ context.Context, userID, id string) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok || sub.UserID != userID {
		return core.Subscription{}, core.ErrNotFound
	}
	return sub, nil
}

func (s *Store) AddSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	s.subscriptions[sub.ID] = sub
	return sub, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.subscriptions[sub.ID]
	if !ok || cur.UserID != sub.UserID {
		return core.ErrNotFound
	}
	s.subscriptions[sub.ID] = sub
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.subscriptions[id]
	if !ok || cur.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.subscriptions, id)
	return nil
}

func sortSubscriptions(subs []core.Subscription) {
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].RenewalDate.Equal(subs[j].RenewalDate.Time) {
			return subs[i].RenewalDate.Before(subs[j].RenewalDate)
		}
		return subs[i].ID < subs[j].ID
	})
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
