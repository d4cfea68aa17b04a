// Package memory is an in-process repository.Store. Transactions are
// serialized by one mutex and roll back by restoring a snapshot, which keeps
// the daily-claim and ledger guarantees of the Postgres store.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"scamfeed/internal/domain"
	"scamfeed/internal/repository"

	"github.com/google/uuid"
)

type activityKey struct {
	userID string
	kind   domain.ActivityType
	day    string
}

type likeKey struct {
	postID string
	userID string
}

type state struct {
	users        map[string]domain.User
	wallets      map[string]domain.Wallet // by user ID
	transactions []domain.WalletTransaction
	activities   map[activityKey]domain.DailyActivity
	posts        map[string]domain.Post
	scans        map[string]domain.ScanResult // by post ID
	comments     []domain.Comment
	likes        map[likeKey]struct{}
	audit        []domain.AuditLog
}

func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		wallets:      maps.Clone(s.wallets),
		transactions: slices.Clone(s.transactions),
		activities:   maps.Clone(s.activities),
		posts:        maps.Clone(s.posts),
		scans:        maps.Clone(s.scans),
		comments:     slices.Clone(s.comments),
		likes:        maps.Clone(s.likes),
		audit:        slices.Clone(s.audit),
	}
}

type Store struct {
	mu sync.RWMutex
	st *state
}

func New() *Store {
	return &Store{st: &state{
		users:      make(map[string]domain.User),
		wallets:    make(map[string]domain.Wallet),
		activities: make(map[activityKey]domain.DailyActivity),
		posts:      make(map[string]domain.Post),
		scans:      make(map[string]domain.ScanResult),
		likes:      make(map[likeKey]struct{}),
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&tx{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) HasActivity(_ context.Context, userID string, kind domain.ActivityType, day time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.st.activities[activityKey{userID, kind, dayKey(day)}]
	return ok, nil
}

func (s *Store) GetWallet(_ context.Context, userID string) (*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.st.wallets[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (s *Store) TransactionsSince(_ context.Context, userID string, since time.Time) ([]*domain.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.st.wallets[userID]
	if !ok {
		return nil, nil
	}
	var out []*domain.WalletTransaction
	for _, t := range s.st.transactions {
		if t.WalletID == w.ID && t.CreatedAt.After(since) {
			out = append(out, &t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.st.wallets[userID]
	if !ok {
		return nil, 0, nil
	}
	var all []*domain.WalletTransaction
	// walk backwards so equal timestamps still list the latest append first
	for i := len(s.st.transactions) - 1; i >= 0; i-- {
		if t := s.st.transactions[i]; t.WalletID == w.ID {
			all = append(all, &t)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset, 100), len(all), nil
}

func (s *Store) GetPost(_ context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.st.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.st.hydrate(p), nil
}

func (s *Store) ListPosts(_ context.Context, f repository.PostFilter) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*domain.Post
	for _, p := range s.st.sortedPosts() {
		if f.ScamType != "" && p.ScamType != f.ScamType {
			continue
		}
		all = append(all, s.st.hydrate(p))
	}
	return page(all, f.Limit, f.Offset, 20), nil
}

func (s *Store) CountPosts(_ context.Context, scamType string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.st.posts {
		if scamType == "" || p.ScamType == scamType {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountPostsSince(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.st.posts {
		if !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) RecentScamTypes(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var types []string
	for _, p := range s.st.sortedPosts() {
		if limit > 0 && len(types) == limit {
			break
		}
		if p.ScamType != "" {
			types = append(types, p.ScamType)
		}
	}
	return types, nil
}

func (s *Store) ListComments(_ context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Comment
	for _, c := range s.st.comments {
		if c.PostID != postID {
			continue
		}
		if u, ok := s.st.users[c.UserID]; ok {
			c.Author = u.Public()
		}
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range s.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.users), nil
}

func (s *Store) CreateAuditLog(_ context.Context, l *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = int64(len(s.st.audit) + 1)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	s.st.audit = append(s.st.audit, *l)
	return nil
}

// AuditLogs returns a copy of the recorded audit entries
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.audit)
}

// tx mutates the live state; Store.WithTx holds the write lock for its lifetime.
type tx struct {
	st *state
}

func (t *tx) ClaimActivity(_ context.Context, a *domain.DailyActivity) (bool, error) {
	key := activityKey{a.UserID, a.ActivityType, dayKey(a.ActivityDate)}
	if _, ok := t.st.activities[key]; ok {
		return false, nil
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	t.st.activities[key] = *a
	return true, nil
}

func (t *tx) CreditWallet(_ context.Context, userID string, amount int64, kind domain.ActivityType) (*domain.Wallet, error) {
	now := time.Now()
	w, ok := t.st.wallets[userID]
	if !ok {
		w = domain.Wallet{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
	}
	if w.Balance+amount < 0 {
		return nil, repository.ErrInsufficientFunds
	}
	reports, quizzes := kind.Counters()
	w.Balance += amount
	w.TotalReports += reports
	w.TotalQuizzes += quizzes
	w.UpdatedAt = now
	t.st.wallets[userID] = w
	return &w, nil
}

func (t *tx) DebitWallet(_ context.Context, userID string, amount int64) (*domain.Wallet, error) {
	w, ok := t.st.wallets[userID]
	if !ok || w.Balance < amount {
		return nil, repository.ErrInsufficientFunds
	}
	w.Balance -= amount
	w.UpdatedAt = time.Now()
	t.st.wallets[userID] = w
	return &w, nil
}

func (t *tx) AppendTransaction(_ context.Context, wt *domain.WalletTransaction) error {
	if wt.CreatedAt.IsZero() {
		wt.CreatedAt = time.Now()
	}
	t.st.transactions = append(t.st.transactions, *wt)
	return nil
}

func (t *tx) CreatePost(_ context.Context, p *domain.Post) error {
	if _, ok := t.st.posts[p.ID]; ok {
		return repository.ErrDuplicate
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	stored := *p
	stored.Tags = slices.Clone(p.Tags)
	stored.ScanResult = nil
	t.st.posts[p.ID] = stored
	return nil
}

func (t *tx) CreateScanResult(_ context.Context, r *domain.ScanResult) error {
	if _, ok := t.st.posts[r.PostID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := t.st.scans[r.PostID]; ok {
		return repository.ErrDuplicate
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	stored := *r
	stored.ExtractedTags = slices.Clone(r.ExtractedTags)
	t.st.scans[r.PostID] = stored
	return nil
}

func (t *tx) ToggleLike(_ context.Context, postID, userID string) (bool, int, error) {
	p, ok := t.st.posts[postID]
	if !ok {
		return false, 0, repository.ErrNotFound
	}
	key := likeKey{postID, userID}
	_, had := t.st.likes[key]
	if had {
		delete(t.st.likes, key)
		p.LikeCount = max(p.LikeCount-1, 0)
	} else {
		t.st.likes[key] = struct{}{}
		p.LikeCount++
	}
	t.st.posts[postID] = p
	return !had, p.LikeCount, nil
}

func (t *tx) CreateComment(_ context.Context, c *domain.Comment) error {
	p, ok := t.st.posts[c.PostID]
	if !ok {
		return repository.ErrNotFound
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	p.CommentCount++
	t.st.posts[c.PostID] = p
	t.st.comments = append(t.st.comments, *c)
	return nil
}

func (t *tx) CreateUser(_ context.Context, u *domain.User) error {
	u.Email = strings.ToLower(u.Email)
	for _, existing := range t.st.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	if u.Level == 0 {
		u.Level = 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	t.st.users[u.ID] = *u
	return nil
}

func (s *state) sortedPosts() []domain.Post {
	posts := slices.Collect(maps.Values(s.posts))
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (s *state) hydrate(p domain.Post) *domain.Post {
	p.Tags = slices.Clone(p.Tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if u, ok := s.users[p.UserID]; ok {
		p.Author = u.Public()
	} else {
		p.Author = domain.UserPublic{ID: p.UserID}
	}
	if sr, ok := s.scans[p.ID]; ok {
		sr.ExtractedTags = slices.Clone(sr.ExtractedTags)
		p.ScanResult = &sr
	}
	return &p
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func page[T any](items []T, limit, offset, def int) []T {
	if limit <= 0 {
		limit = def
	}
	offset = max(offset, 0)
	if offset >= len(items) {
		return nil
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
