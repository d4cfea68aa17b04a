package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scamfeed/internal/domain"
	"scamfeed/internal/oracle"
	"scamfeed/internal/repository"
	"scamfeed/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var seoul = mustLoad("Asia/Seoul")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func testRewardConfig() RewardConfig {
	return RewardConfig{
		ReportPoints:  100,
		QuizPoints:    50,
		LikePoints:    5,
		CommentPoints: 10,
		QuizDailyGate: true,
		Location:      seoul,
	}
}

func newRewards(store repository.Store, clock *fakeClock) *RewardService {
	return NewRewardService(store, testRewardConfig(), NewAuditService(store)).WithClock(clock.Now)
}

func seedUser(t *testing.T, store repository.Store, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.NewString(), Username: name, Email: name + "@example.com", PasswordHash: "x", Level: 1}
	require.NoError(t, store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.CreateUser(context.Background(), u)
	}))
	return u
}

// failingStore breaks AppendTransaction so a grant fails after the wallet was credited
type failingStore struct {
	*memory.Store
}

func (f *failingStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return f.Store.WithTx(ctx, func(tx repository.Tx) error {
		return fn(failingTx{Tx: tx})
	})
}

type failingTx struct {
	repository.Tx
}

func (failingTx) AppendTransaction(context.Context, *domain.WalletTransaction) error {
	return errors.New("disk full")
}

type stubClassifier struct {
	mu    sync.Mutex
	res   oracle.Result
	err   error
	calls int
}

func (s *stubClassifier) Classify(context.Context, []byte, string) (oracle.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.res, s.err
}

func verdictResult(risk domain.RiskLevel, conf int, isScam bool) oracle.Result {
	return oracle.Result{
		Kind: oracle.KindOK,
		Verdict: domain.Verdict{
			IsScam:          isScam,
			ConfidenceScore: conf,
			ScamType:        "Smishing",
			RiskLevel:       risk,
			ExtractedTags:   []string{"Bank", "Urgent"},
			Analysis:        "은행 사칭 문자입니다.",
		},
	}
}

type stubDescriber struct {
	text string
	err  error
}

func (d stubDescriber) Describe(context.Context, domain.Verdict) (string, error) {
	return d.text, d.err
}

type memBlobs struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	deleted []string
}

func newMemBlobs() *memBlobs { return &memBlobs{blobs: make(map[string][]byte)} }

func (m *memBlobs) Put(_ context.Context, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := "/uploads/images/" + uuid.NewString() + ".png"
	m.blobs[ref] = data
	return ref, nil
}

func (m *memBlobs) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, ref)
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *memBlobs) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

type recordingNotifier struct {
	mu    sync.Mutex
	posts []*domain.Post
}

func (r *recordingNotifier) PostCreated(p *domain.Post) {
	r.mu.Lock()
	r.posts = append(r.posts, p)
	r.mu.Unlock()
}
