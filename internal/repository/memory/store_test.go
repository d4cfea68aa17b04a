package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scamfeed/internal/domain"
	"scamfeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repository.Store = (*Store)(nil)

func TestClaimActivity_OncePerDay(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	claim := func(d time.Time) bool {
		var claimed bool
		require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
			var err error
			claimed, err = tx.ClaimActivity(ctx, &domain.DailyActivity{UserID: "u1", ActivityType: domain.ActivityReport, ActivityDate: d})
			return err
		}))
		return claimed
	}

	assert.True(t, claim(day))
	assert.False(t, claim(day))
	assert.True(t, claim(day.AddDate(0, 0, 1)))

	ok, err := s.HasActivity(ctx, "u1", domain.ActivityReport, day)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasActivity(ctx, "u1", domain.ActivityQuiz, day)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.CreditWallet(ctx, "u1", 100, domain.ActivityReport); err != nil {
			return err
		}
		if _, err := tx.ClaimActivity(ctx, &domain.DailyActivity{UserID: "u1", ActivityType: domain.ActivityReport, ActivityDate: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetWallet(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	ok, err := s.HasActivity(ctx, "u1", domain.ActivityReport, domain.DayOf(time.Now(), time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDebitWallet_NeverNegative(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.CreditWallet(ctx, "u1", 30, domain.ActivityQuiz)
		return err
	}))

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.DebitWallet(ctx, "u1", 31)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)

	w, err := s.GetWallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), w.Balance)
	assert.Equal(t, 1, w.TotalQuizzes)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
		return tx.CreatePost(ctx, &domain.Post{ID: "p1", UserID: "u1"})
	}))

	toggle := func() (bool, int) {
		var liked bool
		var n int
		require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
			var err error
			liked, n, err = tx.ToggleLike(ctx, "p1", "u2")
			return err
		}))
		return liked, n
	}

	liked, n := toggle()
	assert.True(t, liked)
	assert.Equal(t, 1, n)
	liked, n = toggle()
	assert.False(t, liked)
	assert.Equal(t, 0, n)
}

func TestConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := domain.DayOf(time.Now(), time.UTC)

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithTx(ctx, func(tx repository.Tx) error {
				ok, err := tx.ClaimActivity(ctx, &domain.DailyActivity{UserID: "u1", ActivityType: domain.ActivityReport, ActivityDate: day})
				if ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
				return err
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
