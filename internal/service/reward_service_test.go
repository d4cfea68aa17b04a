package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"scamfeed/internal/domain"
	"scamfeed/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var wed = time.Date(2026, 3, 4, 12, 0, 0, 0, seoul)

func ledgerSum(t *testing.T, rewards *RewardService, userID string) int64 {
	t.Helper()
	txs, _, err := rewards.Transactions(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	return sum
}

func TestRewardForReport_OncePerDay(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := newClock(wed)
	rewards := newRewards(store, clock)

	first, err := rewards.RewardForReport(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Reward{Granted: true, Points: 100}, first)

	second, err := rewards.RewardForReport(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Reward{}, second)

	w, err := rewards.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
	assert.Equal(t, 1, w.TotalReports)

	// next calendar day in Seoul
	clock.Set(time.Date(2026, 3, 5, 0, 1, 0, 0, seoul))
	third, err := rewards.RewardForReport(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, third.Granted)

	w, err = rewards.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), w.Balance)
	assert.Equal(t, 2, w.TotalReports)
}

func TestRewardForReport_DayFollowsConfiguredZone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	// 14:30 UTC and 15:30 UTC straddle midnight in Seoul
	clock := newClock(time.Date(2026, 3, 4, 14, 30, 0, 0, time.UTC))
	rewards := newRewards(store, clock)

	r, err := rewards.RewardForReport(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, r.Granted)

	clock.Set(time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC))
	r, err = rewards.RewardForReport(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, r.Granted, "15:30 UTC is already the next day in Seoul")
}

func TestRewardForReport_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rewards := newRewards(store, newClock(wed))

	const n = 50
	results := make([]Reward, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = rewards.RewardForReport(ctx, "u1")
		}(i)
	}
	wg.Wait()

	granted := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Granted {
			granted++
		} else {
			assert.Zero(t, results[i].Points)
		}
	}
	assert.Equal(t, 1, granted)

	w, err := rewards.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
	assert.Equal(t, w.Balance, ledgerSum(t, rewards, "u1"))
}

func TestRecordActivityIfAbsent(t *testing.T) {
	ctx := context.Background()
	rewards := newRewards(memory.New(), newClock(wed))

	has, err := rewards.HasActivityToday(ctx, "u1", domain.ActivityQuiz)
	require.NoError(t, err)
	assert.False(t, has)

	claimed, err := rewards.RecordActivityIfAbsent(ctx, "u1", domain.ActivityQuiz)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = rewards.RecordActivityIfAbsent(ctx, "u1", domain.ActivityQuiz)
	require.NoError(t, err)
	assert.False(t, claimed)

	has, err = rewards.HasActivityToday(ctx, "u1", domain.ActivityQuiz)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = rewards.RecordActivityIfAbsent(ctx, "u1", domain.ActivityType("bogus"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGrantPoints_CountersByType(t *testing.T) {
	ctx := context.Background()
	rewards := newRewards(memory.New(), newClock(wed))

	_, err := rewards.GrantPoints(ctx, "u1", 100, domain.ActivityReport, "r")
	require.NoError(t, err)
	_, err = rewards.GrantPoints(ctx, "u1", 50, domain.ActivityQuiz, "q")
	require.NoError(t, err)
	w, err := rewards.GrantPoints(ctx, "u1", 5, domain.ActivitySocialLike, "l")
	require.NoError(t, err)

	assert.Equal(t, int64(155), w.Balance)
	assert.Equal(t, 1, w.TotalReports)
	assert.Equal(t, 1, w.TotalQuizzes)

	_, err = rewards.GrantPoints(ctx, "u1", -5, domain.ActivityReport, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = rewards.GrantPoints(ctx, "u1", 5, domain.ActivityRedemption, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGrantPoints_RollsBackWithoutLedgerRow(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.New()}
	rewards := newRewards(store, newClock(wed))

	_, err := rewards.RewardForReport(ctx, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	_, err = store.GetWallet(ctx, "u1")
	assert.Error(t, err, "wallet credit must roll back with the failed ledger insert")

	has, err := store.HasActivity(ctx, "u1", domain.ActivityReport, domain.DayOf(wed, seoul))
	require.NoError(t, err)
	assert.False(t, has, "daily marker must roll back too")
}

func TestRewardForQuiz_Gated(t *testing.T) {
	ctx := context.Background()
	rewards := newRewards(memory.New(), newClock(wed))

	r, err := rewards.RewardForQuiz(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, Reward{Granted: true, Points: 50}, r)

	r, err = rewards.RewardForQuiz(ctx, "u1", 30)
	require.NoError(t, err)
	assert.False(t, r.Granted)

	status, err := rewards.DailyStatus(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, status.TodayQuizCompleted)
	assert.False(t, status.TodayReported)
}

func TestRewardForQuiz_Ungated(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := testRewardConfig()
	cfg.QuizDailyGate = false
	rewards := NewRewardService(store, cfg, NewAuditService(store)).WithClock(newClock(wed).Now)

	for i := 0; i < 3; i++ {
		r, err := rewards.RewardForQuiz(ctx, "u1", 30)
		require.NoError(t, err)
		assert.Equal(t, Reward{Granted: true, Points: 30}, r)
	}

	w, err := rewards.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(90), w.Balance)
	assert.Equal(t, 3, w.TotalQuizzes)

	done, err := rewards.HasActivityToday(ctx, "u1", domain.ActivityQuiz)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSocialRewards_IndependentCaps(t *testing.T) {
	ctx := context.Background()
	rewards := newRewards(memory.New(), newClock(wed))

	like, err := rewards.RewardForLike(ctx, "u1")
	require.NoError(t, err)
	comment, err := rewards.RewardForComment(ctx, "u1")
	require.NoError(t, err)
	report, err := rewards.RewardForReport(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(5), like.Points)
	assert.Equal(t, int64(10), comment.Points)
	assert.Equal(t, int64(100), report.Points)

	like, err = rewards.RewardForLike(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, like.Granted)
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()
	rewards := newRewards(memory.New(), newClock(wed))

	_, err := rewards.Redeem(ctx, "u1", 10, "coffee")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = rewards.RewardForReport(ctx, "u1")
	require.NoError(t, err)

	w, err := rewards.Redeem(ctx, "u1", 60, "coffee")
	require.NoError(t, err)
	assert.Equal(t, int64(40), w.Balance)

	_, err = rewards.Redeem(ctx, "u1", 41, "more coffee")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = rewards.Redeem(ctx, "u1", 0, "")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, int64(40), ledgerSum(t, rewards, "u1"))
}

func TestLedgerMatchesBalance(t *testing.T) {
	ctx := context.Background()
	clock := newClock(wed)
	rewards := newRewards(memory.New(), clock)

	for day := 0; day < 5; day++ {
		clock.Set(wed.AddDate(0, 0, day))
		_, err := rewards.RewardForReport(ctx, "u1")
		require.NoError(t, err)
		_, err = rewards.RewardForReport(ctx, "u1")
		require.NoError(t, err)
		_, err = rewards.RewardForQuiz(ctx, "u1", 20)
		require.NoError(t, err)
		_, err = rewards.RewardForLike(ctx, "u1")
		require.NoError(t, err)
	}
	_, err := rewards.Redeem(ctx, "u1", 77, "gift")
	require.NoError(t, err)

	w, err := rewards.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5*(100+20+5)-77), w.Balance)
	assert.Equal(t, w.Balance, ledgerSum(t, rewards, "u1"))
}

func TestWeeklyHistory_EmptyWallet(t *testing.T) {
	rewards := newRewards(memory.New(), newClock(wed))

	history, err := rewards.WeeklyHistory(context.Background(), "nobody")
	require.NoError(t, err)
	require.Len(t, history, 7)

	for i, b := range history {
		assert.Equal(t, weekdayLabels[i], b.Day)
		assert.Zero(t, b.Amount)
		assert.Equal(t, domain.ActivityReport, b.Type)
	}
}

func TestWeeklyHistory_Buckets(t *testing.T) {
	ctx := context.Background()
	clock := newClock(wed)
	rewards := newRewards(memory.New(), clock)

	grant := func(at time.Time, amount int64, kind domain.ActivityType) {
		clock.Set(at)
		_, err := rewards.GrantPoints(ctx, "u1", amount, kind, "")
		require.NoError(t, err)
	}

	// exactly seven days back is outside the window
	grant(wed.Add(-7*24*time.Hour), 1000, domain.ActivityReport)
	grant(wed.Add(-7*24*time.Hour+time.Minute), 7, domain.ActivityQuiz)
	grant(time.Date(2026, 3, 2, 9, 0, 0, 0, seoul), 100, domain.ActivityReport)
	grant(time.Date(2026, 3, 2, 20, 0, 0, 0, seoul), 50, domain.ActivityQuiz)
	grant(time.Date(2026, 3, 1, 23, 30, 0, 0, seoul), 10, domain.ActivitySocialComment)
	grant(wed, 5, domain.ActivitySocialLike)

	clock.Set(wed)
	history, err := rewards.WeeklyHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 7)

	mon, wedB, sun := history[0], history[2], history[6]
	assert.Equal(t, "월", mon.Day)
	assert.Equal(t, int64(150), mon.Amount)
	assert.Equal(t, domain.ActivityQuiz, mon.Type)

	assert.Equal(t, "수", wedB.Day)
	assert.Equal(t, int64(12), wedB.Amount)
	assert.Equal(t, domain.ActivitySocialLike, wedB.Type)

	assert.Equal(t, "일", sun.Day)
	assert.Equal(t, int64(10), sun.Amount)
	assert.Equal(t, domain.ActivitySocialComment, sun.Type)

	assert.Zero(t, history[1].Amount)
	assert.Equal(t, domain.ActivityReport, history[1].Type)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	rewards := newRewards(memory.New(), newClock(wed))

	s, err := rewards.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, s.Balance)
	assert.False(t, s.TodayReported)
	assert.Len(t, s.History, 7)

	_, err = rewards.RewardForReport(ctx, "u1")
	require.NoError(t, err)

	s, err = rewards.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), s.Balance)
	assert.Equal(t, 1, s.TotalReports)
	assert.True(t, s.TodayReported)
	assert.Equal(t, int64(100), s.History[2].Amount)
}
