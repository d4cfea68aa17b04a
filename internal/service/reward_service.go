package service

import (
	"context"
	"errors"
	"time"

	"scamfeed/internal/domain"
	"scamfeed/internal/logger"
	"scamfeed/internal/metrics"
	"scamfeed/internal/repository"

	"github.com/google/uuid"
)

// weekdayLabels are indexed Monday first
var weekdayLabels = [7]string{"월", "화", "수", "목", "금", "토", "일"}

// RewardConfig is fixed at start-up
type RewardConfig struct {
	ReportPoints  int64
	QuizPoints    int64
	LikePoints    int64
	CommentPoints int64
	// QuizDailyGate limits quiz rewards to one per day like the other kinds.
	QuizDailyGate bool
	// Location defines the calendar day used for the daily cap and the weekly chart.
	Location *time.Location
}

// Reward is the outcome of a reward attempt. Granted is false, with zero
// points, when today's reward of that kind was already claimed.
type Reward struct {
	Granted bool  `json:"rewarded"`
	Points  int64 `json:"points_earned"`
}

// WalletSummary backs the wallet screen
type WalletSummary struct {
	Balance            int64              `json:"balance"`
	TotalReports       int                `json:"total_reports"`
	TotalQuizzes       int                `json:"total_quizzes"`
	TodayReported      bool               `json:"today_reported"`
	TodayQuizCompleted bool               `json:"today_quiz_completed"`
	History            []domain.DayBucket `json:"history"`
}

// DailyStatus reports which daily rewards are already used up
type DailyStatus struct {
	TodayReported      bool `json:"today_reported"`
	TodayQuizCompleted bool `json:"today_quiz_completed"`
}

// RewardService owns wallets, the transaction ledger and the daily markers.
// Every balance change is written in the same store transaction as its ledger row.
type RewardService struct {
	store repository.Store
	cfg   RewardConfig
	audit *AuditService
	now   func() time.Time
}

func NewRewardService(store repository.Store, cfg RewardConfig, audit *AuditService) *RewardService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &RewardService{store: store, cfg: cfg, audit: audit, now: time.Now}
}

// WithClock replaces the time source
func (s *RewardService) WithClock(now func() time.Time) *RewardService {
	s.now = now
	return s
}

func (s *RewardService) Config() RewardConfig { return s.cfg }

func (s *RewardService) today() time.Time {
	return domain.DayOf(s.now(), s.cfg.Location)
}

// HasActivityToday reports whether today's marker for kind exists
func (s *RewardService) HasActivityToday(ctx context.Context, userID string, kind domain.ActivityType) (bool, error) {
	ok, err := s.store.HasActivity(ctx, userID, kind, s.today())
	if err != nil {
		return false, storeErr("check daily activity", err)
	}
	return ok, nil
}

// RecordActivityIfAbsent claims today's marker for kind. It returns false when
// the marker already exists.
func (s *RewardService) RecordActivityIfAbsent(ctx context.Context, userID string, kind domain.ActivityType) (bool, error) {
	var claimed bool
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		claimed, err = s.ClaimActivityTx(ctx, tx, userID, kind)
		return err
	})
	if err != nil {
		return false, storeErr("record daily activity", err)
	}
	return claimed, nil
}

// ClaimActivityTx is RecordActivityIfAbsent inside the caller's transaction.
func (s *RewardService) ClaimActivityTx(ctx context.Context, tx repository.Tx, userID string, kind domain.ActivityType) (bool, error) {
	if !kind.Valid() {
		return false, validationErr("unknown activity type %q", kind)
	}
	now := s.now()
	return tx.ClaimActivity(ctx, &domain.DailyActivity{
		ID:           uuid.NewString(),
		UserID:       userID,
		ActivityType: kind,
		ActivityDate: domain.DayOf(now, s.cfg.Location),
		CreatedAt:    now,
	})
}

// GrantPoints credits amount and appends the ledger row in one transaction.
// It applies no daily cap.
func (s *RewardService) GrantPoints(ctx context.Context, userID string, amount int64, kind domain.ActivityType, note string) (*domain.Wallet, error) {
	var w *domain.Wallet
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		w, err = s.GrantPointsTx(ctx, tx, userID, amount, kind, note)
		return err
	})
	if err != nil {
		return nil, storeErr("grant points", err)
	}
	s.Observe(ctx, userID, kind, Reward{Granted: true, Points: amount})
	return w, nil
}

// GrantPointsTx is GrantPoints inside the caller's transaction.
func (s *RewardService) GrantPointsTx(ctx context.Context, tx repository.Tx, userID string, amount int64, kind domain.ActivityType, note string) (*domain.Wallet, error) {
	if amount < 0 {
		return nil, validationErr("grant amount must not be negative")
	}
	if !kind.Valid() || kind == domain.ActivityRedemption {
		return nil, validationErr("activity type %q cannot be granted", kind)
	}

	w, err := tx.CreditWallet(ctx, userID, amount, kind)
	if err != nil {
		return nil, err
	}
	err = tx.AppendTransaction(ctx, &domain.WalletTransaction{
		ID:        uuid.NewString(),
		WalletID:  w.ID,
		Amount:    amount,
		Type:      kind,
		Note:      note,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// rewardTx claims the daily marker and grants points. With gated false the
// marker is still recorded but the grant happens regardless.
func (s *RewardService) rewardTx(ctx context.Context, tx repository.Tx, userID string, kind domain.ActivityType, points int64, note string, gated bool) (Reward, error) {
	claimed, err := s.ClaimActivityTx(ctx, tx, userID, kind)
	if err != nil {
		return Reward{}, err
	}
	if !claimed && gated {
		return Reward{}, nil
	}
	if _, err := s.GrantPointsTx(ctx, tx, userID, points, kind, note); err != nil {
		return Reward{}, err
	}
	return Reward{Granted: true, Points: points}, nil
}

func (s *RewardService) reward(ctx context.Context, userID string, kind domain.ActivityType, fn func(tx repository.Tx) (Reward, error)) (Reward, error) {
	var r Reward
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		r, err = fn(tx)
		return err
	})
	if err != nil {
		return Reward{}, storeErr("reward "+string(kind), err)
	}
	s.Observe(ctx, userID, kind, r)
	return r, nil
}

// RewardForReport grants the report reward at most once per day.
func (s *RewardService) RewardForReport(ctx context.Context, userID string) (Reward, error) {
	return s.reward(ctx, userID, domain.ActivityReport, func(tx repository.Tx) (Reward, error) {
		return s.RewardForReportTx(ctx, tx, userID)
	})
}

func (s *RewardService) RewardForReportTx(ctx context.Context, tx repository.Tx, userID string) (Reward, error) {
	return s.rewardTx(ctx, tx, userID, domain.ActivityReport, s.cfg.ReportPoints, "Daily scam report reward", true)
}

// RewardForQuiz grants points for a correct quiz answer. A non-positive
// points value falls back to the configured quiz reward.
func (s *RewardService) RewardForQuiz(ctx context.Context, userID string, points int64) (Reward, error) {
	return s.reward(ctx, userID, domain.ActivityQuiz, func(tx repository.Tx) (Reward, error) {
		return s.RewardForQuizTx(ctx, tx, userID, points)
	})
}

func (s *RewardService) RewardForQuizTx(ctx context.Context, tx repository.Tx, userID string, points int64) (Reward, error) {
	if points <= 0 {
		points = s.cfg.QuizPoints
	}
	return s.rewardTx(ctx, tx, userID, domain.ActivityQuiz, points, "Quiz correct answer", s.cfg.QuizDailyGate)
}

func (s *RewardService) RewardForLike(ctx context.Context, userID string) (Reward, error) {
	return s.reward(ctx, userID, domain.ActivitySocialLike, func(tx repository.Tx) (Reward, error) {
		return s.RewardForLikeTx(ctx, tx, userID)
	})
}

func (s *RewardService) RewardForLikeTx(ctx context.Context, tx repository.Tx, userID string) (Reward, error) {
	return s.rewardTx(ctx, tx, userID, domain.ActivitySocialLike, s.cfg.LikePoints, "Daily like reward", true)
}

func (s *RewardService) RewardForComment(ctx context.Context, userID string) (Reward, error) {
	return s.reward(ctx, userID, domain.ActivitySocialComment, func(tx repository.Tx) (Reward, error) {
		return s.RewardForCommentTx(ctx, tx, userID)
	})
}

func (s *RewardService) RewardForCommentTx(ctx context.Context, tx repository.Tx, userID string) (Reward, error) {
	return s.rewardTx(ctx, tx, userID, domain.ActivitySocialComment, s.cfg.CommentPoints, "Daily comment reward", true)
}

// Observe records metrics and the audit entry for a committed reward attempt.
// Callers composing *Tx variants call it after their own commit.
func (s *RewardService) Observe(ctx context.Context, userID string, kind domain.ActivityType, r Reward) {
	if !r.Granted {
		metrics.RewardsSkipped.WithLabelValues(string(kind)).Inc()
		logger.Debug("reward withheld by daily cap", "user_id", userID, "activity", kind)
		return
	}
	metrics.RewardsGranted.WithLabelValues(string(kind)).Inc()
	metrics.PointsGranted.WithLabelValues(string(kind)).Add(float64(r.Points))
	logger.Info("reward granted", "user_id", userID, "activity", kind, "points", r.Points)
	s.audit.LogReward(ctx, userID, kind, r.Points)
}

// Redeem spends amount from the wallet. The balance never goes negative.
func (s *RewardService) Redeem(ctx context.Context, userID string, amount int64, note string) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, validationErr("redeem amount must be positive")
	}

	var w *domain.Wallet
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		w, err = tx.DebitWallet(ctx, userID, amount)
		if err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, &domain.WalletTransaction{
			ID:        uuid.NewString(),
			WalletID:  w.ID,
			Amount:    -amount,
			Type:      domain.ActivityRedemption,
			Note:      note,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, storeErr("redeem", err)
	}

	logger.WithContext(ctx).Info("points redeemed", "user_id", userID, "amount", amount, "balance", w.Balance)
	s.audit.LogRedemption(ctx, userID, amount, w.Balance, note)
	return w, nil
}

// Wallet returns the user's wallet, creating an empty one on first access.
func (s *RewardService) Wallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	w, err := s.store.GetWallet(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("get wallet", err)
	}

	// a zero credit creates the row without touching counters or the ledger
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		w, err = tx.CreditWallet(ctx, userID, 0, "")
		return err
	})
	if err != nil {
		return nil, storeErr("create wallet", err)
	}
	return w, nil
}

// WeeklyHistory buckets the ledger rows of the trailing seven days by weekday,
// Monday first. Each bucket sums the amounts and keeps the type of the last
// row that fell on it. There are always exactly seven buckets.
func (s *RewardService) WeeklyHistory(ctx context.Context, userID string) ([]domain.DayBucket, error) {
	now := s.now()
	txs, err := s.store.TransactionsSince(ctx, userID, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, storeErr("weekly history", err)
	}
	return bucketByWeekday(txs, s.cfg.Location), nil
}

func bucketByWeekday(txs []*domain.WalletTransaction, loc *time.Location) []domain.DayBucket {
	buckets := make([]domain.DayBucket, 7)
	for i := range buckets {
		buckets[i] = domain.DayBucket{Day: weekdayLabels[i], Type: domain.ActivityReport}
	}
	// txs arrive oldest first, so the last write per weekday wins
	for _, t := range txs {
		i := (int(t.CreatedAt.In(loc).Weekday()) + 6) % 7
		buckets[i].Amount += t.Amount
		buckets[i].Type = t.Type
	}
	return buckets
}

func (s *RewardService) DailyStatus(ctx context.Context, userID string) (*DailyStatus, error) {
	reported, err := s.HasActivityToday(ctx, userID, domain.ActivityReport)
	if err != nil {
		return nil, err
	}
	quiz, err := s.HasActivityToday(ctx, userID, domain.ActivityQuiz)
	if err != nil {
		return nil, err
	}
	return &DailyStatus{TodayReported: reported, TodayQuizCompleted: quiz}, nil
}

// Summary collects the wallet, today's status and the weekly chart
func (s *RewardService) Summary(ctx context.Context, userID string) (*WalletSummary, error) {
	w, err := s.Wallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	status, err := s.DailyStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.WeeklyHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WalletSummary{
		Balance:            w.Balance,
		TotalReports:       w.TotalReports,
		TotalQuizzes:       w.TotalQuizzes,
		TodayReported:      status.TodayReported,
		TodayQuizCompleted: status.TodayQuizCompleted,
		History:            history,
	}, nil
}

// Transactions lists the ledger newest first
func (s *RewardService) Transactions(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.store.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, storeErr("list transactions", err)
	}
	if items == nil {
		items = []*domain.WalletTransaction{}
	}
	return items, total, nil
}
