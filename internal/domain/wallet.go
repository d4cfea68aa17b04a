package domain

import "time"

// ActivityType tags ledger entries and daily-activity markers
type ActivityType string

const (
	ActivityReport        ActivityType = "report"
	ActivityQuiz          ActivityType = "quiz"
	ActivitySocialLike    ActivityType = "social_like"
	ActivitySocialComment ActivityType = "social_comment"
	ActivityRedemption    ActivityType = "redemption"
)

// Valid reports whether a is one of the known activity tags.
func (a ActivityType) Valid() bool {
	switch a {
	case ActivityReport, ActivityQuiz, ActivitySocialLike, ActivitySocialComment, ActivityRedemption:
		return true
	}
	return false
}

// Counters returns the wallet counter increments a grant of this type causes.
func (a ActivityType) Counters() (reports, quizzes int) {
	switch a {
	case ActivityReport:
		return 1, 0
	case ActivityQuiz:
		return 0, 1
	}
	return 0, 0
}

// Wallet is the per-user points balance. It is created lazily on the first grant
// and only ever mutated together with a WalletTransaction row.
type Wallet struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Balance      int64     `db:"balance" json:"balance"`
	TotalReports int       `db:"total_reports" json:"total_reports"`
	TotalQuizzes int       `db:"total_quizzes" json:"total_quizzes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DailyActivity is the idempotency marker for one reward per user, type and day.
// ActivityDate is the calendar day as midnight UTC.
type DailyActivity struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"user_id"`
	ActivityType ActivityType `db:"activity_type" json:"activity_type"`
	ActivityDate time.Time    `db:"activity_date" json:"activity_date"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// DayOf returns the calendar day t falls on in loc, as midnight UTC.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayBucket is one weekday of the weekly points chart
type DayBucket struct {
	Day    string       `json:"day"`
	Amount int64        `json:"amount"`
	Type   ActivityType `json:"type"`
}
