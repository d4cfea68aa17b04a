package repository

import (
	"context"
	"time"

	"scamfeed/internal/domain"

	"github.com/google/uuid"
)

// ActivityRepository stores the per-day reward markers
type ActivityRepository struct {
	db DBTX
}

func NewActivityRepository(db DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Claim inserts the marker and reports whether this call created it.
// The unique (user_id, activity_type, activity_date) constraint decides the race;
// a concurrent claimer blocks until the winner commits and then inserts nothing.
func (r *ActivityRepository) Claim(ctx context.Context, a *domain.DailyActivity) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	tag, err := r.db.Exec(ctx,
		`INSERT INTO daily_activities (id, user_id, activity_type, activity_date, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, activity_type, activity_date) DO NOTHING`,
		a.ID, a.UserID, a.ActivityType, a.ActivityDate, a.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Exists checks whether the marker for the given day is present
func (r *ActivityRepository) Exists(ctx context.Context, userID string, kind domain.ActivityType, day time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM daily_activities
			WHERE user_id = $1 AND activity_type = $2 AND activity_date = $3
		)
	`, userID, kind, day).Scan(&exists)
	return exists, err
}
