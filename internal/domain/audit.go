package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    string                 `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth   = "auth"
	AuditCategoryReward = "reward"
	AuditCategoryFeed   = "feed"
)

// Audit actions
const (
	// Auth actions
	AuditActionRegister = "register"
	AuditActionLogin    = "login"

	// Reward actions
	AuditActionRewardGranted = "reward_granted"
	AuditActionRedemption    = "redemption"

	// Feed actions
	AuditActionPostPublished = "post_published"
)
