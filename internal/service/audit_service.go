package service

import (
	"context"

	"scamfeed/internal/domain"
	"scamfeed/internal/logger"
	"scamfeed/internal/repository"
)

// RequestMeta carries client details recorded with auth events
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditService handles audit logging. Failures are logged, never returned.
type AuditService struct {
	store repository.Store
}

// NewAuditService creates a new audit service
func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, userID, action, category string, details map[string]interface{}) {
	s.LogWithRequest(ctx, userID, action, category, RequestMeta{}, details)
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, userID, action, category string, meta RequestMeta, details map[string]interface{}) {
	if s == nil {
		return
	}
	log := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}

	if err := s.store.CreateAuditLog(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

func (s *AuditService) LogReward(ctx context.Context, userID string, kind domain.ActivityType, points int64) {
	s.Log(ctx, userID, domain.AuditActionRewardGranted, domain.AuditCategoryReward, map[string]interface{}{
		"activity": string(kind),
		"points":   points,
	})
}

func (s *AuditService) LogRedemption(ctx context.Context, userID string, amount, balance int64, note string) {
	s.Log(ctx, userID, domain.AuditActionRedemption, domain.AuditCategoryReward, map[string]interface{}{
		"amount":  amount,
		"balance": balance,
		"note":    note,
	})
}

func (s *AuditService) LogPostPublished(ctx context.Context, userID string, post *domain.Post, degraded bool) {
	s.Log(ctx, userID, domain.AuditActionPostPublished, domain.AuditCategoryFeed, map[string]interface{}{
		"post_id":          post.ID,
		"scam_score":       post.ScamScore,
		"scam_type":        post.ScamType,
		"is_verified_scam": post.IsVerifiedScam,
		"oracle_degraded":  degraded,
	})
}

// LogLogin logs a user login
func (s *AuditService) LogLogin(ctx context.Context, userID string, meta RequestMeta) {
	s.LogWithRequest(ctx, userID, domain.AuditActionLogin, domain.AuditCategoryAuth, meta, nil)
}

func (s *AuditService) LogRegister(ctx context.Context, userID string, meta RequestMeta) {
	s.LogWithRequest(ctx, userID, domain.AuditActionRegister, domain.AuditCategoryAuth, meta, nil)
}
