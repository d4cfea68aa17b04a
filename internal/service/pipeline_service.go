package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scamfeed/internal/domain"
	"scamfeed/internal/logger"
	"scamfeed/internal/metrics"
	"scamfeed/internal/oracle"
	"scamfeed/internal/repository"
	"scamfeed/internal/score"
	"scamfeed/internal/storage"

	"github.com/google/uuid"
)

// PipelineConfig is fixed at start-up
type PipelineConfig struct {
	// AutoPublishThreshold is the minimum scam score that publishes a post.
	AutoPublishThreshold int
	// VerifiedScamConfidence is the minimum confidence for is_verified_scam.
	VerifiedScamConfidence int
	MaxImageBytes          int64
}

// PostNotifier is told about every committed post
type PostNotifier interface {
	PostCreated(p *domain.Post)
}

// Notifiers fans a post out to several receivers
type Notifiers []PostNotifier

func (ns Notifiers) PostCreated(p *domain.Post) {
	for _, n := range ns {
		n.PostCreated(p)
	}
}

// Submission is one image handed to the pipeline
type Submission struct {
	UserID   string
	Image    []byte
	MimeType string
	// Threshold is the score at or above which the image is published. 0 always publishes.
	Threshold int
	// Description overrides the generated post text when set.
	Description string
}

// AnalyzeResult is the verdict and, when published, what was created
type AnalyzeResult struct {
	Verdict      domain.Verdict `json:"scan_result"`
	ScamScore    int            `json:"scam_score"`
	Degraded     bool           `json:"degraded"`
	Published    bool           `json:"published"`
	Rewarded     bool           `json:"rewarded"`
	PointsEarned int64          `json:"points_earned"`
	PostID       string         `json:"post_id,omitempty"`
	Post         *domain.Post   `json:"-"`
}

// PipelineService turns uploaded images into posts.
type PipelineService struct {
	store      repository.Store
	classifier oracle.Classifier
	describer  oracle.Describer
	blobs      storage.BlobStore
	rewards    *RewardService
	audit      *AuditService
	notifier   PostNotifier
	cfg        PipelineConfig
	now        func() time.Time
}

func NewPipelineService(
	store repository.Store,
	classifier oracle.Classifier,
	describer oracle.Describer,
	blobs storage.BlobStore,
	rewards *RewardService,
	audit *AuditService,
	cfg PipelineConfig,
) *PipelineService {
	if describer == nil {
		describer = oracle.TemplateDescriber{}
	}
	return &PipelineService{
		store:      store,
		classifier: classifier,
		describer:  describer,
		blobs:      blobs,
		rewards:    rewards,
		audit:      audit,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithNotifier sets the receiver of post_created events
func (s *PipelineService) WithNotifier(n PostNotifier) *PipelineService {
	s.notifier = n
	return s
}

func (s *PipelineService) WithClock(now func() time.Time) *PipelineService {
	s.now = now
	return s
}

func (s *PipelineService) Config() PipelineConfig { return s.cfg }

func (s *PipelineService) validate(image []byte, mimeType string) error {
	if len(image) == 0 {
		return validationErr("image is empty")
	}
	if s.cfg.MaxImageBytes > 0 && int64(len(image)) > s.cfg.MaxImageBytes {
		return validationErr("image exceeds %d bytes", s.cfg.MaxImageBytes)
	}
	if !strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return validationErr("only image files are allowed")
	}
	return nil
}

func (s *PipelineService) classify(ctx context.Context, image []byte, mimeType string) (oracle.Result, int, error) {
	res, err := s.classifier.Classify(ctx, image, mimeType)
	if err != nil {
		return oracle.Result{}, 0, fmt.Errorf("classify: %w", err)
	}
	metrics.OracleVerdicts.WithLabelValues(res.Kind.String()).Inc()
	if res.Degraded() {
		logger.WithContext(ctx).Warn("classification degraded", "cause", res.Cause)
	}
	return res, score.Score(string(res.Verdict.RiskLevel), res.Verdict.ConfidenceScore), nil
}

// Analyze classifies and scores without persisting anything.
func (s *PipelineService) Analyze(ctx context.Context, userID string, image []byte, mimeType string) (*AnalyzeResult, error) {
	if err := s.validate(image, mimeType); err != nil {
		return nil, err
	}
	res, scamScore, err := s.classify(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	logger.Debug("image analyzed", "user_id", userID, "score", scamScore, "degraded", res.Degraded())
	return &AnalyzeResult{Verdict: res.Verdict, ScamScore: scamScore, Degraded: res.Degraded()}, nil
}

// SubmitForAnalysis classifies the image and publishes it when the score
// reaches threshold.
func (s *PipelineService) SubmitForAnalysis(ctx context.Context, userID string, image []byte, mimeType string, threshold int) (*AnalyzeResult, error) {
	return s.Submit(ctx, Submission{UserID: userID, Image: image, MimeType: mimeType, Threshold: threshold})
}

// AnalyzeAndPublish uses the configured auto-publish threshold.
func (s *PipelineService) AnalyzeAndPublish(ctx context.Context, userID string, image []byte, mimeType string) (*AnalyzeResult, error) {
	return s.SubmitForAnalysis(ctx, userID, image, mimeType, s.cfg.AutoPublishThreshold)
}

// Publish always creates the post, using description when given.
func (s *PipelineService) Publish(ctx context.Context, userID string, image []byte, mimeType, description string) (*AnalyzeResult, error) {
	return s.Submit(ctx, Submission{UserID: userID, Image: image, MimeType: mimeType, Description: description})
}

// Submit runs classify, score and, at or above the threshold, publishes.
// The post, its scan result and the report reward commit together; if that
// transaction fails the stored image is removed and nothing is kept.
func (s *PipelineService) Submit(ctx context.Context, sub Submission) (*AnalyzeResult, error) {
	if err := s.validate(sub.Image, sub.MimeType); err != nil {
		return nil, err
	}

	res, scamScore, err := s.classify(ctx, sub.Image, sub.MimeType)
	if err != nil {
		metrics.Submissions.WithLabelValues("failed").Inc()
		return nil, err
	}
	v := res.Verdict
	out := &AnalyzeResult{Verdict: v, ScamScore: scamScore, Degraded: res.Degraded()}

	if scamScore < sub.Threshold {
		metrics.Submissions.WithLabelValues("preview").Inc()
		logger.WithContext(ctx).Info("submission below threshold", "user_id", sub.UserID, "score", scamScore, "threshold", sub.Threshold)
		return out, nil
	}

	description := strings.TrimSpace(sub.Description)
	if description == "" {
		description = s.describe(ctx, v)
	}

	ref, err := s.blobs.Put(ctx, sub.Image, sub.MimeType)
	if err != nil {
		metrics.Submissions.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: store image: %w", ErrStorage, err)
	}

	now := s.now()
	post := &domain.Post{
		ID:             uuid.NewString(),
		UserID:         sub.UserID,
		ImageURL:       ref,
		Description:    description,
		ScamType:       v.ScamType,
		Tags:           append([]string{}, v.ExtractedTags...),
		IsVerifiedScam: v.IsVerifiedScam(s.cfg.VerifiedScamConfidence),
		ScamScore:      scamScore,
		CreatedAt:      now,
	}

	var reward Reward
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreatePost(ctx, post); err != nil {
			return err
		}
		if err := tx.CreateScanResult(ctx, &domain.ScanResult{
			ID:        uuid.NewString(),
			PostID:    post.ID,
			Verdict:   v,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		var err error
		reward, err = s.rewards.RewardForReportTx(ctx, tx, sub.UserID)
		return err
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), ref); delErr != nil {
			logger.Error("failed to remove orphaned image", "error", delErr, "ref", ref)
		}
		metrics.Submissions.WithLabelValues("failed").Inc()
		return nil, storeErr("publish post", err)
	}

	metrics.Submissions.WithLabelValues("published").Inc()
	s.rewards.Observe(ctx, sub.UserID, domain.ActivityReport, reward)
	s.audit.LogPostPublished(ctx, sub.UserID, post, res.Degraded())
	logger.WithContext(ctx).Info("post published", "user_id", sub.UserID, "post_id", post.ID, "score", scamScore, "rewarded", reward.Granted)

	if stored, err := s.store.GetPost(ctx, post.ID); err == nil {
		post = stored
	} else {
		post.Author = domain.UserPublic{ID: sub.UserID}
		post.ScanResult = &domain.ScanResult{PostID: post.ID, Verdict: v, CreatedAt: now}
	}
	if s.notifier != nil {
		s.notifier.PostCreated(post)
	}

	out.Published = true
	out.Rewarded = reward.Granted
	out.PointsEarned = reward.Points
	out.PostID = post.ID
	out.Post = post
	return out, nil
}

func (s *PipelineService) describe(ctx context.Context, v domain.Verdict) string {
	text, err := s.describer.Describe(ctx, v)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			logger.Warn("post description generation failed, using template", "error", err)
		}
		return oracle.TemplateDescription(v)
	}
	return text
}
