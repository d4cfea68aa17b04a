package service

import (
	"context"
	"errors"
	"testing"

	"scamfeed/internal/domain"
	"scamfeed/internal/oracle"
	"scamfeed/internal/repository"
	"scamfeed/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

type pipelineFixture struct {
	store      repository.Store
	mem        *memory.Store
	classifier *stubClassifier
	blobs      *memBlobs
	notifier   *recordingNotifier
	rewards    *RewardService
	pipeline   *PipelineService
	user       *domain.User
}

func newPipelineFixture(t *testing.T, res oracle.Result, describer oracle.Describer) *pipelineFixture {
	t.Helper()
	mem := memory.New()
	return newPipelineFixtureWithStore(t, mem, mem, res, describer)
}

func newPipelineFixtureWithStore(t *testing.T, store repository.Store, mem *memory.Store, res oracle.Result, describer oracle.Describer) *pipelineFixture {
	t.Helper()
	clock := newClock(wed)
	audit := NewAuditService(store)
	rewards := NewRewardService(store, testRewardConfig(), audit).WithClock(clock.Now)
	f := &pipelineFixture{
		store:      store,
		mem:        mem,
		classifier: &stubClassifier{res: res},
		blobs:      newMemBlobs(),
		notifier:   &recordingNotifier{},
		rewards:    rewards,
		user:       seedUser(t, mem, "hunter"),
	}
	f.pipeline = NewPipelineService(store, f.classifier, describer, f.blobs, rewards, audit, PipelineConfig{
		AutoPublishThreshold:   40,
		VerifiedScamConfidence: 70,
		MaxImageBytes:          1 << 20,
	}).WithClock(clock.Now).WithNotifier(f.notifier)
	return f
}

func (f *pipelineFixture) postCount(t *testing.T) int {
	t.Helper()
	n, err := f.store.CountPosts(context.Background(), "")
	require.NoError(t, err)
	return n
}

func TestSubmit_HighSixtyPublishesUnverified(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, verdictResult(domain.RiskHigh, 60, true), stubDescriber{text: "택배 문자 주의하세요"})

	res, err := f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, pngBytes, "image/png")
	require.NoError(t, err)

	assert.Equal(t, 48, res.ScamScore)
	assert.True(t, res.Published)
	assert.True(t, res.Rewarded)
	assert.Equal(t, int64(100), res.PointsEarned)
	require.NotEmpty(t, res.PostID)

	post, err := f.store.GetPost(ctx, res.PostID)
	require.NoError(t, err)
	assert.False(t, post.IsVerifiedScam)
	assert.Equal(t, 48, post.ScamScore)
	assert.Equal(t, "Smishing", post.ScamType)
	assert.Equal(t, []string{"Bank", "Urgent"}, post.Tags)
	assert.Equal(t, "택배 문자 주의하세요", post.Description)
	assert.Equal(t, "hunter", post.Author.Username)
	require.NotNil(t, post.ScanResult)
	assert.Equal(t, 60, post.ScanResult.ConfidenceScore)
	assert.Equal(t, 1, f.blobs.Len())

	// second report the same day still publishes but earns nothing
	res2, err := f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, pngBytes, "image/png")
	require.NoError(t, err)
	assert.True(t, res2.Published)
	assert.False(t, res2.Rewarded)
	assert.Zero(t, res2.PointsEarned)
	assert.Equal(t, 2, f.postCount(t))

	w, err := f.rewards.Wallet(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
	assert.Len(t, f.notifier.posts, 2)
}

func TestSubmit_VerifiedAtSeventy(t *testing.T) {
	f := newPipelineFixture(t, verdictResult(domain.RiskCritical, 70, true), nil)

	res, err := f.pipeline.AnalyzeAndPublish(context.Background(), f.user.ID, pngBytes, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, 70, res.ScamScore)
	require.NotNil(t, res.Post)
	assert.True(t, res.Post.IsVerifiedScam)
}

func TestSubmit_BelowThresholdIsPreviewOnly(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, verdictResult(domain.RiskMedium, 50, true), nil)

	res, err := f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, pngBytes, "image/png")
	require.NoError(t, err)

	assert.Equal(t, 25, res.ScamScore)
	assert.False(t, res.Published)
	assert.False(t, res.Rewarded)
	assert.Empty(t, res.PostID)
	assert.Equal(t, "Smishing", res.Verdict.ScamType)

	assert.Zero(t, f.postCount(t))
	assert.Zero(t, f.blobs.Len())
	reported, err := f.rewards.HasActivityToday(ctx, f.user.ID, domain.ActivityReport)
	require.NoError(t, err)
	assert.False(t, reported)
	assert.Empty(t, f.notifier.posts)
}

func TestSubmit_OracleErrorPersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, oracle.Result{}, nil)
	f.classifier.err = context.Canceled

	_, err := f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, pngBytes, "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Zero(t, f.postCount(t))
	assert.Zero(t, f.blobs.Len())
	_, err = f.store.GetWallet(ctx, f.user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmit_DegradedVerdictStillPublishes(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, oracle.Result{Verdict: oracle.FallbackVerdict(), Kind: oracle.KindDegraded, Cause: errors.New("timeout")}, nil)

	res, err := f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, pngBytes, "image/png")
	require.NoError(t, err)

	// MEDIUM at 60 scores 30, under the default threshold
	assert.Equal(t, 30, res.ScamScore)
	assert.True(t, res.Degraded)
	assert.False(t, res.Published)
	assert.Contains(t, res.Verdict.ExtractedTags, "Error")
}

func TestSubmit_DescriberFailureUsesTemplate(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, verdictResult(domain.RiskHigh, 90, true), stubDescriber{err: errors.New("quota")})

	res, err := f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, pngBytes, "image/png")
	require.NoError(t, err)
	require.True(t, res.Published)
	assert.Equal(t, oracle.TemplateDescription(res.Verdict), res.Post.Description)
}

func TestSubmit_StorageFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	f := newPipelineFixtureWithStore(t, &failingStore{Store: mem}, mem, verdictResult(domain.RiskHigh, 90, true), nil)

	_, err := f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, pngBytes, "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	n, err := mem.CountPosts(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n, "post must not survive without its reward claim")
	reported, err := mem.HasActivity(ctx, f.user.ID, domain.ActivityReport, domain.DayOf(wed, seoul))
	require.NoError(t, err)
	assert.False(t, reported)

	assert.Zero(t, f.blobs.Len())
	assert.Len(t, f.blobs.deleted, 1)
	assert.Empty(t, f.notifier.posts)
}

func TestPublish_ForcesPostWithDescription(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, verdictResult(domain.RiskLow, 10, false), nil)

	res, err := f.pipeline.Publish(ctx, f.user.ID, pngBytes, "image/png", "  이 번호 조심하세요  ")
	require.NoError(t, err)

	assert.Equal(t, 2, res.ScamScore)
	assert.True(t, res.Published)
	assert.Equal(t, "이 번호 조심하세요", res.Post.Description)
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, verdictResult(domain.RiskHigh, 90, true), nil)

	_, err := f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, pngBytes, "application/pdf")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, nil, "image/png")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.pipeline.AnalyzeAndPublish(ctx, f.user.ID, make([]byte, 2<<20), "image/png")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, f.classifier.calls, "invalid input must be rejected before classification")
}

func TestAnalyze_NeverPersists(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, verdictResult(domain.RiskCritical, 95, true), nil)

	res, err := f.pipeline.Analyze(ctx, f.user.ID, pngBytes, "image/png")
	require.NoError(t, err)
	assert.Equal(t, 95, res.ScamScore)
	assert.False(t, res.Published)
	assert.Zero(t, f.postCount(t))
}

func TestNotifiers_FanOut(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	Notifiers{a, b}.PostCreated(&domain.Post{ID: "p1"})
	assert.Len(t, a.posts, 1)
	assert.Len(t, b.posts, 1)
}
