package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"scamfeed/internal/cache"
	"scamfeed/internal/domain"
	"scamfeed/internal/logger"
	"scamfeed/internal/repository"

	"github.com/google/uuid"
)

const (
	trendingSample   = 100
	trendingTop      = 5
	maxCommentLength = 1000
	// preventionRate is a fixed figure shown on the stats card
	preventionRate = 89
)

type PostPage struct {
	Posts []*domain.Post `json:"posts"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
	Reward
}

type CommentResult struct {
	*domain.Comment
	Reward
}

type FeedStats struct {
	TodayReports   int `json:"today_reports"`
	ActiveHunters  int `json:"active_hunters"`
	PreventionRate int `json:"prevention_rate"`
}

// FeedService serves the public feed: posts, likes, comments and stats.
type FeedService struct {
	store    repository.Store
	rewards  *RewardService
	trending *cache.TrendingCache
	loc      *time.Location
	now      func() time.Time
}

func NewFeedService(store repository.Store, rewards *RewardService, trending *cache.TrendingCache, loc *time.Location) *FeedService {
	if loc == nil {
		loc = time.UTC
	}
	return &FeedService{store: store, rewards: rewards, trending: trending, loc: loc, now: time.Now}
}

func (s *FeedService) WithClock(now func() time.Time) *FeedService {
	s.now = now
	return s
}

func parseID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return validationErr("invalid id %q", id)
	}
	return nil
}

// ListPosts returns one page of the feed, newest first. page starts at 1.
func (s *FeedService) ListPosts(ctx context.Context, page, size int, scamType string) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 10
	}
	scamType = strings.TrimSpace(scamType)

	total, err := s.store.CountPosts(ctx, scamType)
	if err != nil {
		return nil, storeErr("count posts", err)
	}
	posts, err := s.store.ListPosts(ctx, repository.PostFilter{
		ScamType: scamType,
		Limit:    size,
		Offset:   (page - 1) * size,
	})
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	if posts == nil {
		posts = []*domain.Post{}
	}
	return &PostPage{Posts: posts, Total: total, Page: page, Size: size}, nil
}

func (s *FeedService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	return p, nil
}

// ToggleLike flips the user's like. A new like earns the daily like reward.
func (s *FeedService) ToggleLike(ctx context.Context, userID, postID string) (*LikeResult, error) {
	if err := parseID(postID); err != nil {
		return nil, err
	}

	var res LikeResult
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		res.Liked, res.LikeCount, err = tx.ToggleLike(ctx, postID, userID)
		if err != nil || !res.Liked {
			return err
		}
		res.Reward, err = s.rewards.RewardForLikeTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, storeErr("toggle like", err)
	}
	if res.Liked {
		s.rewards.Observe(ctx, userID, domain.ActivitySocialLike, res.Reward)
	}
	return &res, nil
}

func (s *FeedService) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	return comments, nil
}

// AddComment stores the comment and grants the daily comment reward.
func (s *FeedService) AddComment(ctx context.Context, userID, postID, content string) (*CommentResult, error) {
	if err := parseID(postID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr("comment is empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, validationErr("comment exceeds %d characters", maxCommentLength)
	}

	c := &domain.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now(),
	}
	var reward Reward
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateComment(ctx, c); err != nil {
			return err
		}
		var err error
		reward, err = s.rewards.RewardForCommentTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, storeErr("add comment", err)
	}
	s.rewards.Observe(ctx, userID, domain.ActivitySocialComment, reward)

	c.Author = domain.UserPublic{ID: userID}
	if u, err := s.store.GetUserByID(ctx, userID); err == nil {
		c.Author = u.Public()
	}
	return &CommentResult{Comment: c, Reward: reward}, nil
}

// Trending returns the most frequent scam types among recent posts,
// served from the cache when possible.
func (s *FeedService) Trending(ctx context.Context) ([]domain.TrendingType, error) {
	if items, ok, err := s.trending.Get(ctx); err != nil {
		logger.Warn("trending cache read failed", "error", err)
	} else if ok {
		return items, nil
	}
	return s.refresh(ctx)
}

// RefreshTrending recomputes the trending list and stores it in the cache.
func (s *FeedService) RefreshTrending(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

// PostCreated drops the cached trending list so the next read sees the new post.
func (s *FeedService) PostCreated(p *domain.Post) {
	if err := s.trending.Invalidate(context.Background()); err != nil {
		logger.Warn("trending cache invalidate failed", "error", err, "post_id", p.ID)
	}
}

func (s *FeedService) refresh(ctx context.Context) ([]domain.TrendingType, error) {
	types, err := s.store.RecentScamTypes(ctx, trendingSample)
	if err != nil {
		return nil, storeErr("recent scam types", err)
	}
	items := rankTypes(types, trendingTop)
	if err := s.trending.Set(ctx, items); err != nil {
		logger.Warn("trending cache write failed", "error", err)
	}
	return items, nil
}

// rankTypes counts occurrences and keeps the top n. Ties keep first-seen order.
func rankTypes(types []string, n int) []domain.TrendingType {
	index := make(map[string]int)
	items := []domain.TrendingType{}
	for _, t := range types {
		if i, ok := index[t]; ok {
			items[i].Count++
			continue
		}
		index[t] = len(items)
		items = append(items, domain.TrendingType{Type: t, Count: 1})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Count > items[j].Count })
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// StatsSummary reports today's posts and the number of registered users
func (s *FeedService) StatsSummary(ctx context.Context) (*FeedStats, error) {
	y, m, d := s.now().In(s.loc).Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	today, err := s.store.CountPostsSince(ctx, startOfDay)
	if err != nil {
		return nil, storeErr("count today's posts", err)
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, storeErr("count users", err)
	}
	return &FeedStats{TodayReports: today, ActiveHunters: users, PreventionRate: preventionRate}, nil
}
