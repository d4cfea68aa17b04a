package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scamfeed/internal/domain"

	"github.com/jackc/pgx/v5"
)

const postSelect = `
	SELECT p.id, p.user_id, p.image_url, COALESCE(p.description, ''), COALESCE(p.scam_type, ''), p.tags,
	       p.like_count, p.comment_count, p.is_verified_scam, p.scam_score, p.created_at,
	       u.username, u.avatar, u.level, u.is_verified,
	       s.id, s.is_scam, s.confidence_score, s.scam_type, s.risk_level, s.extracted_tags, COALESCE(s.analysis, ''), s.created_at
	FROM posts p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN scan_results s ON s.post_id = p.id`

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO posts (id, user_id, image_url, description, scam_type, tags, is_verified_scam, scam_score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		p.ID, p.UserID, p.ImageURL, p.Description, p.ScamType, p.Tags, p.IsVerifiedScam, p.ScamScore, p.CreatedAt,
	)
	return err
}

// CreateScanResult attaches the verdict to its post. scan_results.post_id is
// unique, so a second verdict for the same post fails.
func (r *PostRepository) CreateScanResult(ctx context.Context, s *domain.ScanResult) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	tags := s.ExtractedTags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO scan_results (id, post_id, is_scam, confidence_score, scam_type, risk_level, extracted_tags, analysis, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.PostID, s.IsScam, s.ConfidenceScore, s.ScamType, s.RiskLevel, tags, s.Analysis, s.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	p, err := scanPost(r.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns a page of posts, newest first
func (r *PostRepository) List(ctx context.Context, f PostFilter) ([]*domain.Post, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}

	var (
		rows pgx.Rows
		err  error
	)
	if f.ScamType != "" {
		rows, err = r.db.Query(ctx, postSelect+`
			WHERE p.scam_type = $1
			ORDER BY p.created_at DESC, p.id
			LIMIT $2 OFFSET $3`, f.ScamType, f.Limit, f.Offset)
	} else {
		rows, err = r.db.Query(ctx, postSelect+`
			ORDER BY p.created_at DESC, p.id
			LIMIT $1 OFFSET $2`, f.Limit, f.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Count returns the number of posts, optionally of one scam type
func (r *PostRepository) Count(ctx context.Context, scamType string) (int, error) {
	var n int
	var err error
	if scamType != "" {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE scam_type = $1`, scamType).Scan(&n)
	} else {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	}
	return n, err
}

// CountSince counts posts created at or after since
func (r *PostRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

// RecentScamTypes returns the scam_type of the newest typed posts, newest first
func (r *PostRepository) RecentScamTypes(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT scam_type FROM posts
		 WHERE scam_type IS NOT NULL AND scam_type <> ''
		 ORDER BY created_at DESC, id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// ToggleLike likes the post if the user has not, unlikes it otherwise.
// The post row is locked so like_count stays in step with the likes table.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT like_count FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, ErrNotFound
	}
	if err != nil {
		return false, 0, err
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, 0, err
	}

	liked := tag.RowsAffected() == 0
	delta := -1
	if liked {
		if _, err := r.db.Exec(ctx, `INSERT INTO likes (post_id, user_id) VALUES ($1, $2)`, postID, userID); err != nil {
			return false, 0, fmt.Errorf("insert like: %w", err)
		}
		delta = 1
	}

	err = r.db.QueryRow(ctx,
		`UPDATE posts SET like_count = GREATEST(like_count + $2, 0), updated_at = NOW()
		 WHERE id = $1 RETURNING like_count`,
		postID, delta,
	).Scan(&count)
	return liked, count, err
}

func (r *PostRepository) IncrementCommentCount(ctx context.Context, postID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE posts SET comment_count = comment_count + 1, updated_at = NOW() WHERE id = $1`, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		p        domain.Post
		scanID   *string
		isScam   *bool
		conf     *int
		sType    *string
		risk     *string
		sTags    []string
		analysis string
		scanAt   *time.Time
	)
	if err := row.Scan(
		&p.ID, &p.UserID, &p.ImageURL, &p.Description, &p.ScamType, &p.Tags,
		&p.LikeCount, &p.CommentCount, &p.IsVerifiedScam, &p.ScamScore, &p.CreatedAt,
		&p.Author.Username, &p.Author.Avatar, &p.Author.Level, &p.Author.IsVerified,
		&scanID, &isScam, &conf, &sType, &risk, &sTags, &analysis, &scanAt,
	); err != nil {
		return nil, err
	}
	p.Author.ID = p.UserID
	if p.Tags == nil {
		p.Tags = []string{}
	}

	if scanID != nil {
		p.ScanResult = &domain.ScanResult{
			ID:     *scanID,
			PostID: p.ID,
			Verdict: domain.Verdict{
				IsScam:          *isScam,
				ConfidenceScore: *conf,
				ScamType:        *sType,
				RiskLevel:       domain.RiskLevel(*risk),
				ExtractedTags:   sTags,
				Analysis:        analysis,
			},
			CreatedAt: *scanAt,
		}
	}
	return &p, nil
}
