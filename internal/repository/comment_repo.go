package repository

import (
	"context"
	"time"

	"scamfeed/internal/domain"
)

type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO comments (id, post_id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PostID, c.UserID, c.Content, c.CreatedAt,
	)
	return err
}

// GetByPostID returns a post's comments, oldest first, with their authors
func (r *CommentRepository) GetByPostID(ctx context.Context, postID string) ([]*domain.Comment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		        u.username, u.avatar, u.level, u.is_verified
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.post_id = $1
		 ORDER BY c.created_at, c.id`,
		postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
			&c.Author.Username, &c.Author.Avatar, &c.Author.Level, &c.Author.IsVerified,
		); err != nil {
			return nil, err
		}
		c.Author.ID = c.UserID
		result = append(result, &c)
	}
	return result, rows.Err()
}
