package domain

import "time"

// Post is a published scam report. Scam fields are fixed at creation;
// only the like and comment counters change afterwards.
type Post struct {
	ID             string      `db:"id" json:"id"`
	UserID         string      `db:"user_id" json:"-"`
	Author         UserPublic  `json:"user"`
	ImageURL       string      `db:"image_url" json:"imageUrl"`
	Description    string      `db:"description" json:"description"`
	ScamType       string      `db:"scam_type" json:"scamType"`
	Tags           []string    `db:"tags" json:"tags"`
	LikeCount      int         `db:"like_count" json:"likeCount"`
	CommentCount   int         `db:"comment_count" json:"commentCount"`
	IsVerifiedScam bool        `db:"is_verified_scam" json:"isVerifiedScam"`
	ScamScore      int         `db:"scam_score" json:"scamScore"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	ScanResult     *ScanResult `json:"scanResult,omitempty"`
}

// ScanResult is the verdict attached 1:1 to a post
type ScanResult struct {
	ID        string    `db:"id" json:"-"`
	PostID    string    `db:"post_id" json:"-"`
	Verdict
	CreatedAt time.Time `db:"created_at" json:"-"`
}

type Comment struct {
	ID        string     `db:"id" json:"id"`
	PostID    string     `db:"post_id" json:"-"`
	UserID    string     `db:"user_id" json:"-"`
	Author    UserPublic `json:"user"`
	Content   string     `db:"content" json:"content"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// TrendingType is a scam type with its frequency among recent posts
type TrendingType struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}
