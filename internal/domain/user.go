package domain

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Avatar       string    `db:"avatar" json:"avatar"`
	Level        int       `db:"level" json:"level"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserPublic is the author card shown next to posts and comments
type UserPublic struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	Level      int    `json:"level"`
	IsVerified bool   `json:"is_verified"`
}

func (u *User) Public() UserPublic {
	return UserPublic{
		ID:         u.ID,
		Username:   u.Username,
		Avatar:     u.Avatar,
		Level:      u.Level,
		IsVerified: u.IsVerified,
	}
}
