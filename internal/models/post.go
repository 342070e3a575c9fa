package models

import "time"

// Post is a community feed entry.
type Post struct {
	ID          string    `db:"post_id" json:"post_id"`
	UserID      string    `db:"fk_user_id" json:"fk_user_id"`
	Description string    `db:"description" json:"description"`
	ImageLink   *string   `db:"image_link" json:"image_link,omitempty"`
	Likes       int       `db:"likes" json:"likes"`
	Tags        string    `db:"tags" json:"tags"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PostDetail is a post enriched with the poster's name and avatar.
type PostDetail struct {
	Post
	Username       *string `db:"username" json:"username"`
	ProfilePicLink *string `db:"profile_pic_link" json:"profile_pic_link"`
}

// LikeAction selects the direction of a like mutation.
type LikeAction string

const (
	LikeActionLike   LikeAction = "like"
	LikeActionUnlike LikeAction = "unlike"
)
