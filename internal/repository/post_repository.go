package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/neuroread/neuroread-api/internal/models"
)

// PostRepository provides database access for community posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new instance of PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// List returns all posts, newest first, with poster name and avatar joined.
func (r *PostRepository) List(ctx context.Context) ([]models.PostDetail, error) {
	const query = `SELECT p.post_id, p.fk_user_id, p.description, p.image_link, p.likes, p.tags, p.created_at, u.name AS username, u.profile_pic_link
        FROM posts p LEFT JOIN users u ON u.id = p.fk_user_id ORDER BY p.created_at DESC`
	var posts []models.PostDetail
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Create inserts a new post row.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO posts (post_id, fk_user_id, description, image_link, likes, tags, created_at) VALUES (:post_id, :fk_user_id, :description, :image_link, :likes, :tags, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// ApplyLikeDelta atomically adjusts the like counter and returns the new
// value. The floor at zero is enforced in the same statement, so concurrent
// callers accumulate instead of overwriting each other.
func (r *PostRepository) ApplyLikeDelta(ctx context.Context, postID string, delta int) (int, error) {
	const query = `UPDATE posts SET likes = GREATEST(likes + $2, 0) WHERE post_id = $1 RETURNING likes`
	var likes int
	if err := r.db.GetContext(ctx, &likes, query, postID, delta); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("apply like delta: %w", err)
	}
	return likes, nil
}
