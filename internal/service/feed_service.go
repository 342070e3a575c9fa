package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neuroread/neuroread-api/internal/models"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/storage"
)

const feedCacheKey = "feed:posts"

type feedPostRepository interface {
	List(ctx context.Context) ([]models.PostDetail, error)
	Create(ctx context.Context, post *models.Post) error
	ApplyLikeDelta(ctx context.Context, postID string, delta int) (int, error)
}

type feedCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CreatePostRequest carries a new community post.
type CreatePostRequest struct {
	Description string
	Tags        string
	UserID      string
	Image       io.Reader
	ImageSize   int64
	ImageName   string
	ContentType string
}

// LikeRequest mutates a post's like counter by one in either direction.
type LikeRequest struct {
	PostID string
	Action models.LikeAction
}

// FeedService serves the community feed.
type FeedService struct {
	posts    feedPostRepository
	cache    feedCache
	store    storage.ObjectStore
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewFeedService constructs a FeedService.
func NewFeedService(posts feedPostRepository, cache feedCache, store storage.ObjectStore, logger *zap.Logger, cacheTTL time.Duration) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &FeedService{
		posts:    posts,
		cache:    cache,
		store:    store,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns all posts with poster details, serving from cache when fresh.
// The second return value reports a cache hit.
func (s *FeedService) List(ctx context.Context) ([]models.PostDetail, bool, error) {
	if s.cache != nil {
		var cached []models.PostDetail
		if err := s.cache.Get(ctx, feedCacheKey, &cached); err == nil {
			return cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("feed cache read failed", zap.Error(err))
		}
	}

	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	if posts == nil {
		posts = []models.PostDetail{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, feedCacheKey, posts, s.cacheTTL); err != nil {
			s.logger.Warn("feed cache write failed", zap.Error(err))
		}
	}

	return posts, false, nil
}

// CreatePost stores a new post, uploading the optional image first.
func (s *FeedService) CreatePost(ctx context.Context, req CreatePostRequest) (*models.Post, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingFields, "description is required")
	}

	post := &models.Post{
		UserID:      req.UserID,
		Description: description,
		Tags:        strings.TrimSpace(req.Tags),
	}

	if req.Image != nil {
		key := fmt.Sprintf("posts/%d-%s", s.now().UnixMilli(), sanitizeFilename(req.ImageName))
		if err := s.store.Put(ctx, key, req.Image, req.ImageSize, req.ContentType); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, appErrors.ErrUploadFailed.Message)
		}
		url := s.store.PublicURL(key)
		post.ImageLink = &url
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}

	s.invalidate(ctx)
	return post, nil
}

// Like applies a server-side increment or decrement to the post's counter.
// The repository statement is atomic, so concurrent likes accumulate and
// the count never drops below zero.
func (s *FeedService) Like(ctx context.Context, req LikeRequest) (int, error) {
	if strings.TrimSpace(req.PostID) == "" {
		return 0, appErrors.Clone(appErrors.ErrMissingFields, "post_id is required")
	}

	var delta int
	switch req.Action {
	case models.LikeActionLike, "":
		delta = 1
	case models.LikeActionUnlike:
		delta = -1
	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, "action must be like or unlike")
	}

	likes, err := s.posts.ApplyLikeDelta(ctx, req.PostID, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update likes")
	}

	s.invalidate(ctx)
	return likes, nil
}

func (s *FeedService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, feedCacheKey); err != nil {
		s.logger.Warn("feed cache invalidation failed", zap.Error(err))
	}
}
