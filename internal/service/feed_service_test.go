package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroread/neuroread-api/internal/models"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
)

type mockFeedRepo struct {
	posts      []models.PostDetail
	listCalls  int
	created    []*models.Post
	likes      map[string]int
	deltaCalls []int
}

func (m *mockFeedRepo) List(_ context.Context) ([]models.PostDetail, error) {
	m.listCalls++
	return m.posts, nil
}

func (m *mockFeedRepo) Create(_ context.Context, post *models.Post) error {
	post.ID = "p-new"
	m.created = append(m.created, post)
	return nil
}

func (m *mockFeedRepo) ApplyLikeDelta(_ context.Context, postID string, delta int) (int, error) {
	if m.likes == nil {
		return 0, sql.ErrNoRows
	}
	likes, ok := m.likes[postID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	likes += delta
	if likes < 0 {
		likes = 0
	}
	m.likes[postID] = likes
	m.deltaCalls = append(m.deltaCalls, delta)
	return likes, nil
}

type mockFeedCache struct {
	entries map[string][]byte
	deletes []string
}

func (m *mockFeedCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockFeedCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = raw
	return nil
}

func (m *mockFeedCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
		m.deletes = append(m.deletes, key)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func TestFeedServiceListCachesResult(t *testing.T) {
	repo := &mockFeedRepo{posts: []models.PostDetail{
		{Post: models.Post{ID: "p1", Description: "hello", Likes: 2}, Username: strPtr("Parent A")},
	}}
	cache := &mockFeedCache{}
	svc := NewFeedService(repo, cache, &mockObjectStore{}, nil, time.Minute)

	posts, hit, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, repo.listCalls)

	posts, hit, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, 1, repo.listCalls)
}

func TestFeedServiceListEmptyFeed(t *testing.T) {
	svc := NewFeedService(&mockFeedRepo{}, &mockFeedCache{}, &mockObjectStore{}, nil, time.Minute)

	posts, hit, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestFeedServiceCreatePost(t *testing.T) {
	repo := &mockFeedRepo{}
	cache := &mockFeedCache{entries: map[string][]byte{feedCacheKey: []byte(`[]`)}}
	store := &mockObjectStore{}
	svc := NewFeedService(repo, cache, store, nil, time.Minute)

	post, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Description: "  my first post ",
		Tags:        "reading",
		UserID:      "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "my first post", post.Description)
	assert.Nil(t, post.ImageLink)
	assert.Empty(t, store.puts)

	// cache invalidated so the next list sees the new post
	assert.Contains(t, cache.deletes, feedCacheKey)
}

func TestFeedServiceCreatePostWithImage(t *testing.T) {
	repo := &mockFeedRepo{}
	store := &mockObjectStore{}
	svc := NewFeedService(repo, &mockFeedCache{}, store, nil, time.Minute)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }

	post, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Description: "with picture",
		UserID:      "u1",
		Image:       strings.NewReader("png-bytes"),
		ImageSize:   9,
		ImageName:   "pic.png",
		ContentType: "image/png",
	})
	require.NoError(t, err)
	require.Len(t, store.puts, 1)
	assert.Equal(t, "posts/1700000000000-pic.png", store.puts[0])
	require.NotNil(t, post.ImageLink)
	assert.Contains(t, *post.ImageLink, store.puts[0])
}

func TestFeedServiceCreatePostMissingDescription(t *testing.T) {
	svc := NewFeedService(&mockFeedRepo{}, &mockFeedCache{}, &mockObjectStore{}, nil, time.Minute)

	_, err := svc.CreatePost(context.Background(), CreatePostRequest{Description: "  ", UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingFields.Code, appErrors.FromError(err).Code)
}

func TestFeedServiceLike(t *testing.T) {
	repo := &mockFeedRepo{likes: map[string]int{"p1": 2}}
	cache := &mockFeedCache{entries: map[string][]byte{feedCacheKey: []byte(`[]`)}}
	svc := NewFeedService(repo, cache, &mockObjectStore{}, nil, time.Minute)

	likes, err := svc.Like(context.Background(), LikeRequest{PostID: "p1", Action: models.LikeActionLike})
	require.NoError(t, err)
	assert.Equal(t, 3, likes)
	assert.Contains(t, cache.deletes, feedCacheKey)

	// empty action defaults to a like
	likes, err = svc.Like(context.Background(), LikeRequest{PostID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 4, likes)
}

func TestFeedServiceUnlikeFloorsAtZero(t *testing.T) {
	repo := &mockFeedRepo{likes: map[string]int{"p1": 0}}
	svc := NewFeedService(repo, &mockFeedCache{}, &mockObjectStore{}, nil, time.Minute)

	likes, err := svc.Like(context.Background(), LikeRequest{PostID: "p1", Action: models.LikeActionUnlike})
	require.NoError(t, err)
	assert.Equal(t, 0, likes)
}

func TestFeedServiceLikeUnknownPost(t *testing.T) {
	svc := NewFeedService(&mockFeedRepo{likes: map[string]int{}}, &mockFeedCache{}, &mockObjectStore{}, nil, time.Minute)

	_, err := svc.Like(context.Background(), LikeRequest{PostID: "missing", Action: models.LikeActionLike})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeedServiceLikeInvalidAction(t *testing.T) {
	svc := NewFeedService(&mockFeedRepo{}, &mockFeedCache{}, &mockObjectStore{}, nil, time.Minute)

	_, err := svc.Like(context.Background(), LikeRequest{PostID: "p1", Action: "boost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
