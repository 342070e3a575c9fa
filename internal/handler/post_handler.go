package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neuroread/neuroread-api/internal/models"
	"github.com/neuroread/neuroread-api/internal/service"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/response"
)

type feedService interface {
	List(ctx context.Context) ([]models.PostDetail, bool, error)
	CreatePost(ctx context.Context, req service.CreatePostRequest) (*models.Post, error)
	Like(ctx context.Context, req service.LikeRequest) (int, error)
}

// PostHandler serves the community feed.
type PostHandler struct {
	service feedService
	metrics *service.MetricsService
}

// NewPostHandler creates a new handler.
func NewPostHandler(svc feedService, metrics *service.MetricsService) *PostHandler {
	return &PostHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary Community feed
// @Description Returns all posts with poster details
// @Tags Community
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	posts, cacheHit, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveFeedCache(cacheHit)
	}
	response.JSON(c, http.StatusOK, posts, map[string]interface{}{"cache_hit": cacheHit})
}

type postMutationPayload struct {
	Type        string `json:"type"`
	PostID      string `json:"post_id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

// Mutate godoc
// @Summary Create or like a post
// @Description Dispatches on the type field: "post" creates, "like" adjusts the counter
// @Tags Community
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts [post]
func (h *PostHandler) Mutate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	payload, fileHeader, err := h.bindMutation(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch payload.Type {
	case "post":
		h.createPost(c, claims.UserID, payload, fileHeader)
	case "like":
		h.likePost(c, payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, `type must be "post" or "like"`))
	}
}

func (h *PostHandler) bindMutation(c *gin.Context) (*postMutationPayload, *multipart.FileHeader, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "application/json") {
		var payload postMutationPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post payload")
		}
		return &payload, nil, nil
	}

	payload := &postMutationPayload{
		Type:        c.PostForm("type"),
		PostID:      c.PostForm("post_id"),
		Action:      c.PostForm("action"),
		Description: c.PostForm("description"),
		Tags:        c.PostForm("tags"),
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fileHeader = nil
	}
	return payload, fileHeader, nil
}

func (h *PostHandler) createPost(c *gin.Context, userID string, payload *postMutationPayload, fileHeader *multipart.FileHeader) {
	req := service.CreatePostRequest{
		Description: payload.Description,
		Tags:        payload.Tags,
		UserID:      userID,
	}

	if fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file"))
			return
		}
		defer file.Close() //nolint:errcheck
		req.Image = file
		req.ImageSize = fileHeader.Size
		req.ImageName = fileHeader.Filename
		req.ContentType = fileHeader.Header.Get("Content-Type")
	}

	post, err := h.service.CreatePost(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, post)
}

func (h *PostHandler) likePost(c *gin.Context, payload *postMutationPayload) {
	likes, err := h.service.Like(c.Request.Context(), service.LikeRequest{
		PostID: payload.PostID,
		Action: models.LikeAction(payload.Action),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"post_id": payload.PostID, "likes": likes})
}
