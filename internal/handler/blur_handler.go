package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuroread/neuroread-api/internal/service"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/response"
)

// BlurHandler screens uploads for sharpness before submission.
type BlurHandler struct {
	service *service.BlurService
}

// NewBlurHandler creates a new handler.
func NewBlurHandler(svc *service.BlurService) *BlurHandler {
	return &BlurHandler{service: svc}
}

// Check godoc
// @Summary Pre-check image sharpness
// @Description Computes a Laplacian-variance blur score for the uploaded image
// @Tags Dashboard
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image to check"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /check-blur [post]
func (h *BlurHandler) Check(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file"))
		return
	}
	defer file.Close() //nolint:errcheck

	check, err := h.service.Check(file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, check)
}
