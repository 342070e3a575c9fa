package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuroread/neuroread-api/internal/models"
	"github.com/neuroread/neuroread-api/internal/service"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/response"
)

type submitter interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*models.DiagnosisDetail, error)
}

type diagnosisLister interface {
	ListForUser(ctx context.Context, userID string) ([]models.DiagnosisDetail, error)
}

// DashboardHandler serves the submission workflow and the recent-diagnoses view.
type DashboardHandler struct {
	submissions submitter
	diagnoses   diagnosisLister
	metrics     *service.MetricsService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(submissions submitter, diagnoses diagnosisLister, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{submissions: submissions, diagnoses: diagnoses, metrics: metrics}
}

// List godoc
// @Summary Recent diagnoses
// @Description Returns the caller's diagnoses, newest first
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	details, err := h.diagnoses.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"diagnosis": details})
}

// Submit godoc
// @Summary Submit a handwriting sample
// @Description Uploads the sample, calls the prediction service and records a diagnosis
// @Tags Dashboard
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Handwriting sample"
// @Param studentName formData string true "Student name"
// @Param language formData string false "Sample language"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /dashboard [post]
func (h *DashboardHandler) Submit(c *gin.Context) {
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

	detail, err := h.submissions.Submit(c.Request.Context(), service.SubmitRequest{
		File:        file,
		Size:        fileHeader.Size,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		StudentName: c.PostForm("studentName"),
		Language:    c.PostForm("language"),
		UserID:      claims.UserID,
	})
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveSubmission("error")
		}
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveSubmission("ok")
	}
	response.JSON(c, http.StatusOK, gin.H{"diagnosis": detail})
}
