package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuroread/neuroread-api/internal/models"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/response"
)

type resultFetcher interface {
	Result(ctx context.Context, diagnosisID string) (*models.DiagnosisDetail, error)
}

// ResultsHandler serves the per-diagnosis results view.
type ResultsHandler struct {
	service resultFetcher
}

// NewResultsHandler creates a new handler.
func NewResultsHandler(svc resultFetcher) *ResultsHandler {
	return &ResultsHandler{service: svc}
}

// resultPayload mirrors the shape the results page renders: the diagnosis
// plus a results object derived from the stored metrics.
type resultPayload struct {
	models.DiagnosisDetail
	Results models.KeyMetrics `json:"results"`
}

// Fetch godoc
// @Summary Fetch a diagnosis result
// @Description Returns one diagnosis with its computed metrics
// @Tags Results
// @Accept multipart/form-data
// @Produce json
// @Param diagnosis_id formData string true "Diagnosis identifier"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /results [post]
func (h *ResultsHandler) Fetch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	diagnosisID := c.PostForm("diagnosis_id")
	detail, err := h.service.Result(c.Request.Context(), diagnosisID)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := resultPayload{DiagnosisDetail: *detail, Results: detail.KeyMetrics}
	response.JSON(c, http.StatusOK, []resultPayload{payload})
}
