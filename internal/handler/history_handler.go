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

type historyService interface {
	ListForUser(ctx context.Context, userID string) ([]models.DiagnosisDetail, error)
	Export(ctx context.Context, userID string, format service.ExportFormat) (*service.ExportResult, error)
}

// HistoryHandler serves the diagnosis history view and its downloads.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler creates a new handler.
func NewHistoryHandler(svc historyService) *HistoryHandler {
	return &HistoryHandler{service: svc}
}

// List godoc
// @Summary Diagnosis history
// @Description Returns all of the caller's diagnoses
// @Tags History
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	details, err := h.service.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"diagnosis": details})
}

// Export godoc
// @Summary Download diagnosis history
// @Description Renders the caller's history as CSV or PDF
// @Tags History
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /history/export [get]
func (h *HistoryHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.Export(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
