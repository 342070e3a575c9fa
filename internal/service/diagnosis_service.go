package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neuroread/neuroread-api/internal/models"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/export"
)

type diagnosisRepository interface {
	FindByID(ctx context.Context, id string) (*models.DiagnosisDetail, error)
	ListByUser(ctx context.Context, userID string) ([]models.DiagnosisDetail, error)
}

// ExportFormat selects the history download encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered history download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DiagnosisService serves diagnosis queries for the dashboard, results and
// history views.
type DiagnosisService struct {
	repo   diagnosisRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewDiagnosisService constructs a DiagnosisService.
func NewDiagnosisService(repo diagnosisRepository, logger *zap.Logger) *DiagnosisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosisService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// ListForUser returns the caller's diagnoses, newest first.
func (s *DiagnosisService) ListForUser(ctx context.Context, userID string) ([]models.DiagnosisDetail, error) {
	details, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list diagnoses")
	}
	if details == nil {
		details = []models.DiagnosisDetail{}
	}
	return details, nil
}

// Result fetches one diagnosis by identifier for the results view.
func (s *DiagnosisService) Result(ctx context.Context, diagnosisID string) (*models.DiagnosisDetail, error) {
	if strings.TrimSpace(diagnosisID) == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingFields, "diagnosis_id is required")
	}

	detail, err := s.repo.FindByID(ctx, diagnosisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no result found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	return detail, nil
}

// Export renders the caller's history as a CSV or PDF download.
func (s *DiagnosisService) Export(ctx context.Context, userID string, format ExportFormat) (*ExportResult, error) {
	details, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Risk Score", "Writing Dynamics", "Image", "Diagnosed At"},
		Rows:    make([]map[string]string, 0, len(details)),
	}
	for _, d := range details {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":          d.StudentName,
			"Risk Score":       fmt.Sprintf("%.0f", d.DyslexiaRiskScore),
			"Writing Dynamics": fmt.Sprintf("%.2f", d.KeyMetrics.WritingDynamics),
			"Image":            d.ImageUploadedLink,
			"Diagnosed At":     d.DiagnosedAt.Format("2006-01-02 15:04"),
		})
	}

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Filename: "diagnosis-history.csv", ContentType: "text/csv", Data: data}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Diagnosis History")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Filename: "diagnosis-history.pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
