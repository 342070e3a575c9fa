package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neuroread/neuroread-api/internal/models"
	"github.com/neuroread/neuroread-api/internal/repository"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/prediction"
	"github.com/neuroread/neuroread-api/pkg/storage"
)

type submissionStudentRepository interface {
	FindByName(ctx context.Context, name, userID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type submissionDiagnosisRepository interface {
	Create(ctx context.Context, diagnosis *models.Diagnosis) error
}

type predictor interface {
	Predict(ctx context.Context, imageURL, language string) (*prediction.Result, error)
}

// SubmitRequest carries one handwriting-sample upload.
type SubmitRequest struct {
	File        io.Reader
	Size        int64
	Filename    string
	ContentType string
	StudentName string
	Language    string
	UserID      string
}

// SubmissionService orchestrates the upload → prediction → persistence workflow.
type SubmissionService struct {
	students  submissionStudentRepository
	diagnoses submissionDiagnosisRepository
	store     storage.ObjectStore
	predictor predictor
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(students submissionStudentRepository, diagnoses submissionDiagnosisRepository, store storage.ObjectStore, pred predictor, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		students:  students,
		diagnoses: diagnoses,
		store:     store,
		predictor: pred,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit resolves or creates the student, uploads the sample, calls the
// prediction service and records the resulting diagnosis. A completed
// upload is deleted best-effort when a later step fails so the bucket does
// not accumulate orphans.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*models.DiagnosisDetail, error) {
	name := strings.ToLower(strings.TrimSpace(req.StudentName))
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingFields, "studentName is required")
	}
	if req.File == nil {
		return nil, appErrors.Clone(appErrors.ErrMissingFields, "file is required")
	}

	student, err := s.resolveStudent(ctx, name, req.UserID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeFilename(req.Filename))
	if err := s.store.Put(ctx, key, req.File, req.Size, req.ContentType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, appErrors.ErrUploadFailed.Message)
	}
	imageURL := s.store.PublicURL(key)

	result, err := s.predictor.Predict(ctx, imageURL, req.Language)
	if err != nil {
		s.cleanupObject(ctx, key)
		var upstream *prediction.UpstreamError
		if errors.As(err, &upstream) {
			return nil, appErrors.Wrap(err, appErrors.ErrPredictionService.Code, appErrors.ErrPredictionService.Status,
				appErrors.WithUpstreamStatus(appErrors.ErrPredictionService, upstream.Status).Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPredictionService.Code, appErrors.ErrPredictionService.Status, appErrors.ErrPredictionService.Message)
	}

	diagnosis := &models.Diagnosis{
		UserID:            req.UserID,
		StudentID:         student.ID,
		ImageUploadedLink: imageURL,
		DyslexiaRiskScore: riskScore(result.AdjustedDyslexiaScore),
		KeyMetrics: models.KeyMetrics{
			WritingDynamics: result.AdjustedDyslexiaScore,
		},
		DiagnosedAt: s.now(),
	}

	if err := s.diagnoses.Create(ctx, diagnosis); err != nil {
		s.cleanupObject(ctx, key)
		return nil, appErrors.Wrap(err, appErrors.ErrDiagnosisInsert.Code, appErrors.ErrDiagnosisInsert.Status, appErrors.ErrDiagnosisInsert.Message)
	}

	return &models.DiagnosisDetail{Diagnosis: *diagnosis, StudentName: student.Name}, nil
}

// resolveStudent reuses an existing row for the normalized name or lazily
// creates one. A unique violation on create means another request won the
// race; the winner's row is loaded instead.
func (s *SubmissionService) resolveStudent(ctx context.Context, name, userID string) (*models.Student, error) {
	student, err := s.students.FindByName(ctx, name, userID)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}

	created := &models.Student{Name: name, UserID: userID}
	if err := s.students.Create(ctx, created); err != nil {
		if repository.IsUniqueViolation(err) {
			existing, findErr := s.students.FindByName(ctx, name, userID)
			if findErr == nil {
				return existing, nil
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStudentCreate.Code, appErrors.ErrStudentCreate.Status, appErrors.ErrStudentCreate.Message)
	}
	return created, nil
}

func (s *SubmissionService) cleanupObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove uploaded object after error", zap.String("key", key), zap.Error(err))
	}
}

// riskScore maps the model's 0..1 indicator onto the 0..100 scale shown to users.
func riskScore(adjusted float64) float64 {
	score := math.Round(adjusted * 100)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
