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

// DiagnosisRepository provides database access for diagnosis records.
type DiagnosisRepository struct {
	db *sqlx.DB
}

// NewDiagnosisRepository creates a new instance of DiagnosisRepository.
func NewDiagnosisRepository(db *sqlx.DB) *DiagnosisRepository {
	return &DiagnosisRepository{db: db}
}

// Create inserts a new diagnosis row.
func (r *DiagnosisRepository) Create(ctx context.Context, diagnosis *models.Diagnosis) error {
	if diagnosis.ID == "" {
		diagnosis.ID = uuid.NewString()
	}
	if diagnosis.DiagnosedAt.IsZero() {
		diagnosis.DiagnosedAt = time.Now().UTC()
	}

	const query = `INSERT INTO diagnosis (diagnose_id, fk_user_id, fk_student_id, image_uploaded_link, dyslexia_risk_score, key_metrics, diagnosed_at) VALUES (:diagnose_id, :fk_user_id, :fk_student_id, :image_uploaded_link, :dyslexia_risk_score, :key_metrics, :diagnosed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, diagnosis); err != nil {
		return fmt.Errorf("create diagnosis: %w", err)
	}
	return nil
}

// FindByID returns one diagnosis enriched with the student name.
func (r *DiagnosisRepository) FindByID(ctx context.Context, id string) (*models.DiagnosisDetail, error) {
	const query = `SELECT d.diagnose_id, d.fk_user_id, d.fk_student_id, d.image_uploaded_link, d.dyslexia_risk_score, d.key_metrics, d.diagnosed_at, s.student_name
        FROM diagnosis d JOIN students s ON s.student_id = d.fk_student_id WHERE d.diagnose_id = $1 LIMIT 1`
	var detail models.DiagnosisDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find diagnosis by id: %w", err)
	}
	return &detail, nil
}

// ListByUser returns the caller's diagnoses, newest first, with student
// names joined in one round trip.
func (r *DiagnosisRepository) ListByUser(ctx context.Context, userID string) ([]models.DiagnosisDetail, error) {
	const query = `SELECT d.diagnose_id, d.fk_user_id, d.fk_student_id, d.image_uploaded_link, d.dyslexia_risk_score, d.key_metrics, d.diagnosed_at, s.student_name
        FROM diagnosis d JOIN students s ON s.student_id = d.fk_student_id WHERE d.fk_user_id = $1 ORDER BY d.diagnosed_at DESC`
	var details []models.DiagnosisDetail
	if err := r.db.SelectContext(ctx, &details, query, userID); err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	return details, nil
}
