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

// StudentRepository provides database access for diagnosed students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByName returns the owner's student with the given normalized name.
func (r *StudentRepository) FindByName(ctx context.Context, name, userID string) (*models.Student, error) {
	const query = `SELECT student_id, student_name, fk_user_id, created_at FROM students WHERE student_name = $1 AND fk_user_id = $2 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, name, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by name: %w", err)
	}
	return &student, nil
}

// Create inserts a new student row. The (student_name, fk_user_id) unique
// index resolves concurrent creations; callers translate the violation.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO students (student_id, student_name, fk_user_id, created_at) VALUES (:student_id, :student_name, :fk_user_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}
