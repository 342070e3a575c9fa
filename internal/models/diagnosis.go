package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// KeyMetrics is the per-diagnosis metrics object persisted as JSONB.
// Only WritingDynamics is currently derived from the prediction response;
// the other two fields are reserved and stay at zero.
type KeyMetrics struct {
	MotorVariability         float64 `json:"motorVariability"`
	OrthographicIrregularity float64 `json:"orthographicIrregularity"`
	WritingDynamics          float64 `json:"writingDynamics"`
}

// Value implements driver.Valuer for JSONB storage.
func (m KeyMetrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (m *KeyMetrics) Scan(src interface{}) error {
	if src == nil {
		*m = KeyMetrics{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported key_metrics source type %T", src)
	}
}

// Diagnosis records one handwriting-sample submission and its derived score.
type Diagnosis struct {
	ID                string     `db:"diagnose_id" json:"diagnose_id"`
	UserID            string     `db:"fk_user_id" json:"fk_user_id"`
	StudentID         string     `db:"fk_student_id" json:"fk_student_id"`
	ImageUploadedLink string     `db:"image_uploaded_link" json:"image_uploaded_link"`
	DyslexiaRiskScore float64    `db:"dyslexia_risk_score" json:"dyslexia_risk_score"`
	KeyMetrics        KeyMetrics `db:"key_metrics" json:"key_metrics"`
	DiagnosedAt       time.Time  `db:"diagnosed_at" json:"diagnosed_at"`
}

// DiagnosisDetail is a diagnosis enriched with the student's display name.
type DiagnosisDetail struct {
	Diagnosis
	StudentName string `db:"student_name" json:"studentName"`
}
