package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroread/neuroread-api/internal/models"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/prediction"
)

type mockStudentRepo struct {
	students  map[string]*models.Student
	createErr error
	creates   int
}

func (m *mockStudentRepo) FindByName(_ context.Context, name, userID string) (*models.Student, error) {
	if s, ok := m.students[userID+"/"+name]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(_ context.Context, student *models.Student) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	student.ID = "s-new"
	if m.students == nil {
		m.students = map[string]*models.Student{}
	}
	m.students[student.UserID+"/"+student.Name] = student
	return nil
}

type mockDiagnosisRepo struct {
	createErr error
	created   []*models.Diagnosis
	byID      map[string]*models.DiagnosisDetail
	byUser    map[string][]models.DiagnosisDetail
}

func (m *mockDiagnosisRepo) Create(_ context.Context, diagnosis *models.Diagnosis) error {
	if m.createErr != nil {
		return m.createErr
	}
	diagnosis.ID = "d-new"
	m.created = append(m.created, diagnosis)
	return nil
}

func (m *mockDiagnosisRepo) FindByID(_ context.Context, id string) (*models.DiagnosisDetail, error) {
	if d, ok := m.byID[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDiagnosisRepo) ListByUser(_ context.Context, userID string) ([]models.DiagnosisDetail, error) {
	return m.byUser[userID], nil
}

type mockObjectStore struct {
	putErr  error
	puts    []string
	deletes []string
}

func (m *mockObjectStore) Put(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts = append(m.puts, key)
	return nil
}

func (m *mockObjectStore) Delete(_ context.Context, key string) error {
	m.deletes = append(m.deletes, key)
	return nil
}

func (m *mockObjectStore) PublicURL(key string) string {
	return "https://cdn.example.com/diagnosis-images/" + key
}

type mockPredictor struct {
	result    *prediction.Result
	err       error
	imageURLs []string
	languages []string
}

func (m *mockPredictor) Predict(_ context.Context, imageURL, language string) (*prediction.Result, error) {
	m.imageURLs = append(m.imageURLs, imageURL)
	m.languages = append(m.languages, language)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newTestSubmissionService(students *mockStudentRepo, diagnoses *mockDiagnosisRepo, store *mockObjectStore, pred *mockPredictor) *SubmissionService {
	svc := NewSubmissionService(students, diagnoses, store, pred, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }
	return svc
}

func sampleSubmitRequest() SubmitRequest {
	return SubmitRequest{
		File:        strings.NewReader("png-bytes"),
		Size:        9,
		Filename:    "sample scan.png",
		ContentType: "image/png",
		StudentName: " Asha ",
		Language:    "en",
		UserID:      "u1",
	}
}

func TestSubmissionServiceSubmit(t *testing.T) {
	students := &mockStudentRepo{}
	diagnoses := &mockDiagnosisRepo{}
	store := &mockObjectStore{}
	pred := &mockPredictor{result: &prediction.Result{AdjustedDyslexiaScore: 0.7}}
	svc := newTestSubmissionService(students, diagnoses, store, pred)

	detail, err := svc.Submit(context.Background(), sampleSubmitRequest())
	require.NoError(t, err)

	// student name normalized, filename sanitized, key carries the timestamp
	require.Len(t, store.puts, 1)
	assert.Equal(t, "1700000000000-sample_scan.png", store.puts[0])
	assert.Equal(t, "asha", detail.StudentName)

	// prediction receives the public URL of the uploaded object
	require.Len(t, pred.imageURLs, 1)
	assert.Equal(t, "https://cdn.example.com/diagnosis-images/1700000000000-sample_scan.png", pred.imageURLs[0])

	// score 0.7 surfaces as risk 70 and raw writingDynamics 0.7
	assert.InDelta(t, 70.0, detail.DyslexiaRiskScore, 1e-9)
	assert.InDelta(t, 0.7, detail.KeyMetrics.WritingDynamics, 1e-9)
	assert.Zero(t, detail.KeyMetrics.MotorVariability)
	assert.Zero(t, detail.KeyMetrics.OrthographicIrregularity)

	require.Len(t, diagnoses.created, 1)
	assert.Equal(t, "u1", diagnoses.created[0].UserID)
	assert.Equal(t, "s-new", diagnoses.created[0].StudentID)
	assert.Empty(t, store.deletes)
}

func TestSubmissionServiceSubmitReusesStudent(t *testing.T) {
	students := &mockStudentRepo{students: map[string]*models.Student{
		"u1/asha": {ID: "s1", Name: "asha", UserID: "u1"},
	}}
	diagnoses := &mockDiagnosisRepo{}
	pred := &mockPredictor{result: &prediction.Result{AdjustedDyslexiaScore: 0.2}}
	svc := newTestSubmissionService(students, diagnoses, &mockObjectStore{}, pred)

	detail, err := svc.Submit(context.Background(), sampleSubmitRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, students.creates)
	assert.Equal(t, "s1", detail.StudentID)
}

// raceStudentRepo misses on the first lookup, fails the insert with a unique
// violation, then serves the winner's row on the re-read.
type raceStudentRepo struct {
	first  bool
	winner *models.Student
}

func (r *raceStudentRepo) FindByName(_ context.Context, _, _ string) (*models.Student, error) {
	if r.first {
		r.first = false
		return nil, sql.ErrNoRows
	}
	return r.winner, nil
}

func (r *raceStudentRepo) Create(_ context.Context, _ *models.Student) error {
	return &pq.Error{Code: "23505", Constraint: "students_name_user_key"}
}

func TestSubmissionServiceSubmitStudentRace(t *testing.T) {
	students := &raceStudentRepo{first: true, winner: &models.Student{ID: "s-winner", Name: "asha", UserID: "u1"}}
	svc := NewSubmissionService(students, &mockDiagnosisRepo{}, &mockObjectStore{}, &mockPredictor{result: &prediction.Result{AdjustedDyslexiaScore: 0.5}}, nil)

	detail, err := svc.Submit(context.Background(), sampleSubmitRequest())
	require.NoError(t, err)
	assert.Equal(t, "s-winner", detail.StudentID)
}

func TestSubmissionServiceSubmitMissingStudentName(t *testing.T) {
	svc := newTestSubmissionService(&mockStudentRepo{}, &mockDiagnosisRepo{}, &mockObjectStore{}, &mockPredictor{})

	req := sampleSubmitRequest()
	req.StudentName = "   "
	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingFields.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceSubmitPredictionFailureCleansUpUpload(t *testing.T) {
	store := &mockObjectStore{}
	pred := &mockPredictor{err: &prediction.UpstreamError{Status: 503, Body: "model warming up"}}
	svc := newTestSubmissionService(&mockStudentRepo{}, &mockDiagnosisRepo{}, store, pred)

	_, err := svc.Submit(context.Background(), sampleSubmitRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPredictionService.Code, appErrors.FromError(err).Code)

	require.Len(t, store.deletes, 1)
	assert.Equal(t, store.puts[0], store.deletes[0])
}

func TestSubmissionServiceSubmitInsertFailureCleansUpUpload(t *testing.T) {
	store := &mockObjectStore{}
	diagnoses := &mockDiagnosisRepo{createErr: assert.AnError}
	svc := newTestSubmissionService(&mockStudentRepo{}, diagnoses, store, &mockPredictor{result: &prediction.Result{AdjustedDyslexiaScore: 0.3}})

	_, err := svc.Submit(context.Background(), sampleSubmitRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDiagnosisInsert.Code, appErrors.FromError(err).Code)
	require.Len(t, store.deletes, 1)
	assert.Equal(t, store.puts[0], store.deletes[0])
}

func TestRiskScoreClamping(t *testing.T) {
	assert.Equal(t, 0.0, riskScore(-0.5))
	assert.Equal(t, 0.0, riskScore(0))
	assert.Equal(t, 42.0, riskScore(0.42))
	assert.Equal(t, 70.0, riskScore(0.7))
	assert.Equal(t, 100.0, riskScore(1.0))
	assert.Equal(t, 100.0, riskScore(1.8))
}
