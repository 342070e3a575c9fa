package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroread/neuroread-api/internal/models"
	"github.com/neuroread/neuroread-api/internal/service"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
)

type fakeSubmitSrv struct {
	detail  *models.DiagnosisDetail
	err     error
	lastReq service.SubmitRequest
}

func (f *fakeSubmitSrv) Submit(_ context.Context, req service.SubmitRequest) (*models.DiagnosisDetail, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

type fakeDiagnosisLister struct {
	details []models.DiagnosisDetail
}

func (f *fakeDiagnosisLister) ListForUser(context.Context, string) ([]models.DiagnosisDetail, error) {
	return f.details, nil
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, filename string, fileBody []byte) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(fileBody)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDashboardHandlerListRequiresSession(t *testing.T) {
	handler := NewDashboardHandler(&fakeSubmitSrv{}, &fakeDiagnosisLister{}, nil)

	c, rec := testContext(t)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerList(t *testing.T) {
	lister := &fakeDiagnosisLister{details: []models.DiagnosisDetail{
		{Diagnosis: models.Diagnosis{ID: "d1", DyslexiaRiskScore: 70}, StudentName: "asha"},
	}}
	handler := NewDashboardHandler(&fakeSubmitSrv{}, lister, nil)

	c, rec := testContext(t)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	withClaims(c, "u1")

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Diagnosis []models.DiagnosisDetail `json:"diagnosis"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Diagnosis, 1)
	assert.Equal(t, "asha", envelope.Data.Diagnosis[0].StudentName)
}

func TestDashboardHandlerSubmit(t *testing.T) {
	srv := &fakeSubmitSrv{detail: &models.DiagnosisDetail{
		Diagnosis:   models.Diagnosis{ID: "d1", DyslexiaRiskScore: 70, KeyMetrics: models.KeyMetrics{WritingDynamics: 0.7}},
		StudentName: "asha",
	}}
	handler := NewDashboardHandler(srv, &fakeDiagnosisLister{}, nil)

	c, rec := testContext(t)
	c.Request = multipartRequest(t, "/dashboard", map[string]string{
		"studentName": "Asha",
		"language":    "en",
	}, "file", "sample.png", []byte("png-bytes"))
	withClaims(c, "u1")

	handler.Submit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Asha", srv.lastReq.StudentName)
	assert.Equal(t, "en", srv.lastReq.Language)
	assert.Equal(t, "u1", srv.lastReq.UserID)
	assert.Equal(t, "sample.png", srv.lastReq.Filename)
	assert.Contains(t, rec.Body.String(), `"dyslexia_risk_score":70`)
}

func TestDashboardHandlerSubmitMissingFile(t *testing.T) {
	handler := NewDashboardHandler(&fakeSubmitSrv{}, &fakeDiagnosisLister{}, nil)

	c, rec := testContext(t)
	c.Request = multipartRequest(t, "/dashboard", map[string]string{"studentName": "Asha"}, "", "", nil)
	withClaims(c, "u1")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerSubmitPredictionFailure(t *testing.T) {
	srv := &fakeSubmitSrv{err: appErrors.ErrPredictionService}
	handler := NewDashboardHandler(srv, &fakeDiagnosisLister{}, nil)

	c, rec := testContext(t)
	c.Request = multipartRequest(t, "/dashboard", map[string]string{"studentName": "Asha"}, "file", "sample.png", []byte("png-bytes"))
	withClaims(c, "u1")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
