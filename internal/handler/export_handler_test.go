package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/edudata/completion-report-api/internal/dto"
	"github.com/edudata/completion-report-api/internal/middleware"
	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/internal/service"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

type exportServiceMock struct {
	direct    *service.DirectExport
	directErr error
}

func (m *exportServiceMock) Export(context.Context, int64, models.ReportCriteria, models.ExportFormat) (*service.DirectExport, error) {
	return m.direct, m.directErr
}

type exportJobsMock struct {
	job         *models.ExportJob
	jobErr      error
	download    *service.ExportDownload
	downloadErr error
}

func (m *exportJobsMock) CreateJob(context.Context, int64, models.ReportCriteria, models.ExportFormat) (*models.ExportJob, error) {
	return m.job, m.jobErr
}

func (m *exportJobsMock) GetStatus(context.Context, string, int64, models.UserRole) (*models.ExportJob, error) {
	return m.job, m.jobErr
}

func (m *exportJobsMock) ResolveDownload(context.Context, string) (*service.ExportDownload, error) {
	return m.download, m.downloadErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func managerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: 9, Role: models.RoleManager}
}

func TestExportHandlerDirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(&exportServiceMock{
		direct: &service.DirectExport{
			Filename:    "export_20240315_100000.csv",
			ContentType: "text/csv",
			Data:        []byte("Month,Student name\n"),
		},
	}, &exportJobsMock{})

	payload, _ := json.Marshal(dto.QuickReportRequest{Courses: []int64{4}})
	c, w := newGinContext(http.MethodPost, "/exports?type=csv", payload)
	c.Set(middleware.ContextUserKey, managerClaims())

	h.Direct(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "export_20240315_100000.csv")
	require.Contains(t, w.Body.String(), "Month")
}

func TestExportHandlerDirectRejectsPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(&exportServiceMock{
		directErr: apperrors.Clone(apperrors.ErrExportType, `unsupported export format "pdf"`),
	}, &exportJobsMock{})

	payload, _ := json.Marshal(dto.QuickReportRequest{})
	c, w := newGinContext(http.MethodPost, "/exports?type=pdf", payload)
	c.Set(middleware.ContextUserKey, managerClaims())

	h.Direct(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "EXPORT_TYPE_ERROR")
}

func TestExportHandlerCreateJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(&exportServiceMock{}, &exportJobsMock{
		job: &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued, Format: models.ExportFormatPDF},
	})

	payload, _ := json.Marshal(dto.ExportJobRequest{Format: models.ExportFormatPDF})
	c, w := newGinContext(http.MethodPost, "/exports/jobs", payload)
	c.Set(middleware.ContextUserKey, managerClaims())

	h.CreateJob(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "job-1")
}

func TestExportHandlerJobStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	url := "/api/v1/exports/download?token=tok"
	h := NewExportHandler(&exportServiceMock{}, &exportJobsMock{
		job: &models.ExportJob{ID: "job-1", Status: models.ExportStatusFinished, Format: models.ExportFormatCSV, ResultURL: &url},
	})

	c, w := newGinContext(http.MethodGet, "/exports/jobs/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	h.JobStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "FINISHED")
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp("", "export*.csv")
	require.NoError(t, err)
	defer os.Remove(file.Name())
	_, _ = file.WriteString("data")
	_, _ = file.Seek(0, 0)

	h := NewExportHandler(&exportServiceMock{}, &exportJobsMock{
		download: &service.ExportDownload{
			File:      file,
			Filename:  "export_20240315_100000.csv",
			Format:    models.ExportFormatCSV,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	})

	c, w := newGinContext(http.MethodGet, "/exports/download?token=tok", nil)

	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "data", w.Body.String())
}

func TestExportHandlerDownloadMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(&exportServiceMock{}, &exportJobsMock{})

	c, w := newGinContext(http.MethodGet, "/exports/download", nil)

	h.Download(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
